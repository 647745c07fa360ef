package calc

import (
	"github.com/shopspring/decimal"
	"github.com/sysdevguru/corpactions/caerrors"
	"github.com/sysdevguru/corpactions/models"
)

// splitCalculator adjusts every lot by ratio_to/ratio_from. Shares are
// rounded down to the symbol's minimum tradable increment; the basis of the
// dropped fraction is reported as cash in lieu, so per lot
//
//	quantity_after * unit_basis_after + cash_in_lieu == quantity * unit_basis
//
// within decimal division precision.
type splitCalculator struct{}

func (splitCalculator) Calculate(action *models.CorporateAction, lots []models.TaxLot, ctx Context) (*Plan, error) {
	if action.RatioFrom == nil || action.RatioFrom.Sign() <= 0 ||
		action.RatioTo == nil || action.RatioTo.Sign() <= 0 {
		return nil, caerrors.InvalidRatio
	}

	var (
		from = *action.RatioFrom
		to   = *action.RatioTo
		inc  = ctx.Symbol.Increment()
		plan = &Plan{}
	)

	for _, lot := range lots {
		rawQty := lot.Quantity.Mul(to).Div(from)
		newQty := floorToIncrement(rawQty, inc)
		newUnitBasis := lot.UnitBasis.Mul(from).Div(to)

		cashInLieu := rawQty.Sub(newQty).Mul(newUnitBasis)

		// the residual can never be worth more than one increment at the
		// post-split basis; anything larger means the math went wrong
		if cashInLieu.GreaterThan(inc.Mul(newUnitBasis)) {
			return nil, caerrors.CalculationPrecisionError.WithMsg(
				"split rounding residual exceeds one increment")
		}

		change := LotChange{
			Lot:            lot,
			QuantityAfter:  newQty,
			UnitBasisAfter: newUnitBasis,
			CashInLieu:     cashInLieu,
		}

		if newQty.Sign() == 0 {
			// reverse split wiped the lot out; the whole basis comes back
			// as cash in lieu
			change.CloseLot = true
			change.UnitBasisAfter = decimal.Zero
		}

		plan.Changes = append(plan.Changes, change)
		plan.CashInLieu = plan.CashInLieu.Add(cashInLieu)
	}

	return plan, nil
}
