package calc

import (
	"github.com/gofrs/uuid"
	"github.com/sysdevguru/corpactions/caerrors"
	"github.com/sysdevguru/corpactions/models"
)

// spinoffCalculator carves basis_allocation_percent of each parent lot's
// basis into a new lot on the spun-off symbol. Parent quantity is unchanged
// and the new lot inherits the parent purchase date, so
//
//	parent_basis_after + spinoff_basis == original_basis
//
// exactly per lot.
type spinoffCalculator struct{}

func (spinoffCalculator) Calculate(action *models.CorporateAction, lots []models.TaxLot, ctx Context) (*Plan, error) {
	if action.NewSymbolID == nil || *action.NewSymbolID == uuid.Nil {
		return nil, caerrors.InvalidRequestParam.WithMsg("new_symbol_id is required for spinoffs")
	}
	if action.ExchangeRatio == nil || action.ExchangeRatio.Sign() <= 0 {
		return nil, caerrors.InvalidRatio
	}
	if action.BasisAllocationPercent == nil ||
		action.BasisAllocationPercent.Sign() <= 0 ||
		action.BasisAllocationPercent.GreaterThanOrEqual(one) {
		return nil, caerrors.InvalidAmount
	}

	var (
		ratio = *action.ExchangeRatio
		alloc = *action.BasisAllocationPercent
		plan  = &Plan{}
	)

	for _, lot := range lots {
		var (
			basis       = lot.TotalBasis()
			spinQty     = lot.Quantity.Mul(ratio)
			spinBasis   = basis.Mul(alloc)
			parentBasis = basis.Sub(spinBasis)
			parentUnit  = parentBasis.Div(lot.Quantity)
			spinoffUnit = spinBasis.Div(spinQty)
		)

		plan.Changes = append(plan.Changes, LotChange{
			Lot:            lot,
			QuantityAfter:  lot.Quantity,
			UnitBasisAfter: parentUnit,
		})

		plan.NewLots = append(plan.NewLots, NewLot{
			SymbolID:     *action.NewSymbolID,
			Quantity:     spinQty,
			UnitBasis:    spinoffUnit,
			PurchaseDate: lot.PurchaseDate,
			SourceLotID:  lot.ID,
		})
	}

	return plan, nil
}
