package calc

import (
	"github.com/shopspring/decimal"
	"github.com/sysdevguru/corpactions/caerrors"
	"github.com/sysdevguru/corpactions/models"
	"github.com/sysdevguru/corpactions/models/enum"
)

// mergerCalculator dispatches on the merger type.
//
//   - stock_for_stock is tax deferred: total basis carries over onto the new
//     share count, purchase dates survive.
//   - cash closes every lot and recognizes the full gain immediately.
//   - mixed follows the boot-recognition rule: gain is recognized up to the
//     cash received, never below zero, and the carried basis is adjusted by
//     recognized gain minus cash.
type mergerCalculator struct{}

func (c mergerCalculator) Calculate(action *models.CorporateAction, lots []models.TaxLot, ctx Context) (*Plan, error) {
	if action.MergerType == nil {
		return nil, caerrors.UnknownActionType.WithMsg("unrecognized merger type")
	}

	switch *action.MergerType {
	case enum.StockForStock:
		return c.stockForStock(action, lots)
	case enum.CashMerger:
		return c.cash(action, lots)
	case enum.MixedMerger:
		return c.mixed(action, lots)
	default:
		return nil, caerrors.UnknownActionType.WithMsg("unrecognized merger type")
	}
}

func (mergerCalculator) stockForStock(action *models.CorporateAction, lots []models.TaxLot) (*Plan, error) {
	if action.ExchangeRatio == nil || action.ExchangeRatio.Sign() <= 0 {
		return nil, caerrors.InvalidRatio
	}

	var (
		ratio       = *action.ExchangeRatio
		plan        = &Plan{}
		basisBefore = decimal.Zero
		basisAfter  = decimal.Zero
	)

	for _, lot := range lots {
		totalBasis := lot.TotalBasis()
		newQty := lot.Quantity.Mul(ratio)
		newUnitBasis := totalBasis.Div(newQty)

		plan.Changes = append(plan.Changes, LotChange{
			Lot:            lot,
			QuantityAfter:  newQty,
			UnitBasisAfter: newUnitBasis,
		})

		basisBefore = basisBefore.Add(totalBasis)
		basisAfter = basisAfter.Add(newQty.Mul(newUnitBasis))
	}

	// Σ basis must survive the exchange; a cent per lot of decimal division
	// drift is the most we tolerate
	tolerance := decimal.New(int64(len(lots)), -2)
	if basisBefore.Sub(basisAfter).Abs().GreaterThan(tolerance) {
		return nil, caerrors.CalculationPrecisionError.WithMsg(
			"basis not conserved across stock merger")
	}

	return plan, nil
}

func (mergerCalculator) cash(action *models.CorporateAction, lots []models.TaxLot) (*Plan, error) {
	if action.CashPerShare == nil || action.CashPerShare.Sign() <= 0 {
		return nil, caerrors.InvalidAmount
	}

	var (
		perShare = *action.CashPerShare
		plan     = &Plan{}
	)

	for _, lot := range lots {
		cash := lot.Quantity.Mul(perShare)
		gain := cash.Sub(lot.TotalBasis())

		plan.Changes = append(plan.Changes, LotChange{
			Lot:            lot,
			QuantityAfter:  decimal.Zero,
			UnitBasisAfter: decimal.Zero,
			CloseLot:       true,
			CashReceived:   cash,
			RealizedGain:   gain,
		})
		plan.RealizedGain = plan.RealizedGain.Add(gain)
	}

	return plan, nil
}

func (mergerCalculator) mixed(action *models.CorporateAction, lots []models.TaxLot) (*Plan, error) {
	if action.ExchangeRatio == nil || action.ExchangeRatio.Sign() <= 0 {
		return nil, caerrors.InvalidRatio
	}
	if action.CashPerShare == nil || action.CashPerShare.Sign() <= 0 ||
		action.StockPrice == nil || action.StockPrice.Sign() <= 0 {
		return nil, caerrors.InvalidAmount
	}

	var (
		ratio      = *action.ExchangeRatio
		perShare   = *action.CashPerShare
		stockPrice = *action.StockPrice
		plan       = &Plan{}
	)

	for _, lot := range lots {
		var (
			basis      = lot.TotalBasis()
			newQty     = lot.Quantity.Mul(ratio)
			stockValue = newQty.Mul(stockPrice)
			cash       = lot.Quantity.Mul(perShare)
			totalGain  = stockValue.Add(cash).Sub(basis)
		)

		// boot recognition: gain up to the cash received, never negative
		recognized := decimal.Min(totalGain, cash)
		if recognized.Sign() < 0 {
			recognized = decimal.Zero
		}

		newBasis := basis.Add(recognized).Sub(cash)

		plan.Changes = append(plan.Changes, LotChange{
			Lot:            lot,
			QuantityAfter:  newQty,
			UnitBasisAfter: newBasis.Div(newQty),
			CashReceived:   cash,
			RealizedGain:   recognized,
		})
		plan.RealizedGain = plan.RealizedGain.Add(recognized)
	}

	return plan, nil
}
