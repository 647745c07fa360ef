package calc

import (
	"github.com/shopspring/decimal"
	"github.com/sysdevguru/corpactions/caerrors"
	"github.com/sysdevguru/corpactions/log"
	"github.com/sysdevguru/corpactions/models"
	"github.com/sysdevguru/corpactions/utils/env"
)

// A lot must have been held at least this many days before the ex-date for
// its dividend to keep qualified treatment (60 days before + the ex-date
// itself makes up the 61-day window, checked per lot).
const qualifiedHoldingDays = 60

// dividendCalculator produces one income event per lot. Lots are not
// mutated; the adjustment records carry before == after with the income
// amount. Withholding, when configured, is a flat rate on the aggregate.
type dividendCalculator struct{}

func (dividendCalculator) Calculate(action *models.CorporateAction, lots []models.TaxLot, ctx Context) (*Plan, error) {
	if action.AmountPerShare == nil || action.AmountPerShare.Sign() < 0 {
		return nil, caerrors.InvalidAmount
	}

	var (
		rate = *action.AmountPerShare
		plan = &Plan{}
	)

	for _, lot := range lots {
		income := lot.Quantity.Mul(rate)

		qualified := action.Qualified &&
			action.ExDate.DaysSince(lot.PurchaseDate) >= qualifiedHoldingDays

		plan.Changes = append(plan.Changes, LotChange{
			Lot:            lot,
			QuantityAfter:  lot.Quantity,
			UnitBasisAfter: lot.UnitBasis,
			Income:         income,
			Qualified:      qualified,
		})
		plan.Income = plan.Income.Add(income)
	}

	plan.Withheld = plan.Income.Mul(withholdingRate())

	return plan, nil
}

// withholdingRate reads DIVIDEND_WITHHOLDING_RATE from the environment.
// Unset or malformed values mean no withholding.
func withholdingRate() decimal.Decimal {
	s := env.GetVar("DIVIDEND_WITHHOLDING_RATE")
	if s == "" {
		return decimal.Zero
	}

	rate, err := decimal.NewFromString(s)
	if err != nil || rate.Sign() < 0 || rate.GreaterThan(one) {
		log.Warn("invalid dividend withholding rate", "value", s)
		return decimal.Zero
	}

	return rate
}
