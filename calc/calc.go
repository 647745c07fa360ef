// Package calc holds the per-action-type adjustment calculators. Each
// calculator is a pure function of the action parameters and the FIFO lot
// snapshot; persistence is the applier's job.
package calc

import (
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/sysdevguru/corpactions/caerrors"
	"github.com/sysdevguru/corpactions/models"
	"github.com/sysdevguru/corpactions/models/enum"
	"github.com/sysdevguru/corpactions/utils/date"
)

// LotChange is the planned adjustment for one existing lot. QuantityAfter
// and UnitBasisAfter are the target values; for dividends they equal the
// current values and only Income is meaningful.
type LotChange struct {
	Lot            models.TaxLot
	QuantityAfter  decimal.Decimal
	UnitBasisAfter decimal.Decimal
	CloseLot       bool
	RealizedGain   decimal.Decimal
	CashReceived   decimal.Decimal
	Income         decimal.Decimal
	Qualified      bool
	CashInLieu     decimal.Decimal
}

// NewLot describes a lot the action will create (spinoffs). SourceLotID is
// the parent lot whose basis was carved out.
type NewLot struct {
	SymbolID     uuid.UUID
	Quantity     decimal.Decimal
	UnitBasis    decimal.Decimal
	PurchaseDate date.Date
	SourceLotID  uint
}

// Plan is a deterministic adjustment plan. Aggregates are the sums over the
// per-lot entries.
type Plan struct {
	Changes      []LotChange
	NewLots      []NewLot
	RealizedGain decimal.Decimal
	Income       decimal.Decimal
	Withheld     decimal.Decimal
	CashInLieu   decimal.Decimal
}

// Context carries the symbol rows the calculators need beyond the lots
// themselves.
type Context struct {
	Symbol    models.Symbol
	NewSymbol *models.Symbol
}

type Calculator interface {
	Calculate(action *models.CorporateAction, lots []models.TaxLot, ctx Context) (*Plan, error)
}

var calculators = map[enum.CorporateActionType]Calculator{
	enum.Split:        splitCalculator{},
	enum.CashDividend: dividendCalculator{},
	enum.Merger:       mergerCalculator{},
	enum.Spinoff:      spinoffCalculator{},
}

// For returns the calculator for the action type.
func For(t enum.CorporateActionType) (Calculator, error) {
	c, ok := calculators[t]
	if !ok {
		return nil, caerrors.UnknownActionType
	}
	return c, nil
}

var one = decimal.New(1, 0)

// floorToIncrement rounds qty down to a whole multiple of inc.
func floorToIncrement(qty, inc decimal.Decimal) decimal.Decimal {
	return qty.Div(inc).Floor().Mul(inc)
}
