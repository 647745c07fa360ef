package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofrs/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sysdevguru/corpactions/caerrors"
	"github.com/sysdevguru/corpactions/models/enum"
	"github.com/sysdevguru/corpactions/utils/date"
)

// CorporateAction is a declared corporate event against a symbol. The
// type-specific parameter columns are nullable; Validate enforces that the
// ones required by Type are present and in range before the action may leave
// pending.
type CorporateAction struct {
	ID          uuid.UUID                `json:"id" gorm:"primary_key" sql:"type:uuid;"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
	Type        enum.CorporateActionType `json:"type" gorm:"not null;index" sql:"type:text"`
	SymbolID    uuid.UUID                `json:"symbol_id" gorm:"not null;index" sql:"type:uuid;"`
	NewSymbolID *uuid.UUID               `json:"new_symbol_id" sql:"type:uuid"`
	ExDate      date.Date                `json:"ex_date" gorm:"not null" sql:"type:date"`
	Description string                   `json:"description" sql:"type:text"`

	// split
	RatioFrom *decimal.Decimal `json:"ratio_from" gorm:"type:decimal"`
	RatioTo   *decimal.Decimal `json:"ratio_to" gorm:"type:decimal"`

	// cash dividend
	AmountPerShare *decimal.Decimal `json:"amount_per_share" gorm:"type:decimal"`
	Qualified      bool             `json:"qualified"`

	// merger; StockPrice values the stock leg of mixed consideration
	MergerType    *enum.MergerType `json:"merger_type" sql:"type:text"`
	ExchangeRatio *decimal.Decimal `json:"exchange_ratio" gorm:"type:decimal"`
	CashPerShare  *decimal.Decimal `json:"cash_per_share" gorm:"type:decimal"`
	StockPrice    *decimal.Decimal `json:"stock_price" gorm:"type:decimal"`

	// spinoff (ExchangeRatio shared with merger)
	BasisAllocationPercent *decimal.Decimal `json:"basis_allocation_percent" gorm:"type:decimal"`

	Status    enum.ActionStatus `json:"status" gorm:"not null;index;type:varchar(8)"`
	AppliedAt *time.Time        `json:"applied_at"`
}

// validation.By hands inline rules the field as passed in, so these receive
// the *decimal.Decimal pointer itself; Required has already rejected nil.
func positive(value interface{}) error {
	d, ok := value.(*decimal.Decimal)
	if !ok || d == nil || d.Sign() <= 0 {
		return errors.New("must be positive")
	}
	return nil
}

func nonNegative(value interface{}) error {
	d, ok := value.(*decimal.Decimal)
	if !ok || d == nil || d.Sign() < 0 {
		return errors.New("must not be negative")
	}
	return nil
}

func fraction(value interface{}) error {
	d, ok := value.(*decimal.Decimal)
	if !ok || d == nil || d.Sign() <= 0 || d.GreaterThanOrEqual(decimal.New(1, 0)) {
		return errors.New("must be between 0 and 1 exclusive")
	}
	return nil
}

// Validate checks the type-specific parameters. It is called at creation and
// again at the start of apply, before any mutation.
func (a *CorporateAction) Validate() error {
	switch a.Type {
	case enum.Split:
		if err := validation.Validate(a.RatioFrom, validation.Required, validation.By(positive)); err != nil {
			return caerrors.InvalidRatio.WithError(errors.Wrap(err, "ratio_from"))
		}
		if err := validation.Validate(a.RatioTo, validation.Required, validation.By(positive)); err != nil {
			return caerrors.InvalidRatio.WithError(errors.Wrap(err, "ratio_to"))
		}
	case enum.CashDividend:
		if err := validation.Validate(a.AmountPerShare, validation.Required, validation.By(nonNegative)); err != nil {
			return caerrors.InvalidAmount.WithError(errors.Wrap(err, "amount_per_share"))
		}
	case enum.Merger:
		if a.MergerType == nil || !enum.ValidMergerType(*a.MergerType) {
			return caerrors.UnknownActionType.WithMsg("unrecognized merger type")
		}
		switch *a.MergerType {
		case enum.StockForStock:
			if err := validation.Validate(a.ExchangeRatio, validation.Required, validation.By(positive)); err != nil {
				return caerrors.InvalidRatio.WithError(errors.Wrap(err, "exchange_ratio"))
			}
		case enum.CashMerger:
			if err := validation.Validate(a.CashPerShare, validation.Required, validation.By(positive)); err != nil {
				return caerrors.InvalidAmount.WithError(errors.Wrap(err, "cash_per_share"))
			}
		case enum.MixedMerger:
			if err := validation.Validate(a.ExchangeRatio, validation.Required, validation.By(positive)); err != nil {
				return caerrors.InvalidRatio.WithError(errors.Wrap(err, "exchange_ratio"))
			}
			if err := validation.Validate(a.CashPerShare, validation.Required, validation.By(positive)); err != nil {
				return caerrors.InvalidAmount.WithError(errors.Wrap(err, "cash_per_share"))
			}
			if err := validation.Validate(a.StockPrice, validation.Required, validation.By(positive)); err != nil {
				return caerrors.InvalidAmount.WithError(errors.Wrap(err, "stock_price"))
			}
		}
	case enum.Spinoff:
		if a.NewSymbolID == nil || *a.NewSymbolID == uuid.Nil {
			return caerrors.InvalidRequestParam.WithMsg("new_symbol_id is required for spinoffs")
		}
		if err := validation.Validate(a.ExchangeRatio, validation.Required, validation.By(positive)); err != nil {
			return caerrors.InvalidRatio.WithError(errors.Wrap(err, "exchange_ratio"))
		}
		if err := validation.Validate(a.BasisAllocationPercent, validation.Required, validation.By(fraction)); err != nil {
			return caerrors.InvalidAmount.WithError(errors.Wrap(err, "basis_allocation_percent"))
		}
	default:
		return caerrors.UnknownActionType
	}
	return nil
}
