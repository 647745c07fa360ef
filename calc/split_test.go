package calc

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/sysdevguru/corpactions/caerrors"
	"github.com/sysdevguru/corpactions/models"
	"github.com/sysdevguru/corpactions/models/enum"
	"github.com/sysdevguru/corpactions/utils/date"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func testLot(qty, unitBasis string) models.TaxLot {
	return models.TaxLot{
		ID:           1,
		Status:       enum.LotOpen,
		Quantity:     dec(qty),
		UnitBasis:    dec(unitBasis),
		PurchaseDate: date.New(2017, time.January, 3),
	}
}

func TestForwardSplit(t *testing.T) {
	action := &models.CorporateAction{
		Type:      enum.Split,
		RatioFrom: decPtr("1"),
		RatioTo:   decPtr("2"),
	}

	plan, err := splitCalculator{}.Calculate(
		action,
		[]models.TaxLot{testLot("100", "200")},
		Context{},
	)

	assert.Nil(t, err)
	assert.Len(t, plan.Changes, 1)

	ch := plan.Changes[0]
	assert.True(t, ch.QuantityAfter.Equal(dec("200")))
	assert.True(t, ch.UnitBasisAfter.Equal(dec("100")))
	assert.True(t, ch.CashInLieu.Equal(decimal.Zero))
	assert.False(t, ch.CloseLot)

	// total basis is preserved
	assert.True(t, ch.QuantityAfter.Mul(ch.UnitBasisAfter).Equal(dec("20000")))
}

func TestReverseSplitCashInLieu(t *testing.T) {
	action := &models.CorporateAction{
		Type:      enum.Split,
		RatioFrom: decPtr("10"),
		RatioTo:   decPtr("1"),
	}

	plan, err := splitCalculator{}.Calculate(
		action,
		[]models.TaxLot{testLot("105", "10")},
		Context{},
	)

	assert.Nil(t, err)

	ch := plan.Changes[0]
	assert.True(t, ch.QuantityAfter.Equal(dec("10")))
	assert.True(t, ch.UnitBasisAfter.Equal(dec("100")))
	assert.True(t, ch.CashInLieu.Equal(dec("50")))
	assert.True(t, plan.CashInLieu.Equal(dec("50")))

	// quantity_after * unit_basis_after + cash_in_lieu == original basis
	total := ch.QuantityAfter.Mul(ch.UnitBasisAfter).Add(ch.CashInLieu)
	assert.True(t, total.Equal(dec("1050")))
}

func TestReverseSplitWipesOutLot(t *testing.T) {
	action := &models.CorporateAction{
		Type:      enum.Split,
		RatioFrom: decPtr("10"),
		RatioTo:   decPtr("1"),
	}

	plan, err := splitCalculator{}.Calculate(
		action,
		[]models.TaxLot{testLot("5", "10")},
		Context{},
	)

	assert.Nil(t, err)

	ch := plan.Changes[0]
	assert.True(t, ch.CloseLot)
	assert.True(t, ch.QuantityAfter.Equal(decimal.Zero))
	assert.True(t, ch.UnitBasisAfter.Equal(decimal.Zero))
	// the entire basis comes back as cash in lieu
	assert.True(t, ch.CashInLieu.Equal(dec("50")))
}

func TestSplitFractionalIncrement(t *testing.T) {
	action := &models.CorporateAction{
		Type:      enum.Split,
		RatioFrom: decPtr("3"),
		RatioTo:   decPtr("1"),
	}

	ctx := Context{Symbol: models.Symbol{MinIncrement: dec("0.001")}}

	plan, err := splitCalculator{}.Calculate(
		action,
		[]models.TaxLot{testLot("100", "30")},
		ctx,
	)

	assert.Nil(t, err)

	ch := plan.Changes[0]
	assert.True(t, ch.QuantityAfter.Equal(dec("33.333")))
	assert.True(t, ch.UnitBasisAfter.Equal(dec("90")))
	// residual is under one increment at the post-split basis
	assert.True(t, ch.CashInLieu.LessThanOrEqual(dec("0.001").Mul(dec("90"))))
}

func TestSplitInvalidRatio(t *testing.T) {
	for _, action := range []*models.CorporateAction{
		{Type: enum.Split},
		{Type: enum.Split, RatioFrom: decPtr("0"), RatioTo: decPtr("2")},
		{Type: enum.Split, RatioFrom: decPtr("1"), RatioTo: decPtr("-2")},
	} {
		_, err := splitCalculator{}.Calculate(action, []models.TaxLot{testLot("100", "10")}, Context{})
		assert.True(t, caerrors.Is(err, caerrors.InvalidRatio))
	}
}

func TestForUnknownType(t *testing.T) {
	_, err := For(enum.CorporateActionType("bogus"))
	assert.True(t, caerrors.Is(err, caerrors.UnknownActionType))
}
