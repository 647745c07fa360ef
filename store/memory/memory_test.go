package memory

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/sysdevguru/corpactions/caerrors"
	"github.com/sysdevguru/corpactions/models"
	"github.com/sysdevguru/corpactions/models/enum"
	"github.com/sysdevguru/corpactions/store"
	"github.com/sysdevguru/corpactions/utils/date"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestOpenLotsBeforeFIFO(t *testing.T) {
	s := New()

	sym := &models.Symbol{Symbol: "AAPL"}
	assert.Nil(t, s.CreateSymbol(sym))

	// inserted out of purchase order on purpose
	newest := &models.TaxLot{
		SymbolID:     sym.ID,
		Quantity:     dec("10"),
		UnitBasis:    dec("150"),
		PurchaseDate: date.New(2017, time.May, 1),
	}
	oldest := &models.TaxLot{
		SymbolID:     sym.ID,
		Quantity:     dec("100"),
		UnitBasis:    dec("90"),
		PurchaseDate: date.New(2016, time.January, 4),
	}
	onExDate := &models.TaxLot{
		SymbolID:     sym.ID,
		Quantity:     dec("5"),
		UnitBasis:    dec("160"),
		PurchaseDate: date.New(2017, time.June, 1),
	}
	for _, lot := range []*models.TaxLot{newest, oldest, onExDate} {
		assert.Nil(t, s.CreateLot(lot))
	}

	lots, err := s.OpenLotsBefore(sym.ID, date.New(2017, time.June, 1))
	assert.Nil(t, err)

	// lots purchased on the ex-date are excluded
	assert.Len(t, lots, 2)
	assert.Equal(t, oldest.ID, lots[0].ID)
	assert.Equal(t, newest.ID, lots[1].ID)
}

func TestOpenLotsBeforeExcludesClosed(t *testing.T) {
	s := New()

	sym := &models.Symbol{Symbol: "MSFT"}
	assert.Nil(t, s.CreateSymbol(sym))

	lot := &models.TaxLot{
		SymbolID:     sym.ID,
		Quantity:     dec("10"),
		UnitBasis:    dec("50"),
		PurchaseDate: date.New(2016, time.January, 4),
	}
	assert.Nil(t, s.CreateLot(lot))
	assert.Nil(t, s.CloseLot(lot.ID))

	lots, err := s.OpenLotsBefore(sym.ID, date.New(2017, time.June, 1))
	assert.Nil(t, err)
	assert.Empty(t, lots)
}

func TestLotLifecycle(t *testing.T) {
	s := New()

	sym := &models.Symbol{Symbol: "GE"}
	assert.Nil(t, s.CreateSymbol(sym))

	lot := &models.TaxLot{
		SymbolID:     sym.ID,
		Quantity:     dec("100"),
		UnitBasis:    dec("30"),
		PurchaseDate: date.New(2016, time.January, 4),
	}
	assert.Nil(t, s.CreateLot(lot))
	assert.Equal(t, enum.LotOpen, lot.Status)

	assert.Nil(t, s.MutateLot(lot.ID, dec("200"), dec("15")))

	got, err := s.GetLot(lot.ID)
	assert.Nil(t, err)
	assert.True(t, got.Quantity.Equal(dec("200")))
	assert.True(t, got.UnitBasis.Equal(dec("15")))

	assert.Nil(t, s.CloseLot(lot.ID))
	got, _ = s.GetLot(lot.ID)
	assert.Equal(t, enum.LotClosed, got.Status)
	assert.True(t, got.Quantity.Equal(decimal.Zero))

	// restore reopens the lot with the snapshot values
	assert.Nil(t, s.RestoreLot(lot.ID, dec("200"), dec("15")))
	got, _ = s.GetLot(lot.ID)
	assert.Equal(t, enum.LotOpen, got.Status)
	assert.True(t, got.Quantity.Equal(dec("200")))

	assert.Nil(t, s.DeleteLot(lot.ID))
	_, err = s.GetLot(lot.ID)
	assert.True(t, caerrors.IsNotFound(err))
}

func TestTransactionRollback(t *testing.T) {
	s := New()

	sym := &models.Symbol{Symbol: "IBM"}
	assert.Nil(t, s.CreateSymbol(sym))

	lot := &models.TaxLot{
		SymbolID:     sym.ID,
		Quantity:     dec("100"),
		UnitBasis:    dec("30"),
		PurchaseDate: date.New(2016, time.January, 4),
	}
	assert.Nil(t, s.CreateLot(lot))

	boom := errors.New("boom")
	err := s.Transaction(func(tx store.Tx) error {
		if err := tx.MutateLot(lot.ID, dec("1"), dec("1")); err != nil {
			return err
		}
		if err := tx.CreateLot(&models.TaxLot{
			SymbolID:     sym.ID,
			Quantity:     dec("5"),
			UnitBasis:    dec("10"),
			PurchaseDate: date.New(2017, time.January, 3),
		}); err != nil {
			return err
		}
		return boom
	})
	assert.Equal(t, boom, err)

	// both writes rolled back
	got, _ := s.GetLot(lot.ID)
	assert.True(t, got.Quantity.Equal(dec("100")))

	lots, _ := s.OpenLotsBefore(sym.ID, date.New(2018, time.January, 1))
	assert.Len(t, lots, 1)
}

func TestPendingActionsOrdering(t *testing.T) {
	s := New()

	sym := &models.Symbol{Symbol: "T"}
	assert.Nil(t, s.CreateSymbol(sym))

	later := &models.CorporateAction{
		Type:     enum.CashDividend,
		SymbolID: sym.ID,
		ExDate:   date.New(2017, time.September, 1),
		Status:   enum.ActionPending,
	}
	earlier := &models.CorporateAction{
		Type:     enum.CashDividend,
		SymbolID: sym.ID,
		ExDate:   date.New(2017, time.June, 1),
		Status:   enum.ActionPending,
	}
	applied := &models.CorporateAction{
		Type:     enum.CashDividend,
		SymbolID: sym.ID,
		ExDate:   date.New(2017, time.March, 1),
		Status:   enum.ActionApplied,
	}
	for _, a := range []*models.CorporateAction{later, earlier, applied} {
		assert.Nil(t, s.CreateAction(a))
	}

	pending, err := s.PendingActions(sym.ID)
	assert.Nil(t, err)
	assert.Len(t, pending, 2)
	assert.Equal(t, earlier.ID, pending[0].ID)
	assert.Equal(t, later.ID, pending[1].ID)

	ok, err := s.HasAppliedActionAfter(sym.ID, date.New(2017, time.January, 1))
	assert.Nil(t, err)
	assert.True(t, ok)

	ok, err = s.HasAppliedActionAfter(sym.ID, date.New(2017, time.March, 1))
	assert.Nil(t, err)
	assert.False(t, ok)
}
