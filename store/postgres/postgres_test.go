package postgres

import (
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/sysdevguru/corpactions/caerrors"
	"github.com/sysdevguru/corpactions/db"
	"github.com/sysdevguru/corpactions/dbtest"
	"github.com/sysdevguru/corpactions/models"
	"github.com/sysdevguru/corpactions/models/enum"
	"github.com/sysdevguru/corpactions/store"
	"github.com/sysdevguru/corpactions/utils/date"
)

type PostgresStoreTestSuite struct {
	dbtest.Suite
	store *Store
}

func TestPostgresStoreTestSuite(t *testing.T) {
	if os.Getenv("PGHOST") == "" {
		t.Skip("postgres is not available")
	}
	suite.Run(t, new(PostgresStoreTestSuite))
}

func (s *PostgresStoreTestSuite) SetupSuite() {
	s.SetupDB()
	s.store = New(db.DB())
}

func (s *PostgresStoreTestSuite) TearDownSuite() {
	s.TeardownDB()
}

func (s *PostgresStoreTestSuite) dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func (s *PostgresStoreTestSuite) TestLotRoundTrip() {
	sym := &models.Symbol{Symbol: "LOTRT"}
	assert.Nil(s.T(), s.store.CreateSymbol(sym))

	lot := &models.TaxLot{
		SymbolID:     sym.ID,
		Quantity:     s.dec("100"),
		UnitBasis:    s.dec("25.5"),
		PurchaseDate: date.New(2017, time.January, 3),
	}
	assert.Nil(s.T(), s.store.CreateLot(lot))
	assert.NotZero(s.T(), lot.ID)

	got, err := s.store.GetLot(lot.ID)
	assert.Nil(s.T(), err)
	assert.True(s.T(), got.Quantity.Equal(s.dec("100")))
	assert.True(s.T(), got.UnitBasis.Equal(s.dec("25.5")))
	assert.Equal(s.T(), enum.LotOpen, got.Status)

	assert.Nil(s.T(), s.store.MutateLot(lot.ID, s.dec("200"), s.dec("12.75")))
	got, _ = s.store.GetLot(lot.ID)
	assert.True(s.T(), got.Quantity.Equal(s.dec("200")))

	assert.Nil(s.T(), s.store.CloseLot(lot.ID))
	got, _ = s.store.GetLot(lot.ID)
	assert.Equal(s.T(), enum.LotClosed, got.Status)

	assert.Nil(s.T(), s.store.RestoreLot(lot.ID, s.dec("200"), s.dec("12.75")))
	got, _ = s.store.GetLot(lot.ID)
	assert.Equal(s.T(), enum.LotOpen, got.Status)
}

func (s *PostgresStoreTestSuite) TestOpenLotsBeforeFIFO() {
	sym := &models.Symbol{Symbol: "FIFO"}
	assert.Nil(s.T(), s.store.CreateSymbol(sym))

	newer := &models.TaxLot{
		SymbolID:     sym.ID,
		Quantity:     s.dec("10"),
		UnitBasis:    s.dec("150"),
		PurchaseDate: date.New(2017, time.May, 1),
	}
	older := &models.TaxLot{
		SymbolID:     sym.ID,
		Quantity:     s.dec("100"),
		UnitBasis:    s.dec("90"),
		PurchaseDate: date.New(2016, time.January, 4),
	}
	assert.Nil(s.T(), s.store.CreateLot(newer))
	assert.Nil(s.T(), s.store.CreateLot(older))

	lots, err := s.store.OpenLotsBefore(sym.ID, date.New(2017, time.May, 1))
	assert.Nil(s.T(), err)

	// lots purchased on the cutoff date are excluded
	assert.Len(s.T(), lots, 1)
	assert.Equal(s.T(), older.ID, lots[0].ID)

	lots, err = s.store.OpenLotsBefore(sym.ID, date.New(2017, time.June, 1))
	assert.Nil(s.T(), err)
	assert.Len(s.T(), lots, 2)
	assert.Equal(s.T(), older.ID, lots[0].ID)
}

func (s *PostgresStoreTestSuite) TestActionLifecycle() {
	sym := &models.Symbol{Symbol: "ACTLC"}
	assert.Nil(s.T(), s.store.CreateSymbol(sym))

	from := s.dec("1")
	to := s.dec("2")
	action := &models.CorporateAction{
		Type:      enum.Split,
		SymbolID:  sym.ID,
		ExDate:    date.New(2017, time.June, 1),
		Status:    enum.ActionPending,
		RatioFrom: &from,
		RatioTo:   &to,
	}
	assert.Nil(s.T(), s.store.CreateAction(action))

	got, err := s.store.GetAction(action.ID)
	assert.Nil(s.T(), err)
	assert.Equal(s.T(), enum.ActionPending, got.Status)
	assert.True(s.T(), got.RatioTo.Equal(to))

	pending, err := s.store.PendingActions(sym.ID)
	assert.Nil(s.T(), err)
	assert.Len(s.T(), pending, 1)

	now := time.Now()
	got.Status = enum.ActionApplied
	got.AppliedAt = &now
	assert.Nil(s.T(), s.store.SaveAction(got))

	ok, err := s.store.HasAppliedActionAfter(sym.ID, date.New(2017, time.January, 1))
	assert.Nil(s.T(), err)
	assert.True(s.T(), ok)

	ok, err = s.store.HasAppliedActionAfter(sym.ID, date.New(2017, time.June, 1))
	assert.Nil(s.T(), err)
	assert.False(s.T(), ok)
}

func (s *PostgresStoreTestSuite) TestTransactionRollsBack() {
	sym := &models.Symbol{Symbol: "TXRB"}
	assert.Nil(s.T(), s.store.CreateSymbol(sym))

	lot := &models.TaxLot{
		SymbolID:     sym.ID,
		Quantity:     s.dec("100"),
		UnitBasis:    s.dec("30"),
		PurchaseDate: date.New(2016, time.January, 4),
	}
	assert.Nil(s.T(), s.store.CreateLot(lot))

	boom := caerrors.InternalServerError.WithMsg("boom")
	err := s.store.Transaction(func(tx store.Tx) error {
		if err := tx.MutateLot(lot.ID, s.dec("1"), s.dec("1")); err != nil {
			return err
		}
		return boom
	})
	assert.Equal(s.T(), boom, err)

	got, _ := s.store.GetLot(lot.ID)
	assert.True(s.T(), got.Quantity.Equal(s.dec("100")))
}

func (s *PostgresStoreTestSuite) TestAdjustments() {
	sym := &models.Symbol{Symbol: "ADJS"}
	assert.Nil(s.T(), s.store.CreateSymbol(sym))

	action := &models.CorporateAction{
		Type:     enum.CashDividend,
		SymbolID: sym.ID,
		ExDate:   date.New(2017, time.June, 1),
		Status:   enum.ActionApplied,
	}
	assert.Nil(s.T(), s.store.CreateAction(action))

	income := s.dec("50")
	adj := &models.ActionAdjustment{
		ActionID:       action.ID,
		LotID:          1,
		QuantityBefore: s.dec("100"),
		QuantityAfter:  s.dec("100"),
		BasisBefore:    s.dec("50"),
		BasisAfter:     s.dec("50"),
		DividendIncome: &income,
	}
	assert.Nil(s.T(), s.store.CreateAdjustment(adj))

	adjs, err := s.store.AdjustmentsByAction(action.ID)
	assert.Nil(s.T(), err)
	assert.Len(s.T(), adjs, 1)
	assert.NotNil(s.T(), adjs[0].DividendIncome)
	assert.True(s.T(), adjs[0].DividendIncome.Equal(income))

	assert.Nil(s.T(), s.store.DeleteAdjustments(action.ID))
	adjs, err = s.store.AdjustmentsByAction(action.ID)
	assert.Nil(s.T(), err)
	assert.Empty(s.T(), adjs)
}
