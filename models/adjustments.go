package models

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

// ActionAdjustment is the immutable audit entry for one lot touched by an
// applied action. Basis columns snapshot the unit basis. It is created only
// inside a successful apply transaction, never updated, and deleted only when
// the owning action is reversed; the before columns are the sole source of
// truth for reversal.
type ActionAdjustment struct {
	ID        uint      `json:"id" gorm:"primary_key"`
	CreatedAt time.Time `json:"created_at"`
	ActionID  uuid.UUID `json:"action_id" gorm:"not null;index" sql:"type:uuid;"`
	LotID     uint      `json:"lot_id" gorm:"not null;index"`

	QuantityBefore decimal.Decimal `json:"quantity_before" gorm:"type:decimal;not null"`
	QuantityAfter  decimal.Decimal `json:"quantity_after" gorm:"type:decimal;not null"`
	BasisBefore    decimal.Decimal `json:"basis_before" gorm:"type:decimal;not null"`
	BasisAfter     decimal.Decimal `json:"basis_after" gorm:"type:decimal;not null"`

	// true for lots spawned by a spinoff; reversal deletes these lots
	CreatedLot bool `json:"created_lot"`
	// true when the action closed the lot (cash merger); reversal reopens it
	LotClosed bool `json:"lot_closed"`

	DividendIncome *decimal.Decimal `json:"dividend_income" gorm:"type:decimal"`
	CashInLieu     *decimal.Decimal `json:"cash_in_lieu" gorm:"type:decimal"`
}

// Mutating reports whether the adjustment represents an actual lot change.
// Dividend adjustments record income with before == after.
func (adj *ActionAdjustment) Mutating() bool {
	return adj.CreatedLot ||
		adj.LotClosed ||
		!adj.QuantityBefore.Equal(adj.QuantityAfter) ||
		!adj.BasisBefore.Equal(adj.BasisAfter)
}
