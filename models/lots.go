package models

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/sysdevguru/corpactions/models/enum"
	"github.com/sysdevguru/corpactions/utils/date"
)

// TaxLot is a discrete batch of shares with its own purchase date and basis.
// Lots are owned by the ledger; the engine only mutates them through the
// store's transactional boundary. FIFO order is ascending purchase date with
// the row id as tiebreak.
type TaxLot struct {
	ID           uint            `json:"id" gorm:"primary_key"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	SymbolID     uuid.UUID       `json:"symbol_id" gorm:"not null;index" sql:"type:uuid;"`
	Status       enum.LotStatus  `json:"status" gorm:"not null;index;type:varchar(6)"`
	Quantity     decimal.Decimal `json:"quantity" gorm:"type:decimal;not null"`
	UnitBasis    decimal.Decimal `json:"unit_basis" gorm:"type:decimal;not null"`
	PurchaseDate date.Date       `json:"purchase_date" gorm:"not null" sql:"type:date"`
}

// TotalBasis is the lot's aggregate cost basis.
func (l *TaxLot) TotalBasis() decimal.Decimal {
	return l.Quantity.Mul(l.UnitBasis)
}
