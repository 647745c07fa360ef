package models

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/sysdevguru/corpactions/models/enum"
)

// Symbol is a tracked security. MinIncrement is the minimum tradable share
// increment, used when rounding split results (1 for whole-share securities,
// smaller for brokers supporting fractional shares).
type Symbol struct {
	ID           uuid.UUID         `json:"id" gorm:"primary_key" sql:"type:uuid;"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	Symbol       string            `json:"symbol" gorm:"type:varchar(12);not null;unique_index"`
	Status       enum.SymbolStatus `json:"status" gorm:"not null;type:varchar(8)"`
	MinIncrement decimal.Decimal   `json:"min_increment" gorm:"type:decimal;not null"`
}

// Increment returns MinIncrement, defaulting to one whole share when the
// column was left zero.
func (s *Symbol) Increment() decimal.Decimal {
	if s.MinIncrement.Sign() > 0 {
		return s.MinIncrement
	}
	return decimal.New(1, 0)
}
