// Package store defines the repository interfaces the engine works against.
// The lot ledger is an external collaborator; keeping it behind an interface
// keeps the calculators and the applier free of persistence coupling.
package store

import (
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/sysdevguru/corpactions/models"
	"github.com/sysdevguru/corpactions/utils/date"
)

type Symbols interface {
	GetSymbol(id uuid.UUID) (*models.Symbol, error)
	SymbolExists(id uuid.UUID) (bool, error)
	CreateSymbol(s *models.Symbol) error
}

// Lots is the ledger collaborator surface. OpenLotsBefore returns open lots
// purchased strictly before asOf in FIFO order (ascending purchase date, id
// as tiebreak).
type Lots interface {
	OpenLotsBefore(symbolID uuid.UUID, asOf date.Date) ([]models.TaxLot, error)
	GetLot(id uint) (*models.TaxLot, error)
	CreateLot(lot *models.TaxLot) error
	MutateLot(id uint, quantity, unitBasis decimal.Decimal) error
	// CloseLot zeroes the quantity and marks the lot closed.
	CloseLot(id uint) error
	// RestoreLot reinstates a snapshot, reopening the lot if it was closed.
	RestoreLot(id uint, quantity, unitBasis decimal.Decimal) error
	DeleteLot(id uint) error
}

type Actions interface {
	CreateAction(a *models.CorporateAction) error
	GetAction(id uuid.UUID) (*models.CorporateAction, error)
	// GetActionForUpdate locks the action row for the duration of the
	// surrounding transaction; it is the status guard that serializes
	// concurrent applies.
	GetActionForUpdate(id uuid.UUID) (*models.CorporateAction, error)
	SaveAction(a *models.CorporateAction) error
	// PendingActions returns pending actions for the symbol ordered by
	// ex-date ascending.
	PendingActions(symbolID uuid.UUID) ([]models.CorporateAction, error)
	ActionsBySymbol(symbolID uuid.UUID) ([]models.CorporateAction, error)
	ListPendingActions() ([]models.CorporateAction, error)
	// HasAppliedActionAfter reports whether another applied action exists on
	// the symbol with a later ex-date.
	HasAppliedActionAfter(symbolID uuid.UUID, exDate date.Date) (bool, error)
}

type Adjustments interface {
	CreateAdjustment(adj *models.ActionAdjustment) error
	AdjustmentsByAction(actionID uuid.UUID) ([]models.ActionAdjustment, error)
	DeleteAdjustments(actionID uuid.UUID) error
}

// Tx is the repository surface available inside a transaction.
type Tx interface {
	Symbols
	Lots
	Actions
	Adjustments
}

// Store adds the atomic boundary. Methods called directly on the Store are
// auto-committed reads/writes; Transaction runs fn with commit-or-rollback
// semantics so partial application is impossible.
type Store interface {
	Tx
	Transaction(fn func(tx Tx) error) error
}
