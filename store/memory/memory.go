// Package memory is a mutex-guarded in-memory store. It backs the service
// and calculator tests and is handy for preview-only callers; production
// uses store/postgres.
package memory

import (
	"sort"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/sysdevguru/corpactions/caerrors"
	"github.com/sysdevguru/corpactions/models"
	"github.com/sysdevguru/corpactions/models/enum"
	"github.com/sysdevguru/corpactions/store"
	"github.com/sysdevguru/corpactions/utils/date"
)

var (
	_ store.Store = (*Store)(nil)
	_ store.Tx    = (*txView)(nil)
)

type Store struct {
	mu          sync.Mutex
	symbols     map[uuid.UUID]models.Symbol
	lots        map[uint]models.TaxLot
	actions     map[uuid.UUID]models.CorporateAction
	adjustments map[uuid.UUID][]models.ActionAdjustment
	nextLotID   uint
	nextAdjID   uint
}

func New() *Store {
	return &Store{
		symbols:     map[uuid.UUID]models.Symbol{},
		lots:        map[uint]models.TaxLot{},
		actions:     map[uuid.UUID]models.CorporateAction{},
		adjustments: map[uuid.UUID][]models.ActionAdjustment{},
		nextLotID:   1,
		nextAdjID:   1,
	}
}

// snapshot deep-copies the mutable state so a failed transaction can roll
// back. Entity values are plain structs, so map copies suffice.
type snapshot struct {
	symbols     map[uuid.UUID]models.Symbol
	lots        map[uint]models.TaxLot
	actions     map[uuid.UUID]models.CorporateAction
	adjustments map[uuid.UUID][]models.ActionAdjustment
	nextLotID   uint
	nextAdjID   uint
}

func (s *Store) take() snapshot {
	snap := snapshot{
		symbols:     make(map[uuid.UUID]models.Symbol, len(s.symbols)),
		lots:        make(map[uint]models.TaxLot, len(s.lots)),
		actions:     make(map[uuid.UUID]models.CorporateAction, len(s.actions)),
		adjustments: make(map[uuid.UUID][]models.ActionAdjustment, len(s.adjustments)),
		nextLotID:   s.nextLotID,
		nextAdjID:   s.nextAdjID,
	}
	for k, v := range s.symbols {
		snap.symbols[k] = v
	}
	for k, v := range s.lots {
		snap.lots[k] = v
	}
	for k, v := range s.actions {
		snap.actions[k] = v
	}
	for k, v := range s.adjustments {
		adjs := make([]models.ActionAdjustment, len(v))
		copy(adjs, v)
		snap.adjustments[k] = adjs
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.symbols = snap.symbols
	s.lots = snap.lots
	s.actions = snap.actions
	s.adjustments = snap.adjustments
	s.nextLotID = snap.nextLotID
	s.nextAdjID = snap.nextAdjID
}

// Transaction serializes writers with the store mutex and rolls the state
// back if fn fails.
func (s *Store) Transaction(fn func(tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.take()
	if err := fn(&txView{s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// txView exposes the unlocked core to a transaction callback; the Store's
// public methods take the mutex themselves.
type txView struct {
	s *Store
}

// ---- symbols ----

func (s *Store) GetSymbol(id uuid.UUID) (*models.Symbol, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getSymbol(id)
}

func (v *txView) GetSymbol(id uuid.UUID) (*models.Symbol, error) { return v.s.getSymbol(id) }

func (s *Store) getSymbol(id uuid.UUID) (*models.Symbol, error) {
	sym, ok := s.symbols[id]
	if !ok {
		return nil, caerrors.NotFound.WithMsg("symbol does not exist")
	}
	return &sym, nil
}

func (s *Store) SymbolExists(id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.symbolExists(id)
}

func (v *txView) SymbolExists(id uuid.UUID) (bool, error) { return v.s.symbolExists(id) }

func (s *Store) symbolExists(id uuid.UUID) (bool, error) {
	_, ok := s.symbols[id]
	return ok, nil
}

func (s *Store) CreateSymbol(sym *models.Symbol) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createSymbol(sym)
}

func (v *txView) CreateSymbol(sym *models.Symbol) error { return v.s.createSymbol(sym) }

func (s *Store) createSymbol(sym *models.Symbol) error {
	if sym.ID == uuid.Nil {
		sym.ID = uuid.Must(uuid.NewV4())
	}
	if sym.Status == "" {
		sym.Status = enum.SymbolActive
	}
	s.symbols[sym.ID] = *sym
	return nil
}

// ---- lots ----

func (s *Store) OpenLotsBefore(symbolID uuid.UUID, asOf date.Date) ([]models.TaxLot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openLotsBefore(symbolID, asOf)
}

func (v *txView) OpenLotsBefore(symbolID uuid.UUID, asOf date.Date) ([]models.TaxLot, error) {
	return v.s.openLotsBefore(symbolID, asOf)
}

func (s *Store) openLotsBefore(symbolID uuid.UUID, asOf date.Date) ([]models.TaxLot, error) {
	lots := []models.TaxLot{}
	for _, lot := range s.lots {
		if lot.SymbolID == symbolID &&
			lot.Status == enum.LotOpen &&
			lot.PurchaseDate.Before(asOf) {
			lots = append(lots, lot)
		}
	}

	// FIFO: oldest purchase first, row id breaks ties
	sort.Slice(lots, func(i, j int) bool {
		if lots[i].PurchaseDate == lots[j].PurchaseDate {
			return lots[i].ID < lots[j].ID
		}
		return lots[i].PurchaseDate.Before(lots[j].PurchaseDate)
	})

	return lots, nil
}

func (s *Store) GetLot(id uint) (*models.TaxLot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLot(id)
}

func (v *txView) GetLot(id uint) (*models.TaxLot, error) { return v.s.getLot(id) }

func (s *Store) getLot(id uint) (*models.TaxLot, error) {
	lot, ok := s.lots[id]
	if !ok {
		return nil, caerrors.NotFound.WithMsg("lot does not exist")
	}
	return &lot, nil
}

func (s *Store) CreateLot(lot *models.TaxLot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLot(lot)
}

func (v *txView) CreateLot(lot *models.TaxLot) error { return v.s.createLot(lot) }

func (s *Store) createLot(lot *models.TaxLot) error {
	lot.ID = s.nextLotID
	s.nextLotID++
	if lot.Status == "" {
		lot.Status = enum.LotOpen
	}
	s.lots[lot.ID] = *lot
	return nil
}

func (s *Store) MutateLot(id uint, quantity, unitBasis decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutateLot(id, quantity, unitBasis)
}

func (v *txView) MutateLot(id uint, quantity, unitBasis decimal.Decimal) error {
	return v.s.mutateLot(id, quantity, unitBasis)
}

func (s *Store) mutateLot(id uint, quantity, unitBasis decimal.Decimal) error {
	lot, ok := s.lots[id]
	if !ok {
		return caerrors.NotFound.WithMsg("lot does not exist")
	}
	lot.Quantity = quantity
	lot.UnitBasis = unitBasis
	s.lots[id] = lot
	return nil
}

func (s *Store) CloseLot(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLot(id)
}

func (v *txView) CloseLot(id uint) error { return v.s.closeLot(id) }

func (s *Store) closeLot(id uint) error {
	lot, ok := s.lots[id]
	if !ok {
		return caerrors.NotFound.WithMsg("lot does not exist")
	}
	lot.Quantity = decimal.Zero
	lot.Status = enum.LotClosed
	s.lots[id] = lot
	return nil
}

func (s *Store) RestoreLot(id uint, quantity, unitBasis decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restoreLot(id, quantity, unitBasis)
}

func (v *txView) RestoreLot(id uint, quantity, unitBasis decimal.Decimal) error {
	return v.s.restoreLot(id, quantity, unitBasis)
}

func (s *Store) restoreLot(id uint, quantity, unitBasis decimal.Decimal) error {
	lot, ok := s.lots[id]
	if !ok {
		return caerrors.NotFound.WithMsg("lot does not exist")
	}
	lot.Quantity = quantity
	lot.UnitBasis = unitBasis
	if quantity.Sign() > 0 {
		lot.Status = enum.LotOpen
	}
	s.lots[id] = lot
	return nil
}

func (s *Store) DeleteLot(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLot(id)
}

func (v *txView) DeleteLot(id uint) error { return v.s.deleteLot(id) }

func (s *Store) deleteLot(id uint) error {
	if _, ok := s.lots[id]; !ok {
		return caerrors.NotFound.WithMsg("lot does not exist")
	}
	delete(s.lots, id)
	return nil
}

// ---- actions ----

func (s *Store) CreateAction(a *models.CorporateAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createAction(a)
}

func (v *txView) CreateAction(a *models.CorporateAction) error { return v.s.createAction(a) }

func (s *Store) createAction(a *models.CorporateAction) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.Must(uuid.NewV4())
	}
	s.actions[a.ID] = *a
	return nil
}

func (s *Store) GetAction(id uuid.UUID) (*models.CorporateAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getAction(id)
}

func (v *txView) GetAction(id uuid.UUID) (*models.CorporateAction, error) { return v.s.getAction(id) }

func (s *Store) getAction(id uuid.UUID) (*models.CorporateAction, error) {
	a, ok := s.actions[id]
	if !ok {
		return nil, caerrors.NotFound.WithMsg("action does not exist")
	}
	return &a, nil
}

// GetActionForUpdate is plain GetAction here; the store mutex already
// serializes transactions.
func (s *Store) GetActionForUpdate(id uuid.UUID) (*models.CorporateAction, error) {
	return s.GetAction(id)
}

func (v *txView) GetActionForUpdate(id uuid.UUID) (*models.CorporateAction, error) {
	return v.s.getAction(id)
}

func (s *Store) SaveAction(a *models.CorporateAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveAction(a)
}

func (v *txView) SaveAction(a *models.CorporateAction) error { return v.s.saveAction(a) }

func (s *Store) saveAction(a *models.CorporateAction) error {
	if _, ok := s.actions[a.ID]; !ok {
		return caerrors.NotFound.WithMsg("action does not exist")
	}
	s.actions[a.ID] = *a
	return nil
}

func (s *Store) PendingActions(symbolID uuid.UUID) ([]models.CorporateAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingActions(symbolID)
}

func (v *txView) PendingActions(symbolID uuid.UUID) ([]models.CorporateAction, error) {
	return v.s.pendingActions(symbolID)
}

func (s *Store) pendingActions(symbolID uuid.UUID) ([]models.CorporateAction, error) {
	actions := []models.CorporateAction{}
	for _, a := range s.actions {
		if a.SymbolID == symbolID && a.Status == enum.ActionPending {
			actions = append(actions, a)
		}
	}
	sortByExDate(actions)
	return actions, nil
}

func (s *Store) ActionsBySymbol(symbolID uuid.UUID) ([]models.CorporateAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.actionsBySymbol(symbolID)
}

func (v *txView) ActionsBySymbol(symbolID uuid.UUID) ([]models.CorporateAction, error) {
	return v.s.actionsBySymbol(symbolID)
}

func (s *Store) actionsBySymbol(symbolID uuid.UUID) ([]models.CorporateAction, error) {
	actions := []models.CorporateAction{}
	for _, a := range s.actions {
		if a.SymbolID == symbolID {
			actions = append(actions, a)
		}
	}
	sortByExDate(actions)
	return actions, nil
}

func (s *Store) ListPendingActions() ([]models.CorporateAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listPendingActions()
}

func (v *txView) ListPendingActions() ([]models.CorporateAction, error) {
	return v.s.listPendingActions()
}

func (s *Store) listPendingActions() ([]models.CorporateAction, error) {
	actions := []models.CorporateAction{}
	for _, a := range s.actions {
		if a.Status == enum.ActionPending {
			actions = append(actions, a)
		}
	}
	sortByExDate(actions)
	return actions, nil
}

func (s *Store) HasAppliedActionAfter(symbolID uuid.UUID, exDate date.Date) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasAppliedActionAfter(symbolID, exDate)
}

func (v *txView) HasAppliedActionAfter(symbolID uuid.UUID, exDate date.Date) (bool, error) {
	return v.s.hasAppliedActionAfter(symbolID, exDate)
}

func (s *Store) hasAppliedActionAfter(symbolID uuid.UUID, exDate date.Date) (bool, error) {
	for _, a := range s.actions {
		if a.SymbolID == symbolID &&
			a.Status == enum.ActionApplied &&
			a.ExDate.After(exDate) {
			return true, nil
		}
	}
	return false, nil
}

func sortByExDate(actions []models.CorporateAction) {
	sort.Slice(actions, func(i, j int) bool {
		if actions[i].ExDate == actions[j].ExDate {
			return actions[i].CreatedAt.Before(actions[j].CreatedAt)
		}
		return actions[i].ExDate.Before(actions[j].ExDate)
	})
}

// ---- adjustments ----

func (s *Store) CreateAdjustment(adj *models.ActionAdjustment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createAdjustment(adj)
}

func (v *txView) CreateAdjustment(adj *models.ActionAdjustment) error {
	return v.s.createAdjustment(adj)
}

func (s *Store) createAdjustment(adj *models.ActionAdjustment) error {
	adj.ID = s.nextAdjID
	s.nextAdjID++
	s.adjustments[adj.ActionID] = append(s.adjustments[adj.ActionID], *adj)
	return nil
}

func (s *Store) AdjustmentsByAction(actionID uuid.UUID) ([]models.ActionAdjustment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adjustmentsByAction(actionID)
}

func (v *txView) AdjustmentsByAction(actionID uuid.UUID) ([]models.ActionAdjustment, error) {
	return v.s.adjustmentsByAction(actionID)
}

func (s *Store) adjustmentsByAction(actionID uuid.UUID) ([]models.ActionAdjustment, error) {
	adjs := make([]models.ActionAdjustment, len(s.adjustments[actionID]))
	copy(adjs, s.adjustments[actionID])
	return adjs, nil
}

func (s *Store) DeleteAdjustments(actionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteAdjustments(actionID)
}

func (v *txView) DeleteAdjustments(actionID uuid.UUID) error {
	return v.s.deleteAdjustments(actionID)
}

func (s *Store) deleteAdjustments(actionID uuid.UUID) error {
	delete(s.adjustments, actionID)
	return nil
}
