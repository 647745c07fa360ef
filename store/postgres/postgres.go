// Package postgres implements the store interfaces over gorm. Transactions
// run at REPEATABLE READ with a FOR UPDATE lock on action rows as the status
// guard that serializes concurrent applies of the same action.
package postgres

import (
	"github.com/gofrs/uuid"
	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sysdevguru/corpactions/caerrors"
	"github.com/sysdevguru/corpactions/db"
	"github.com/sysdevguru/corpactions/models"
	"github.com/sysdevguru/corpactions/models/enum"
	"github.com/sysdevguru/corpactions/store"
	"github.com/sysdevguru/corpactions/utils/date"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	db *gorm.DB
}

func New(gdb *gorm.DB) *Store {
	return &Store{db: gdb}
}

func (s *Store) Transaction(fn func(tx store.Tx) error) error {
	gtx := s.db.Begin()
	if gtx.Error != nil {
		return caerrors.LotStoreUnavailable.WithError(errors.Wrap(gtx.Error, "begin transaction"))
	}

	if err := gtx.Exec("SET TRANSACTION ISOLATION LEVEL REPEATABLE READ").Error; err != nil {
		gtx.Rollback()
		return caerrors.LotStoreUnavailable.WithError(errors.Wrap(err, "set isolation level"))
	}

	if err := fn(&Store{db: gtx}); err != nil {
		gtx.Rollback()
		return err
	}

	if err := gtx.Commit().Error; err != nil {
		return caerrors.LotStoreUnavailable.WithError(errors.Wrap(err, "commit transaction"))
	}

	return nil
}

func storeErr(err error, msg string) error {
	if db.IsConnectionError(err) {
		return caerrors.LotStoreUnavailable.WithError(errors.Wrap(err, msg))
	}
	return caerrors.InternalServerError.WithError(errors.Wrap(err, msg))
}

// ---- symbols ----

func (s *Store) GetSymbol(id uuid.UUID) (*models.Symbol, error) {
	sym := &models.Symbol{}

	q := s.db.Where("id = ?", id).First(sym)
	if q.RecordNotFound() {
		return nil, caerrors.NotFound.WithMsg("symbol does not exist")
	}
	if q.Error != nil {
		return nil, storeErr(q.Error, "query symbol")
	}

	return sym, nil
}

func (s *Store) SymbolExists(id uuid.UUID) (bool, error) {
	var count int

	q := s.db.Model(&models.Symbol{}).Where("id = ?", id).Count(&count)
	if q.Error != nil {
		return false, storeErr(q.Error, "count symbols")
	}

	return count > 0, nil
}

func (s *Store) CreateSymbol(sym *models.Symbol) error {
	if sym.ID == uuid.Nil {
		sym.ID = uuid.Must(uuid.NewV4())
	}
	if sym.Status == "" {
		sym.Status = enum.SymbolActive
	}

	if err := s.db.Create(sym).Error; err != nil {
		return storeErr(err, "create symbol")
	}

	return nil
}

// ---- lots ----

func (s *Store) OpenLotsBefore(symbolID uuid.UUID, asOf date.Date) ([]models.TaxLot, error) {
	lots := []models.TaxLot{}

	q := s.db.
		Where("symbol_id = ? AND status = ? AND purchase_date < ?",
			symbolID, enum.LotOpen, asOf.String()).
		Order("purchase_date ASC, id ASC").
		Find(&lots)

	if q.Error != nil && q.Error != gorm.ErrRecordNotFound {
		return nil, storeErr(q.Error, "query open lots")
	}

	return lots, nil
}

func (s *Store) GetLot(id uint) (*models.TaxLot, error) {
	lot := &models.TaxLot{}

	q := s.db.Where("id = ?", id).First(lot)
	if q.RecordNotFound() {
		return nil, caerrors.NotFound.WithMsg("lot does not exist")
	}
	if q.Error != nil {
		return nil, storeErr(q.Error, "query lot")
	}

	return lot, nil
}

func (s *Store) CreateLot(lot *models.TaxLot) error {
	if lot.Status == "" {
		lot.Status = enum.LotOpen
	}

	if err := s.db.Create(lot).Error; err != nil {
		return storeErr(err, "create lot")
	}

	return nil
}

func (s *Store) MutateLot(id uint, quantity, unitBasis decimal.Decimal) error {
	q := s.db.Model(&models.TaxLot{}).Where("id = ?", id).Updates(map[string]interface{}{
		"quantity":   quantity,
		"unit_basis": unitBasis,
	})

	if q.Error != nil {
		return storeErr(q.Error, "mutate lot")
	}
	if q.RowsAffected == 0 {
		return caerrors.NotFound.WithMsg("lot does not exist")
	}

	return nil
}

func (s *Store) CloseLot(id uint) error {
	q := s.db.Model(&models.TaxLot{}).Where("id = ?", id).Updates(map[string]interface{}{
		"quantity": decimal.Zero,
		"status":   enum.LotClosed,
	})

	if q.Error != nil {
		return storeErr(q.Error, "close lot")
	}
	if q.RowsAffected == 0 {
		return caerrors.NotFound.WithMsg("lot does not exist")
	}

	return nil
}

func (s *Store) RestoreLot(id uint, quantity, unitBasis decimal.Decimal) error {
	status := enum.LotClosed
	if quantity.Sign() > 0 {
		status = enum.LotOpen
	}

	q := s.db.Model(&models.TaxLot{}).Where("id = ?", id).Updates(map[string]interface{}{
		"quantity":   quantity,
		"unit_basis": unitBasis,
		"status":     status,
	})

	if q.Error != nil {
		return storeErr(q.Error, "restore lot")
	}
	if q.RowsAffected == 0 {
		return caerrors.NotFound.WithMsg("lot does not exist")
	}

	return nil
}

func (s *Store) DeleteLot(id uint) error {
	if err := s.db.Where("id = ?", id).Delete(&models.TaxLot{}).Error; err != nil {
		return storeErr(err, "delete lot")
	}
	return nil
}

// ---- actions ----

func (s *Store) CreateAction(a *models.CorporateAction) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.Must(uuid.NewV4())
	}

	if err := s.db.Create(a).Error; err != nil {
		return storeErr(err, "create action")
	}

	return nil
}

func (s *Store) GetAction(id uuid.UUID) (*models.CorporateAction, error) {
	return s.getAction(id, "")
}

func (s *Store) GetActionForUpdate(id uuid.UUID) (*models.CorporateAction, error) {
	return s.getAction(id, db.ForUpdate)
}

func (s *Store) getAction(id uuid.UUID, lock string) (*models.CorporateAction, error) {
	a := &models.CorporateAction{}

	q := s.db
	if lock != "" {
		q = q.Set("gorm:query_option", lock)
	}

	q = q.Where("id = ?", id).First(a)
	if q.RecordNotFound() {
		return nil, caerrors.NotFound.WithMsg("action does not exist")
	}
	if q.Error != nil {
		return nil, storeErr(q.Error, "query action")
	}

	return a, nil
}

func (s *Store) SaveAction(a *models.CorporateAction) error {
	if err := s.db.Save(a).Error; err != nil {
		return storeErr(err, "save action")
	}
	return nil
}

func (s *Store) PendingActions(symbolID uuid.UUID) ([]models.CorporateAction, error) {
	actions := []models.CorporateAction{}

	q := s.db.
		Where("symbol_id = ? AND status = ?", symbolID, enum.ActionPending).
		Order("ex_date ASC, created_at ASC").
		Find(&actions)

	if q.Error != nil && q.Error != gorm.ErrRecordNotFound {
		return nil, storeErr(q.Error, "query pending actions")
	}

	return actions, nil
}

func (s *Store) ActionsBySymbol(symbolID uuid.UUID) ([]models.CorporateAction, error) {
	actions := []models.CorporateAction{}

	q := s.db.
		Where("symbol_id = ?", symbolID).
		Order("ex_date ASC, created_at ASC").
		Find(&actions)

	if q.Error != nil && q.Error != gorm.ErrRecordNotFound {
		return nil, storeErr(q.Error, "query actions by symbol")
	}

	return actions, nil
}

func (s *Store) ListPendingActions() ([]models.CorporateAction, error) {
	actions := []models.CorporateAction{}

	q := s.db.
		Where("status = ?", enum.ActionPending).
		Order("ex_date ASC, created_at ASC").
		Find(&actions)

	if q.Error != nil && q.Error != gorm.ErrRecordNotFound {
		return nil, storeErr(q.Error, "query pending actions")
	}

	return actions, nil
}

func (s *Store) HasAppliedActionAfter(symbolID uuid.UUID, exDate date.Date) (bool, error) {
	var count int

	q := s.db.Model(&models.CorporateAction{}).
		Where("symbol_id = ? AND status = ? AND ex_date > ?",
			symbolID, enum.ActionApplied, exDate.String()).
		Count(&count)

	if q.Error != nil {
		return false, storeErr(q.Error, "count applied actions")
	}

	return count > 0, nil
}

// ---- adjustments ----

func (s *Store) CreateAdjustment(adj *models.ActionAdjustment) error {
	if err := s.db.Create(adj).Error; err != nil {
		return storeErr(err, "create adjustment")
	}
	return nil
}

func (s *Store) AdjustmentsByAction(actionID uuid.UUID) ([]models.ActionAdjustment, error) {
	adjs := []models.ActionAdjustment{}

	q := s.db.
		Where("action_id = ?", actionID).
		Order("id ASC").
		Find(&adjs)

	if q.Error != nil && q.Error != gorm.ErrRecordNotFound {
		return nil, storeErr(q.Error, "query adjustments")
	}

	return adjs, nil
}

func (s *Store) DeleteAdjustments(actionID uuid.UUID) error {
	if err := s.db.Where("action_id = ?", actionID).Delete(&models.ActionAdjustment{}).Error; err != nil {
		return storeErr(err, "delete adjustments")
	}
	return nil
}
