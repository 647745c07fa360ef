// Package corporateaction is the orchestrator for corporate action
// processing: it validates action state, loads the FIFO lot snapshot,
// dispatches to the matching calculator, and commits the resulting
// adjustment plan atomically. Reversal restores lots from the adjustment
// snapshots.
package corporateaction

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/sysdevguru/corpactions/caerrors"
	"github.com/sysdevguru/corpactions/calc"
	"github.com/sysdevguru/corpactions/log"
	"github.com/sysdevguru/corpactions/models"
	"github.com/sysdevguru/corpactions/models/enum"
	"github.com/sysdevguru/corpactions/store"
)

// for test mock
var nowFunc = time.Now

type CorporateActionService interface {
	Create(action *models.CorporateAction) (*models.CorporateAction, error)
	Preview(actionID uuid.UUID) (*Projection, error)
	ApplySingle(actionID uuid.UUID) (int, error)
	BatchApplyPending(symbolID uuid.UUID) (*BatchResult, error)
	Reverse(actionID uuid.UUID) (*models.CorporateAction, error)
	ListBySymbol(symbolID uuid.UUID) ([]models.CorporateAction, error)
	ListPending() ([]models.CorporateAction, error)
}

type corporateActionService struct {
	store store.Store
}

func Service(st store.Store) CorporateActionService {
	return &corporateActionService{store: st}
}

// ProjectedAdjustment mirrors what an ActionAdjustment would record if the
// action were applied now.
type ProjectedAdjustment struct {
	LotID          uint            `json:"lot_id"`
	QuantityBefore decimal.Decimal `json:"quantity_before"`
	QuantityAfter  decimal.Decimal `json:"quantity_after"`
	BasisBefore    decimal.Decimal `json:"basis_before"`
	BasisAfter     decimal.Decimal `json:"basis_after"`
	CloseLot       bool            `json:"close_lot"`
	RealizedGain   decimal.Decimal `json:"realized_gain"`
	Income         decimal.Decimal `json:"income"`
	CashInLieu     decimal.Decimal `json:"cash_in_lieu"`
}

// Projection is the read-only result of Preview.
type Projection struct {
	Action       models.CorporateAction `json:"action"`
	LotsAffected int                    `json:"lots_affected"`
	NewLots      int                    `json:"new_lots"`
	Adjustments  []ProjectedAdjustment  `json:"adjustments"`
	RealizedGain decimal.Decimal        `json:"realized_gain"`
	Income       decimal.Decimal        `json:"income"`
	Withheld     decimal.Decimal        `json:"withheld"`
	CashInLieu   decimal.Decimal        `json:"cash_in_lieu"`
}

type ActionResult struct {
	ActionID           uuid.UUID `json:"action_id"`
	AdjustmentsCreated int       `json:"adjustments_created"`
	Error              error     `json:"error,omitempty"`
}

type BatchResult struct {
	ActionsProcessed int            `json:"actions_processed"`
	Results          []ActionResult `json:"per_action_results"`
}

// Create validates the action parameters and the referenced symbols and
// persists the action as pending.
func (s *corporateActionService) Create(action *models.CorporateAction) (*models.CorporateAction, error) {
	action.Status = enum.ActionPending
	action.AppliedAt = nil

	if err := action.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.store.SymbolExists(action.SymbolID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, caerrors.NotFound.WithMsg("symbol does not exist")
	}

	if action.Type == enum.Spinoff {
		exists, err = s.store.SymbolExists(*action.NewSymbolID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, caerrors.NotFound.WithMsg("new symbol does not exist")
		}
	}

	if err := s.store.CreateAction(action); err != nil {
		return nil, err
	}

	return action, nil
}

// Preview runs the calculator without persisting anything.
func (s *corporateActionService) Preview(actionID uuid.UUID) (*Projection, error) {
	action, err := s.store.GetAction(actionID)
	if err != nil {
		return nil, err
	}

	if action.Status != enum.ActionPending {
		return nil, caerrors.NotPending
	}

	if err := action.Validate(); err != nil {
		return nil, err
	}

	plan, err := s.plan(s.store, action)
	if err != nil {
		return nil, err
	}

	projection := &Projection{
		Action:       *action,
		LotsAffected: len(plan.Changes),
		NewLots:      len(plan.NewLots),
		RealizedGain: plan.RealizedGain,
		Income:       plan.Income,
		Withheld:     plan.Withheld,
		CashInLieu:   plan.CashInLieu,
	}

	for _, ch := range plan.Changes {
		projection.Adjustments = append(projection.Adjustments, ProjectedAdjustment{
			LotID:          ch.Lot.ID,
			QuantityBefore: ch.Lot.Quantity,
			QuantityAfter:  ch.QuantityAfter,
			BasisBefore:    ch.Lot.UnitBasis,
			BasisAfter:     ch.UnitBasisAfter,
			CloseLot:       ch.CloseLot,
			RealizedGain:   ch.RealizedGain,
			Income:         ch.Income,
			CashInLieu:     ch.CashInLieu,
		})
	}

	return projection, nil
}

// ApplySingle applies one pending action as a single atomic unit and
// returns the number of adjustments created.
func (s *corporateActionService) ApplySingle(actionID uuid.UUID) (int, error) {
	var created int

	err := s.store.Transaction(func(tx store.Tx) error {
		var err error
		created, err = s.applyOne(tx, actionID)
		return err
	})

	if err != nil {
		return 0, err
	}

	log.Info("corporate action applied",
		"action_id", actionID,
		"adjustments_created", created)

	return created, nil
}

// BatchApplyPending applies every pending action for the symbol in ex-date
// order, each in its own transaction. Later actions observe lot state as
// mutated by earlier ones; failures are collected and processing continues.
func (s *corporateActionService) BatchApplyPending(symbolID uuid.UUID) (*BatchResult, error) {
	pending, err := s.store.PendingActions(symbolID)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{}

	for i := range pending {
		actionID := pending[i].ID

		var created int
		err := s.store.Transaction(func(tx store.Tx) error {
			var err error
			created, err = s.applyOne(tx, actionID)
			return err
		})

		if err != nil {
			log.Error("batch apply failure",
				"action_id", actionID,
				"symbol_id", symbolID,
				"error", caerrors.Format(err))
			result.Results = append(result.Results, ActionResult{
				ActionID: actionID,
				Error:    err,
			})
			continue
		}

		result.ActionsProcessed++
		result.Results = append(result.Results, ActionResult{
			ActionID:           actionID,
			AdjustmentsCreated: created,
		})
	}

	return result, nil
}

// Reverse rolls an applied action back from its adjustment snapshots.
func (s *corporateActionService) Reverse(actionID uuid.UUID) (*models.CorporateAction, error) {
	var reversed *models.CorporateAction

	err := s.store.Transaction(func(tx store.Tx) error {
		action, err := tx.GetActionForUpdate(actionID)
		if err != nil {
			return err
		}

		if action.Status != enum.ActionApplied {
			return caerrors.NotApplied
		}

		// a later applied action computed against this one's output;
		// reversing underneath it would corrupt the ledger
		later, err := tx.HasAppliedActionAfter(action.SymbolID, action.ExDate)
		if err != nil {
			return err
		}
		if later {
			return caerrors.CannotReverseOutOfOrder
		}

		adjs, err := tx.AdjustmentsByAction(actionID)
		if err != nil {
			return err
		}

		for i := range adjs {
			adj := &adjs[i]

			if adj.CreatedLot {
				if err := tx.DeleteLot(adj.LotID); err != nil {
					return err
				}
				continue
			}

			if adj.Mutating() {
				if err := tx.RestoreLot(adj.LotID, adj.QuantityBefore, adj.BasisBefore); err != nil {
					return err
				}
			}
		}

		if err := tx.DeleteAdjustments(actionID); err != nil {
			return err
		}

		action.Status = enum.ActionReversed
		action.AppliedAt = nil
		if err := tx.SaveAction(action); err != nil {
			return err
		}

		reversed = action
		return nil
	})

	if err != nil {
		return nil, err
	}

	log.Info("corporate action reversed", "action_id", actionID)

	return reversed, nil
}

func (s *corporateActionService) ListBySymbol(symbolID uuid.UUID) ([]models.CorporateAction, error) {
	return s.store.ActionsBySymbol(symbolID)
}

func (s *corporateActionService) ListPending() ([]models.CorporateAction, error) {
	return s.store.ListPendingActions()
}

// plan loads the lot snapshot and runs the matching calculator. It is used
// by both Preview (outside a transaction) and applyOne (inside one).
func (s *corporateActionService) plan(tx store.Tx, action *models.CorporateAction) (*calc.Plan, error) {
	symbol, err := tx.GetSymbol(action.SymbolID)
	if err != nil {
		return nil, err
	}

	ctx := calc.Context{Symbol: *symbol}
	if action.Type == enum.Spinoff {
		newSymbol, err := tx.GetSymbol(*action.NewSymbolID)
		if err != nil {
			return nil, err
		}
		ctx.NewSymbol = newSymbol
	}

	lots, err := tx.OpenLotsBefore(action.SymbolID, action.ExDate)
	if err != nil {
		return nil, err
	}

	if len(lots) == 0 {
		return nil, caerrors.NoAffectedLots
	}

	calculator, err := calc.For(action.Type)
	if err != nil {
		return nil, err
	}

	return calculator.Calculate(action, lots, ctx)
}

// applyOne holds the status guard, dispatch and persistence for one action.
// It must run inside a transaction.
func (s *corporateActionService) applyOne(tx store.Tx, actionID uuid.UUID) (int, error) {
	action, err := tx.GetActionForUpdate(actionID)
	if err != nil {
		return 0, err
	}

	switch action.Status {
	case enum.ActionPending:
		// proceed
	case enum.ActionApplied:
		return 0, caerrors.AlreadyApplied
	default:
		return 0, caerrors.NotPending
	}

	if err := action.Validate(); err != nil {
		return 0, err
	}

	plan, err := s.plan(tx, action)
	if err != nil {
		return 0, err
	}

	created := 0

	for _, ch := range plan.Changes {
		adj := &models.ActionAdjustment{
			ActionID:       action.ID,
			LotID:          ch.Lot.ID,
			QuantityBefore: ch.Lot.Quantity,
			QuantityAfter:  ch.QuantityAfter,
			BasisBefore:    ch.Lot.UnitBasis,
			BasisAfter:     ch.UnitBasisAfter,
			LotClosed:      ch.CloseLot,
		}
		if ch.Income.Sign() != 0 {
			income := ch.Income
			adj.DividendIncome = &income
		}
		if ch.CashInLieu.Sign() != 0 {
			cil := ch.CashInLieu
			adj.CashInLieu = &cil
		}

		if ch.CloseLot {
			if err := tx.CloseLot(ch.Lot.ID); err != nil {
				return 0, err
			}
		} else if adj.Mutating() {
			if err := tx.MutateLot(ch.Lot.ID, ch.QuantityAfter, ch.UnitBasisAfter); err != nil {
				return 0, err
			}
		}

		if err := tx.CreateAdjustment(adj); err != nil {
			return 0, err
		}
		created++
	}

	for _, nl := range plan.NewLots {
		lot := &models.TaxLot{
			SymbolID:     nl.SymbolID,
			Status:       enum.LotOpen,
			Quantity:     nl.Quantity,
			UnitBasis:    nl.UnitBasis,
			PurchaseDate: nl.PurchaseDate,
		}
		if err := tx.CreateLot(lot); err != nil {
			return 0, err
		}

		adj := &models.ActionAdjustment{
			ActionID:       action.ID,
			LotID:          lot.ID,
			QuantityBefore: decimal.Zero,
			QuantityAfter:  nl.Quantity,
			BasisBefore:    decimal.Zero,
			BasisAfter:     nl.UnitBasis,
			CreatedLot:     true,
		}
		if err := tx.CreateAdjustment(adj); err != nil {
			return 0, err
		}
		created++
	}

	now := nowFunc()
	action.Status = enum.ActionApplied
	action.AppliedAt = &now
	if err := tx.SaveAction(action); err != nil {
		return 0, err
	}

	return created, nil
}
