package checkout

import (
	"context"
	"time"

	"protolab/catalog"
	"protolab/db"
	"protolab/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Service advances flows step by step and owns the commit. Each step loads
// the flow, checks the state, applies the transition and saves. The stock
// mutation and ledger append themselves happen in one database transaction
// inside the repo.
type Service struct {
	repo  *db.Repo
	flows FlowStore
	cat   *catalog.Catalog
	log   *zap.Logger
}

func NewService(repo *db.Repo, flows FlowStore, cat *catalog.Catalog, log *zap.Logger) *Service {
	return &Service{repo: repo, flows: flows, cat: cat, log: log}
}

// Start opens a flow against an item. Withdrawals begin at project
// selection, adjustments at quantity entry.
func (s *Service) Start(ctx context.Context, mode, itemID, startedBy string) (*Flow, error) {
	if mode != ModeWithdrawal && mode != ModeAdjustment {
		return nil, ErrBadState
	}
	it, err := s.repo.FindStockItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	f := &Flow{
		ID:        uuid.NewString(),
		Mode:      mode,
		Category:  it.Category,
		ItemID:    it.ID,
		ItemName:  it.Name,
		StartedBy: startedBy,
		CreatedAt: time.Now().UTC(),
	}
	if mode == ModeWithdrawal {
		f.State = StateProjectSelect
	} else {
		f.State = StateQuantityEntry
	}
	if err := s.flows.Save(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Flow, error) {
	return s.flows.Get(ctx, id)
}

// Abort cancels a flow from any non-terminal state. A PIN created earlier in
// the flow stays set; nothing else has been written.
func (s *Service) Abort(ctx context.Context, id string) (*Flow, error) {
	f, err := s.flows.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.Terminal() {
		return nil, ErrBadState
	}
	f.State = StateAborted
	if err := s.flows.Delete(ctx, id); err != nil {
		return nil, err
	}
	return f, nil
}

// SelectProject attributes a withdrawal to a catalog project.
func (s *Service) SelectProject(ctx context.Context, id, project string) (*Flow, error) {
	f, err := s.flows.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.Mode != ModeWithdrawal || f.State != StateProjectSelect {
		return nil, ErrBadState
	}
	if !s.cat.HasProject(project) {
		return nil, ErrUnknownProject
	}
	f.Project = project
	f.State = StatePersonSelect
	if err := s.flows.Save(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// People lists the persons pickable in this flow: everyone for a
// withdrawal, administrators only for an adjustment.
func (s *Service) People(ctx context.Context, id string) ([]models.User, error) {
	f, err := s.flows.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	role := ""
	if f.Mode == ModeAdjustment {
		role = models.RoleAdmin
	}
	return s.repo.ListUsersByRole(ctx, role)
}

// SelectPerson picks the acting person and moves to the PIN gate. In
// adjustment mode only administrators are accepted, whoever's stock is
// being corrected.
func (s *Service) SelectPerson(ctx context.Context, id, personID string) (*Flow, error) {
	f, err := s.flows.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.State != StatePersonSelect {
		return nil, ErrBadState
	}
	u, err := s.repo.FindUserByID(ctx, personID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrUnknownPerson
		}
		return nil, err
	}
	if f.Mode == ModeAdjustment && !u.IsAdmin() {
		return nil, ErrNotAdmin
	}

	f.PersonID = u.ID
	f.PersonName = u.DisplayName
	f.PersonHasPin = u.HasPin()
	f.State = StatePinAuth
	if err := s.flows.Save(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// SubmitPin runs the PIN gate. A person with no PIN on file creates one:
// two matching 3-digit entries, persisted immediately and independently of
// the flow's outcome. A person with a PIN verifies the stored one. Any
// validation failure leaves the flow in pin_auth; there is no attempt limit.
//
// On success a withdrawal moves on to quantity entry; an adjustment commits
// immediately with the quantity entered earlier and the returned movement
// is non-nil.
func (s *Service) SubmitPin(ctx context.Context, id, pin, confirm string) (*Flow, *models.Movement, error) {
	f, err := s.flows.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if f.State != StatePinAuth {
		return nil, nil, ErrBadState
	}

	u, err := s.repo.FindUserByID(ctx, f.PersonID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil, ErrUnknownPerson
		}
		return nil, nil, err
	}

	if !u.HasPin() {
		if !validPin(pin) || !validPin(confirm) {
			return f, nil, ErrPinLength
		}
		if pin != confirm {
			return f, nil, ErrPinMismatch
		}
		if err := s.repo.SetUserPin(ctx, u.ID, pin); err != nil {
			return nil, nil, err
		}
		f.PersonHasPin = true
	} else {
		if !validPin(pin) {
			return f, nil, ErrPinLength
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PinHash), []byte(pin)) != nil {
			return f, nil, ErrWrongPin
		}
	}

	if f.Mode == ModeWithdrawal {
		f.State = StateQuantityEntry
		if err := s.flows.Save(ctx, f); err != nil {
			return nil, nil, err
		}
		return f, nil, nil
	}

	// Adjustment: authentication was the last gate, commit right away with
	// the quantity entered at the start of the flow.
	return s.commit(ctx, f)
}

// EnterQuantity records the operator's quantity. For a withdrawal it must be
// positive and not exceed the stock visible right now; the flow stays in
// quantity_entry until confirm. For an adjustment it is the absolute target
// and the flow moves on to person selection.
func (s *Service) EnterQuantity(ctx context.Context, id, raw string) (*Flow, error) {
	f, err := s.flows.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.State != StateQuantityEntry {
		return nil, ErrBadState
	}

	q, err := ParseQuantity(raw)
	if err != nil {
		return f, err
	}

	if f.Mode == ModeWithdrawal {
		if q <= 0 {
			return f, ErrQuantityInvalid
		}
		it, err := s.repo.FindStockItem(ctx, f.ItemID)
		if err != nil {
			return nil, err
		}
		if q > it.Quantity {
			return f, ErrInsufficientStock
		}
		f.Quantity = q
	} else {
		f.Quantity = q
		f.State = StatePersonSelect
	}

	if err := s.flows.Save(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// Confirm commits a withdrawal from quantity_entry with a quantity
// recorded. For either mode a flow parked in committing after a failed
// commit can be retried here; an adjustment reaches committing only after
// its PIN gate passed, so no re-authentication is needed.
func (s *Service) Confirm(ctx context.Context, id string) (*Flow, *models.Movement, error) {
	f, err := s.flows.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if f.Mode == ModeAdjustment {
		if f.State != StateCommitting {
			return nil, nil, ErrBadState
		}
		return s.commit(ctx, f)
	}
	if f.State != StateQuantityEntry && f.State != StateCommitting {
		return nil, nil, ErrBadState
	}
	if f.Quantity <= 0 {
		return f, nil, ErrQuantityInvalid
	}
	return s.commit(ctx, f)
}

// commit performs the single-transaction stock mutation + ledger append.
// On failure the flow is parked in committing so the operator can retry or
// abort; nothing was written.
func (s *Service) commit(ctx context.Context, f *Flow) (*Flow, *models.Movement, error) {
	f.State = StateCommitting
	if err := s.flows.Save(ctx, f); err != nil {
		return nil, nil, err
	}

	var (
		mv  *models.Movement
		err error
	)
	if f.Mode == ModeWithdrawal {
		mv, err = s.repo.WithdrawStock(ctx, f.ItemID, f.Quantity, f.PersonID, f.PersonName, f.Project)
	} else {
		mv, err = s.repo.AdjustStock(ctx, f.ItemID, f.Quantity, f.PersonID, f.PersonName)
	}
	if err != nil {
		s.log.Warn("checkout commit failed",
			zap.String("flow", f.ID),
			zap.String("mode", f.Mode),
			zap.String("item", f.ItemID),
			zap.Error(err))
		return f, nil, err
	}

	f.State = StateDone
	// The movement is durable now. Drop the flow so a replayed confirm
	// cannot commit a second time; the caller gets the final state back.
	if err := s.flows.Delete(ctx, f.ID); err != nil {
		s.log.Warn("deleting finished flow failed", zap.String("flow", f.ID), zap.Error(err))
	}
	s.log.Info("stock movement committed",
		zap.String("flow", f.ID),
		zap.String("kind", mv.Kind),
		zap.String("item", mv.ItemName),
		zap.Float64("before", mv.QtyBefore),
		zap.Float64("after", mv.QtyAfter),
		zap.String("actor", mv.ActorName))
	return f, mv, nil
}
