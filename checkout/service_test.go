package checkout

import (
	"context"
	"testing"

	"protolab/catalog"
	"protolab/db"
	"protolab/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) (*Service, *db.Repo) {
	t.Helper()
	repo := db.NewRepo(db.NewTestDB(t))
	cat := &catalog.Catalog{
		Projects: []catalog.Project{
			{Key: "alpha", Name: "Alpha"},
			{Key: "general", Name: "General lab use"},
		},
	}
	return NewService(repo, NewMemoryStore(), cat, zap.NewNop()), repo
}

func seedItem(t *testing.T, repo *db.Repo, name string, qty float64) *models.StockItem {
	t.Helper()
	it := &models.StockItem{
		ID:       uuid.NewString(),
		Category: "consumables",
		Name:     name,
		Quantity: qty,
	}
	require.NoError(t, repo.CreateStockItem(context.Background(), it))
	return it
}

func seedUser(t *testing.T, repo *db.Repo, name, role, pin string) *models.User {
	t.Helper()
	u := &models.User{
		ID:           uuid.NewString(),
		Username:     name,
		DisplayName:  name,
		Role:         role,
		PasswordHash: "x",
	}
	if pin != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.MinCost)
		require.NoError(t, err)
		u.PinHash = string(hash)
	}
	require.NoError(t, repo.CreateUser(context.Background(), u))
	return u
}

func movements(t *testing.T, repo *db.Repo, itemID string) []models.Movement {
	t.Helper()
	ms, err := repo.ListMovements(context.Background(), itemID, "", 0)
	require.NoError(t, err)
	return ms
}

func TestWithdrawalEndToEnd(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	it := seedItem(t, repo, "Tape", 10)
	jane := seedUser(t, repo, "Jane", models.RoleMember, "") // no PIN on file

	f, err := svc.Start(ctx, ModeWithdrawal, it.ID, jane.ID)
	require.NoError(t, err)
	assert.Equal(t, StateProjectSelect, f.State)

	f, err = svc.SelectProject(ctx, f.ID, "alpha")
	require.NoError(t, err)
	assert.Equal(t, StatePersonSelect, f.State)

	f, err = svc.SelectPerson(ctx, f.ID, jane.ID)
	require.NoError(t, err)
	assert.Equal(t, StatePinAuth, f.State)
	assert.False(t, f.PersonHasPin)

	// First use: the PIN is created with two matching entries.
	f, mv, err := svc.SubmitPin(ctx, f.ID, "123", "123")
	require.NoError(t, err)
	require.Nil(t, mv)
	assert.Equal(t, StateQuantityEntry, f.State)

	f, err = svc.EnterQuantity(ctx, f.ID, "3")
	require.NoError(t, err)

	f, mv, err = svc.Confirm(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, StateDone, f.State)

	got, err := repo.FindStockItem(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, 7.0, got.Quantity)

	require.NotNil(t, mv)
	assert.Equal(t, models.MovementWithdrawal, mv.Kind)
	assert.Equal(t, 3.0, mv.Amount)
	assert.Equal(t, 10.0, mv.QtyBefore)
	assert.Equal(t, 7.0, mv.QtyAfter)
	assert.Equal(t, "alpha", mv.Project)
	assert.Equal(t, "Jane", mv.ActorName)

	assert.Len(t, movements(t, repo, it.ID), 1)
}

func TestAdjustmentEndToEnd(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	it := seedItem(t, repo, "Screws", 50)
	bob := seedUser(t, repo, "Bob", models.RoleAdmin, "456")

	f, err := svc.Start(ctx, ModeAdjustment, it.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, StateQuantityEntry, f.State)

	f, err = svc.EnterQuantity(ctx, f.ID, "42")
	require.NoError(t, err)
	assert.Equal(t, StatePersonSelect, f.State)

	f, err = svc.SelectPerson(ctx, f.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, f.PersonHasPin)

	// Successful authentication commits immediately.
	f, mv, err := svc.SubmitPin(ctx, f.ID, "456", "")
	require.NoError(t, err)
	assert.Equal(t, StateDone, f.State)

	got, err := repo.FindStockItem(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, 42.0, got.Quantity)

	require.NotNil(t, mv)
	assert.Equal(t, models.MovementAdjustment, mv.Kind)
	assert.Equal(t, 50.0, mv.QtyBefore)
	assert.Equal(t, 42.0, mv.QtyAfter)
	assert.Equal(t, "Bob", mv.ActorName)

	assert.Len(t, movements(t, repo, it.ID), 1)
}

func TestAdjustmentCommitFailureIsRetryable(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	it := seedItem(t, repo, "Screws", 50)
	bob := seedUser(t, repo, "Bob", models.RoleAdmin, "456")

	f, err := svc.Start(ctx, ModeAdjustment, it.ID, bob.ID)
	require.NoError(t, err)
	f, err = svc.EnterQuantity(ctx, f.ID, "42")
	require.NoError(t, err)
	f, err = svc.SelectPerson(ctx, f.ID, bob.ID)
	require.NoError(t, err)

	// The item vanishes before the commit runs.
	_, err = repo.DeleteStockItem(ctx, it.ID)
	require.NoError(t, err)

	_, _, err = svc.SubmitPin(ctx, f.ID, "456", "")
	assert.ErrorIs(t, err, db.ErrItemNotFound)

	f, err = svc.Get(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, StateCommitting, f.State)

	// Once the item is back, confirm retries the parked commit without
	// re-authenticating.
	require.NoError(t, repo.CreateStockItem(ctx, &models.StockItem{
		ID:       it.ID,
		Category: it.Category,
		Name:     it.Name,
		Quantity: 50,
	}))

	f, mv, err := svc.Confirm(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, StateDone, f.State)
	require.NotNil(t, mv)
	assert.Equal(t, models.MovementAdjustment, mv.Kind)
	assert.Equal(t, 42.0, mv.QtyAfter)

	got, err := repo.FindStockItem(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, 42.0, got.Quantity)
}

func TestCommittedFlowCannotReplay(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	it := seedItem(t, repo, "Tape", 10)
	jane := seedUser(t, repo, "Jane", models.RoleMember, "111")

	f, _ := svc.Start(ctx, ModeWithdrawal, it.ID, jane.ID)
	f, _ = svc.SelectProject(ctx, f.ID, "alpha")
	f, _ = svc.SelectPerson(ctx, f.ID, jane.ID)
	f, _, err := svc.SubmitPin(ctx, f.ID, "111", "")
	require.NoError(t, err)
	f, err = svc.EnterQuantity(ctx, f.ID, "3")
	require.NoError(t, err)

	f, _, err = svc.Confirm(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, StateDone, f.State)

	// The finished flow is gone; a repeated confirm cannot withdraw again.
	_, _, err = svc.Confirm(ctx, f.ID)
	assert.ErrorIs(t, err, ErrFlowNotFound)

	got, _ := repo.FindStockItem(ctx, it.ID)
	assert.Equal(t, 7.0, got.Quantity)
	assert.Len(t, movements(t, repo, it.ID), 1)
}

func TestWithdrawalRejectsExcessQuantity(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	it := seedItem(t, repo, "Tape", 10)
	jane := seedUser(t, repo, "Jane", models.RoleMember, "111")

	f, _ := svc.Start(ctx, ModeWithdrawal, it.ID, jane.ID)
	f, _ = svc.SelectProject(ctx, f.ID, "alpha")
	f, _ = svc.SelectPerson(ctx, f.ID, jane.ID)
	f, _, err := svc.SubmitPin(ctx, f.ID, "111", "")
	require.NoError(t, err)

	_, err = svc.EnterQuantity(ctx, f.ID, "15")
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// Rejected before any write: stock untouched, no ledger row, and the
	// operator can retry from the same state.
	got, _ := repo.FindStockItem(ctx, it.ID)
	assert.Equal(t, 10.0, got.Quantity)
	assert.Empty(t, movements(t, repo, it.ID))

	f, err = svc.Get(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, StateQuantityEntry, f.State)
}

func TestConfirmWithoutQuantity(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	it := seedItem(t, repo, "Tape", 10)
	jane := seedUser(t, repo, "Jane", models.RoleMember, "111")

	f, _ := svc.Start(ctx, ModeWithdrawal, it.ID, jane.ID)
	f, _ = svc.SelectProject(ctx, f.ID, "alpha")
	f, _ = svc.SelectPerson(ctx, f.ID, jane.ID)
	f, _, _ = svc.SubmitPin(ctx, f.ID, "111", "")

	_, _, err := svc.Confirm(ctx, f.ID)
	assert.ErrorIs(t, err, ErrQuantityInvalid)
	assert.Empty(t, movements(t, repo, it.ID))
}

func TestPinCreationMismatch(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	it := seedItem(t, repo, "Tape", 10)
	jane := seedUser(t, repo, "Jane", models.RoleMember, "")

	f, _ := svc.Start(ctx, ModeWithdrawal, it.ID, jane.ID)
	f, _ = svc.SelectProject(ctx, f.ID, "alpha")
	f, _ = svc.SelectPerson(ctx, f.ID, jane.ID)

	_, _, err := svc.SubmitPin(ctx, f.ID, "123", "124")
	assert.ErrorIs(t, err, ErrPinMismatch)

	// Nothing stored, flow stays at the gate.
	u, _ := repo.FindUserByID(ctx, jane.ID)
	assert.False(t, u.HasPin())
	f, _ = svc.Get(ctx, f.ID)
	assert.Equal(t, StatePinAuth, f.State)

	// Re-entry from scratch succeeds.
	f, _, err = svc.SubmitPin(ctx, f.ID, "123", "123")
	require.NoError(t, err)
	assert.Equal(t, StateQuantityEntry, f.State)
}

func TestPinLengthValidation(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	it := seedItem(t, repo, "Tape", 10)
	jane := seedUser(t, repo, "Jane", models.RoleMember, "")

	f, _ := svc.Start(ctx, ModeWithdrawal, it.ID, jane.ID)
	f, _ = svc.SelectProject(ctx, f.ID, "alpha")
	f, _ = svc.SelectPerson(ctx, f.ID, jane.ID)

	for _, pin := range []string{"12", "1234", "12a", ""} {
		_, _, err := svc.SubmitPin(ctx, f.ID, pin, pin)
		assert.ErrorIs(t, err, ErrPinLength, "pin %q", pin)
	}
}

func TestWrongPinKeepsGate(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	it := seedItem(t, repo, "Tape", 10)
	jane := seedUser(t, repo, "Jane", models.RoleMember, "321")

	f, _ := svc.Start(ctx, ModeWithdrawal, it.ID, jane.ID)
	f, _ = svc.SelectProject(ctx, f.ID, "alpha")
	f, _ = svc.SelectPerson(ctx, f.ID, jane.ID)

	_, _, err := svc.SubmitPin(ctx, f.ID, "999", "")
	assert.ErrorIs(t, err, ErrWrongPin)

	// No lockout: the right PIN still works.
	f, _, err = svc.SubmitPin(ctx, f.ID, "321", "")
	require.NoError(t, err)
	assert.Equal(t, StateQuantityEntry, f.State)
}

func TestAdjustmentRequiresAdmin(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	it := seedItem(t, repo, "Screws", 50)
	jane := seedUser(t, repo, "Jane", models.RoleMember, "111")
	seedUser(t, repo, "Bob", models.RoleAdmin, "456")

	f, _ := svc.Start(ctx, ModeAdjustment, it.ID, jane.ID)
	f, err := svc.EnterQuantity(ctx, f.ID, "42")
	require.NoError(t, err)

	_, err = svc.SelectPerson(ctx, f.ID, jane.ID)
	assert.ErrorIs(t, err, ErrNotAdmin)

	// The person picker only offers admins in adjustment mode.
	people, err := svc.People(ctx, f.ID)
	require.NoError(t, err)
	require.Len(t, people, 1)
	assert.Equal(t, "Bob", people[0].Username)

	assert.Empty(t, movements(t, repo, it.ID))
}

func TestStepOutOfOrder(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	it := seedItem(t, repo, "Tape", 10)
	jane := seedUser(t, repo, "Jane", models.RoleMember, "111")

	f, _ := svc.Start(ctx, ModeWithdrawal, it.ID, jane.ID)

	_, err := svc.EnterQuantity(ctx, f.ID, "3")
	assert.ErrorIs(t, err, ErrBadState)

	_, err = svc.SelectPerson(ctx, f.ID, jane.ID)
	assert.ErrorIs(t, err, ErrBadState)

	_, _, err = svc.SubmitPin(ctx, f.ID, "111", "")
	assert.ErrorIs(t, err, ErrBadState)
}

func TestUnknownProject(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	it := seedItem(t, repo, "Tape", 10)
	jane := seedUser(t, repo, "Jane", models.RoleMember, "")

	f, _ := svc.Start(ctx, ModeWithdrawal, it.ID, jane.ID)
	_, err := svc.SelectProject(ctx, f.ID, "skunkworks")
	assert.ErrorIs(t, err, ErrUnknownProject)
}

func TestStartUnknownItem(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Start(context.Background(), ModeWithdrawal, uuid.NewString(), "u1")
	assert.ErrorIs(t, err, db.ErrItemNotFound)
}

func TestAbortLeavesPinBehind(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	it := seedItem(t, repo, "Tape", 10)
	jane := seedUser(t, repo, "Jane", models.RoleMember, "")

	f, _ := svc.Start(ctx, ModeWithdrawal, it.ID, jane.ID)
	f, _ = svc.SelectProject(ctx, f.ID, "alpha")
	f, _ = svc.SelectPerson(ctx, f.ID, jane.ID)
	f, _, err := svc.SubmitPin(ctx, f.ID, "123", "123")
	require.NoError(t, err)

	aborted, err := svc.Abort(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, StateAborted, aborted.State)

	_, err = svc.Get(ctx, f.ID)
	assert.ErrorIs(t, err, ErrFlowNotFound)

	// The PIN created mid-flow is durable; nothing else was written.
	u, _ := repo.FindUserByID(ctx, jane.ID)
	assert.True(t, u.HasPin())
	got, _ := repo.FindStockItem(ctx, it.ID)
	assert.Equal(t, 10.0, got.Quantity)
	assert.Empty(t, movements(t, repo, it.ID))
}

func TestParseQuantity(t *testing.T) {
	for _, raw := range []string{"abc", "", "NaN", "Inf", "-Inf", "-1", "-0.5"} {
		_, err := ParseQuantity(raw)
		assert.ErrorIs(t, err, ErrQuantityInvalid, "raw %q", raw)
	}

	q, err := ParseQuantity("3.5")
	require.NoError(t, err)
	assert.Equal(t, 3.5, q)

	q, err = ParseQuantity("0")
	require.NoError(t, err)
	assert.Equal(t, 0.0, q)
}
