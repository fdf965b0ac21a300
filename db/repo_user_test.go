package db

import (
	"context"
	"testing"
	"time"

	"protolab/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func seedUser(t *testing.T, r *Repo, name, role string) *models.User {
	t.Helper()
	u := &models.User{
		ID:           uuid.NewString(),
		Username:     name,
		DisplayName:  name,
		Role:         role,
		PasswordHash: "x",
	}
	require.NoError(t, r.CreateUser(context.Background(), u))
	return u
}

func TestSetUserPin(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "jane", models.RoleMember)

	assert.False(t, u.HasPin())

	require.NoError(t, r.SetUserPin(ctx, u.ID, "123"))

	got, err := r.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.HasPin())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(got.PinHash), []byte("123")))
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(got.PinHash), []byte("124")))
}

func TestListUsersByRole(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedUser(t, r, "jane", models.RoleMember)
	seedUser(t, r, "bob", models.RoleAdmin)

	all, err := r.ListUsersByRole(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	admins, err := r.ListUsersByRole(ctx, models.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "bob", admins[0].Username)
}

func TestConsumeInvite(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	_, err := r.CreateInvite(ctx, "a@lab.test", "tok1", time.Now().Add(time.Hour), "admin", false)
	require.NoError(t, err)

	inv, err := r.ConsumeInvite(ctx, "tok1")
	require.NoError(t, err)
	assert.NotNil(t, inv.UsedAt)

	// One invite admits one account.
	_, err = r.ConsumeInvite(ctx, "tok1")
	assert.ErrorIs(t, err, ErrInviteInvalid)
}

func TestConsumeInviteExpired(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	_, err := r.CreateInvite(ctx, "b@lab.test", "tok2", time.Now().Add(-time.Minute), "admin", false)
	require.NoError(t, err)

	_, err = r.ConsumeInvite(ctx, "tok2")
	assert.ErrorIs(t, err, ErrInviteInvalid)
}

func TestBootstrapInviteFlag(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	_, err := r.CreateInvite(ctx, "root@lab.test", "tok3", time.Now().Add(time.Hour), "seed", true)
	require.NoError(t, err)

	inv, err := r.ConsumeInvite(ctx, "tok3")
	require.NoError(t, err)
	assert.True(t, inv.Bootstrap)

	// A creator whose name happens to be "bootstrap" mints ordinary
	// member invites; only the flag promotes.
	_, err = r.CreateInvite(ctx, "m@lab.test", "tok4", time.Now().Add(time.Hour), "bootstrap", false)
	require.NoError(t, err)

	inv, err = r.ConsumeInvite(ctx, "tok4")
	require.NoError(t, err)
	assert.False(t, inv.Bootstrap)
}

func TestConsumeInviteUnknownToken(t *testing.T) {
	r := newTestRepo(t)

	_, err := r.ConsumeInvite(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrInviteInvalid)
}
