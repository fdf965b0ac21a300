package checkout

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundtrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	f := &Flow{ID: "f1", Mode: ModeWithdrawal, State: StateProjectSelect}
	require.NoError(t, s.Save(ctx, f))

	got, err := s.Get(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, f, got)

	require.NoError(t, s.Delete(ctx, "f1"))
	_, err = s.Get(ctx, "f1")
	assert.ErrorIs(t, err, ErrFlowNotFound)
}

func TestMemoryStoreGetMissing(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrFlowNotFound)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, &Flow{ID: "f1", State: StateProjectSelect}))

	a, err := s.Get(ctx, "f1")
	require.NoError(t, err)
	a.State = StateDone

	// Mutating a returned flow must not leak into the store.
	b, err := s.Get(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, StateProjectSelect, b.State)
}
