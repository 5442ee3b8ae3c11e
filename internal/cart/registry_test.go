package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/fjod/bakehouse/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSnapshots struct {
	mu      sync.Mutex
	data    map[string][]domain.CartLineItem
	saveErr error
	loadErr error
	saves   int
}

func newMockSnapshots() *mockSnapshots {
	return &mockSnapshots{data: make(map[string][]domain.CartLineItem)}
}

func (m *mockSnapshots) Load(_ context.Context, userID string) ([]domain.CartLineItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	items, ok := m.data[userID]
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	return items, nil
}

func (m *mockSnapshots) Save(_ context.Context, userID string, items []domain.CartLineItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data[userID] = items
	return nil
}

func (m *mockSnapshots) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[userID]; !ok {
		return ErrSnapshotNotFound
	}
	delete(m.data, userID)
	return nil
}

func TestRegistry_PerUserCarts(t *testing.T) {
	r := NewRegistry(nil, nil)
	ctx := context.Background()

	_, err := r.Add(ctx, "alice", loaf)
	require.NoError(t, err)

	assert.Len(t, r.Items(ctx, "alice"), 1)
	assert.Empty(t, r.Items(ctx, "bob"))
}

func TestRegistry_AddOutOfStock(t *testing.T) {
	r := NewRegistry(nil, nil)

	items, err := r.Add(context.Background(), "alice", crinkles)
	assert.ErrorIs(t, err, ErrOutOfStock)
	assert.Empty(t, items)
}

func TestRegistry_SnapshotRoundTrip(t *testing.T) {
	snaps := newMockSnapshots()
	ctx := context.Background()

	r1 := NewRegistry(snaps, nil)
	_, err := r1.Add(ctx, "alice", loaf)
	require.NoError(t, err)
	r1.UpdateQuantity(ctx, "alice", loaf, 4)

	// a fresh registry restores the cart
	r2 := NewRegistry(snaps, nil)
	items := r2.Items(ctx, "alice")
	require.Len(t, items, 1)
	assert.Equal(t, 4, items[0].Quantity)

	r2.Clear(ctx, "alice")
	assert.Empty(t, r2.Items(ctx, "alice"))
	_, err = snaps.Load(ctx, "alice")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestRegistry_SnapshotFailureDoesNotFailMutation(t *testing.T) {
	snaps := newMockSnapshots()
	snaps.saveErr = errors.New("mongo down")
	snaps.loadErr = errors.New("mongo down")
	r := NewRegistry(snaps, nil)
	ctx := context.Background()

	items, err := r.Add(ctx, "alice", loaf)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	items = r.Remove(ctx, "alice", loaf.ID)
	assert.Empty(t, items)
	assert.Equal(t, 2, snaps.saves)
}
