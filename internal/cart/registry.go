package cart

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/fjod/bakehouse/internal/domain"
)

var ErrSnapshotNotFound = errors.New("cart snapshot not found")

// SnapshotStore keeps a copy of a cart so it survives reconnects.
type SnapshotStore interface {
	Load(ctx context.Context, userID string) ([]domain.CartLineItem, error)
	Save(ctx context.Context, userID string, items []domain.CartLineItem) error
	Delete(ctx context.Context, userID string) error
}

// Registry holds one cart per user for API callers.
type Registry struct {
	mu        sync.Mutex
	carts     map[string]*Cart
	snapshots SnapshotStore
	logger    *slog.Logger
}

// NewRegistry creates a registry; snapshots may be nil.
func NewRegistry(snapshots SnapshotStore, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		carts:     make(map[string]*Cart),
		snapshots: snapshots,
		logger:    logger,
	}
}

// Items returns the user's current lines.
func (r *Registry) Items(ctx context.Context, userID string) []domain.CartLineItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cart(ctx, userID).Items()
}

func (r *Registry) Add(ctx context.Context, userID string, p domain.Product) ([]domain.CartLineItem, error) {
	return r.mutate(ctx, userID, func(c *Cart) error { return c.Add(p) })
}

func (r *Registry) UpdateQuantity(ctx context.Context, userID string, p domain.Product, q int) []domain.CartLineItem {
	items, _ := r.mutate(ctx, userID, func(c *Cart) error {
		c.UpdateQuantity(p, q)
		return nil
	})
	return items
}

func (r *Registry) Remove(ctx context.Context, userID, productID string) []domain.CartLineItem {
	items, _ := r.mutate(ctx, userID, func(c *Cart) error {
		c.Remove(productID)
		return nil
	})
	return items
}

func (r *Registry) Clear(ctx context.Context, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, userID)

	if r.snapshots == nil {
		return
	}
	ctx, cancel := snapshotContext(ctx)
	defer cancel()
	if err := r.snapshots.Delete(ctx, userID); err != nil && !errors.Is(err, ErrSnapshotNotFound) {
		r.logger.Warn("cart snapshot delete failed", "user_id", userID, "error", err)
	}
}

func (r *Registry) mutate(ctx context.Context, userID string, fn func(*Cart) error) ([]domain.CartLineItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.cart(ctx, userID)
	if err := fn(c); err != nil {
		return c.Items(), err
	}
	items := c.Items()

	if r.snapshots != nil {
		ctx, cancel := snapshotContext(ctx)
		defer cancel()
		if err := r.snapshots.Save(ctx, userID, items); err != nil {
			r.logger.Warn("cart snapshot save failed", "user_id", userID, "error", err)
		}
	}
	return items, nil
}

// cart returns the live cart, restoring a snapshot on first use. r.mu must
// be held.
func (r *Registry) cart(ctx context.Context, userID string) *Cart {
	if c, ok := r.carts[userID]; ok {
		return c
	}

	c := New(nil)
	if r.snapshots != nil {
		ctx, cancel := snapshotContext(ctx)
		defer cancel()
		items, err := r.snapshots.Load(ctx, userID)
		switch {
		case err == nil:
			c = New(items)
		case !errors.Is(err, ErrSnapshotNotFound):
			r.logger.Warn("cart snapshot load failed", "user_id", userID, "error", err)
		}
	}
	r.carts[userID] = c
	return c
}

func snapshotContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
}
