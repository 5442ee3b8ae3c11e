package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/fjod/bakehouse/internal/cache"
	"github.com/fjod/bakehouse/internal/domain"
	"github.com/fjod/bakehouse/internal/provider"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// DefaultLowStockThreshold marks products at or below this stock as low.
const DefaultLowStockThreshold = 5

// Store is the catalog part of the persistence provider.
type Store interface {
	GetProducts(ctx context.Context) ([]domain.Product, error)
	AddProduct(ctx context.Context, p domain.Product) error
	UpdateProduct(ctx context.Context, p domain.Product) error
	DeleteProduct(ctx context.Context, id string) error
}

// Ledger owns product stock. Reads go through the catalog cache; every
// write invalidates it.
type Ledger struct {
	store    Store
	cache    cache.CatalogCache
	sfg      singleflight.Group // Prevents cache stampede
	lowStock int
	logger   *slog.Logger
}

type Option func(*Ledger)

func WithCache(c cache.CatalogCache) Option {
	return func(l *Ledger) { l.cache = c }
}

func WithLowStockThreshold(n int) Option {
	return func(l *Ledger) { l.lowStock = n }
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

func NewLedger(store Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:    store,
		cache:    cache.Nop{},
		lowStock: DefaultLowStockThreshold,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Products returns the catalog in display order.
func (l *Ledger) Products(ctx context.Context) ([]domain.Product, error) {
	v, err, _ := l.sfg.Do("catalog", func() (interface{}, error) {
		products, err := l.cache.Get(ctx)
		if err == nil {
			return products, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			l.logger.Warn("catalog cache get failed", "error", err)
		}

		products, err = l.store.GetProducts(ctx)
		if err != nil {
			return nil, fmt.Errorf("load products: %w", err)
		}

		setCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := l.cache.Set(setCtx, products); err != nil {
			l.logger.Warn("catalog cache set failed", "error", err)
		}

		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]domain.Product)), nil
}

// Product reads one product straight from the store.
func (l *Ledger) Product(ctx context.Context, id string) (*domain.Product, error) {
	products, err := l.store.GetProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	for _, p := range products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, provider.ErrProductNotFound
}

// DecrementStock subtracts qty from a product's stock. Unknown products are
// silently ignored and the result is not clamped at zero: a concurrent
// over-sell shows up as negative stock for the operator to see.
func (l *Ledger) DecrementStock(ctx context.Context, productID string, qty int) error {
	p, err := l.Product(ctx, productID)
	if errors.Is(err, provider.ErrProductNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	p.Stock -= qty
	if err := l.store.UpdateProduct(ctx, *p); err != nil {
		if errors.Is(err, provider.ErrProductNotFound) {
			return nil
		}
		return fmt.Errorf("decrement stock of %s: %w", productID, err)
	}
	l.invalidateCache()
	return nil
}

// SetStock overwrites the stock level of a known product.
func (l *Ledger) SetStock(ctx context.Context, productID string, qty int) (*domain.Product, error) {
	if qty < 0 {
		return nil, domain.Invalid("stock", "must not be negative")
	}
	p, err := l.Product(ctx, productID)
	if err != nil {
		return nil, err
	}

	p.Stock = qty
	if err := l.store.UpdateProduct(ctx, *p); err != nil {
		return nil, fmt.Errorf("set stock of %s: %w", productID, err)
	}
	l.invalidateCache()
	return p, nil
}

// AdjustStock applies delta and clamps at zero, like the +/- buttons of the
// admin dashboard.
func (l *Ledger) AdjustStock(ctx context.Context, productID string, delta int) (*domain.Product, error) {
	p, err := l.Product(ctx, productID)
	if err != nil {
		return nil, err
	}
	return l.SetStock(ctx, productID, max(0, p.Stock+delta))
}

func (l *Ledger) AddProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	p.Name = strings.TrimSpace(p.Name)
	if err := validateProduct(p); err != nil {
		return p, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	if err := l.store.AddProduct(ctx, p); err != nil {
		return p, fmt.Errorf("add product: %w", err)
	}
	l.invalidateCache()
	return p, nil
}

func (l *Ledger) UpdateProduct(ctx context.Context, p domain.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	if err := validateProduct(p); err != nil {
		return err
	}
	if err := l.store.UpdateProduct(ctx, p); err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	l.invalidateCache()
	return nil
}

func (l *Ledger) DeleteProduct(ctx context.Context, id string) error {
	if err := l.store.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	l.invalidateCache()
	return nil
}

// LowStock lists products at or below the low-stock threshold.
func (l *Ledger) LowStock(ctx context.Context) ([]domain.Product, error) {
	products, err := l.Products(ctx)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(products, func(p domain.Product) bool { return p.Stock > l.lowStock }), nil
}

func validateProduct(p domain.Product) error {
	switch {
	case p.Name == "":
		return domain.Invalid("name", "is required")
	case p.Price < 0:
		return domain.Invalid("price", "must not be negative")
	case p.Stock < 0:
		return domain.Invalid("stock", "must not be negative")
	case !p.Category.IsValid():
		return domain.Invalid("category", fmt.Sprintf("unknown category %q", p.Category))
	}
	return nil
}

func (l *Ledger) invalidateCache() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := l.cache.Delete(ctx); err != nil {
		l.logger.Warn("catalog cache invalidate failed", "error", err)
	}
}
