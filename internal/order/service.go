package order

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fjod/bakehouse/internal/domain"
	"github.com/fjod/bakehouse/internal/events"
)

// Store is the order part of the persistence provider.
type Store interface {
	GetOrders(ctx context.Context) ([]domain.Order, error)
	CreateOrder(ctx context.Context, o domain.Order) error
	UpdateOrder(ctx context.Context, o domain.Order) error
}

// Inventory is implemented by inventory.Ledger.
type Inventory interface {
	DecrementStock(ctx context.Context, productID string, qty int) error
	LowStock(ctx context.Context) ([]domain.Product, error)
}

// Notifier is implemented by notification.Repository.
type Notifier interface {
	ForStatusChange(ctx context.Context, order domain.Order, status domain.OrderStatus) (domain.UserNotification, error)
}

// TransitionPolicy decides whether an order may move from one status to
// another. Same-status writes never reach the policy.
type TransitionPolicy func(from, to domain.OrderStatus) bool

// StrictTransitions enforces the fulfillment lifecycle.
func StrictTransitions(from, to domain.OrderStatus) bool {
	return from.CanTransitionTo(to)
}

// PermissiveTransitions lets an operator write any status, including
// reopening finished orders.
func PermissiveTransitions(_, _ domain.OrderStatus) bool {
	return true
}

// ParseTransitionPolicy maps the ORDER_TRANSITIONS setting to a policy.
func ParseTransitionPolicy(name string) (TransitionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "strict":
		return StrictTransitions, nil
	case "permissive":
		return PermissiveTransitions, nil
	}
	return nil, fmt.Errorf("unknown transition policy %q", name)
}

type Service struct {
	store     Store
	inventory Inventory
	notifier  Notifier
	events    events.Publisher
	policy    TransitionPolicy
	now       func() time.Time
	newCode   func() (string, error)
	logger    *slog.Logger
}

type Option func(*Service)

func WithTransitionPolicy(p TransitionPolicy) Option {
	return func(s *Service) { s.policy = p }
}

func WithEvents(p events.Publisher) Option {
	return func(s *Service) { s.events = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// withCodeGenerator replaces the random id source. Tests only.
func withCodeGenerator(gen func() (string, error)) Option {
	return func(s *Service) { s.newCode = gen }
}

func NewService(store Store, inventory Inventory, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		store:     store,
		inventory: inventory,
		notifier:  notifier,
		events:    events.NopPublisher{},
		policy:    StrictTransitions,
		now:       time.Now,
		newCode:   randomCode,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
