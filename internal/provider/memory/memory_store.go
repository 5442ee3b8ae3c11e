package memory

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/fjod/bakehouse/internal/domain"
	"github.com/fjod/bakehouse/internal/provider"
	"github.com/fjod/bakehouse/internal/signal"
)

// Store implements provider.Provider with in-memory storage. State is lost
// on restart.
type Store struct {
	mu            sync.RWMutex
	products      []domain.Product          // catalog order
	orders        []domain.Order            // newest first
	users         map[string]domain.User    // userID -> profile
	notifications []domain.UserNotification // newest first

	bus    signal.Bus
	logger *slog.Logger
}

// NewStore creates a new in-memory store. Notification writes are
// signalled on bus; a nil bus means an in-process one.
func NewStore(bus signal.Bus, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if bus == nil {
		bus = signal.NewLocal()
	}
	return &Store{
		users:  make(map[string]domain.User),
		bus:    bus,
		logger: logger,
	}
}

func (s *Store) GetProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.products), nil
}

func (s *Store) AddProduct(_ context.Context, p domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.productIndex(p.ID) >= 0 {
		return provider.ErrDuplicateProduct
	}
	s.products = append(s.products, p)
	return nil
}

func (s *Store) UpdateProduct(_ context.Context, p domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.productIndex(p.ID)
	if i < 0 {
		return provider.ErrProductNotFound
	}
	s.products[i] = p
	return nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.productIndex(id)
	if i < 0 {
		return provider.ErrProductNotFound
	}
	s.products = slices.Delete(s.products, i, i+1)
	return nil
}

func (s *Store) productIndex(id string) int {
	return slices.IndexFunc(s.products, func(p domain.Product) bool { return p.ID == id })
}

func (s *Store) GetOrders(_ context.Context) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Order, len(s.orders))
	for i, o := range s.orders {
		result[i] = cloneOrder(o)
	}
	return result, nil
}

func (s *Store) CreateOrder(_ context.Context, o domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.orderIndex(o.ID) >= 0 {
		return provider.ErrDuplicateOrder
	}
	s.orders = slices.Insert(s.orders, 0, cloneOrder(o))
	return nil
}

func (s *Store) UpdateOrder(_ context.Context, o domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.orderIndex(o.ID)
	if i < 0 {
		return provider.ErrOrderNotFound
	}
	s.orders[i] = cloneOrder(o)
	return nil
}

func (s *Store) orderIndex(id string) int {
	return slices.IndexFunc(s.orders, func(o domain.Order) bool { return o.ID == id })
}

func cloneOrder(o domain.Order) domain.Order {
	o.Items = slices.Clone(o.Items)
	if o.CustomDetails != nil {
		d := *o.CustomDetails
		o.CustomDetails = &d
	}
	return o
}

func (s *Store) GetUser(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, provider.ErrUserNotFound
	}
	return &u, nil
}

func (s *Store) SaveUser(_ context.Context, u domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return nil
}

func (s *Store) GetUserNotifications(_ context.Context, userID string) ([]domain.UserNotification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.UserNotification, 0)
	for _, n := range s.notifications {
		if n.UserID == userID {
			result = append(result, n)
		}
	}
	return result, nil
}

func (s *Store) AddUserNotification(ctx context.Context, n domain.UserNotification) error {
	s.mu.Lock()
	s.notifications = slices.Insert(s.notifications, 0, n)
	s.mu.Unlock()

	if err := s.bus.Publish(ctx, n.UserID); err != nil {
		s.logger.Warn("notification signal not sent", "notification_id", n.ID, "user_id", n.UserID, "error", err)
	}
	return nil
}

func (s *Store) MarkNotificationRead(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.notifications {
		if s.notifications[i].ID == id {
			s.notifications[i].IsRead = true
			return nil
		}
	}
	return provider.ErrNotificationNotFound
}

func (s *Store) MarkAllNotificationsRead(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.notifications {
		if s.notifications[i].UserID == userID {
			s.notifications[i].IsRead = true
		}
	}
	return nil
}

func (s *Store) SubscribeToNotifications(ctx context.Context, userID string, onNew func(domain.UserNotification)) (func(), error) {
	return provider.Subscribe(ctx, s.bus, s.GetUserNotifications, userID, onNew, s.logger)
}

func (s *Store) Close() error {
	return nil
}
