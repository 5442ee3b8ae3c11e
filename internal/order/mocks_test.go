package order

import (
	"context"
	"errors"
	"sync"

	"github.com/fjod/bakehouse/internal/domain"
	"github.com/fjod/bakehouse/internal/events"
	"github.com/fjod/bakehouse/internal/provider"
	"github.com/fjod/bakehouse/internal/provider/memory"
)

// duplicateOnceStore reports the first CreateOrder as a primary key clash.
type duplicateOnceStore struct {
	*memory.Store
	mu      sync.Mutex
	tripped bool
	ids     []string
}

func (s *duplicateOnceStore) CreateOrder(ctx context.Context, o domain.Order) error {
	s.mu.Lock()
	s.ids = append(s.ids, o.ID)
	first := !s.tripped
	s.tripped = true
	s.mu.Unlock()
	if first {
		return provider.ErrDuplicateOrder
	}
	return s.Store.CreateOrder(ctx, o)
}

// MockNotifier records status notifications and can be told to fail.
type MockNotifier struct {
	mu    sync.Mutex
	Calls []domain.OrderStatus
	Err   error
}

func (m *MockNotifier) ForStatusChange(_ context.Context, o domain.Order, status domain.OrderStatus) (domain.UserNotification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, status)
	return domain.UserNotification{UserID: o.UserID, OrderID: o.ID, OrderStatus: status}, m.Err
}

// MockPublisher records published events.
type MockPublisher struct {
	mu     sync.Mutex
	Events []events.OrderStatusChanged
	Err    error
}

func (m *MockPublisher) PublishStatusChanged(_ context.Context, ev events.OrderStatusChanged) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Events = append(m.Events, ev)
	return nil
}

func (m *MockPublisher) Close() error { return nil }

// MockInventory fails DecrementStock for one product.
type MockInventory struct {
	mu      sync.Mutex
	FailFor string
	Calls   []string
}

func (m *MockInventory) DecrementStock(_ context.Context, productID string, _ int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, productID)
	if productID == m.FailFor {
		return errors.New("inventory unavailable")
	}
	return nil
}

func (m *MockInventory) LowStock(context.Context) ([]domain.Product, error) {
	return nil, nil
}

// sequence returns the given codes in turn, repeating the last one.
func sequence(codes ...string) func() (string, error) {
	var mu sync.Mutex
	i := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		c := codes[min(i, len(codes)-1)]
		i++
		return c, nil
	}
}
