package sqlstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fjod/bakehouse/internal/domain"
	"github.com/fjod/bakehouse/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupSQLite(t *testing.T) *Store {
	s, err := OpenSQLite(":memory:", nil, nil)
	require.NoError(t, err)
	require.NoError(t, s.RunMigrations())
	t.Cleanup(func() { s.Close() })
	return s
}

func setupPostgres(t *testing.T) *Store {
	if testing.Short() {
		t.Skip("needs docker")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	s, err := OpenPostgres(&Credentials{
		Host:     host,
		Port:     port.Int(),
		User:     "testuser",
		Password: "testpass",
		DBName:   "testdb",
	}, nil, nil)
	require.NoError(t, err)
	require.NoError(t, s.RunMigrations())

	t.Cleanup(func() {
		s.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})
	return s
}

func TestSQLite(t *testing.T) {
	runProviderSuite(t, setupSQLite)
}

func TestPostgres(t *testing.T) {
	s := setupPostgres(t)
	// one container for the whole suite; tests use distinct ids
	runProviderSuite(t, func(*testing.T) *Store { return s })
}

func runProviderSuite(t *testing.T, setup func(*testing.T) *Store) {
	t.Run("products", func(t *testing.T) { testProducts(t, setup(t)) })
	t.Run("orders", func(t *testing.T) { testOrders(t, setup(t)) })
	t.Run("users", func(t *testing.T) { testUsers(t, setup(t)) })
	t.Run("notifications", func(t *testing.T) { testNotifications(t, setup(t)) })
	t.Run("subscribe", func(t *testing.T) { testSubscribe(t, setup(t)) })
}

func testProducts(t *testing.T, s *Store) {
	ctx := context.Background()

	p := domain.Product{ID: "prod-1", Name: "Brookies", Price: 180, Category: domain.CategoryCookies, Stock: 4}
	require.NoError(t, s.AddProduct(ctx, p))
	assert.ErrorIs(t, s.AddProduct(ctx, p), provider.ErrDuplicateProduct)

	p.Stock = -2
	require.NoError(t, s.UpdateProduct(ctx, p))

	products, err := s.GetProducts(ctx)
	require.NoError(t, err)
	var found *domain.Product
	for i := range products {
		if products[i].ID == "prod-1" {
			found = &products[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, -2, found.Stock)
	assert.Equal(t, domain.CategoryCookies, found.Category)

	assert.ErrorIs(t, s.UpdateProduct(ctx, domain.Product{ID: "prod-missing"}), provider.ErrProductNotFound)
	require.NoError(t, s.DeleteProduct(ctx, "prod-1"))
	assert.ErrorIs(t, s.DeleteProduct(ctx, "prod-1"), provider.ErrProductNotFound)
}

func testOrders(t *testing.T, s *Store) {
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	order := domain.Order{
		ID:           "ORD-SQL001",
		UserID:       "u-orders",
		CustomerName: "Ana",
		Items: []domain.CartLineItem{
			{Product: domain.Product{ID: "p1", Name: "Brookies", Price: 180}, Quantity: 2},
		},
		TotalAmount:    360,
		Status:         domain.OrderStatusPending,
		PaymentMethod:  domain.PaymentCOD,
		DeliveryMethod: domain.DeliveryPickup,
		ScheduledDate:  "2026-03-05",
		ScheduledTime:  "10:00",
		CreatedAt:      created,
	}
	inquiry := domain.Order{
		ID:              "INQ-SQL002",
		UserID:          domain.GuestUserID,
		CustomerName:    "Ben",
		CustomerEmail:   "ben@example.com",
		Status:          domain.OrderStatusPending,
		PaymentMethod:   domain.PaymentCOD,
		DeliveryMethod:  domain.DeliveryPickup,
		ScheduledDate:   "2026-03-10",
		ScheduledTime:   "TBD",
		CreatedAt:       created.Add(time.Hour),
		IsCustomInquiry: true,
		CustomDetails:   &domain.CustomDetails{Size: "8 inch", Notes: "unicorn"},
	}

	require.NoError(t, s.CreateOrder(ctx, order))
	require.NoError(t, s.CreateOrder(ctx, inquiry))
	assert.ErrorIs(t, s.CreateOrder(ctx, order), provider.ErrDuplicateOrder)

	inquiry.TotalAmount = 1500
	inquiry.Status = domain.OrderStatusConfirmed
	require.NoError(t, s.UpdateOrder(ctx, inquiry))
	assert.ErrorIs(t, s.UpdateOrder(ctx, domain.Order{ID: "ORD-NOPE"}), provider.ErrOrderNotFound)

	orders, err := s.GetOrders(ctx)
	require.NoError(t, err)
	byID := make(map[string]domain.Order)
	for _, o := range orders {
		byID[o.ID] = o
	}

	got := byID["ORD-SQL001"]
	require.Len(t, got.Items, 1)
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.Equal(t, int64(360), got.TotalAmount)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.Nil(t, got.CustomDetails)

	q := byID["INQ-SQL002"]
	assert.True(t, q.IsCustomInquiry)
	assert.Empty(t, q.Items)
	assert.Equal(t, int64(1500), q.TotalAmount)
	assert.Equal(t, domain.OrderStatusConfirmed, q.Status)
	require.NotNil(t, q.CustomDetails)
	assert.Equal(t, "unicorn", q.CustomDetails.Notes)

	// newest first
	assert.Equal(t, "INQ-SQL002", orders[0].ID)
}

func testUsers(t *testing.T, s *Store) {
	ctx := context.Background()

	_, err := s.GetUser(ctx, "u-users")
	assert.ErrorIs(t, err, provider.ErrUserNotFound)

	require.NoError(t, s.SaveUser(ctx, domain.User{ID: "u-users", Name: "Ana", Role: domain.RoleCustomer}))
	renamed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, s.SaveUser(ctx, domain.User{ID: "u-users", Name: "Ana B", Phone: "09171234567", Role: domain.RoleCustomer, LastNameUpdate: &renamed}))

	u, err := s.GetUser(ctx, "u-users")
	require.NoError(t, err)
	assert.Equal(t, "Ana B", u.Name)
	assert.Equal(t, "09171234567", u.Phone)
	require.NotNil(t, u.LastNameUpdate)
	assert.True(t, renamed.Equal(*u.LastNameUpdate))
}

func testNotifications(t *testing.T, s *Store) {
	ctx := context.Background()
	now := time.Now().UTC()

	for i, id := range []string{"n-a1", "n-a2"} {
		require.NoError(t, s.AddUserNotification(ctx, domain.UserNotification{
			ID: id, UserID: "u-notif", Message: "m", OrderID: "ORD-1",
			OrderStatus: domain.OrderStatusBaking, CreatedAt: now.Add(time.Duration(i) * time.Second),
		}))
	}
	require.NoError(t, s.AddUserNotification(ctx, domain.UserNotification{
		ID: "n-b1", UserID: "u-other", Message: "m", OrderID: "ORD-2",
		OrderStatus: domain.OrderStatusConfirmed, CreatedAt: now,
	}))

	list, err := s.GetUserNotifications(ctx, "u-notif")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "n-a2", list[0].ID)
	assert.False(t, list[0].IsRead)

	require.NoError(t, s.MarkNotificationRead(ctx, "n-a1"))
	require.NoError(t, s.MarkNotificationRead(ctx, "n-a1"))
	assert.ErrorIs(t, s.MarkNotificationRead(ctx, "n-missing"), provider.ErrNotificationNotFound)

	require.NoError(t, s.MarkAllNotificationsRead(ctx, "u-notif"))
	list, err = s.GetUserNotifications(ctx, "u-notif")
	require.NoError(t, err)
	for _, n := range list {
		assert.True(t, n.IsRead)
	}

	other, err := s.GetUserNotifications(ctx, "u-other")
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.False(t, other[0].IsRead)
}

func testSubscribe(t *testing.T, s *Store) {
	ctx := context.Background()

	var mu sync.Mutex
	var seen []string
	unsub, err := s.SubscribeToNotifications(ctx, "u-sub", func(n domain.UserNotification) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, n.ID)
	})
	require.NoError(t, err)
	defer unsub()

	require.NoError(t, s.AddUserNotification(ctx, domain.UserNotification{
		ID: "n-sub1", UserID: "u-sub", Message: "m", OrderID: "ORD-3",
		OrderStatus: domain.OrderStatusCompleted, CreatedAt: time.Now().UTC(),
	}))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"n-sub1"}, seen)
}
