package provider

import (
	"context"
	"errors"

	"github.com/fjod/bakehouse/internal/domain"
)

// Common errors returned by providers
var (
	ErrProductNotFound      = errors.New("product not found")
	ErrDuplicateProduct     = errors.New("product with this id already exists")
	ErrOrderNotFound        = errors.New("order not found")
	ErrDuplicateOrder       = errors.New("order with this id already exists")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrUserNotFound         = errors.New("user not found")
)

// Provider is the persistence contract the order lifecycle runs on.
// Implementations are chosen once at startup; callers never branch on
// which one is active.
type Provider interface {
	GetProducts(ctx context.Context) ([]domain.Product, error)
	AddProduct(ctx context.Context, p domain.Product) error
	// UpdateProduct replaces the whole record (last writer wins).
	UpdateProduct(ctx context.Context, p domain.Product) error
	DeleteProduct(ctx context.Context, id string) error

	// GetOrders returns every order, newest first.
	GetOrders(ctx context.Context) ([]domain.Order, error)
	CreateOrder(ctx context.Context, o domain.Order) error
	UpdateOrder(ctx context.Context, o domain.Order) error

	GetUser(ctx context.Context, id string) (*domain.User, error)
	SaveUser(ctx context.Context, u domain.User) error

	// GetUserNotifications returns read and unread notifications, newest first.
	GetUserNotifications(ctx context.Context, userID string) ([]domain.UserNotification, error)
	// AddUserNotification persists n and raises a signal for n.UserID.
	AddUserNotification(ctx context.Context, n domain.UserNotification) error
	MarkNotificationRead(ctx context.Context, id string) error
	// MarkAllNotificationsRead flips every unread notification of the user
	// in a single step.
	MarkAllNotificationsRead(ctx context.Context, userID string) error

	// SubscribeToNotifications calls onNew with candidate notifications for
	// userID whenever the provider learns of a change. Delivery is
	// at-least-once: the same notification may be passed many times.
	SubscribeToNotifications(ctx context.Context, userID string, onNew func(domain.UserNotification)) (unsubscribe func(), err error)

	Close() error
}
