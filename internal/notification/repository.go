package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/bakehouse/internal/domain"
	"github.com/google/uuid"
)

var ErrNoOwner = errors.New("notification needs a registered owner")

// Store is the slice of the persistence provider this package needs.
type Store interface {
	GetUserNotifications(ctx context.Context, userID string) ([]domain.UserNotification, error)
	AddUserNotification(ctx context.Context, n domain.UserNotification) error
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) error
}

type Repository struct {
	store Store
	now   func() time.Time
}

func NewRepository(store Store) *Repository {
	return &Repository{store: store, now: time.Now}
}

// List returns every notification of userID, newest first.
func (r *Repository) List(ctx context.Context, userID string) ([]domain.UserNotification, error) {
	items, err := r.store.GetUserNotifications(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return items, nil
}

// Add persists a new unread notification and returns it with id and
// timestamp filled in. Guests cannot own notifications.
func (r *Repository) Add(ctx context.Context, n domain.UserNotification) (domain.UserNotification, error) {
	if n.UserID == "" || n.UserID == domain.GuestUserID {
		return n, ErrNoOwner
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = r.now()
	}
	n.IsRead = false

	if err := r.store.AddUserNotification(ctx, n); err != nil {
		return n, fmt.Errorf("add notification: %w", err)
	}
	return n, nil
}

// ForStatusChange builds and stores the notification for an order that
// just moved to status.
func (r *Repository) ForStatusChange(ctx context.Context, order domain.Order, status domain.OrderStatus) (domain.UserNotification, error) {
	return r.Add(ctx, domain.UserNotification{
		UserID:      order.UserID,
		Message:     Message(order.ID, status),
		OrderID:     order.ID,
		OrderStatus: status,
	})
}

func (r *Repository) MarkRead(ctx context.Context, id string) error {
	if err := r.store.MarkNotificationRead(ctx, id); err != nil {
		return fmt.Errorf("mark notification %s read: %w", id, err)
	}
	return nil
}

func (r *Repository) MarkAllRead(ctx context.Context, userID string) error {
	if err := r.store.MarkAllNotificationsRead(ctx, userID); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

func (r *Repository) UnreadCount(ctx context.Context, userID string) (int, error) {
	items, err := r.List(ctx, userID)
	if err != nil {
		return 0, err
	}
	return CountUnread(items), nil
}

func CountUnread(items []domain.UserNotification) int {
	n := 0
	for _, it := range items {
		if !it.IsRead {
			n++
		}
	}
	return n
}
