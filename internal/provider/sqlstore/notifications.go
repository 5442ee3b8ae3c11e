package sqlstore

import (
	"context"
	"fmt"

	"github.com/fjod/bakehouse/internal/domain"
	"github.com/fjod/bakehouse/internal/provider"
)

func (s *Store) GetUserNotifications(ctx context.Context, userID string) ([]domain.UserNotification, error) {
	query := `SELECT id, user_id, message, order_id, order_status, is_read, created_at
	          FROM notifications WHERE user_id = $1 ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	result := make([]domain.UserNotification, 0)
	for rows.Next() {
		var n domain.UserNotification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.OrderID, &n.OrderStatus, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification row: %w", err)
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return result, nil
}

// AddUserNotification inserts n and then signals the owner. A failed
// signal is logged; the row is already durable and the next signal will
// carry it.
func (s *Store) AddUserNotification(ctx context.Context, n domain.UserNotification) error {
	query := `INSERT INTO notifications (id, user_id, message, order_id, order_status, is_read, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.db.ExecContext(ctx, query,
		n.ID, n.UserID, n.Message, n.OrderID, string(n.OrderStatus), n.IsRead, n.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}

	if err := s.bus.Publish(ctx, n.UserID); err != nil {
		s.logger.Warn("notification signal not sent", "notification_id", n.ID, "user_id", n.UserID, "error", err)
	}
	return nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return requireRow(res, provider.ErrNotificationNotFound)
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`, userID)
	if err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}
