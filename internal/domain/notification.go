package domain

import "time"

type UserNotification struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	Message     string      `json:"message"`
	OrderID     string      `json:"order_id"`
	OrderStatus OrderStatus `json:"order_status"`
	IsRead      bool        `json:"is_read"`
	CreatedAt   time.Time   `json:"created_at"`
}
