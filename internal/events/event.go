package events

import (
	"context"
	"time"

	"github.com/fjod/bakehouse/internal/domain"
)

const TopicOrderStatus = "order-status"

// OrderStatusChanged is published after an order's status is persisted.
type OrderStatusChanged struct {
	OrderID         string             `json:"order_id"`
	UserID          string             `json:"user_id"`
	CustomerName    string             `json:"customer_name"`
	CustomerEmail   string             `json:"customer_email,omitempty"`
	From            domain.OrderStatus `json:"from"`
	To              domain.OrderStatus `json:"to"`
	IsCustomInquiry bool               `json:"is_custom_inquiry"`
	TotalAmount     int64              `json:"total_amount"`
	OccurredAt      time.Time          `json:"occurred_at"`
}

func NewOrderStatusChanged(o domain.Order, from domain.OrderStatus, at time.Time) OrderStatusChanged {
	return OrderStatusChanged{
		OrderID:         o.ID,
		UserID:          o.UserID,
		CustomerName:    o.CustomerName,
		CustomerEmail:   o.CustomerEmail,
		From:            from,
		To:              o.Status,
		IsCustomInquiry: o.IsCustomInquiry,
		TotalAmount:     o.TotalAmount,
		OccurredAt:      at,
	}
}

type Publisher interface {
	PublishStatusChanged(ctx context.Context, ev OrderStatusChanged) error
	Close() error
}

// NopPublisher drops events. Used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishStatusChanged(context.Context, OrderStatusChanged) error { return nil }
func (NopPublisher) Close() error                                                   { return nil }
