package notification

import (
	"testing"

	"github.com/fjod/bakehouse/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestMessage(t *testing.T) {
	tests := []struct {
		name    string
		orderID string
		status  domain.OrderStatus
		want    string
	}{
		{"confirmed", "ORD-ABC123", domain.OrderStatusConfirmed, "Your order #ABC123 has been confirmed! We're getting started."},
		{"baking", "ORD-ABC123", domain.OrderStatusBaking, "Your order #ABC123 is now being baked!"},
		{"completed", "INQ-Q7W2E9", domain.OrderStatusCompleted, "Your order #Q7W2E9 is ready! Come and enjoy."},
		{"cancelled", "ORD-ABC123", domain.OrderStatusCancelled, "Your order #ABC123 has been cancelled. Please contact us for more info."},
		{"fallback", "ORD-ABC123", domain.OrderStatusPending, "Your order #ABC123 status has been updated to Pending."},
		{"no prefix", "legacy-9", domain.OrderStatusBaking, "Your order #legacy-9 is now being baked!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Message(tt.orderID, tt.status))
		})
	}
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Order Ready!", Title(domain.OrderStatusCompleted))
	assert.Equal(t, "Order Update", Title(domain.OrderStatusPending))
}
