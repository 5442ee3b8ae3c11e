package notification

import (
	"fmt"

	"github.com/fjod/bakehouse/internal/domain"
)

// Message renders the customer-facing text for an order entering status.
func Message(orderID string, status domain.OrderStatus) string {
	id := "#" + domain.ShortID(orderID)

	switch status {
	case domain.OrderStatusConfirmed:
		return fmt.Sprintf("Your order %s has been confirmed! We're getting started.", id)
	case domain.OrderStatusBaking:
		return fmt.Sprintf("Your order %s is now being baked!", id)
	case domain.OrderStatusCompleted:
		return fmt.Sprintf("Your order %s is ready! Come and enjoy.", id)
	case domain.OrderStatusCancelled:
		return fmt.Sprintf("Your order %s has been cancelled. Please contact us for more info.", id)
	default:
		return fmt.Sprintf("Your order %s status has been updated to %s.", id, status)
	}
}

// Title is the short heading shown on a toast.
func Title(status domain.OrderStatus) string {
	switch status {
	case domain.OrderStatusConfirmed:
		return "Order Confirmed"
	case domain.OrderStatusBaking:
		return "Now Baking"
	case domain.OrderStatusCompleted:
		return "Order Ready!"
	case domain.OrderStatusCancelled:
		return "Order Cancelled"
	default:
		return "Order Update"
	}
}
