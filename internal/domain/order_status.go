package domain

import "strings"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusConfirmed OrderStatus = "Confirmed"
	OrderStatusBaking    OrderStatus = "Baking"
	OrderStatusCompleted OrderStatus = "Completed"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

var statusRank = map[OrderStatus]int{
	OrderStatusPending:   0,
	OrderStatusConfirmed: 1,
	OrderStatusBaking:    2,
	OrderStatusCompleted: 3,
}

func (s OrderStatus) IsValid() bool {
	if s == OrderStatusCancelled {
		return true
	}
	_, ok := statusRank[s]
	return ok
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// CanTransitionTo reports whether the fulfillment lifecycle allows moving
// from s to next. Forward steps may skip stages; cancellation is allowed
// from any non-terminal status.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if !s.IsValid() || !next.IsValid() || s.IsTerminal() {
		return false
	}
	if next == OrderStatusCancelled {
		return true
	}
	return statusRank[next] > statusRank[s]
}

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}

// ParseOrderStatus accepts both the display value ("Baking") and the
// upper-case constant name ("BAKING").
func ParseOrderStatus(v string) (OrderStatus, bool) {
	for _, s := range []OrderStatus{
		OrderStatusPending, OrderStatusConfirmed, OrderStatusBaking,
		OrderStatusCompleted, OrderStatusCancelled,
	} {
		if strings.EqualFold(v, string(s)) {
			return s, true
		}
	}
	return "", false
}
