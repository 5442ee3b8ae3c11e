package domain

import (
	"strings"
	"time"
)

type PaymentMethod string

const (
	PaymentCOD   PaymentMethod = "Cash on Delivery"
	PaymentGCash PaymentMethod = "GCash"
)

func (m PaymentMethod) IsValid() bool {
	return m == PaymentCOD || m == PaymentGCash
}

type DeliveryMethod string

const (
	DeliveryPickup   DeliveryMethod = "Pickup"
	DeliveryDelivery DeliveryMethod = "Delivery"
)

func (m DeliveryMethod) IsValid() bool {
	return m == DeliveryPickup || m == DeliveryDelivery
}

const (
	OrderIDPrefix   = "ORD-"
	InquiryIDPrefix = "INQ-"
)

type CustomDetails struct {
	Size           string `json:"size" bson:"size"`
	Notes          string `json:"notes" bson:"notes"`
	ReferenceImage string `json:"reference_image,omitempty" bson:"reference_image,omitempty"`
}

// Order is a placed order or a custom-cake inquiry. Items and TotalAmount
// are frozen at placement; only an inquiry's quote price may change later.
type Order struct {
	ID              string         `json:"id"`
	UserID          string         `json:"user_id"`
	CustomerName    string         `json:"customer_name"`
	CustomerEmail   string         `json:"customer_email,omitempty"`
	Items           []CartLineItem `json:"items"`
	TotalAmount     int64          `json:"total_amount"`
	Status          OrderStatus    `json:"status"`
	PaymentMethod   PaymentMethod  `json:"payment_method"`
	PaymentProof    string         `json:"payment_proof,omitempty"`
	DeliveryMethod  DeliveryMethod `json:"delivery_method"`
	ScheduledDate   string         `json:"scheduled_date"`
	ScheduledTime   string         `json:"scheduled_time"`
	CreatedAt       time.Time      `json:"created_at"`
	IsCustomInquiry bool           `json:"is_custom_inquiry"`
	CustomDetails   *CustomDetails `json:"custom_details,omitempty"`
}

func (o *Order) IsGuest() bool {
	return o.UserID == "" || o.UserID == GuestUserID
}

// NeedsQuote reports whether an inquiry is still waiting for a price.
func (o *Order) NeedsQuote() bool {
	return o.IsCustomInquiry && o.TotalAmount == 0 && o.Status != OrderStatusCancelled
}

// ShortID strips the ORD-/INQ- prefix, leaving the code customers see.
func ShortID(orderID string) string {
	if s, ok := strings.CutPrefix(orderID, OrderIDPrefix); ok {
		return s
	}
	if s, ok := strings.CutPrefix(orderID, InquiryIDPrefix); ok {
		return s
	}
	return orderID
}

// SumItems returns Σ price × quantity over the line items.
func SumItems(items []CartLineItem) int64 {
	var total int64
	for _, it := range items {
		total += it.Subtotal()
	}
	return total
}
