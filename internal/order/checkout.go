package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fjod/bakehouse/internal/domain"
)

const dateLayout = "2006-01-02"

type CheckoutRequest struct {
	Items          []domain.CartLineItem
	PaymentMethod  domain.PaymentMethod
	DeliveryMethod domain.DeliveryMethod
	ScheduledDate  string
	ScheduledTime  string
	// PaymentProof references an uploaded GCash receipt.
	PaymentProof string
}

// Checkout turns the caller's cart snapshot into a pending order. Stock is
// deducted line by line before the order is written and is not given back
// if a later step fails. The caller clears the cart only on success.
func (s *Service) Checkout(ctx context.Context, who domain.Identity, req CheckoutRequest) (domain.Order, error) {
	if who.IsGuest() {
		return domain.Order{}, ErrUnauthenticated
	}
	if err := s.validateCheckout(req); err != nil {
		return domain.Order{}, err
	}

	items := make([]domain.CartLineItem, len(req.Items))
	copy(items, req.Items)

	var decremented []string
	for _, it := range items {
		if err := s.inventory.DecrementStock(ctx, it.ID, it.Quantity); err != nil {
			s.logger.Error("stock decrement failed mid-checkout",
				"user_id", who.UserID, "product_id", it.ID, "already_decremented", decremented, "error", err)
			return domain.Order{}, fmt.Errorf("decrement stock: %w", err)
		}
		decremented = append(decremented, it.ID)
	}

	o := domain.Order{
		UserID:         who.UserID,
		CustomerName:   who.Name,
		CustomerEmail:  who.Email,
		Items:          items,
		TotalAmount:    domain.SumItems(items),
		Status:         domain.OrderStatusPending,
		PaymentMethod:  req.PaymentMethod,
		PaymentProof:   req.PaymentProof,
		DeliveryMethod: req.DeliveryMethod,
		ScheduledDate:  req.ScheduledDate,
		ScheduledTime:  strings.TrimSpace(req.ScheduledTime),
		CreatedAt:      s.now(),
	}

	o, err := s.insert(ctx, o, domain.OrderIDPrefix)
	if err != nil {
		s.logger.Error("order not persisted after stock was decremented",
			"user_id", who.UserID, "products", decremented, "error", err)
		return domain.Order{}, err
	}

	s.logger.Info("order placed", "order_id", o.ID, "user_id", o.UserID, "total", o.TotalAmount)
	return o, nil
}

func (s *Service) validateCheckout(req CheckoutRequest) error {
	if len(req.Items) == 0 {
		return ErrEmptyCart
	}
	for _, it := range req.Items {
		if it.ID == "" {
			return domain.Invalid("items", "line without product id")
		}
		if it.Quantity <= 0 {
			return domain.Invalid("items", fmt.Sprintf("quantity of %s must be positive", it.ID))
		}
	}
	if !req.PaymentMethod.IsValid() {
		return domain.Invalid("payment_method", fmt.Sprintf("unknown method %q", req.PaymentMethod))
	}
	if req.PaymentMethod == domain.PaymentGCash && strings.TrimSpace(req.PaymentProof) == "" {
		return domain.Invalid("payment_proof", "is required for GCash payments")
	}
	if !req.DeliveryMethod.IsValid() {
		return domain.Invalid("delivery_method", fmt.Sprintf("unknown method %q", req.DeliveryMethod))
	}
	if err := s.validateDate(req.ScheduledDate); err != nil {
		return err
	}
	if strings.TrimSpace(req.ScheduledTime) == "" {
		return domain.Invalid("scheduled_time", "is required")
	}
	return nil
}

// validateDate requires a YYYY-MM-DD date no earlier than tomorrow.
func (s *Service) validateDate(v string) error {
	if v == "" {
		return domain.Invalid("scheduled_date", "is required")
	}
	now := s.now()
	d, err := time.ParseInLocation(dateLayout, v, now.Location())
	if err != nil {
		return domain.Invalid("scheduled_date", "must look like 2006-01-02")
	}
	y, m, day := now.Date()
	tomorrow := time.Date(y, m, day+1, 0, 0, 0, 0, now.Location())
	if d.Before(tomorrow) {
		return domain.Invalid("scheduled_date", "must be tomorrow or later")
	}
	return nil
}
