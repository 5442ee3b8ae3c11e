package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/bakehouse/internal/domain"
	"github.com/fjod/bakehouse/internal/events"
	"github.com/fjod/bakehouse/internal/provider"
)

// UpdateStatus moves an order to status and notifies its owner.
//
// An unknown order id returns (nil, nil). Writing the current status is a
// successful no-op. When the order is persisted but the notification or
// the status event fails, the updated order is returned together with an
// error wrapping ErrNotificationNotSaved and/or ErrEventNotPublished.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	if !status.IsValid() {
		return nil, domain.Invalid("status", fmt.Sprintf("unknown status %q", status))
	}

	o, err := s.Order(ctx, orderID)
	if errors.Is(err, provider.ErrOrderNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	from := o.Status
	if from == status {
		return o, nil
	}
	if !s.policy(from, status) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, from, status)
	}

	o.Status = status
	if err := s.store.UpdateOrder(ctx, *o); err != nil {
		if errors.Is(err, provider.ErrOrderNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("update order %s: %w", orderID, err)
	}
	s.logger.Info("order status changed", "order_id", o.ID, "from", from, "to", status)

	var errs []error
	if status != domain.OrderStatusPending && !o.IsGuest() {
		if _, err := s.notifier.ForStatusChange(ctx, *o, status); err != nil {
			s.logger.Error("notification not saved", "order_id", o.ID, "user_id", o.UserID, "error", err)
			errs = append(errs, fmt.Errorf("%w: %w", ErrNotificationNotSaved, err))
		}
	}
	if err := s.events.PublishStatusChanged(ctx, events.NewOrderStatusChanged(*o, from, s.now())); err != nil {
		s.logger.Warn("status event not published", "order_id", o.ID, "error", err)
		errs = append(errs, fmt.Errorf("%w: %w", ErrEventNotPublished, err))
	}
	return o, errors.Join(errs...)
}

// SetQuotePrice stores the agreed price of a custom inquiry. The status is
// left alone and nobody is notified. An unknown order id returns (nil, nil).
func (s *Service) SetQuotePrice(ctx context.Context, orderID string, amount int64) (*domain.Order, error) {
	if amount < 0 {
		return nil, domain.Invalid("amount", "must not be negative")
	}

	o, err := s.Order(ctx, orderID)
	if errors.Is(err, provider.ErrOrderNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !o.IsCustomInquiry {
		return nil, ErrNotInquiry
	}

	o.TotalAmount = amount
	if err := s.store.UpdateOrder(ctx, *o); err != nil {
		if errors.Is(err, provider.ErrOrderNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("update order %s: %w", orderID, err)
	}
	s.logger.Info("inquiry quoted", "order_id", o.ID, "amount", amount)
	return o, nil
}
