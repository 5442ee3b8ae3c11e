package order

import "errors"

var (
	ErrUnauthenticated   = errors.New("sign in to place an order")
	ErrEmptyCart         = errors.New("cart is empty, nothing to checkout")
	ErrInvalidTransition = errors.New("illegal transition of order status")
	ErrNotInquiry        = errors.New("order is not a custom inquiry")
	ErrIDSpaceExhausted  = errors.New("could not allocate a free order id")

	// Secondary effects. The order change itself has been persisted when
	// one of these is returned.
	ErrNotificationNotSaved = errors.New("order updated but customer notification was not saved")
	ErrEventNotPublished    = errors.New("order updated but status event was not published")
)
