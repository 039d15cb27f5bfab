package order

import "errors"

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrInvalidOrderState = errors.New("operation not allowed in current order state")

	// ErrCheckoutConflict means the cart was no longer ACTIVE when the
	// order transaction tried to claim it: either a concurrent checkout
	// won, or an order already exists for the cart.
	ErrCheckoutConflict = errors.New("cart already checked out")
)
