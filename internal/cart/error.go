package cart

import "errors"

var (
	// -- Resource State --
	ErrCartNotFound      = errors.New("cart not found")
	ErrCartNotActive     = errors.New("cart is not active")
	ErrCartEmpty         = errors.New("cart is empty")
	ErrItemNotFound      = errors.New("cart item not found")
	ErrItemAlreadyExists = errors.New("cart item already exists")

	// -- Validation & Input --
	ErrInvalidQuantity   = errors.New("quantity must be greater than zero")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrServiceInactive   = errors.New("service is not active")

	// -- Constants (External Systems) --
	PgUniqueViolation = "23505"
)
