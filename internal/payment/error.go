package payment

import (
	"errors"
	"fmt"
)

var (
	ErrPaymentNotFound = errors.New("payment not found")
	ErrInvalidState    = errors.New("invalid payment status transition")

	// ErrAlreadyProcessed means the payment is terminal; a second
	// confirmation attempt for the same token is rejected with this.
	ErrAlreadyProcessed = errors.New("payment already processed")
)

// FailedError is the distinguished failure kind for gateway rejections
// and provider/network errors. ResponseCode is the provider's code when
// one was returned (-1 for transport-level failures).
type FailedError struct {
	ResponseCode int
	Message      string
	Err          error
}

func (e *FailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payment failed (code %d): %s: %v", e.ResponseCode, e.Message, e.Err)
	}
	return fmt.Sprintf("payment failed (code %d): %s", e.ResponseCode, e.Message)
}

func (e *FailedError) Unwrap() error { return e.Err }

// AsFailed unwraps err into a *FailedError when it is one.
func AsFailed(err error) (*FailedError, bool) {
	var fe *FailedError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
