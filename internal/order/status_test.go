package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusPendingPayment, StatusPaid))
	assert.True(t, CanTransition(StatusPendingPayment, StatusCancelled))
	assert.True(t, CanTransition(StatusPendingPayment, StatusFailed))

	// Terminal states go nowhere.
	for _, terminal := range []Status{StatusPaid, StatusCancelled, StatusFailed} {
		for _, to := range []Status{StatusPendingPayment, StatusPaid, StatusCancelled, StatusFailed} {
			assert.False(t, CanTransition(terminal, to), "%s -> %s", terminal, to)
		}
	}

	assert.False(t, CanTransition(StatusPaid, StatusPendingPayment))
	assert.False(t, CanTransition(Status("BOGUS"), StatusPaid))
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusPendingPayment.Valid())
	assert.True(t, StatusPaid.Valid())
	assert.False(t, Status("SHIPPED").Valid())
}
