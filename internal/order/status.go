package order

type Status string

const (
	StatusPendingPayment Status = "PENDING_PAYMENT"
	StatusPaid           Status = "PAID"
	StatusCancelled      Status = "CANCELLED"
	StatusFailed         Status = "FAILED"
)

// All transitions are one-directional; PAID, CANCELLED and FAILED are
// terminal.
var validNext = map[Status]map[Status]bool{
	StatusPendingPayment: {StatusPaid: true, StatusCancelled: true, StatusFailed: true},
	StatusPaid:           {},
	StatusCancelled:      {},
	StatusFailed:         {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// Valid reports whether s is a known order status.
func (s Status) Valid() bool {
	_, ok := validNext[s]
	return ok
}
