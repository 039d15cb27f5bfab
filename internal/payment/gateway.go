package payment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type InitResponse struct {
	Token string
	URL   string
}

type CommitResponse struct {
	BuyOrder          string
	SessionID         string
	Amount            decimal.Decimal
	AuthorizationCode string
	PaymentTypeCode   string
	ResponseCode      int
	TransactionDate   *time.Time
	CardNumber        string
}

// Approved reports whether the provider authorized the transaction.
func (r *CommitResponse) Approved() bool {
	return r.ResponseCode == 0
}

// Gateway wraps the external payment provider. Provider and network
// errors are surfaced as *FailedError, never swallowed.
type Gateway interface {
	// Create tokenizes a new transaction and returns the redirect URL
	// the buyer must visit to pay.
	Create(ctx context.Context, buyOrder, sessionID string, amount decimal.Decimal, returnURL string) (*InitResponse, error)

	// Commit confirms the transaction after the buyer returns from the
	// provider. It is caller-driven and must not be retried blindly.
	Commit(ctx context.Context, token string) (*CommitResponse, error)

	// Status reads the current transaction state without committing.
	Status(ctx context.Context, token string) (*CommitResponse, error)
}
