package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusInitiated  Status = "INITIATED"
	StatusAuthorized Status = "AUTHORIZED"
	StatusConfirmed  Status = "CONFIRMED"
	StatusRejected   Status = "REJECTED"
	StatusExpired    Status = "EXPIRED"
)

// A payment can only reach CONFIRMED through AUTHORIZED. CONFIRMED,
// REJECTED and EXPIRED are terminal.
var validNext = map[Status]map[Status]bool{
	StatusInitiated:  {StatusAuthorized: true, StatusRejected: true, StatusExpired: true},
	StatusAuthorized: {StatusConfirmed: true, StatusRejected: true},
	StatusConfirmed:  {},
	StatusRejected:   {},
	StatusExpired:    {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func (s Status) Terminal() bool {
	return len(validNext[s]) == 0
}

type Method string

const MethodWebpayPlus Method = "WEBPAY_PLUS"

// Payment records one gateway transaction tied to one order.
type Payment struct {
	ID                uuid.UUID       `json:"id"`
	OrderID           uuid.UUID       `json:"orderId"`
	Method            Method          `json:"method"`
	Status            Status          `json:"status"`
	Amount            decimal.Decimal `json:"amount"`
	Token             string          `json:"token"`
	BuyOrder          string          `json:"buyOrder"`
	SessionID         string          `json:"sessionId"`
	PaymentURL        string          `json:"paymentUrl,omitempty"`
	AuthorizationCode string          `json:"authorizationCode,omitempty"`
	ResponseCode      *int            `json:"responseCode,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	ConfirmedAt       *time.Time      `json:"confirmedAt,omitempty"`
}
