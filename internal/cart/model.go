package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusActive     Status = "ACTIVE"
	StatusCheckedOut Status = "CHECKED_OUT"
	StatusAbandoned  Status = "ABANDONED"
	StatusExpired    Status = "EXPIRED"
)

// DefaultTTL is how long a fresh cart stays usable before the expiry
// sweep marks it EXPIRED.
const DefaultTTL = 30 * 24 * time.Hour

type Cart struct {
	ID             uuid.UUID       `json:"id"`
	OwnerID        uuid.UUID       `json:"ownerId"`
	Status         Status          `json:"status"`
	CustomerNotes  string          `json:"customerNotes,omitempty"`
	EstimatedTotal decimal.Decimal `json:"estimatedTotal"`
	ExpiresAt      time.Time       `json:"expiresAt"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	Items          []CartItem      `json:"items"`
}

type CartItem struct {
	ID        uuid.UUID       `json:"id"`
	CartID    uuid.UUID       `json:"cartId"`
	ServiceID int             `json:"serviceId"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Stats mirrors the cart statistics endpoint of the original API.
type Stats struct {
	Active     int64 `json:"active"`
	CheckedOut int64 `json:"checked_out"`
	Abandoned  int64 `json:"abandoned"`
	Expired    int64 `json:"expired"`
}

func subtotalFor(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}
