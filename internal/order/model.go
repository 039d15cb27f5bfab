package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is an immutable snapshot of a cart submitted for payment. Line
// prices are frozen at creation time and never re-read from the catalog.
type Order struct {
	ID            uuid.UUID       `json:"id"`
	Number        string          `json:"number"`
	CartID        uuid.UUID       `json:"cartId"`
	OwnerID       uuid.UUID       `json:"ownerId"`
	Status        Status          `json:"status"`
	Total         decimal.Decimal `json:"total"`
	PointsEarned  int             `json:"pointsEarned"`
	CustomerNotes string          `json:"customerNotes,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	CompletedAt   *time.Time      `json:"completedAt,omitempty"`
	Items         []OrderItem     `json:"items"`
}

type OrderItem struct {
	ID        uuid.UUID       `json:"id"`
	OrderID   uuid.UUID       `json:"orderId"`
	ServiceID int             `json:"serviceId"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	CreatedAt time.Time       `json:"createdAt"`
}

var pointsDivisor = decimal.NewFromInt(100)

// PointsFor computes loyalty points for an order total: 1 point per
// 100 CLP, rounded down.
func PointsFor(total decimal.Decimal) int {
	if total.Sign() <= 0 {
		return 0
	}
	return int(total.Div(pointsDivisor).Floor().IntPart())
}
