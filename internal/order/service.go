package order

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"lunari-cart/internal/cart"
	"lunari-cart/internal/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Service interface {
	// CreateFromCart freezes the cart's lines into a new PENDING_PAYMENT
	// order and marks the cart CHECKED_OUT. At most one order is ever
	// created per cart.
	CreateFromCart(ctx context.Context, c *cart.Cart, notes string) (*Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetByNumber(ctx context.Context, number string) (*Order, error)
	List(ctx context.Context, f Filter) ([]*Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, next Status) error
	Cancel(ctx context.Context, id uuid.UUID) (*Order, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, points int) error
}

type service struct {
	repo Repository
}

var orderCounter atomic.Int64

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreateFromCart(ctx context.Context, c *cart.Cart, notes string) (*Order, error) {
	log := logger.FromCtx(ctx).With(zap.String("cart_id", c.ID.String()))

	if len(c.Items) == 0 {
		return nil, cart.ErrCartEmpty
	}
	if notes == "" {
		notes = c.CustomerNotes
	}

	o := &Order{
		ID:            uuid.New(),
		Number:        generateOrderNumber(),
		CartID:        c.ID,
		OwnerID:       c.OwnerID,
		Status:        StatusPendingPayment,
		CustomerNotes: notes,
	}

	total := decimal.Zero
	for _, ci := range c.Items {
		o.Items = append(o.Items, OrderItem{
			ID:        uuid.New(),
			OrderID:   o.ID,
			ServiceID: ci.ServiceID,
			Code:      ci.Code,
			Name:      ci.Name,
			Quantity:  ci.Quantity,
			UnitPrice: ci.UnitPrice,
			Subtotal:  ci.Subtotal,
		})
		total = total.Add(ci.Subtotal)
	}
	o.Total = total
	o.PointsEarned = PointsFor(total)

	if err := s.repo.CreateFromCartTx(ctx, o); err != nil {
		return nil, err
	}

	log.Info("order created",
		zap.String("order_number", o.Number),
		zap.String("total", o.Total.String()),
		zap.Int("points", o.PointsEarned),
	)
	return o, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func (s *service) GetByNumber(ctx context.Context, number string) (*Order, error) {
	o, err := s.repo.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func (s *service) List(ctx context.Context, f Filter) ([]*Order, error) {
	return s.repo.List(ctx, f)
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, next Status) error {
	return s.repo.UpdateStatus(ctx, id, next)
}

func (s *service) Cancel(ctx context.Context, id uuid.UUID) (*Order, error) {
	if err := s.repo.UpdateStatus(ctx, id, StatusCancelled); err != nil {
		return nil, err
	}
	logger.FromCtx(ctx).Info("order cancelled", zap.String("order_id", id.String()))
	return s.GetByID(ctx, id)
}

func (s *service) MarkCompleted(ctx context.Context, id uuid.UUID, points int) error {
	return s.repo.MarkCompleted(ctx, id, points)
}

// generateOrderNumber builds a human-readable number: ORD-YYYYMMDD-XXXXX.
func generateOrderNumber() string {
	datePart := time.Now().Format("20060102")
	counter := orderCounter.Add(1)
	return fmt.Sprintf("ORD-%s-%05d", datePart, counter%100000)
}
