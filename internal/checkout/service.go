package checkout

import (
	"context"
	"errors"
	"sync/atomic"

	"lunari-cart/internal/cart"
	"lunari-cart/internal/catalog"
	"lunari-cart/internal/jobs"
	"lunari-cart/internal/logger"
	"lunari-cart/internal/loyalty"
	"lunari-cart/internal/order"
	"lunari-cart/internal/payment"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InitiateParams carries the checkout request: which cart to convert and
// where the payment provider should send the buyer back.
type InitiateParams struct {
	CartID    uuid.UUID
	ReturnURL string
	Notes     string
}

// InitiateResult is what the buyer needs to proceed: the frozen order
// plus the provider redirect.
type InitiateResult struct {
	Order       *order.Order     `json:"order"`
	Payment     *payment.Payment `json:"payment"`
	Token       string           `json:"token"`
	RedirectURL string           `json:"redirectUrl"`
}

// ConfirmResult reports the outcome of a committed payment.
type ConfirmResult struct {
	Order   *order.Order     `json:"order"`
	Payment *payment.Payment `json:"payment"`
}

// Service orchestrates the cart-to-paid-order flow.
type Service interface {
	// Initiate converts an ACTIVE, non-empty cart into a PENDING_PAYMENT
	// order and opens a transaction with the payment provider. Every cart
	// line is revalidated against the catalog first; a failed validation
	// leaves the cart untouched and creates no order.
	Initiate(ctx context.Context, params InitiateParams) (*InitiateResult, error)

	// Confirm commits the provider transaction for token. Approved
	// payments flip the order to PAID and enqueue post-processing;
	// rejections flip it to FAILED and surface a *payment.FailedError.
	// A terminal payment returns ErrAlreadyProcessed.
	Confirm(ctx context.Context, token string) (*ConfirmResult, error)

	// RetryPayment opens a fresh provider transaction for an order that is
	// still PENDING_PAYMENT after a failed or abandoned attempt.
	RetryPayment(ctx context.Context, orderID uuid.UUID, returnURL string) (*InitiateResult, error)

	// Expire cancels a PENDING_PAYMENT order whose buyer never returned
	// from the provider.
	Expire(ctx context.Context, orderID uuid.UUID) error
}

type service struct {
	carts    cart.Service
	orders   order.Service
	payments payment.Repository
	gateway  payment.Gateway
	catalog  catalog.Client
	loyalty  loyalty.Client
	runner   *jobs.Runner
}

func NewService(
	carts cart.Service,
	orders order.Service,
	payments payment.Repository,
	gateway payment.Gateway,
	catalogClient catalog.Client,
	loyaltyClient loyalty.Client,
	runner *jobs.Runner,
) Service {
	return &service{
		carts:    carts,
		orders:   orders,
		payments: payments,
		gateway:  gateway,
		catalog:  catalogClient,
		loyalty:  loyaltyClient,
		runner:   runner,
	}
}

func (s *service) Initiate(ctx context.Context, params InitiateParams) (*InitiateResult, error) {
	log := logger.FromCtx(ctx).With(zap.String("cart_id", params.CartID.String()))

	c, err := s.carts.GetCart(ctx, params.CartID)
	if err != nil {
		return nil, err
	}
	if c.Status != cart.StatusActive {
		return nil, cart.ErrCartNotActive
	}
	if len(c.Items) == 0 {
		return nil, cart.ErrCartEmpty
	}

	// Prices were snapshotted when the lines were added; only activity
	// and stock are rechecked here.
	for _, it := range c.Items {
		svc, err := s.catalog.GetService(ctx, it.ServiceID)
		if err != nil {
			return nil, err
		}
		if !svc.Active {
			return nil, cart.ErrServiceInactive
		}
		if svc.Stock < it.Quantity {
			log.Warn("insufficient stock at checkout",
				zap.Int("service_id", it.ServiceID),
				zap.Int("requested", it.Quantity),
				zap.Int("available", svc.Stock),
			)
			return nil, cart.ErrInsufficientStock
		}
	}

	o, err := s.orders.CreateFromCart(ctx, c, params.Notes)
	if err != nil {
		return nil, err
	}

	return s.openTransaction(ctx, o, params.ReturnURL)
}

func (s *service) RetryPayment(ctx context.Context, orderID uuid.UUID, returnURL string) (*InitiateResult, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != order.StatusPendingPayment {
		return nil, order.ErrInvalidOrderState
	}

	// The previous attempt, if any, is dead once a new token exists.
	if prev, err := s.payments.GetByOrderID(ctx, orderID); err == nil && prev != nil && prev.Status == payment.StatusInitiated {
		if err := s.payments.MarkExpired(ctx, prev.ID); err != nil && !errors.Is(err, payment.ErrInvalidState) {
			return nil, err
		}
	}

	return s.openTransaction(ctx, o, returnURL)
}

// openTransaction creates the provider transaction and persists the
// INITIATED payment row for it.
func (s *service) openTransaction(ctx context.Context, o *order.Order, returnURL string) (*InitiateResult, error) {
	log := logger.FromCtx(ctx).With(zap.String("order_number", o.Number))

	p := &payment.Payment{
		ID:        uuid.New(),
		OrderID:   o.ID,
		Method:    payment.MethodWebpayPlus,
		Status:    payment.StatusInitiated,
		Amount:    o.Total,
		BuyOrder:  "BUY-" + o.Number,
		SessionID: "SES-" + o.ID.String(),
	}

	init, err := s.gateway.Create(ctx, p.BuyOrder, p.SessionID, o.Total, returnURL)
	if err != nil {
		log.Error("payment initiation failed", zap.Error(err))
		return nil, err
	}
	p.Token = init.Token
	p.PaymentURL = init.URL

	if err := s.payments.Save(ctx, p); err != nil {
		return nil, err
	}

	log.Info("payment initiated", zap.String("token", p.Token))
	return &InitiateResult{
		Order:       o,
		Payment:     p,
		Token:       p.Token,
		RedirectURL: init.URL + "?token_ws=" + init.Token,
	}, nil
}

func (s *service) Confirm(ctx context.Context, token string) (*ConfirmResult, error) {
	log := logger.FromCtx(ctx).With(zap.String("token", token))

	p, err := s.payments.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, payment.ErrPaymentNotFound
	}
	if p.Status.Terminal() {
		return nil, payment.ErrAlreadyProcessed
	}

	commit, err := s.gateway.Commit(ctx, token)
	if err != nil {
		// Transport-level failure: state is unknown, leave the payment
		// as is so the commit can be retried.
		log.Error("payment commit failed", zap.Error(err))
		return nil, err
	}

	if !commit.Approved() {
		return nil, s.reject(ctx, p, commit.ResponseCode)
	}

	if err := s.payments.MarkAuthorized(ctx, p.ID, commit.AuthorizationCode, commit.ResponseCode); err != nil {
		return nil, err
	}
	if err := s.payments.MarkConfirmed(ctx, p.ID); err != nil {
		return nil, err
	}
	if err := s.orders.UpdateStatus(ctx, p.OrderID, order.StatusPaid); err != nil {
		return nil, err
	}

	o, err := s.orders.GetByID(ctx, p.OrderID)
	if err != nil {
		return nil, err
	}

	log.Info("payment confirmed",
		zap.String("order_number", o.Number),
		zap.String("authorization_code", commit.AuthorizationCode),
	)

	s.enqueuePostPayment(ctx, o)

	confirmed, err := s.payments.GetByToken(ctx, token)
	if err != nil || confirmed == nil {
		confirmed = p
	}
	return &ConfirmResult{Order: o, Payment: confirmed}, nil
}

// reject flips the payment and order to their failure states and wraps
// the provider's response code for the caller.
func (s *service) reject(ctx context.Context, p *payment.Payment, responseCode int) error {
	log := logger.FromCtx(ctx).With(
		zap.String("payment_id", p.ID.String()),
		zap.Int("response_code", responseCode),
	)

	if err := s.payments.MarkRejected(ctx, p.ID, responseCode); err != nil {
		return err
	}
	if err := s.orders.UpdateStatus(ctx, p.OrderID, order.StatusFailed); err != nil {
		log.Error("failed to mark order failed", zap.Error(err))
	}

	log.Warn("payment rejected by provider")
	return &payment.FailedError{
		ResponseCode: responseCode,
		Message:      "transaction rejected by provider",
	}
}

// enqueuePostPayment schedules the stock deduction and points award for
// a paid order. The order is stamped completed once both have run. A
// full queue is logged and left for reconciliation; it never fails the
// confirmation.
func (s *service) enqueuePostPayment(ctx context.Context, o *order.Order) {
	log := logger.FromCtx(ctx).With(zap.String("order_number", o.Number))

	var pending atomic.Int32
	complete := func(ctx context.Context) error {
		if pending.Add(-1) != 0 {
			return nil
		}
		if err := s.orders.MarkCompleted(ctx, o.ID, o.PointsEarned); err != nil {
			log.Error("failed to mark order completed", zap.Error(err))
		}
		return nil
	}

	queued := []jobs.Job{
		jobs.StockReduction(s.catalog, o).Then(complete),
		jobs.PointsAward(s.loyalty, o).Then(complete),
	}
	pending.Store(int32(len(queued)))

	for _, j := range queued {
		if err := s.runner.Submit(j); err != nil {
			// The order stays uncompleted until the dropped job is
			// reconciled by hand.
			log.Error("post-payment job not scheduled",
				zap.String("job", j.Name),
				zap.Error(err),
			)
		}
	}
}

func (s *service) Expire(ctx context.Context, orderID uuid.UUID) error {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if o.Status != order.StatusPendingPayment {
		return order.ErrInvalidOrderState
	}

	if p, err := s.payments.GetByOrderID(ctx, orderID); err == nil && p != nil && p.Status == payment.StatusInitiated {
		if err := s.payments.MarkExpired(ctx, p.ID); err != nil && !errors.Is(err, payment.ErrInvalidState) {
			return err
		}
	}

	if err := s.orders.UpdateStatus(ctx, orderID, order.StatusCancelled); err != nil {
		return err
	}
	logger.FromCtx(ctx).Info("pending order expired", zap.String("order_number", o.Number))
	return nil
}
