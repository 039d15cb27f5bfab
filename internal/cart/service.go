package cart

import (
	"context"
	"time"

	"lunari-cart/internal/catalog"
	"lunari-cart/internal/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type AddItemParams struct {
	CartID    uuid.UUID
	ServiceID int
	Quantity  int
}

// Service defines the business logic for carts.
type Service interface {
	GetOrCreateActiveCart(ctx context.Context, ownerID uuid.UUID) (*Cart, error)
	GetCart(ctx context.Context, id uuid.UUID) (*Cart, error)
	GetCartsByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Cart, error)
	AddItem(ctx context.Context, params AddItemParams) (*CartItem, error)
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) (*CartItem, error)
	RemoveItem(ctx context.Context, itemID uuid.UUID) error
	ClearCart(ctx context.Context, cartID uuid.UUID) error
	Abandon(ctx context.Context, cartID uuid.UUID) error
	ExpireCarts(ctx context.Context, now time.Time) (int64, error)
	Stats(ctx context.Context) (*Stats, error)
}

type service struct {
	repo    Repository
	catalog catalog.Client
}

func NewService(repo Repository, catalogClient catalog.Client) Service {
	return &service{repo: repo, catalog: catalogClient}
}

// GetOrCreateActiveCart returns the owner's ACTIVE cart, creating one when
// none exists. The partial unique index on (owner_id, status=ACTIVE) keeps
// concurrent callers from ending up with two.
func (s *service) GetOrCreateActiveCart(ctx context.Context, ownerID uuid.UUID) (*Cart, error) {
	existing, err := s.repo.GetActiveCartByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	c := &Cart{
		ID:             uuid.New(),
		OwnerID:        ownerID,
		Status:         StatusActive,
		EstimatedTotal: decimal.Zero,
		ExpiresAt:      time.Now().Add(DefaultTTL),
	}
	if err := s.repo.CreateCart(ctx, c); err != nil {
		// Lost the race: another request created the active cart first.
		if fromRace, raceErr := s.repo.GetActiveCartByOwner(ctx, ownerID); raceErr == nil && fromRace != nil {
			return fromRace, nil
		}
		return nil, err
	}

	logger.FromCtx(ctx).Info("cart created",
		zap.String("cart_id", c.ID.String()),
		zap.String("owner_id", ownerID.String()),
	)
	return c, nil
}

func (s *service) GetCart(ctx context.Context, id uuid.UUID) (*Cart, error) {
	c, err := s.repo.GetCart(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCartNotFound
	}
	return c, nil
}

func (s *service) GetCartsByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Cart, error) {
	return s.repo.GetCartsByOwner(ctx, ownerID)
}

// AddItem puts a catalog service into an ACTIVE cart, snapshotting the
// current price. Adding a service already in the cart merges quantities.
func (s *service) AddItem(ctx context.Context, params AddItemParams) (*CartItem, error) {
	if params.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	c, err := s.repo.GetCart(ctx, params.CartID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCartNotFound
	}
	if c.Status != StatusActive {
		return nil, ErrCartNotActive
	}

	svc, err := s.catalog.GetService(ctx, params.ServiceID)
	if err != nil {
		return nil, err
	}
	if !svc.Active {
		return nil, ErrServiceInactive
	}

	existing, err := s.repo.GetItemByCartAndService(ctx, params.CartID, params.ServiceID)
	if err != nil {
		return nil, err
	}

	finalQty := params.Quantity
	if existing != nil {
		finalQty += existing.Quantity
	}
	if svc.Stock < finalQty {
		return nil, ErrInsufficientStock
	}

	var item *CartItem
	if existing == nil {
		item = &CartItem{
			ID:        uuid.New(),
			CartID:    params.CartID,
			ServiceID: svc.ID,
			Code:      svc.Code,
			Name:      svc.Name,
			Quantity:  params.Quantity,
			UnitPrice: svc.Price,
			Subtotal:  subtotalFor(svc.Price, params.Quantity),
		}
		if err := s.repo.InsertItem(ctx, item); err != nil {
			return nil, err
		}
	} else {
		// Merged lines keep the original price snapshot.
		existing.Quantity = finalQty
		existing.Subtotal = subtotalFor(existing.UnitPrice, finalQty)
		if err := s.repo.UpdateItemQuantity(ctx, existing.ID, finalQty, existing.Subtotal); err != nil {
			return nil, err
		}
		item = existing
	}

	if err := s.repo.RecalculateTotal(ctx, params.CartID); err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateItemQuantity changes a line's quantity; zero or less removes it
// and returns nil.
func (s *service) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) (*CartItem, error) {
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}

	c, err := s.repo.GetCart(ctx, item.CartID)
	if err != nil {
		return nil, err
	}
	if c == nil || c.Status != StatusActive {
		return nil, ErrCartNotActive
	}

	if quantity <= 0 {
		if err := s.repo.DeleteItem(ctx, itemID); err != nil {
			return nil, err
		}
		if err := s.repo.RecalculateTotal(ctx, item.CartID); err != nil {
			return nil, err
		}
		return nil, nil
	}

	item.Quantity = quantity
	item.Subtotal = subtotalFor(item.UnitPrice, quantity)
	if err := s.repo.UpdateItemQuantity(ctx, itemID, quantity, item.Subtotal); err != nil {
		return nil, err
	}
	if err := s.repo.RecalculateTotal(ctx, item.CartID); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) RemoveItem(ctx context.Context, itemID uuid.UUID) error {
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return err
	}
	if item == nil {
		return ErrItemNotFound
	}
	if err := s.repo.DeleteItem(ctx, itemID); err != nil {
		return err
	}
	return s.repo.RecalculateTotal(ctx, item.CartID)
}

func (s *service) ClearCart(ctx context.Context, cartID uuid.UUID) error {
	c, err := s.repo.GetCart(ctx, cartID)
	if err != nil {
		return err
	}
	if c == nil {
		return ErrCartNotFound
	}
	if c.Status != StatusActive {
		return ErrCartNotActive
	}
	if err := s.repo.ClearItems(ctx, cartID); err != nil {
		return err
	}
	return s.repo.RecalculateTotal(ctx, cartID)
}

func (s *service) Abandon(ctx context.Context, cartID uuid.UUID) error {
	flipped, err := s.repo.UpdateStatus(ctx, cartID, StatusActive, StatusAbandoned)
	if err != nil {
		return err
	}
	if !flipped {
		c, err := s.repo.GetCart(ctx, cartID)
		if err != nil {
			return err
		}
		if c == nil {
			return ErrCartNotFound
		}
		return ErrCartNotActive
	}
	return nil
}

func (s *service) ExpireCarts(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.repo.ExpireCarts(ctx, now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.FromCtx(ctx).Info("expired stale carts", zap.Int64("count", n))
	}
	return n, nil
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.CountByStatus(ctx)
}
