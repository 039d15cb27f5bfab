package order

import (
	"context"
	"strings"
	"testing"
	"time"

	"lunari-cart/internal/cart"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateFromCartTx(ctx context.Context, o *Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) GetByNumber(ctx context.Context, number string) (*Order, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, f Filter) ([]*Order, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Order), args.Error(1)
}

func (m *MockRepository) UpdateStatus(ctx context.Context, id uuid.UUID, next Status) error {
	args := m.Called(ctx, id, next)
	return args.Error(0)
}

func (m *MockRepository) MarkCompleted(ctx context.Context, id uuid.UUID, points int) error {
	args := m.Called(ctx, id, points)
	return args.Error(0)
}

func checkoutCart() *cart.Cart {
	cartID := uuid.New()
	return &cart.Cart{
		ID:      cartID,
		OwnerID: uuid.New(),
		Status:  cart.StatusActive,
		Items: []cart.CartItem{
			{
				ID:        uuid.New(),
				CartID:    cartID,
				ServiceID: 1,
				Code:      "SRV-001",
				Name:      "Basic Wash",
				Quantity:  2,
				UnitPrice: decimal.NewFromInt(9990),
				Subtotal:  decimal.NewFromInt(19980),
			},
			{
				ID:        uuid.New(),
				CartID:    cartID,
				ServiceID: 2,
				Code:      "SRV-002",
				Name:      "Wax",
				Quantity:  1,
				UnitPrice: decimal.NewFromInt(25050),
				Subtotal:  decimal.NewFromInt(25050),
			},
		},
	}
}

func TestService_CreateFromCart(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockRepository)
		svc := NewService(mockRepo)
		c := checkoutCart()

		mockRepo.On("CreateFromCartTx", mock.Anything, mock.Anything).Return(nil)

		o, err := svc.CreateFromCart(context.Background(), c, "ring the bell")
		require.NoError(t, err)

		assert.Equal(t, StatusPendingPayment, o.Status)
		assert.Equal(t, c.ID, o.CartID)
		assert.Equal(t, c.OwnerID, o.OwnerID)
		assert.Equal(t, "ring the bell", o.CustomerNotes)
		assert.True(t, o.Total.Equal(decimal.NewFromInt(45030)))
		// 1 point per 100 CLP, floored.
		assert.Equal(t, 450, o.PointsEarned)

		require.Len(t, o.Items, 2)
		assert.Equal(t, "SRV-001", o.Items[0].Code)
		assert.Equal(t, o.ID, o.Items[0].OrderID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("EmptyCart", func(t *testing.T) {
		mockRepo := new(MockRepository)
		svc := NewService(mockRepo)
		c := checkoutCart()
		c.Items = nil

		_, err := svc.CreateFromCart(context.Background(), c, "")
		assert.ErrorIs(t, err, cart.ErrCartEmpty)
		mockRepo.AssertNotCalled(t, "CreateFromCartTx")
	})

	t.Run("CheckoutConflict", func(t *testing.T) {
		mockRepo := new(MockRepository)
		svc := NewService(mockRepo)

		mockRepo.On("CreateFromCartTx", mock.Anything, mock.Anything).Return(ErrCheckoutConflict)

		_, err := svc.CreateFromCart(context.Background(), checkoutCart(), "")
		assert.ErrorIs(t, err, ErrCheckoutConflict)
	})
}

func TestGenerateOrderNumber(t *testing.T) {
	n1 := generateOrderNumber()
	n2 := generateOrderNumber()

	datePart := time.Now().Format("20060102")
	assert.True(t, strings.HasPrefix(n1, "ORD-"+datePart+"-"))
	assert.Len(t, n1, len("ORD-")+8+1+5)
	assert.NotEqual(t, n1, n2)
}

func TestService_GetByID(t *testing.T) {
	id := uuid.New()

	t.Run("NotFound", func(t *testing.T) {
		mockRepo := new(MockRepository)
		svc := NewService(mockRepo)
		mockRepo.On("GetByID", mock.Anything, id).Return(nil, nil)

		_, err := svc.GetByID(context.Background(), id)
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockRepository)
		svc := NewService(mockRepo)
		mockRepo.On("GetByID", mock.Anything, id).Return(&Order{ID: id}, nil)

		o, err := svc.GetByID(context.Background(), id)
		assert.NoError(t, err)
		assert.Equal(t, id, o.ID)
	})
}

func TestService_Cancel(t *testing.T) {
	id := uuid.New()

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockRepository)
		svc := NewService(mockRepo)
		mockRepo.On("UpdateStatus", mock.Anything, id, StatusCancelled).Return(nil)
		mockRepo.On("GetByID", mock.Anything, id).Return(&Order{ID: id, Status: StatusCancelled}, nil)

		o, err := svc.Cancel(context.Background(), id)
		assert.NoError(t, err)
		assert.Equal(t, StatusCancelled, o.Status)
	})

	t.Run("AlreadyTerminal", func(t *testing.T) {
		mockRepo := new(MockRepository)
		svc := NewService(mockRepo)
		mockRepo.On("UpdateStatus", mock.Anything, id, StatusCancelled).Return(ErrInvalidTransition)

		_, err := svc.Cancel(context.Background(), id)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestPointsFor(t *testing.T) {
	cases := []struct {
		total  int64
		points int
	}{
		{0, 0},
		{99, 0},
		{100, 1},
		{19980, 199},
		{45030, 450},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.points, PointsFor(decimal.NewFromInt(tc.total)))
	}
	assert.Equal(t, 0, PointsFor(decimal.NewFromInt(-500)))
}
