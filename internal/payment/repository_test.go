package payment

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_Save(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	p := &Payment{
		ID:        uuid.New(),
		OrderID:   uuid.New(),
		Method:    MethodWebpayPlus,
		Status:    StatusInitiated,
		Amount:    decimal.NewFromInt(45030),
		Token:     "tok-123",
		BuyOrder:  "BUY-ORD-20260828-00001",
		SessionID: "SES-abc",
	}

	mock.ExpectExec("INSERT INTO payments").
		WithArgs(p.ID, p.OrderID, p.Method, p.Status, p.Amount, p.Token, p.BuyOrder, p.SessionID, p.PaymentURL).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Save(context.Background(), p))
}

func TestRepository_GetByToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	t.Run("Success", func(t *testing.T) {
		id := uuid.New()
		orderID := uuid.New()
		now := time.Now()

		rows := sqlmock.NewRows([]string{
			"id", "order_id", "method", "status", "amount", "token",
			"buy_order", "session_id", "payment_url", "authorization_code",
			"response_code", "created_at", "confirmed_at",
		}).AddRow(id, orderID, "WEBPAY_PLUS", "CONFIRMED", "45030", "tok-123", "BUY-1", "SES-1", "", "1213", 0, now, now)

		mock.ExpectQuery("SELECT .* FROM payments WHERE token = \\$1").
			WithArgs("tok-123").
			WillReturnRows(rows)

		p, err := repo.GetByToken(context.Background(), "tok-123")
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, StatusConfirmed, p.Status)
		assert.Equal(t, "1213", p.AuthorizationCode)
		require.NotNil(t, p.ResponseCode)
		assert.Equal(t, 0, *p.ResponseCode)
	})

	t.Run("NotFound_ReturnsNil", func(t *testing.T) {
		mock.ExpectQuery("SELECT .* FROM payments WHERE token = \\$1").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		p, err := repo.GetByToken(context.Background(), "missing")
		assert.NoError(t, err)
		assert.Nil(t, p)
	})
}

func TestRepository_Transitions(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	id := uuid.New()

	t.Run("MarkAuthorized", func(t *testing.T) {
		mock.ExpectExec("UPDATE payments SET status = \\$1").
			WithArgs(StatusAuthorized, "1213", 0, id, StatusInitiated).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.MarkAuthorized(context.Background(), id, "1213", 0))
	})

	t.Run("MarkConfirmed_RequiresAuthorized", func(t *testing.T) {
		// Payment still INITIATED: the guard touches zero rows.
		mock.ExpectExec("UPDATE payments SET status = \\$1").
			WithArgs(StatusConfirmed, id, StatusAuthorized).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.MarkConfirmed(context.Background(), id)
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("MarkExpired_OnlyInitiated", func(t *testing.T) {
		mock.ExpectExec("UPDATE payments SET status = \\$1").
			WithArgs(StatusExpired, id, StatusInitiated).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.MarkExpired(context.Background(), id)
		assert.ErrorIs(t, err, ErrInvalidState)
	})
}
