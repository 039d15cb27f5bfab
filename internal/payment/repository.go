package payment

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

type Repository interface {
	Save(ctx context.Context, p *Payment) error
	GetByToken(ctx context.Context, token string) (*Payment, error)
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*Payment, error)

	MarkAuthorized(ctx context.Context, id uuid.UUID, authCode string, responseCode int) error
	MarkConfirmed(ctx context.Context, id uuid.UUID) error
	MarkRejected(ctx context.Context, id uuid.UUID, responseCode int) error
	MarkExpired(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Save(ctx context.Context, p *Payment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payments (id, order_id, method, status, amount, token, buy_order, session_id, payment_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
	`, p.ID, p.OrderID, p.Method, p.Status, p.Amount, p.Token, p.BuyOrder, p.SessionID, p.PaymentURL)
	return err
}

const paymentColumns = `id, order_id, method, status, amount, token, buy_order, session_id, payment_url, authorization_code, response_code, created_at, confirmed_at`

func (r *repository) GetByToken(ctx context.Context, token string) (*Payment, error) {
	return r.getOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE token = $1`, token)
}

func (r *repository) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*Payment, error) {
	return r.getOne(ctx, `
		SELECT `+paymentColumns+` FROM payments WHERE order_id = $1
		ORDER BY created_at DESC LIMIT 1
	`, orderID)
}

func (r *repository) getOne(ctx context.Context, query string, arg interface{}) (*Payment, error) {
	row := r.db.QueryRowContext(ctx, query, arg)

	var p Payment
	var authCode sql.NullString
	err := row.Scan(
		&p.ID, &p.OrderID, &p.Method, &p.Status, &p.Amount, &p.Token,
		&p.BuyOrder, &p.SessionID, &p.PaymentURL, &authCode, &p.ResponseCode,
		&p.CreatedAt, &p.ConfirmedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.AuthorizationCode = authCode.String
	return &p, nil
}

// Status writes are guarded by the expected current status so a stale
// caller cannot overwrite a terminal payment.

func (r *repository) MarkAuthorized(ctx context.Context, id uuid.UUID, authCode string, responseCode int) error {
	return r.transition(ctx, `
		UPDATE payments SET status = $1, authorization_code = $2, response_code = $3
		WHERE id = $4 AND status = $5
	`, StatusAuthorized, authCode, responseCode, id, StatusInitiated)
}

func (r *repository) MarkConfirmed(ctx context.Context, id uuid.UUID) error {
	return r.transition(ctx, `
		UPDATE payments SET status = $1, confirmed_at = NOW()
		WHERE id = $2 AND status = $3
	`, StatusConfirmed, id, StatusAuthorized)
}

func (r *repository) MarkRejected(ctx context.Context, id uuid.UUID, responseCode int) error {
	return r.transition(ctx, `
		UPDATE payments SET status = $1, response_code = $2, confirmed_at = NOW()
		WHERE id = $3 AND status IN ($4, $5)
	`, StatusRejected, responseCode, id, StatusInitiated, StatusAuthorized)
}

func (r *repository) MarkExpired(ctx context.Context, id uuid.UUID) error {
	return r.transition(ctx, `
		UPDATE payments SET status = $1
		WHERE id = $2 AND status = $3
	`, StatusExpired, id, StatusInitiated)
}

func (r *repository) transition(ctx context.Context, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInvalidState
	}
	return nil
}
