package order

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Filter narrows List results. Nil fields are ignored.
type Filter struct {
	OwnerID *uuid.UUID
	Status  *Status
	From    *time.Time
	To      *time.Time
}

type Repository interface {
	// CreateFromCartTx inserts the order and its items and flips the
	// originating cart ACTIVE -> CHECKED_OUT in one transaction. The
	// guarded cart update serializes concurrent checkouts: losing the
	// race yields ErrCheckoutConflict and nothing is written.
	CreateFromCartTx(ctx context.Context, o *Order) error

	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetByNumber(ctx context.Context, number string) (*Order, error)
	List(ctx context.Context, f Filter) ([]*Order, error)

	// UpdateStatus applies a transition after validating it against the
	// state machine, inside a row-locking transaction.
	UpdateStatus(ctx context.Context, id uuid.UUID, next Status) error
	MarkCompleted(ctx context.Context, id uuid.UUID, points int) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateFromCartTx(ctx context.Context, o *Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE carts SET status = 'CHECKED_OUT', updated_at = NOW()
		WHERE id = $1 AND status = 'ACTIVE'
	`, o.CartID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return ErrCheckoutConflict
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, number, cart_id, owner_id, status, total, points_earned, customer_notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`, o.ID, o.Number, o.CartID, o.OwnerID, o.Status, o.Total, o.PointsEarned, o.CustomerNotes)
	if err != nil {
		// The unique index on orders.cart_id is the backstop for the
		// guard above.
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == "23505" {
			return ErrCheckoutConflict
		}
		return err
	}

	for i := range o.Items {
		it := &o.Items[i]
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, service_id, code, name, quantity, unit_price, subtotal, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		`, it.ID, it.OrderID, it.ServiceID, it.Code, it.Name, it.Quantity, it.UnitPrice, it.Subtotal)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

const orderColumns = `id, number, cart_id, owner_id, status, total, points_earned, customer_notes, created_at, updated_at, completed_at`

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *repository) GetByNumber(ctx context.Context, number string) (*Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE number = $1`, number)
}

func (r *repository) getOne(ctx context.Context, query string, arg interface{}) (*Order, error) {
	row := r.db.QueryRowContext(ctx, query, arg)

	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	items, err := r.itemsForOrder(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (r *repository) List(ctx context.Context, f Filter) ([]*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE 1=1`
	var args []interface{}

	next := func(v interface{}) string {
		args = append(args, v)
		return placeholder(len(args))
	}

	if f.OwnerID != nil {
		query += ` AND owner_id = ` + next(*f.OwnerID)
	}
	if f.Status != nil {
		query += ` AND status = ` + next(*f.Status)
	}
	if f.From != nil {
		query += ` AND created_at >= ` + next(*f.From)
	}
	if f.To != nil {
		query += ` AND created_at < ` + next(*f.To)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *repository) itemsForOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, service_id, code, name, quantity, unit_price, subtotal, created_at
		FROM order_items WHERE order_id = $1 ORDER BY created_at
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(
			&it.ID, &it.OrderID, &it.ServiceID, &it.Code, &it.Name,
			&it.Quantity, &it.UnitPrice, &it.Subtotal, &it.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, next Status) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var current Status
	err = tx.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&current)
	if err == sql.ErrNoRows {
		return ErrOrderNotFound
	}
	if err != nil {
		return err
	}

	if !CanTransition(current, next) {
		return ErrInvalidTransition
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2
	`, next, id); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *repository) MarkCompleted(ctx context.Context, id uuid.UUID, points int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET completed_at = NOW(), points_earned = $1, updated_at = NOW()
		WHERE id = $2 AND status = 'PAID'
	`, points, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInvalidOrderState
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.Number, &o.CartID, &o.OwnerID, &o.Status, &o.Total,
		&o.PointsEarned, &o.CustomerNotes, &o.CreatedAt, &o.UpdatedAt, &o.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}
