package cart

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type Repository interface {
	CreateCart(ctx context.Context, c *Cart) error
	GetCart(ctx context.Context, id uuid.UUID) (*Cart, error)
	GetActiveCartByOwner(ctx context.Context, ownerID uuid.UUID) (*Cart, error)
	GetCartsByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Cart, error)

	GetItem(ctx context.Context, itemID uuid.UUID) (*CartItem, error)
	GetItemByCartAndService(ctx context.Context, cartID uuid.UUID, serviceID int) (*CartItem, error)
	InsertItem(ctx context.Context, item *CartItem) error
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int, subtotal decimal.Decimal) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	ClearItems(ctx context.Context, cartID uuid.UUID) error
	RecalculateTotal(ctx context.Context, cartID uuid.UUID) error

	// UpdateStatus flips the cart from one status to another and reports
	// whether a row actually changed. The guard serializes concurrent
	// checkout attempts on the same cart.
	UpdateStatus(ctx context.Context, cartID uuid.UUID, from, to Status) (bool, error)
	ExpireCarts(ctx context.Context, now time.Time) (int64, error)
	CountByStatus(ctx context.Context) (*Stats, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateCart(ctx context.Context, c *Cart) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO carts (id, owner_id, status, customer_notes, estimated_total, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`, c.ID, c.OwnerID, c.Status, c.CustomerNotes, c.EstimatedTotal, c.ExpiresAt)
	return err
}

const cartColumns = `id, owner_id, status, customer_notes, estimated_total, expires_at, created_at, updated_at`

func (r *repository) GetCart(ctx context.Context, id uuid.UUID) (*Cart, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+cartColumns+` FROM carts WHERE id = $1
	`, id)

	c, err := scanCart(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	items, err := r.itemsForCart(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Items = items
	return c, nil
}

func (r *repository) GetActiveCartByOwner(ctx context.Context, ownerID uuid.UUID) (*Cart, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+cartColumns+` FROM carts WHERE owner_id = $1 AND status = $2
	`, ownerID, StatusActive)

	c, err := scanCart(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	items, err := r.itemsForCart(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Items = items
	return c, nil
}

func (r *repository) GetCartsByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Cart, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+cartColumns+` FROM carts WHERE owner_id = $1 ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var carts []*Cart
	for rows.Next() {
		c, err := scanCart(rows)
		if err != nil {
			return nil, err
		}
		carts = append(carts, c)
	}
	return carts, rows.Err()
}

const itemColumns = `id, cart_id, service_id, code, name, quantity, unit_price, subtotal, created_at, updated_at`

func (r *repository) itemsForCart(ctx context.Context, cartID uuid.UUID) ([]CartItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+itemColumns+` FROM cart_items WHERE cart_id = $1 ORDER BY created_at
	`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []CartItem
	for rows.Next() {
		var it CartItem
		if err := rows.Scan(
			&it.ID, &it.CartID, &it.ServiceID, &it.Code, &it.Name,
			&it.Quantity, &it.UnitPrice, &it.Subtotal, &it.CreatedAt, &it.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *repository) GetItem(ctx context.Context, itemID uuid.UUID) (*CartItem, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+itemColumns+` FROM cart_items WHERE id = $1
	`, itemID)

	var it CartItem
	err := row.Scan(
		&it.ID, &it.CartID, &it.ServiceID, &it.Code, &it.Name,
		&it.Quantity, &it.UnitPrice, &it.Subtotal, &it.CreatedAt, &it.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *repository) GetItemByCartAndService(ctx context.Context, cartID uuid.UUID, serviceID int) (*CartItem, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+itemColumns+` FROM cart_items WHERE cart_id = $1 AND service_id = $2
	`, cartID, serviceID)

	var it CartItem
	err := row.Scan(
		&it.ID, &it.CartID, &it.ServiceID, &it.Code, &it.Name,
		&it.Quantity, &it.UnitPrice, &it.Subtotal, &it.CreatedAt, &it.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *repository) InsertItem(ctx context.Context, item *CartItem) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cart_items (id, cart_id, service_id, code, name, quantity, unit_price, subtotal, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`, item.ID, item.CartID, item.ServiceID, item.Code, item.Name, item.Quantity, item.UnitPrice, item.Subtotal)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == PgUniqueViolation {
			return ErrItemAlreadyExists
		}
		return err
	}
	return nil
}

func (r *repository) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int, subtotal decimal.Decimal) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE cart_items SET quantity = $1, subtotal = $2, updated_at = NOW() WHERE id = $3
	`, quantity, subtotal, itemID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *repository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1`, itemID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *repository) ClearItems(ctx context.Context, cartID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	return err
}

func (r *repository) RecalculateTotal(ctx context.Context, cartID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE carts
		SET estimated_total = COALESCE((SELECT SUM(subtotal) FROM cart_items WHERE cart_id = $1), 0),
		    updated_at = NOW()
		WHERE id = $1
	`, cartID)
	return err
}

func (r *repository) UpdateStatus(ctx context.Context, cartID uuid.UUID, from, to Status) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE carts SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3
	`, to, cartID, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *repository) ExpireCarts(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE carts SET status = $1, updated_at = NOW()
		WHERE status = $2 AND expires_at < $3
	`, StatusExpired, StatusActive, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *repository) CountByStatus(ctx context.Context) (*Stats, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM carts GROUP BY status
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats Stats
	for rows.Next() {
		var status Status
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		switch status {
		case StatusActive:
			stats.Active = count
		case StatusCheckedOut:
			stats.CheckedOut = count
		case StatusAbandoned:
			stats.Abandoned = count
		case StatusExpired:
			stats.Expired = count
		}
	}
	return &stats, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCart(row rowScanner) (*Cart, error) {
	var c Cart
	err := row.Scan(
		&c.ID, &c.OwnerID, &c.Status, &c.CustomerNotes,
		&c.EstimatedTotal, &c.ExpiresAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
