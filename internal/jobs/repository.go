package jobs

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Failure is a job that exhausted its retries, kept for manual
// reconciliation.
type Failure struct {
	ID         uuid.UUID  `json:"id"`
	JobName    string     `json:"jobName"`
	OrderID    uuid.UUID  `json:"orderId"`
	Cause      string     `json:"cause"`
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

type FailureRepository interface {
	FailureRecorder
	ListUnresolved(ctx context.Context) ([]Failure, error)
	Resolve(ctx context.Context, id uuid.UUID) error
}

type failureRepository struct {
	db *sql.DB
}

func NewFailureRepository(db *sql.DB) FailureRepository {
	return &failureRepository{db: db}
}

func (r *failureRepository) RecordFailure(ctx context.Context, jobName string, orderID uuid.UUID, cause string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO job_failures (id, job_name, order_id, cause, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`, uuid.New(), jobName, orderID, cause)
	return err
}

func (r *failureRepository) ListUnresolved(ctx context.Context) ([]Failure, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, job_name, order_id, cause, resolved_at, created_at
		FROM job_failures
		WHERE resolved_at IS NULL
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var failures []Failure
	for rows.Next() {
		var f Failure
		if err := rows.Scan(&f.ID, &f.JobName, &f.OrderID, &f.Cause, &f.ResolvedAt, &f.CreatedAt); err != nil {
			return nil, err
		}
		failures = append(failures, f)
	}
	return failures, rows.Err()
}

func (r *failureRepository) Resolve(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE job_failures SET resolved_at = NOW() WHERE id = $1 AND resolved_at IS NULL
	`, id)
	return err
}
