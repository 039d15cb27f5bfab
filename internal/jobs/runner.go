package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"lunari-cart/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrQueueFull is returned by Submit when the bounded queue is full.
// Callers log and move on: post-processing is best-effort and must
// never block or fail the payment flow.
var ErrQueueFull = errors.New("job queue full")

// Job is one idempotent post-processing task scoped to a single order.
type Job struct {
	Name    string
	OrderID uuid.UUID
	Run     func(ctx context.Context) error
}

// Then chains fn after the job's own work; fn only runs when the job
// succeeded.
func (j Job) Then(fn func(ctx context.Context) error) Job {
	run := j.Run
	j.Run = func(ctx context.Context) error {
		if err := run(ctx); err != nil {
			return err
		}
		return fn(ctx)
	}
	return j
}

// FailureRecorder persists jobs that exhausted their retries so they
// can be reconciled manually.
type FailureRecorder interface {
	RecordFailure(ctx context.Context, jobName string, orderID uuid.UUID, cause string) error
}

// Runner executes jobs on a bounded worker pool with a bounded queue.
type Runner struct {
	queue       chan Job
	workers     int
	maxAttempts int
	baseBackoff time.Duration
	failures    FailureRecorder

	wg sync.WaitGroup

	// mu serializes Submit's send against Stop's close of the queue.
	mu     sync.Mutex
	closed bool
}

type Option func(*Runner)

func WithMaxAttempts(n int) Option {
	return func(r *Runner) { r.maxAttempts = n }
}

func WithBackoff(d time.Duration) Option {
	return func(r *Runner) { r.baseBackoff = d }
}

func NewRunner(workers, queueSize int, failures FailureRecorder, opts ...Option) *Runner {
	if workers <= 0 {
		workers = 1
	}
	r := &Runner{
		queue:       make(chan Job, queueSize),
		workers:     workers,
		maxAttempts: 3,
		baseBackoff: 500 * time.Millisecond,
		failures:    failures,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) Start(ctx context.Context) {
	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			for j := range r.queue {
				r.execute(ctx, j)
			}
		}()
	}
}

// Submit enqueues a job without blocking. A full queue, or a stopped
// runner, rejects the job.
func (r *Runner) Submit(j Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrQueueFull
	}
	select {
	case r.queue <- j:
		return nil
	default:
		logger.L().Warn("job rejected, queue full",
			zap.String("job", j.Name),
			zap.String("order_id", j.OrderID.String()),
		)
		return ErrQueueFull
	}
}

// Stop closes the queue and waits for in-flight jobs to drain.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *Runner) execute(ctx context.Context, j Job) {
	log := logger.FromCtx(ctx).With(
		zap.String("job", j.Name),
		zap.String("order_id", j.OrderID.String()),
	)

	backoff := r.baseBackoff
	var err error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if err = j.Run(ctx); err == nil {
			log.Info("job completed", zap.Int("attempt", attempt))
			return
		}

		log.Warn("job attempt failed",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		if attempt == r.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			attempt = r.maxAttempts
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	// Exhausted: record for manual reconciliation, never propagate.
	log.Error("job failed after retries, manual reconciliation required", zap.Error(err))
	if r.failures != nil {
		if recErr := r.failures.RecordFailure(ctx, j.Name, j.OrderID, err.Error()); recErr != nil {
			log.Error("failed to record job failure", zap.Error(recErr))
		}
	}
}
