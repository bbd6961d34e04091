package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arhebs/payout-service/internal/core/worker"
)

const (
	jobPending   = "PENDING"
	jobRunning   = "RUNNING"
	jobCompleted = "COMPLETED"
	jobFailed    = "FAILED"
)

// JobQueue is a durable job queue backed by the payout_jobs table. Delivery
// is at-least-once: claims use FOR UPDATE SKIP LOCKED so concurrent workers
// never pick the same job, and jobs orphaned by a dead worker are swept back
// to PENDING by ReleaseStuck.
type JobQueue struct {
	db *pgxpool.Pool
}

func NewJobQueue(db *pgxpool.Pool) *JobQueue {
	return &JobQueue{db: db}
}

// Enqueue schedules one processing job for the payout, due immediately.
func (q *JobQueue) Enqueue(ctx context.Context, payoutID uuid.UUID) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO payout_jobs (id, payout_id, status, attempts, next_run_at)
		VALUES ($1, $2, $3, 0, now())`,
		uuid.New(), payoutID, jobPending)
	if err != nil {
		return fmt.Errorf("enqueue payout job: %w", err)
	}

	return nil
}

// ClaimNext claims the oldest due job: it is moved to RUNNING and its attempt
// counter incremented in one short transaction. Returns (nil, nil) when no
// job is due.
func (q *JobQueue) ClaimNext(ctx context.Context) (*worker.Job, error) {
	tx, err := q.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin claim transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		jobID    uuid.UUID
		payoutID uuid.UUID
		attempts int
	)

	err = tx.QueryRow(ctx, `
		SELECT id, payout_id, attempts
		FROM payout_jobs
		WHERE status = $1 AND next_run_at <= now()
		ORDER BY created_at
		LIMIT 1
		FOR UPDATE SKIP LOCKED`,
		jobPending).Scan(&jobID, &payoutID, &attempts)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("select due job: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE payout_jobs
		SET status = $2, attempts = attempts + 1, updated_at = now()
		WHERE id = $1`,
		jobID, jobRunning); err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit claim: %w", err)
	}

	return &worker.Job{ID: jobID, PayoutID: payoutID, Attempts: attempts + 1}, nil
}

func (q *JobQueue) Complete(ctx context.Context, jobID uuid.UUID) error {
	return q.setJobState(ctx, jobID, jobCompleted, "")
}

// Reschedule returns the job to the queue for another attempt at runAt.
func (q *JobQueue) Reschedule(ctx context.Context, jobID uuid.UUID, runAt time.Time, lastErr string) error {
	_, err := q.db.Exec(ctx, `
		UPDATE payout_jobs
		SET status = $2, next_run_at = $3, last_error = $4, updated_at = now()
		WHERE id = $1`,
		jobID, jobPending, runAt, lastErr)
	if err != nil {
		return fmt.Errorf("reschedule job: %w", err)
	}

	return nil
}

func (q *JobQueue) Fail(ctx context.Context, jobID uuid.UUID, lastErr string) error {
	return q.setJobState(ctx, jobID, jobFailed, lastErr)
}

// ReleaseStuck returns RUNNING jobs that have not progressed since the cutoff
// back to PENDING. This is the crash-recovery path: a worker that died after
// claiming a job never reached Complete/Reschedule/Fail, so its job becomes
// due again (and will be skipped or retried based on the payout row's state).
func (q *JobQueue) ReleaseStuck(ctx context.Context, olderThan time.Duration) (int, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE payout_jobs
		SET status = $1, next_run_at = now(), updated_at = now()
		WHERE status = $2 AND updated_at < $3`,
		jobPending, jobRunning, time.Now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("release stuck jobs: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

func (q *JobQueue) setJobState(ctx context.Context, jobID uuid.UUID, state, lastErr string) error {
	_, err := q.db.Exec(ctx, `
		UPDATE payout_jobs
		SET status = $2, last_error = NULLIF($3, ''), updated_at = now()
		WHERE id = $1`,
		jobID, state, lastErr)
	if err != nil {
		return fmt.Errorf("set job state %s: %w", state, err)
	}

	return nil
}
