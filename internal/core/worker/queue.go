package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Job is one queued processing attempt for a payout. The payload is the
// payout id only: all decision state lives in the payout row, so a fresh
// worker instance resumes correctly after a crash with no in-memory state.
type Job struct {
	ID       uuid.UUID
	PayoutID uuid.UUID
	// Attempts is the 1-based attempt number after the claim.
	Attempts int
}

// Queue is the durable at-least-once job queue the dispatcher drains.
//
// ClaimNext atomically claims the next due job for exclusive processing and
// returns (nil, nil) when nothing is due. A claimed job must end in exactly
// one of Complete, Reschedule, or Fail; jobs orphaned by a crashed worker are
// returned to the queue by ReleaseStuck, which is what makes delivery
// at-least-once rather than at-most-once.
type Queue interface {
	ClaimNext(ctx context.Context) (*Job, error)
	Complete(ctx context.Context, jobID uuid.UUID) error
	Reschedule(ctx context.Context, jobID uuid.UUID, runAt time.Time, lastErr string) error
	Fail(ctx context.Context, jobID uuid.UUID, lastErr string) error
	ReleaseStuck(ctx context.Context, olderThan time.Duration) (int, error)
}
