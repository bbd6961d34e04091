package payouttest

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arhebs/payout-service/internal/core/worker"
)

// QueueJob is the observable state of one job in the fake queue.
type QueueJob struct {
	ID        uuid.UUID
	PayoutID  uuid.UUID
	Status    string
	Attempts  int
	NextRunAt time.Time
	LastError string
	UpdatedAt time.Time
}

// Queue is an in-memory job queue implementing both payout.Enqueuer and
// worker.Queue.
type Queue struct {
	mu   sync.Mutex
	jobs []*QueueJob
}

func NewQueue() *Queue {
	return &Queue{}
}

func (q *Queue) Enqueue(_ context.Context, payoutID uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now()
	q.jobs = append(q.jobs, &QueueJob{
		ID:        uuid.New(),
		PayoutID:  payoutID,
		Status:    "PENDING",
		NextRunAt: now,
		UpdatedAt: now,
	})

	return nil
}

func (q *Queue) ClaimNext(_ context.Context) (*worker.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now()

	for _, job := range q.jobs {
		if job.Status != "PENDING" || job.NextRunAt.After(now) {
			continue
		}

		job.Status = "RUNNING"
		job.Attempts++
		job.UpdatedAt = now

		return &worker.Job{ID: job.ID, PayoutID: job.PayoutID, Attempts: job.Attempts}, nil
	}

	return nil, nil
}

func (q *Queue) Complete(_ context.Context, jobID uuid.UUID) error {
	return q.setState(jobID, "COMPLETED", "")
}

func (q *Queue) Reschedule(_ context.Context, jobID uuid.UUID, runAt time.Time, lastErr string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	job := q.find(jobID)
	if job == nil {
		return nil
	}

	job.Status = "PENDING"
	job.NextRunAt = runAt
	job.LastError = lastErr
	job.UpdatedAt = time.Now()

	return nil
}

func (q *Queue) Fail(_ context.Context, jobID uuid.UUID, lastErr string) error {
	return q.setState(jobID, "FAILED", lastErr)
}

func (q *Queue) ReleaseStuck(_ context.Context, olderThan time.Duration) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	released := 0

	for _, job := range q.jobs {
		if job.Status == "RUNNING" && job.UpdatedAt.Before(cutoff) {
			job.Status = "PENDING"
			job.NextRunAt = time.Now()
			job.UpdatedAt = time.Now()
			released++
		}
	}

	return released, nil
}

// Jobs returns a snapshot of every job for assertions.
func (q *Queue) Jobs() []QueueJob {
	q.mu.Lock()
	defer q.mu.Unlock()

	snapshot := make([]QueueJob, 0, len(q.jobs))
	for _, job := range q.jobs {
		snapshot = append(snapshot, *job)
	}

	return snapshot
}

func (q *Queue) setState(jobID uuid.UUID, state, lastErr string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	job := q.find(jobID)
	if job == nil {
		return nil
	}

	job.Status = state
	job.LastError = lastErr
	job.UpdatedAt = time.Now()

	return nil
}

func (q *Queue) find(jobID uuid.UUID) *QueueJob {
	for _, job := range q.jobs {
		if job.ID == jobID {
			return job
		}
	}

	return nil
}
