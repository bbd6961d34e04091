package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Config carries the dispatcher's scheduling knobs. Pass it explicitly at
// construction; there is no ambient global configuration.
type Config struct {
	// Workers is the number of concurrent polling goroutines.
	Workers int
	// PollInterval is how long an idle worker sleeps before polling again.
	PollInterval time.Duration
	// MaxAttempts is the total number of processing attempts per job.
	MaxAttempts int
	// BackoffBase is the delay before the second attempt; it doubles per
	// attempt up to BackoffMax.
	BackoffBase time.Duration
	BackoffMax  time.Duration
	// StuckJobTimeout is how long a claimed job may sit unfinished before the
	// sweeper returns it to the queue (crash recovery).
	StuckJobTimeout time.Duration
}

func (c *Config) normalize() {
	if c.Workers <= 0 {
		c.Workers = 4
	}

	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}

	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}

	if c.BackoffMax <= 0 {
		c.BackoffMax = 60 * time.Second
	}

	if c.StuckJobTimeout <= 0 {
		c.StuckJobTimeout = 5 * time.Minute
	}
}

// Backoff returns the delay scheduled after a failed attempt (1-based):
// base after the first, doubling per attempt, bounded by max.
func Backoff(base, max time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}

	if attempt < 1 {
		attempt = 1
	}

	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= max || delay < 0 {
			return max
		}
	}

	if delay > max {
		return max
	}

	return delay
}

// Dispatcher drains the job queue with a pool of polling workers and applies
// the retry policy: transient failures are rescheduled with exponential
// backoff until MaxAttempts, anything else routes to the failure hook.
type Dispatcher struct {
	queue     Queue
	processor *Processor
	onFailure FailureHook
	cfg       Config

	wg sync.WaitGroup
}

func NewDispatcher(queue Queue, processor *Processor, onFailure FailureHook, cfg Config) *Dispatcher {
	cfg.normalize()

	return &Dispatcher{
		queue:     queue,
		processor: processor,
		onFailure: onFailure,
		cfg:       cfg,
	}
}

// Start launches the worker pool and the stuck-job sweeper. The pool runs
// until ctx is cancelled; call Wait to block until all workers have stopped.
func (d *Dispatcher) Start(ctx context.Context) {
	slog.Info("dispatcher starting", "workers", d.cfg.Workers, "max_attempts", d.cfg.MaxAttempts)

	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)

		go func() {
			defer d.wg.Done()
			d.runWorker(ctx)
		}()
	}

	d.wg.Add(1)

	go func() {
		defer d.wg.Done()
		d.runSweeper(ctx)
	}()
}

// Wait blocks until every worker launched by Start has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) runWorker(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		handled, err := d.DispatchOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}

			slog.Error("failed to claim job", "error", err)
		}

		if !handled {
			sleepContext(ctx, d.cfg.PollInterval)
		}
	}
}

func (d *Dispatcher) runSweeper(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			released, err := d.queue.ReleaseStuck(ctx, d.cfg.StuckJobTimeout)
			if err != nil {
				if ctx.Err() == nil {
					slog.Error("failed to release stuck jobs", "error", err)
				}

				continue
			}

			if released > 0 {
				jobsReleased.Add(float64(released))
				slog.Warn("released stuck jobs back to the queue", "count", released)
			}
		}
	}
}

// DispatchOnce claims at most one due job and runs it to a terminal queue
// state. It reports whether a job was handled.
func (d *Dispatcher) DispatchOnce(ctx context.Context) (bool, error) {
	job, err := d.queue.ClaimNext(ctx)
	if err != nil {
		return false, err
	}

	if job == nil {
		return false, nil
	}

	d.dispatch(ctx, job)

	return true, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, job *Job) {
	result, err := d.processor.Process(ctx, job.PayoutID, job.Attempts)

	switch {
	case err == nil:
		jobsProcessed.WithLabelValues(string(result.Outcome)).Inc()

		if qErr := d.queue.Complete(ctx, job.ID); qErr != nil {
			slog.Error("failed to complete job", "job_id", job.ID, "error", qErr)
		}
	case isRetryable(err) && job.Attempts < d.cfg.MaxAttempts:
		delay := Backoff(d.cfg.BackoffBase, d.cfg.BackoffMax, job.Attempts)
		jobsProcessed.WithLabelValues("retried").Inc()
		slog.Warn("scheduling retry",
			"payout_id", job.PayoutID, "attempt", job.Attempts, "delay", delay, "error", err)

		if qErr := d.queue.Reschedule(ctx, job.ID, time.Now().Add(delay), err.Error()); qErr != nil {
			slog.Error("failed to reschedule job", "job_id", job.ID, "error", qErr)
		}
	default:
		// Retries exhausted, or the error is not retryable at all. Either
		// way the job is finished and the payout is terminated as FAILED.
		jobsProcessed.WithLabelValues("failed").Inc()
		d.onFailure.OnFailure(ctx, job.PayoutID, err)

		if qErr := d.queue.Fail(ctx, job.ID, err.Error()); qErr != nil {
			slog.Error("failed to mark job FAILED", "job_id", job.ID, "error", qErr)
		}
	}
}

func isRetryable(err error) bool {
	var pe *ProcessingError

	return errors.As(err, &pe)
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
