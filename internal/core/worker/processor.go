// Package worker contains the asynchronous processing core: the per-attempt
// payout processor, the polling dispatcher with retry and backoff, and the
// failure handler that terminates a payout once the queue gives up on it.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/arhebs/payout-service/internal/core/domain"
	"github.com/arhebs/payout-service/internal/core/payout"
)

// ProcessingError marks a transient failure of the external effect. The
// dispatcher retries jobs that fail with it, up to the configured attempt cap;
// any other error exhausts the job immediately.
type ProcessingError struct {
	Err error
}

func (e *ProcessingError) Error() string {
	return "payout processing failed: " + e.Err.Error()
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// ErrPermanentEffect marks an external-effect failure that retrying cannot
// fix, such as a provider rejecting the payout outright. Effects wrap it to
// bypass the retry policy.
var ErrPermanentEffect = errors.New("permanent effect failure")

// Effect performs the external payment call for a payout. It runs without
// holding the payout's row lock and may be slow.
type Effect func(ctx context.Context, p *domain.Payout) error

type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeSkipped   Outcome = "skipped"
)

// Result is the terminal outcome of one processing attempt that did not error.
type Result struct {
	Outcome Outcome
	// Status is the payout status observed when the attempt was skipped.
	Status domain.Status
}

// Processor executes one processing attempt for a payout.
type Processor struct {
	store  payout.Store
	effect Effect
}

func NewProcessor(store payout.Store, effect Effect) *Processor {
	return &Processor{store: store, effect: effect}
}

// Process runs a single attempt for the payout:
//
//  1. Lock the row; if it is no longer PENDING the attempt is a no-op
//     (duplicate or late redelivery) and reports OutcomeSkipped.
//  2. Move it to PROCESSING and release the lock.
//  3. Perform the external effect outside any lock.
//  4. On success, lock again and mark COMPLETED.
//  5. On a transient failure, lock again and revert to PENDING so the retry
//     redelivery finds the row eligible, then return a ProcessingError for
//     the dispatcher to schedule that retry.
func (pr *Processor) Process(ctx context.Context, payoutID uuid.UUID, attempt int) (Result, error) {
	slog.Info("processing payout", "payout_id", payoutID, "attempt", attempt)

	var (
		snapshot *domain.Payout
		observed domain.Status
		skipped  bool
	)

	_, err := pr.store.WithLock(ctx, payoutID, func(p *domain.Payout) error {
		if p.Status != domain.StatusPending {
			observed = p.Status
			skipped = true

			return nil
		}

		clone := *p
		snapshot = &clone
		p.Status = domain.StatusProcessing

		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("claim payout %s: %w", payoutID, err)
	}

	if skipped {
		slog.Warn("payout not PENDING, skipping", "payout_id", payoutID, "status", observed)

		return Result{Outcome: OutcomeSkipped, Status: observed}, nil
	}

	// The external call must not hold the row lock: holding it would
	// serialize every payout behind one provider round trip.
	if effErr := pr.effect(ctx, snapshot); effErr != nil {
		if _, revertErr := pr.store.WithLock(ctx, payoutID, func(p *domain.Payout) error {
			p.Status = domain.StatusPending

			return nil
		}); revertErr != nil {
			return Result{}, fmt.Errorf("revert payout %s to PENDING: %w", payoutID, revertErr)
		}

		if errors.Is(effErr, ErrPermanentEffect) {
			return Result{}, fmt.Errorf("process payout %s: %w", payoutID, effErr)
		}

		slog.Warn("payout processing failed, eligible for retry", "payout_id", payoutID, "attempt", attempt, "error", effErr)

		return Result{}, &ProcessingError{Err: effErr}
	}

	if _, err := pr.store.WithLock(ctx, payoutID, func(p *domain.Payout) error {
		p.Status = domain.StatusCompleted

		return nil
	}); err != nil {
		return Result{}, fmt.Errorf("complete payout %s: %w", payoutID, err)
	}

	slog.Info("payout completed", "payout_id", payoutID)

	return Result{Outcome: OutcomeCompleted}, nil
}
