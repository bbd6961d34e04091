package worker

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/arhebs/payout-service/internal/core/domain"
	"github.com/arhebs/payout-service/internal/core/payout"
)

// FailureHook is invoked by the dispatcher exactly once per job when its
// retries are exhausted or a non-retryable error occurs.
type FailureHook interface {
	OnFailure(ctx context.Context, payoutID uuid.UUID, cause error)
}

// FailureHandler terminates a payout after the queue gives up on it.
type FailureHandler struct {
	store payout.Store
}

func NewFailureHandler(store payout.Store) *FailureHandler {
	return &FailureHandler{store: store}
}

// OnFailure marks the payout FAILED regardless of its current status. The
// write is atomic and lock-free, last writer wins: a very late redelivery
// that independently wrote COMPLETED can be overwritten here, because this
// write represents the authoritative outcome once the queue has given up.
// The cause is logged and never re-raised; the original caller received its
// 201 long ago.
func (h *FailureHandler) OnFailure(ctx context.Context, payoutID uuid.UUID, cause error) {
	slog.Error("payout failed permanently", "payout_id", payoutID, "error", cause)

	if err := h.store.SetStatus(ctx, payoutID, domain.StatusFailed); err != nil {
		slog.Error("failed to mark payout FAILED", "payout_id", payoutID, "error", err)
	}
}
