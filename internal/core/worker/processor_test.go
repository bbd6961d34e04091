package worker_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arhebs/payout-service/internal/core/domain"
	"github.com/arhebs/payout-service/internal/core/payout"
	"github.com/arhebs/payout-service/internal/core/payout/payouttest"
	"github.com/arhebs/payout-service/internal/core/worker"
)

func insertPayout(t *testing.T, store *payouttest.Store, status domain.Status) *domain.Payout {
	t.Helper()

	created, err := store.Insert(context.Background(), &domain.Payout{
		ID:               uuid.New(),
		Amount:           decimal.RequireFromString("100.00"),
		Currency:         domain.USD,
		RecipientDetails: map[string]any{"account_number": "1234567890"},
		Status:           status,
	})
	require.NoError(t, err)

	return created
}

func succeedingEffect(ctx context.Context, p *domain.Payout) error {
	return nil
}

func TestProcessorCompletesPendingPayout(t *testing.T) {
	store := payouttest.NewStore()
	p := insertPayout(t, store, domain.StatusPending)

	var seen *domain.Payout

	processor := worker.NewProcessor(store, func(ctx context.Context, p *domain.Payout) error {
		seen = p
		return nil
	})

	result, err := processor.Process(context.Background(), p.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, worker.OutcomeCompleted, result.Outcome)

	// The effect sees the payout as it was when the attempt claimed it.
	require.NotNil(t, seen)
	assert.Equal(t, p.ID, seen.ID)

	stored, err := store.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, stored.Status)
}

func TestProcessorSkipsNonPendingPayout(t *testing.T) {
	for _, status := range []domain.Status{domain.StatusProcessing, domain.StatusCompleted, domain.StatusFailed} {
		t.Run(string(status), func(t *testing.T) {
			store := payouttest.NewStore()
			p := insertPayout(t, store, status)

			effectCalled := false

			processor := worker.NewProcessor(store, func(ctx context.Context, p *domain.Payout) error {
				effectCalled = true
				return nil
			})

			result, err := processor.Process(context.Background(), p.ID, 1)
			require.NoError(t, err)
			assert.Equal(t, worker.OutcomeSkipped, result.Outcome)
			assert.Equal(t, status, result.Status)
			assert.False(t, effectCalled, "the external effect must not run for a skipped payout")

			stored, err := store.Get(context.Background(), p.ID)
			require.NoError(t, err)
			assert.Equal(t, status, stored.Status, "a skipped attempt performs no write")
		})
	}
}

func TestProcessorRevertsToPendingOnTransientFailure(t *testing.T) {
	store := payouttest.NewStore()
	p := insertPayout(t, store, domain.StatusPending)

	processor := worker.NewProcessor(store, func(ctx context.Context, p *domain.Payout) error {
		return errors.New("provider timeout")
	})

	_, err := processor.Process(context.Background(), p.ID, 1)

	var pe *worker.ProcessingError
	require.ErrorAs(t, err, &pe, "a transient effect failure must signal a retryable error")

	stored, err := store.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stored.Status, "the payout must be eligible for the retry redelivery")
}

func TestProcessorPermanentFailureIsNotRetryable(t *testing.T) {
	store := payouttest.NewStore()
	p := insertPayout(t, store, domain.StatusPending)

	processor := worker.NewProcessor(store, func(ctx context.Context, p *domain.Payout) error {
		return worker.ErrPermanentEffect
	})

	_, err := processor.Process(context.Background(), p.ID, 1)
	require.Error(t, err)

	var pe *worker.ProcessingError
	assert.False(t, errors.As(err, &pe))
	assert.ErrorIs(t, err, worker.ErrPermanentEffect)
}

func TestProcessorUnknownPayout(t *testing.T) {
	store := payouttest.NewStore()
	processor := worker.NewProcessor(store, succeedingEffect)

	_, err := processor.Process(context.Background(), uuid.New(), 1)
	require.ErrorIs(t, err, payout.ErrNotFound)

	var pe *worker.ProcessingError
	assert.False(t, errors.As(err, &pe), "a missing payout must not be retried")
}
