// Package payout holds the business operations and persistence contracts for
// payouts, keeping HTTP handlers and workers thin orchestration layers.
package payout

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/arhebs/payout-service/internal/core/domain"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// CreateInput is a validated-at-the-boundary payout creation payload.
type CreateInput struct {
	Amount           decimal.Decimal
	Currency         string
	RecipientDetails map[string]any
	Description      string
}

// UpdateInput is a partial update; nil fields are left untouched.
type UpdateInput struct {
	Amount           *decimal.Decimal
	Currency         *string
	RecipientDetails map[string]any
	Description      *string
}

type Service struct {
	store Store
	queue Enqueuer
}

func NewService(store Store, queue Enqueuer) *Service {
	return &Service{store: store, queue: queue}
}

// Create validates the input, persists a PENDING payout, and enqueues one
// processing job for it. The job is enqueued only after the insert has
// committed, so a worker can never observe an id that is not yet visible.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Payout, error) {
	if err := domain.ValidateAmount(in.Amount); err != nil {
		return nil, err
	}

	if err := domain.ValidateRecipientDetails(in.RecipientDetails); err != nil {
		return nil, err
	}

	currency := domain.DefaultCurrency

	if in.Currency != "" {
		parsed, ok := domain.ParseCurrency(in.Currency)
		if !ok {
			return nil, &domain.ValidationError{Field: "currency", Message: "must be one of USD, EUR, GBP, RUB"}
		}

		currency = parsed
	}

	p := &domain.Payout{
		ID:               uuid.New(),
		Amount:           in.Amount,
		Currency:         currency,
		RecipientDetails: in.RecipientDetails,
		Status:           domain.StatusPending,
		Description:      in.Description,
	}

	created, err := s.store.Insert(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("insert payout: %w", err)
	}

	if err := s.queue.Enqueue(ctx, created.ID); err != nil {
		// The payout row exists and the caller will receive it; the job can
		// be re-enqueued operationally, so this is logged rather than failed.
		slog.Error("failed to enqueue payout job", "payout_id", created.ID, "error", err)
	}

	return created, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Payout, error) {
	return s.store.Get(ctx, id)
}

// List returns payouts matching the filter, newest first. The limit defaults
// to 50 and is capped at 200.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*domain.Payout, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}

	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}

	if filter.Offset < 0 {
		filter.Offset = 0
	}

	return s.store.List(ctx, filter)
}

// Update applies a partial update to a payout's mutable fields. Only PENDING
// payouts are updatable; everything else is rejected with ErrNotUpdatable.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*domain.Payout, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !p.CanUpdate() {
		return nil, ErrNotUpdatable
	}

	if in.Amount != nil {
		if err := domain.ValidateAmount(*in.Amount); err != nil {
			return nil, err
		}

		p.Amount = *in.Amount
	}

	if in.Currency != nil {
		parsed, ok := domain.ParseCurrency(*in.Currency)
		if !ok {
			return nil, &domain.ValidationError{Field: "currency", Message: "must be one of USD, EUR, GBP, RUB"}
		}

		p.Currency = parsed
	}

	if in.RecipientDetails != nil {
		if err := domain.ValidateRecipientDetails(in.RecipientDetails); err != nil {
			return nil, err
		}

		p.RecipientDetails = in.RecipientDetails
	}

	if in.Description != nil {
		p.Description = *in.Description
	}

	return s.store.UpdateFields(ctx, p)
}

// Delete removes a payout entirely. This is an administrative operation that
// bypasses the lifecycle state machine.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.Delete(ctx, id)
}
