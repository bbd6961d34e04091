package payout

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/arhebs/payout-service/internal/core/domain"
)

// ListFilter narrows List results. Zero values mean "no constraint".
type ListFilter struct {
	Status        domain.Status
	Currency      string // matched case-insensitively
	CreatedAfter  time.Time
	CreatedBefore time.Time
	MinAmount     *decimal.Decimal
	MaxAmount     *decimal.Decimal
	Limit         int
	Offset        int
}

// Store is the persistence contract the core consumes.
//
// WithLock serializes all mutation of a payout row: it reads the row under an
// exclusive transaction-scoped lock, invokes fn, persists a status change made
// by fn (refreshing updated_at) and releases the lock on commit. fn returning
// an error rolls the transaction back. SetStatus is the one deliberate
// exception: a single atomic write without a prior lock, used by the failure
// handler's clobbering transition to FAILED.
type Store interface {
	Insert(ctx context.Context, p *domain.Payout) (*domain.Payout, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Payout, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.Payout, error)
	UpdateFields(ctx context.Context, p *domain.Payout) (*domain.Payout, error)
	Delete(ctx context.Context, id uuid.UUID) error
	WithLock(ctx context.Context, id uuid.UUID, fn func(p *domain.Payout) error) (*domain.Payout, error)
	SetStatus(ctx context.Context, id uuid.UUID, status domain.Status) error
}

// Enqueuer schedules asynchronous processing for a payout.
type Enqueuer interface {
	Enqueue(ctx context.Context, payoutID uuid.UUID) error
}
