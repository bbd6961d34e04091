// Package payouttest provides in-memory doubles of the payout store and job
// queue so the service, processor, and dispatcher can be tested without a
// database.
package payouttest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arhebs/payout-service/internal/core/domain"
	"github.com/arhebs/payout-service/internal/core/payout"
)

// Store is an in-memory payout.Store. A single mutex stands in for the
// per-row lock: WithLock holds it for the duration of fn, which preserves the
// "one mutation at a time" guarantee the tests rely on.
type Store struct {
	mu      sync.Mutex
	payouts map[uuid.UUID]*domain.Payout
}

func NewStore() *Store {
	return &Store{payouts: make(map[uuid.UUID]*domain.Payout)}
}

func (s *Store) Insert(_ context.Context, p *domain.Payout) (*domain.Payout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.payouts[p.ID]; exists {
		return nil, payout.ErrConflict
	}

	now := time.Now().UTC()
	stored := clonePayout(p)
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.payouts[p.ID] = stored

	return clonePayout(stored), nil
}

func (s *Store) Get(_ context.Context, id uuid.UUID) (*domain.Payout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.payouts[id]
	if !ok {
		return nil, payout.ErrNotFound
	}

	return clonePayout(stored), nil
}

func (s *Store) List(_ context.Context, filter payout.ListFilter) ([]*domain.Payout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*domain.Payout

	for _, stored := range s.payouts {
		if filter.Status != "" && stored.Status != filter.Status {
			continue
		}

		if filter.Currency != "" && !strings.EqualFold(string(stored.Currency), filter.Currency) {
			continue
		}

		if !filter.CreatedAfter.IsZero() && stored.CreatedAt.Before(filter.CreatedAfter) {
			continue
		}

		if !filter.CreatedBefore.IsZero() && stored.CreatedAt.After(filter.CreatedBefore) {
			continue
		}

		if filter.MinAmount != nil && stored.Amount.LessThan(*filter.MinAmount) {
			continue
		}

		if filter.MaxAmount != nil && stored.Amount.GreaterThan(*filter.MaxAmount) {
			continue
		}

		matched = append(matched, clonePayout(stored))
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return nil, nil
		}

		matched = matched[filter.Offset:]
	}

	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}

	return matched, nil
}

func (s *Store) UpdateFields(_ context.Context, p *domain.Payout) (*domain.Payout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.payouts[p.ID]
	if !ok {
		return nil, payout.ErrNotFound
	}

	stored.Amount = p.Amount
	stored.Currency = p.Currency
	stored.RecipientDetails = cloneDetails(p.RecipientDetails)
	stored.Description = p.Description
	stored.UpdatedAt = time.Now().UTC()

	return clonePayout(stored), nil
}

func (s *Store) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.payouts[id]; !ok {
		return payout.ErrNotFound
	}

	delete(s.payouts, id)

	return nil
}

func (s *Store) WithLock(_ context.Context, id uuid.UUID, fn func(p *domain.Payout) error) (*domain.Payout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.payouts[id]
	if !ok {
		return nil, payout.ErrNotFound
	}

	working := clonePayout(stored)

	if err := fn(working); err != nil {
		return nil, err
	}

	if working.Status != stored.Status {
		stored.Status = working.Status
		stored.UpdatedAt = time.Now().UTC()
	}

	return clonePayout(stored), nil
}

func (s *Store) SetStatus(_ context.Context, id uuid.UUID, status domain.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.payouts[id]
	if !ok {
		return payout.ErrNotFound
	}

	stored.Status = status
	stored.UpdatedAt = time.Now().UTC()

	return nil
}

func clonePayout(p *domain.Payout) *domain.Payout {
	clone := *p
	clone.RecipientDetails = cloneDetails(p.RecipientDetails)

	return &clone
}

func cloneDetails(details map[string]any) map[string]any {
	if details == nil {
		return nil
	}

	clone := make(map[string]any, len(details))
	for k, v := range details {
		clone[k] = v
	}

	return clone
}
