package payout

import "errors"

var (
	// ErrNotFound means the referenced payout does not exist.
	ErrNotFound = errors.New("payout not found")

	// ErrConflict means an insert collided with an existing payout id.
	ErrConflict = errors.New("payout already exists")

	// ErrNotUpdatable means an update was attempted on a non-PENDING payout.
	ErrNotUpdatable = errors.New("only PENDING payouts can be updated")
)
