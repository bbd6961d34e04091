package domain

// Status is a payout lifecycle state.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// ParseStatus validates a raw status value.
func ParseStatus(raw string) (Status, bool) {
	status := Status(raw)
	if !status.IsValid() {
		return "", false
	}

	return status, true
}

// IsValid reports whether the status is part of the payout lifecycle.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status ends the lifecycle.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo reports whether a transition from s to next is allowed.
//
// PENDING moves to PROCESSING when a worker claims the row. PROCESSING moves
// to COMPLETED on success or back to PENDING when a retry is coming. FAILED is
// reachable from any non-terminal state once the queue gives up. Note that the
// failure handler's terminal write deliberately does not consult this table
// (see worker.FailureHandler).
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing || next == StatusFailed
	case StatusProcessing:
		return next == StatusCompleted || next == StatusPending || next == StatusFailed
	case StatusCompleted, StatusFailed:
		return false
	default:
		return false
	}
}

func (s Status) String() string {
	return string(s)
}
