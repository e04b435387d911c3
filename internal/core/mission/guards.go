// Package mission contains the pure business logic for the mission
// state machine. This is part of the Functional Core - no I/O, only
// pure functions.
package mission

import "time"

// Status constants mirror models but live here so core stays free of
// import cycles.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusBlocked   = "blocked"
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// InitialStatus returns the status a freshly created mission gets.
// Trigger-created missions are auto-approved; review-path missions
// start pending.
func InitialStatus(autoApprove bool) string {
	if autoApprove {
		return StatusApproved
	}
	return StatusPending
}

// CanClaim reports whether a mission in the given status may be
// claimed for execution. Claiming from any other status would either
// double-execute (running) or resurrect a resolved mission.
func CanClaim(status string) bool {
	return status == StatusPending || status == StatusApproved
}

// IsTerminal reports whether a mission status is final. Terminal
// missions are immutable.
func IsTerminal(status string) bool {
	return status == StatusSucceeded || status == StatusFailed
}

// ValidTransition reports whether moving a mission from one status to
// another is legal:
//
//	pending  -> approved | blocked | running
//	approved -> blocked | running
//	running  -> succeeded | failed
func ValidTransition(from, to string) bool {
	switch from {
	case StatusPending:
		return to == StatusApproved || to == StatusBlocked || to == StatusRunning
	case StatusApproved:
		return to == StatusBlocked || to == StatusRunning
	case StatusRunning:
		return to == StatusSucceeded || to == StatusFailed
	default:
		return false
	}
}

// IsStale reports whether a running mission started long enough ago to
// be presumed abandoned by a crashed executor.
func IsStale(startedAt, now time.Time, window time.Duration) bool {
	if startedAt.IsZero() {
		return false
	}
	return startedAt.Before(now.Add(-window))
}

// StaleError is the synthetic error recorded on recovered missions.
func StaleError(window time.Duration) string {
	return "stale: no progress for " + window.String()
}
