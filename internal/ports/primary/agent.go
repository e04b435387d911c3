package primary

import (
	"context"
	"time"
)

// AgentService defines the primary port for driving the autonomous loop.
type AgentService interface {
	// Startup records the process start in agent state. A failure means
	// the store is unreachable and the agent must not run.
	Startup(ctx context.Context) error

	// RunTick executes one full loop iteration: trigger evaluation,
	// mission execution, email dispatch, stale recovery, state
	// persistence.
	RunTick(ctx context.Context) (*TickResult, error)

	// Status reports the agent's current view of the world.
	Status(ctx context.Context) (*AgentStatus, error)
}

// TickResult summarizes one loop iteration.
type TickResult struct {
	StartedAt       time.Time
	FinishedAt      time.Time
	Skipped         bool
	StaleRecovered  int
	MissionsCreated int
	MissionsRun     int
	MissionsOK      int
	MissionsSkipped int
	MissionsFailed  int
	EmailsSent      int
	EmailsFailed    int
	Errors          []string
}

// AgentStatus is the agent's operational snapshot, served by the
// status command and the health endpoint.
type AgentStatus struct {
	Running          bool
	LoopCount        int
	LastLoopAt       time.Time
	PendingMissions  int
	RunningMissions  int
	PendingEmails    int
	PendingTransfers int
	RemindersToday   int
	LastTick         *TickResult
}
