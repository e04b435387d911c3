// Package primary defines the primary ports (driving adapters) for the application.
// These are the interfaces through which the outside world drives the application.
package primary

import (
	"context"
	"time"
)

// MissionService defines the primary port for mission operations.
// Implementations live in the application layer, adapters in CLI/API layers.
type MissionService interface {
	// CreateMission creates a new mission, applying the cap gate and the
	// auto-approve policy for its type.
	CreateMission(ctx context.Context, req CreateMissionRequest) (*CreateMissionResponse, error)

	// GetMission retrieves a mission by ID.
	GetMission(ctx context.Context, missionID string) (*Mission, error)

	// ListMissions lists missions with optional filters.
	ListMissions(ctx context.Context, filters MissionFilters) ([]*Mission, error)

	// ApproveMission moves a pending mission to approved.
	ApproveMission(ctx context.Context, missionID string) error

	// RescheduleMission pushes an unstarted mission's schedule forward.
	RescheduleMission(ctx context.Context, missionID string, scheduledFor time.Time) error
}

// CreateMissionRequest contains parameters for creating a mission.
type CreateMissionRequest struct {
	Type         string
	Source       string
	Priority     int
	ScheduledFor time.Time
	InputData    string
	TransferID   string
}

// CreateMissionResponse contains the result of creating a mission.
type CreateMissionResponse struct {
	MissionID string
	Mission   *Mission
}

// MissionFilters contains optional filters for listing missions.
type MissionFilters struct {
	Status string
	Type   string
	Limit  int
}

// Mission represents a mission entity at the port boundary.
type Mission struct {
	ID            string
	Type          string
	Source        string
	Status        string
	Priority      int
	ScheduledFor  time.Time
	InputData     string
	OutputData    string
	Error         string
	BlockedReason string
	TransferID    string
	Attempts      int
	CreatedAt     time.Time
	ApprovedAt    time.Time
	StartedAt     time.Time
	CompletedAt   time.Time
}
