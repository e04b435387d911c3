package models

import (
	"database/sql"
	"time"
)

// Mission represents one unit of autonomous work tracked through a
// persisted state machine.
type Mission struct {
	ID              string
	Type            string
	Source          string
	Status          string
	Priority        int
	ScheduledFor    time.Time
	InputData       string
	OutputData      sql.NullString
	Error           sql.NullString
	BlockedReason   sql.NullString
	TransferID      sql.NullString
	ParentMissionID sql.NullString
	Attempts        int
	CreatedAt       time.Time
	ApprovedAt      sql.NullTime
	StartedAt       sql.NullTime
	CompletedAt     sql.NullTime
}

// Mission status constants
const (
	MissionStatusPending   = "pending"
	MissionStatusApproved  = "approved"
	MissionStatusBlocked   = "blocked"
	MissionStatusRunning   = "running"
	MissionStatusSucceeded = "succeeded"
	MissionStatusFailed    = "failed"
)

// Mission type constants
const (
	MissionTypeSendReminder     = "send_reminder"
	MissionTypeAutoReclaim      = "auto_reclaim"
	MissionTypeInvestigateAbuse = "investigate_abuse"
)

// MaxMissionAttempts caps how often a mission is re-selected for
// execution before it is left failed for good.
const MaxMissionAttempts = 3

// DefaultMissionPriority is the priority assigned to trigger-created
// missions. Lower numbers run first.
const DefaultMissionPriority = 5
