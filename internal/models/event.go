package models

import (
	"database/sql"
	"time"
)

// Event is an immutable audit/notification record linked to a transfer
// and/or mission. Append-only; downstream consumers may mark rows
// processed but never rewrite them.
type Event struct {
	ID          int64
	EventType   string
	Source      string
	Data        string
	TransferID  sql.NullString
	MissionID   sql.NullString
	Processed   bool
	ProcessedAt sql.NullTime
	CreatedAt   time.Time
}

// Event type constants emitted by the agent.
const (
	EventReminderScheduled = "reminder_scheduled"
	EventReclaimNeeded     = "reclaim_needed"
	EventAbuseLogged       = "abuse_investigation_logged"
	EventEmailSent         = "email_sent"
)
