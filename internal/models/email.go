package models

import (
	"database/sql"
	"time"
)

// QueuedEmail is a pending outbound notification drained by the
// dispatcher.
type QueuedEmail struct {
	ID           string
	ToEmail      string
	Subject      string
	HTMLBody     string
	EmailType    string
	Status       string
	Attempts     int
	Error        sql.NullString
	ProviderID   sql.NullString
	TransferID   sql.NullString
	MissionID    sql.NullString
	ScheduledFor time.Time
	SentAt       sql.NullTime
	CreatedAt    time.Time
}

// Queued email status constants
const (
	EmailStatusPending = "pending"
	EmailStatusSending = "sending"
	EmailStatusSent    = "sent"
	EmailStatusFailed  = "failed"
)

// MaxEmailAttempts caps delivery attempts per queued email.
const MaxEmailAttempts = 3
