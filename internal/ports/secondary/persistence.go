// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"
	"time"
)

// TransferRepository defines the secondary port for transfer persistence.
// Selection queries take explicit time cutoffs so that callers own the
// clock; repositories never call time.Now themselves.
type TransferRepository interface {
	// Create persists a new transfer.
	Create(ctx context.Context, transfer *TransferRecord) error

	// GetByID retrieves a transfer by its ID.
	GetByID(ctx context.Context, id string) (*TransferRecord, error)

	// List retrieves transfers matching the given filters.
	List(ctx context.Context, filters TransferFilters) ([]*TransferRecord, error)

	// MarkClaimed stamps a transfer claimed. Fails if the transfer has
	// already been claimed or reclaimed.
	MarkClaimed(ctx context.Context, id string, now time.Time) error

	// MarkReclaimed stamps a transfer reclaimed. Fails if the transfer
	// has already been claimed or reclaimed.
	MarkReclaimed(ctx context.Context, id string, now time.Time) error

	// MarkExpired sets status to expired and replaces the metadata blob.
	MarkExpired(ctx context.Context, id, metadata string, now time.Time) error

	// RecordReminder increments reminders_sent and stamps last_reminder_at.
	RecordReminder(ctx context.Context, id string, now time.Time) error

	// IncrementReclaimAttempts bumps the reclaim attempt counter.
	IncrementReclaimAttempts(ctx context.Context, id string, now time.Time) error

	// GetNeedingReminder retrieves pending, unexpired transfers with the
	// given reminder count whose creation time falls inside
	// (CreatedAfter, CreatedBefore), oldest first.
	GetNeedingReminder(ctx context.Context, q ReminderQuery) ([]*TransferRecord, error)

	// GetExpiringSoon retrieves pending transfers expiring within the
	// window that have not yet received the final notice, soonest first.
	GetExpiringSoon(ctx context.Context, now time.Time, within time.Duration, maxReminders, limit int) ([]*TransferRecord, error)

	// GetExpiredForReclaim retrieves pending transfers past expiry that
	// were never claimed or reclaimed and still have reclaim attempts
	// left, oldest expiry first.
	GetExpiredForReclaim(ctx context.Context, now time.Time, maxAttempts, limit int) ([]*TransferRecord, error)

	// GetNextID returns the next available transfer ID.
	GetNextID(ctx context.Context) (string, error)
}

// TransferRecord represents a transfer as stored in persistence.
// Zero time values mean the timestamp is unset.
type TransferRecord struct {
	ID                   string
	Email                string
	EmailHash            string
	ClaimCodeHash        string
	Amount               float64
	Token                string
	SenderPubkey         string
	Status               string
	RemindersSent        int
	LastReminderAt       time.Time
	ReclaimAttempts      int
	LastReclaimAttemptAt time.Time
	Metadata             string
	CreatedAt            time.Time
	ExpiresAt            time.Time
	ConfirmedAt          time.Time
	ClaimedAt            time.Time
	ReclaimedAt          time.Time
}

// TransferFilters contains filter options for querying transfers.
type TransferFilters struct {
	Status string
	Limit  int
}

// ReminderQuery selects transfers eligible for a reminder wave.
type ReminderQuery struct {
	RemindersSent int
	CreatedBefore time.Time
	CreatedAfter  time.Time
	Now           time.Time
	Limit         int
}

// MissionRepository defines the secondary port for mission persistence.
type MissionRepository interface {
	// Create persists a new mission.
	Create(ctx context.Context, mission *MissionRecord) error

	// GetByID retrieves a mission by its ID.
	GetByID(ctx context.Context, id string) (*MissionRecord, error)

	// List retrieves missions matching the given filters.
	List(ctx context.Context, filters MissionFilters) ([]*MissionRecord, error)

	// GetPending retrieves missions ready to execute: status pending or
	// approved, scheduled_for due, attempts below the cap. Ordered by
	// priority ascending then scheduled_for ascending.
	GetPending(ctx context.Context, now time.Time, maxAttempts, limit int) ([]*MissionRecord, error)

	// Claim atomically transitions a mission to running, stamping
	// started_at and incrementing attempts. The update succeeds only if
	// the row's status is still pending or approved; returns false when
	// another caller won the race.
	Claim(ctx context.Context, id string, now time.Time) (bool, error)

	// Succeed terminally resolves a mission with an output payload.
	Succeed(ctx context.Context, id, outputData string, now time.Time) error

	// Fail terminally resolves a mission with an error message.
	Fail(ctx context.Context, id, errMsg string, now time.Time) error

	// Block parks a pending/approved mission with a cap-gate reason.
	Block(ctx context.Context, id, reason string) error

	// Approve moves a pending mission to approved.
	Approve(ctx context.Context, id string, now time.Time) error

	// Reschedule pushes a pending mission's scheduled_for.
	Reschedule(ctx context.Context, id string, scheduledFor time.Time) error

	// GetActiveCountByType counts missions of a type in pending,
	// approved, or running status (rate-limit input).
	GetActiveCountByType(ctx context.Context, missionType string) (int, error)

	// GetSucceededCountByTypeSince counts missions of a type that
	// succeeded at or after the given instant (daily-cap input).
	GetSucceededCountByTypeSince(ctx context.Context, missionType string, since time.Time) (int, error)

	// RecoverStale force-fails running missions whose started_at
	// precedes olderThan. Returns the number of missions recovered.
	RecoverStale(ctx context.Context, olderThan time.Time, errMsg string, now time.Time) (int, error)

	// GetNextID returns the next available mission ID.
	GetNextID(ctx context.Context) (string, error)
}

// MissionRecord represents a mission as stored in persistence.
type MissionRecord struct {
	ID              string
	Type            string
	Source          string
	Status          string
	Priority        int
	ScheduledFor    time.Time
	InputData       string
	OutputData      string
	Error           string
	BlockedReason   string
	TransferID      string
	ParentMissionID string
	Attempts        int
	CreatedAt       time.Time
	ApprovedAt      time.Time
	StartedAt       time.Time
	CompletedAt     time.Time
}

// MissionFilters contains filter options for querying missions.
type MissionFilters struct {
	Status string
	Type   string
	Limit  int
}

// EventRepository defines the secondary port for the append-only event log.
type EventRepository interface {
	// Emit appends an event. The record's ID is populated on return.
	Emit(ctx context.Context, event *EventRecord) error

	// ListUnprocessed retrieves unprocessed events, oldest first.
	ListUnprocessed(ctx context.Context, limit int) ([]*EventRecord, error)

	// MarkProcessed flags an event as consumed downstream.
	MarkProcessed(ctx context.Context, id int64, now time.Time) error
}

// EventRecord represents an event as stored in persistence.
type EventRecord struct {
	ID          int64
	EventType   string
	Source      string
	Data        string
	TransferID  string
	MissionID   string
	Processed   bool
	ProcessedAt time.Time
	CreatedAt   time.Time
}

// EmailQueueRepository defines the secondary port for queued outbound email.
type EmailQueueRepository interface {
	// Queue persists a new pending email.
	Queue(ctx context.Context, email *EmailRecord) error

	// GetByID retrieves a queued email by its ID.
	GetByID(ctx context.Context, id string) (*EmailRecord, error)

	// GetPending retrieves due pending emails with attempts below the
	// cap, oldest scheduled_for first.
	GetPending(ctx context.Context, now time.Time, maxAttempts, limit int) ([]*EmailRecord, error)

	// MarkSending conditionally moves a pending email to sending and
	// increments attempts. Returns false if the row was not pending.
	MarkSending(ctx context.Context, id string) (bool, error)

	// MarkSent records successful delivery with the provider message id.
	MarkSent(ctx context.Context, id, providerID string, now time.Time) error

	// MarkFailed records terminal delivery failure.
	MarkFailed(ctx context.Context, id, errMsg string) error

	// GetSentCountSince counts emails sent at or after the given
	// instant (hourly-cap input).
	GetSentCountSince(ctx context.Context, since time.Time) (int, error)

	// GetNextID returns the next available email ID.
	GetNextID(ctx context.Context) (string, error)
}

// EmailRecord represents a queued email as stored in persistence.
type EmailRecord struct {
	ID           string
	ToEmail      string
	Subject      string
	HTMLBody     string
	EmailType    string
	Status       string
	Attempts     int
	Error        string
	ProviderID   string
	TransferID   string
	MissionID    string
	ScheduledFor time.Time
	SentAt       time.Time
	CreatedAt    time.Time
}

// BlockedRepository defines the secondary port for blocked entities.
type BlockedRepository interface {
	// Block upserts a block for an entity.
	Block(ctx context.Context, entity *BlockedRecord) error

	// Unblock removes a block.
	Unblock(ctx context.Context, entityType, entityValue string) error

	// IsBlocked reports whether an entity is currently blocked,
	// ignoring blocks whose blocked_until has passed.
	IsBlocked(ctx context.Context, entityType, entityValue string, now time.Time) (bool, error)

	// List retrieves all blocked entities.
	List(ctx context.Context) ([]*BlockedRecord, error)

	// GetNextID returns the next available block ID.
	GetNextID(ctx context.Context) (string, error)
}

// BlockedRecord represents a blocked entity as stored in persistence.
type BlockedRecord struct {
	ID           string
	EntityType   string
	EntityValue  string
	Reason       string
	BlockedBy    string
	BlockedAt    time.Time
	BlockedUntil time.Time
}

// StateRepository defines the secondary port for agent key/value state
// (loop stats, leadership lease, startup handshake).
type StateRepository interface {
	// Get retrieves a state value. The bool reports presence.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set upserts a state value.
	Set(ctx context.Context, key, value string, now time.Time) error
}
