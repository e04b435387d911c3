// Package models contains domain types for solrelay entities.
// SQL persistence lives in internal/adapters/sqlite/*.go
package models

import (
	"database/sql"
	"time"
)

// Transfer represents an escrowed token send awaiting claim.
// This is the domain type used within the models package.
// For persistence, use the repository interfaces in ports/secondary.
type Transfer struct {
	ID                   string
	Email                string
	EmailHash            string
	ClaimCodeHash        string
	Amount               float64
	Token                string
	SenderPubkey         string
	Status               string
	RemindersSent        int
	LastReminderAt       sql.NullTime
	ReclaimAttempts      int
	LastReclaimAttemptAt sql.NullTime
	Metadata             string
	CreatedAt            time.Time
	ExpiresAt            time.Time
	ConfirmedAt          sql.NullTime
	ClaimedAt            sql.NullTime
	ReclaimedAt          sql.NullTime
}

// Transfer status constants
const (
	TransferStatusPending   = "pending"
	TransferStatusConfirmed = "confirmed"
	TransferStatusClaimed   = "claimed"
	TransferStatusExpired   = "expired"
	TransferStatusReclaimed = "reclaimed"
)

// MaxRemindersPerTransfer is the hard per-transfer reminder ceiling.
const MaxRemindersPerTransfer = 3

// MaxReclaimAttempts is the hard per-transfer reclaim attempt ceiling.
const MaxReclaimAttempts = 3

// TransferExpiry is the escrow window after which unclaimed funds
// become eligible for reclaim.
const TransferExpiry = 72 * time.Hour
