package models

import (
	"database/sql"
	"time"
)

// BlockedEntity is an email or wallet address excluded from autonomous
// action. A NULL blocked_until means the block never expires.
type BlockedEntity struct {
	ID           string
	EntityType   string
	EntityValue  string
	Reason       sql.NullString
	BlockedBy    string
	BlockedAt    time.Time
	BlockedUntil sql.NullTime
}

// Blocked entity type constants
const (
	EntityTypeEmail  = "email"
	EntityTypeWallet = "wallet"
)
