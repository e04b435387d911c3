package primary

import (
	"context"
	"time"
)

// BlockService defines the primary port for blocklist management.
type BlockService interface {
	// BlockEntity blocks an email address or wallet from receiving
	// agent-driven mail.
	BlockEntity(ctx context.Context, req BlockEntityRequest) (*BlockedEntity, error)

	// UnblockEntity removes a block.
	UnblockEntity(ctx context.Context, entityType, entityValue string) error

	// ListBlocked lists all blocked entities.
	ListBlocked(ctx context.Context) ([]*BlockedEntity, error)
}

// BlockEntityRequest contains parameters for blocking an entity.
type BlockEntityRequest struct {
	EntityType  string
	EntityValue string
	Reason      string
	BlockedBy   string
	// BlockedUntil is optional; zero means the block is permanent.
	BlockedUntil time.Time
}

// BlockedEntity represents a blocklist entry at the port boundary.
type BlockedEntity struct {
	ID           string
	EntityType   string
	EntityValue  string
	Reason       string
	BlockedBy    string
	BlockedAt    time.Time
	BlockedUntil time.Time
}
