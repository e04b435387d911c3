package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/solrelay/internal/ports/secondary"
)

// BlockedRepository implements secondary.BlockedRepository with SQLite.
type BlockedRepository struct {
	db *sql.DB
}

// NewBlockedRepository creates a new SQLite blocked-entity repository.
func NewBlockedRepository(db *sql.DB) *BlockedRepository {
	return &BlockedRepository{db: db}
}

// Block upserts a block for an entity. Entity values are stored
// lowercased so lookups are case-insensitive.
func (r *BlockedRepository) Block(ctx context.Context, entity *secondary.BlockedRecord) error {
	var reason sql.NullString
	if entity.Reason != "" {
		reason = sql.NullString{String: entity.Reason, Valid: true}
	}
	var blockedUntil sql.NullTime
	if !entity.BlockedUntil.IsZero() {
		blockedUntil = sql.NullTime{Time: entity.BlockedUntil.UTC(), Valid: true}
	}
	blockedBy := entity.BlockedBy
	if blockedBy == "" {
		blockedBy = "system"
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO blocked_entities (id, entity_type, entity_value, reason, blocked_by, blocked_at, blocked_until) VALUES (?, ?, ?, ?, ?, ?, ?)",
		entity.ID, entity.EntityType, strings.ToLower(entity.EntityValue),
		reason, blockedBy, entity.BlockedAt.UTC(), blockedUntil,
	)
	if err != nil {
		return fmt.Errorf("failed to block entity: %w", err)
	}

	return nil
}

// Unblock removes a block.
func (r *BlockedRepository) Unblock(ctx context.Context, entityType, entityValue string) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM blocked_entities WHERE entity_type = ? AND entity_value = ?",
		entityType, strings.ToLower(entityValue),
	)
	if err != nil {
		return fmt.Errorf("failed to unblock entity: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("%s %s is not blocked", entityType, entityValue)
	}

	return nil
}

// IsBlocked reports whether an entity is currently blocked. Expired
// blocks (blocked_until in the past) do not count.
func (r *BlockedRepository) IsBlocked(ctx context.Context, entityType, entityValue string, now time.Time) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM blocked_entities WHERE entity_type = ? AND entity_value = ? AND (blocked_until IS NULL OR blocked_until > ?)",
		entityType, strings.ToLower(entityValue), now.UTC(),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check blocked entity: %w", err)
	}
	return count > 0, nil
}

// List retrieves all blocked entities.
func (r *BlockedRepository) List(ctx context.Context) ([]*secondary.BlockedRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, entity_type, entity_value, reason, blocked_by, blocked_at, blocked_until FROM blocked_entities ORDER BY blocked_at DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list blocked entities: %w", err)
	}
	defer rows.Close()

	var entities []*secondary.BlockedRecord
	for rows.Next() {
		var (
			reason       sql.NullString
			blockedUntil sql.NullTime
		)
		record := &secondary.BlockedRecord{}
		err := rows.Scan(
			&record.ID, &record.EntityType, &record.EntityValue,
			&reason, &record.BlockedBy, &record.BlockedAt, &blockedUntil,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan blocked entity: %w", err)
		}
		record.Reason = reason.String
		record.BlockedUntil = blockedUntil.Time
		entities = append(entities, record)
	}

	return entities, rows.Err()
}

// GetNextID returns the next available block ID.
func (r *BlockedRepository) GetNextID(ctx context.Context) (string, error) {
	var maxID int
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(CAST(SUBSTR(id, 5) AS INTEGER)), 0) FROM blocked_entities",
	).Scan(&maxID)
	if err != nil {
		return "", fmt.Errorf("failed to get next block ID: %w", err)
	}

	return fmt.Sprintf("BLK-%03d", maxID+1), nil
}

// Ensure BlockedRepository implements the interface
var _ secondary.BlockedRepository = (*BlockedRepository)(nil)
