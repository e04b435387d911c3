package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/solrelay/internal/ports/primary"
	"github.com/example/solrelay/internal/ports/secondary"
)

// BlockServiceImpl implements the BlockService interface.
type BlockServiceImpl struct {
	blockedRepo secondary.BlockedRepository
	now         func() time.Time
}

// NewBlockService creates a new BlockService with injected dependencies.
func NewBlockService(blockedRepo secondary.BlockedRepository, now func() time.Time) *BlockServiceImpl {
	if now == nil {
		now = time.Now
	}
	return &BlockServiceImpl{blockedRepo: blockedRepo, now: now}
}

// BlockEntity blocks an email address or wallet.
func (s *BlockServiceImpl) BlockEntity(ctx context.Context, req primary.BlockEntityRequest) (*primary.BlockedEntity, error) {
	if req.EntityType != "email" && req.EntityType != "wallet" {
		return nil, fmt.Errorf("unknown entity type %q", req.EntityType)
	}

	nextID, err := s.blockedRepo.GetNextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate block ID: %w", err)
	}

	record := &secondary.BlockedRecord{
		ID:           nextID,
		EntityType:   req.EntityType,
		EntityValue:  strings.ToLower(req.EntityValue),
		Reason:       req.Reason,
		BlockedBy:    req.BlockedBy,
		BlockedAt:    s.now(),
		BlockedUntil: req.BlockedUntil,
	}

	if err := s.blockedRepo.Block(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to block entity: %w", err)
	}

	return recordToBlocked(record), nil
}

// UnblockEntity removes a block.
func (s *BlockServiceImpl) UnblockEntity(ctx context.Context, entityType, entityValue string) error {
	return s.blockedRepo.Unblock(ctx, entityType, entityValue)
}

// ListBlocked lists all blocked entities.
func (s *BlockServiceImpl) ListBlocked(ctx context.Context) ([]*primary.BlockedEntity, error) {
	records, err := s.blockedRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	entities := make([]*primary.BlockedEntity, len(records))
	for i, record := range records {
		entities[i] = recordToBlocked(record)
	}
	return entities, nil
}

func recordToBlocked(record *secondary.BlockedRecord) *primary.BlockedEntity {
	return &primary.BlockedEntity{
		ID:           record.ID,
		EntityType:   record.EntityType,
		EntityValue:  record.EntityValue,
		Reason:       record.Reason,
		BlockedBy:    record.BlockedBy,
		BlockedAt:    record.BlockedAt,
		BlockedUntil: record.BlockedUntil,
	}
}

// Ensure BlockServiceImpl implements the interface
var _ primary.BlockService = (*BlockServiceImpl)(nil)
