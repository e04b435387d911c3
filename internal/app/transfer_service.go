package app

import (
	"context"
	"fmt"
	"time"

	"github.com/example/solrelay/internal/models"
	"github.com/example/solrelay/internal/ports/primary"
	"github.com/example/solrelay/internal/ports/secondary"
)

// TransferServiceImpl implements the TransferService interface.
type TransferServiceImpl struct {
	transferRepo secondary.TransferRepository
	now          func() time.Time
}

// NewTransferService creates a new TransferService with injected dependencies.
func NewTransferService(transferRepo secondary.TransferRepository, now func() time.Time) *TransferServiceImpl {
	if now == nil {
		now = time.Now
	}
	return &TransferServiceImpl{transferRepo: transferRepo, now: now}
}

// CreateTransfer records a new escrowed transfer awaiting claim.
func (s *TransferServiceImpl) CreateTransfer(ctx context.Context, req primary.CreateTransferRequest) (*primary.CreateTransferResponse, error) {
	now := s.now()

	nextID, err := s.transferRepo.GetNextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate transfer ID: %w", err)
	}

	record := &secondary.TransferRecord{
		ID:            nextID,
		Email:         req.Email,
		EmailHash:     req.EmailHash,
		ClaimCodeHash: req.ClaimCodeHash,
		Amount:        req.Amount,
		Token:         req.Token,
		SenderPubkey:  req.SenderPubkey,
		Status:        models.TransferStatusPending,
		CreatedAt:     now,
		ExpiresAt:     now.Add(models.TransferExpiry),
	}

	if err := s.transferRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create transfer: %w", err)
	}

	return &primary.CreateTransferResponse{
		TransferID: record.ID,
		Transfer:   recordToTransfer(record),
	}, nil
}

// GetTransfer retrieves a transfer by ID.
func (s *TransferServiceImpl) GetTransfer(ctx context.Context, transferID string) (*primary.Transfer, error) {
	record, err := s.transferRepo.GetByID(ctx, transferID)
	if err != nil {
		return nil, err
	}
	return recordToTransfer(record), nil
}

// ListTransfers lists transfers with optional filters.
func (s *TransferServiceImpl) ListTransfers(ctx context.Context, filters primary.TransferFilters) ([]*primary.Transfer, error) {
	records, err := s.transferRepo.List(ctx, secondary.TransferFilters{
		Status: filters.Status,
		Limit:  filters.Limit,
	})
	if err != nil {
		return nil, err
	}

	transfers := make([]*primary.Transfer, len(records))
	for i, record := range records {
		transfers[i] = recordToTransfer(record)
	}
	return transfers, nil
}

// ClaimTransfer settles a transfer as claimed by its recipient.
func (s *TransferServiceImpl) ClaimTransfer(ctx context.Context, transferID string) error {
	return s.transferRepo.MarkClaimed(ctx, transferID, s.now())
}

func recordToTransfer(record *secondary.TransferRecord) *primary.Transfer {
	return &primary.Transfer{
		ID:              record.ID,
		Email:           record.Email,
		Amount:          record.Amount,
		Token:           record.Token,
		SenderPubkey:    record.SenderPubkey,
		Status:          record.Status,
		RemindersSent:   record.RemindersSent,
		ReclaimAttempts: record.ReclaimAttempts,
		CreatedAt:       record.CreatedAt,
		ExpiresAt:       record.ExpiresAt,
		ClaimedAt:       record.ClaimedAt,
		ReclaimedAt:     record.ReclaimedAt,
	}
}

// Ensure TransferServiceImpl implements the interface
var _ primary.TransferService = (*TransferServiceImpl)(nil)
