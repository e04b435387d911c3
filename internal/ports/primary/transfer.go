package primary

import (
	"context"
	"time"
)

// TransferService defines the primary port for transfer operations.
type TransferService interface {
	// CreateTransfer records a new escrowed transfer awaiting claim.
	CreateTransfer(ctx context.Context, req CreateTransferRequest) (*CreateTransferResponse, error)

	// GetTransfer retrieves a transfer by ID.
	GetTransfer(ctx context.Context, transferID string) (*Transfer, error)

	// ListTransfers lists transfers with optional filters.
	ListTransfers(ctx context.Context, filters TransferFilters) ([]*Transfer, error)

	// ClaimTransfer settles a transfer as claimed by its recipient.
	ClaimTransfer(ctx context.Context, transferID string) error
}

// CreateTransferRequest contains parameters for creating a transfer.
type CreateTransferRequest struct {
	Email         string
	EmailHash     string
	ClaimCodeHash string
	Amount        float64
	Token         string
	SenderPubkey  string
}

// CreateTransferResponse contains the result of creating a transfer.
type CreateTransferResponse struct {
	TransferID string
	Transfer   *Transfer
}

// TransferFilters contains optional filters for listing transfers.
type TransferFilters struct {
	Status string
	Limit  int
}

// Transfer represents a transfer entity at the port boundary.
type Transfer struct {
	ID              string
	Email           string
	Amount          float64
	Token           string
	SenderPubkey    string
	Status          string
	RemindersSent   int
	ReclaimAttempts int
	CreatedAt       time.Time
	ExpiresAt       time.Time
	ClaimedAt       time.Time
	ReclaimedAt     time.Time
}
