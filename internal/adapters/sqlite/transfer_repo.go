// Package sqlite contains SQLite implementations of repository interfaces.
//
// All timestamps are bound from Go in UTC so that SQLite's string
// ordering of datetime values stays consistent across every writer.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/solrelay/internal/ports/secondary"
)

// TransferRepository implements secondary.TransferRepository with SQLite.
type TransferRepository struct {
	db *sql.DB
}

// NewTransferRepository creates a new SQLite transfer repository.
func NewTransferRepository(db *sql.DB) *TransferRepository {
	return &TransferRepository{db: db}
}

const transferSelectCols = "id, email, email_hash, claim_code_hash, amount, token, sender_pubkey, status, reminders_sent, last_reminder_at, reclaim_attempts, last_reclaim_attempt_at, metadata, created_at, expires_at, confirmed_at, claimed_at, reclaimed_at"

// scanTransfer scans a transfer row into a TransferRecord.
func scanTransfer(scanner interface {
	Scan(dest ...any) error
}) (*secondary.TransferRecord, error) {
	var (
		lastReminderAt       sql.NullTime
		lastReclaimAttemptAt sql.NullTime
		confirmedAt          sql.NullTime
		claimedAt            sql.NullTime
		reclaimedAt          sql.NullTime
	)

	record := &secondary.TransferRecord{}
	err := scanner.Scan(
		&record.ID, &record.Email, &record.EmailHash, &record.ClaimCodeHash,
		&record.Amount, &record.Token, &record.SenderPubkey, &record.Status,
		&record.RemindersSent, &lastReminderAt, &record.ReclaimAttempts,
		&lastReclaimAttemptAt, &record.Metadata, &record.CreatedAt,
		&record.ExpiresAt, &confirmedAt, &claimedAt, &reclaimedAt,
	)
	if err != nil {
		return nil, err
	}

	record.LastReminderAt = lastReminderAt.Time
	record.LastReclaimAttemptAt = lastReclaimAttemptAt.Time
	record.ConfirmedAt = confirmedAt.Time
	record.ClaimedAt = claimedAt.Time
	record.ReclaimedAt = reclaimedAt.Time

	return record, nil
}

// Create persists a new transfer.
func (r *TransferRepository) Create(ctx context.Context, transfer *secondary.TransferRecord) error {
	status := transfer.Status
	if status == "" {
		status = "pending"
	}
	metadata := transfer.Metadata
	if metadata == "" {
		metadata = "{}"
	}
	token := transfer.Token
	if token == "" {
		token = "SOL"
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO transfers (id, email, email_hash, claim_code_hash, amount, token, sender_pubkey, status, metadata, created_at, expires_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		transfer.ID, transfer.Email, transfer.EmailHash, transfer.ClaimCodeHash,
		transfer.Amount, token, transfer.SenderPubkey, status, metadata,
		transfer.CreatedAt.UTC(), transfer.ExpiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create transfer: %w", err)
	}

	return nil
}

// GetByID retrieves a transfer by its ID.
func (r *TransferRepository) GetByID(ctx context.Context, id string) (*secondary.TransferRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+transferSelectCols+" FROM transfers WHERE id = ?",
		id,
	)

	record, err := scanTransfer(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("transfer %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transfer: %w", err)
	}

	return record, nil
}

// List retrieves transfers matching the given filters.
func (r *TransferRepository) List(ctx context.Context, filters secondary.TransferFilters) ([]*secondary.TransferRecord, error) {
	query := "SELECT " + transferSelectCols + " FROM transfers WHERE 1=1"
	args := []any{}

	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, filters.Status)
	}

	query += " ORDER BY created_at DESC"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transfers: %w", err)
	}
	defer rows.Close()

	return collectTransfers(rows)
}

// MarkClaimed stamps a transfer claimed. The claimed/reclaimed stamps
// are mutually exclusive and settable at most once.
func (r *TransferRepository) MarkClaimed(ctx context.Context, id string, now time.Time) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE transfers SET status = 'claimed', claimed_at = ? WHERE id = ? AND claimed_at IS NULL AND reclaimed_at IS NULL",
		now.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark transfer claimed: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("transfer %s not found or already settled", id)
	}

	return nil
}

// MarkReclaimed stamps a transfer reclaimed.
func (r *TransferRepository) MarkReclaimed(ctx context.Context, id string, now time.Time) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE transfers SET status = 'reclaimed', reclaimed_at = ? WHERE id = ? AND claimed_at IS NULL AND reclaimed_at IS NULL",
		now.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark transfer reclaimed: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("transfer %s not found or already settled", id)
	}

	return nil
}

// MarkExpired sets status to expired and replaces the metadata blob.
func (r *TransferRepository) MarkExpired(ctx context.Context, id, metadata string, now time.Time) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE transfers SET status = 'expired', metadata = ? WHERE id = ? AND claimed_at IS NULL AND reclaimed_at IS NULL",
		metadata, id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark transfer expired: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("transfer %s not found or already settled", id)
	}

	return nil
}

// RecordReminder increments reminders_sent and stamps last_reminder_at.
func (r *TransferRepository) RecordReminder(ctx context.Context, id string, now time.Time) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE transfers SET reminders_sent = reminders_sent + 1, last_reminder_at = ? WHERE id = ?",
		now.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to record reminder: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("transfer %s not found", id)
	}

	return nil
}

// IncrementReclaimAttempts bumps the reclaim attempt counter.
func (r *TransferRepository) IncrementReclaimAttempts(ctx context.Context, id string, now time.Time) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE transfers SET reclaim_attempts = reclaim_attempts + 1, last_reclaim_attempt_at = ? WHERE id = ?",
		now.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to increment reclaim attempts: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("transfer %s not found", id)
	}

	return nil
}

// GetNeedingReminder retrieves pending, unexpired transfers eligible
// for a reminder wave, oldest first.
func (r *TransferRepository) GetNeedingReminder(ctx context.Context, q secondary.ReminderQuery) ([]*secondary.TransferRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+transferSelectCols+" FROM transfers WHERE status = 'pending' AND reminders_sent = ? AND created_at < ? AND created_at > ? AND expires_at > ? ORDER BY created_at ASC LIMIT ?",
		q.RemindersSent, q.CreatedBefore.UTC(), q.CreatedAfter.UTC(), q.Now.UTC(), q.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get transfers needing reminder: %w", err)
	}
	defer rows.Close()

	return collectTransfers(rows)
}

// GetExpiringSoon retrieves pending transfers expiring within the
// window that have not yet received the final notice, soonest first.
func (r *TransferRepository) GetExpiringSoon(ctx context.Context, now time.Time, within time.Duration, maxReminders, limit int) ([]*secondary.TransferRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+transferSelectCols+" FROM transfers WHERE status = 'pending' AND reminders_sent < ? AND expires_at > ? AND expires_at < ? ORDER BY expires_at ASC LIMIT ?",
		maxReminders, now.UTC(), now.Add(within).UTC(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get expiring transfers: %w", err)
	}
	defer rows.Close()

	return collectTransfers(rows)
}

// GetExpiredForReclaim retrieves pending transfers past expiry that
// still have reclaim attempts left, oldest expiry first.
func (r *TransferRepository) GetExpiredForReclaim(ctx context.Context, now time.Time, maxAttempts, limit int) ([]*secondary.TransferRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+transferSelectCols+" FROM transfers WHERE status = 'pending' AND expires_at < ? AND claimed_at IS NULL AND reclaimed_at IS NULL AND reclaim_attempts < ? ORDER BY expires_at ASC LIMIT ?",
		now.UTC(), maxAttempts, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get expired transfers: %w", err)
	}
	defer rows.Close()

	return collectTransfers(rows)
}

// GetNextID returns the next available transfer ID.
func (r *TransferRepository) GetNextID(ctx context.Context) (string, error) {
	var maxID int
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(CAST(SUBSTR(id, 5) AS INTEGER)), 0) FROM transfers",
	).Scan(&maxID)
	if err != nil {
		return "", fmt.Errorf("failed to get next transfer ID: %w", err)
	}

	return fmt.Sprintf("TRF-%03d", maxID+1), nil
}

func collectTransfers(rows *sql.Rows) ([]*secondary.TransferRecord, error) {
	var transfers []*secondary.TransferRecord
	for rows.Next() {
		record, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}
		transfers = append(transfers, record)
	}

	return transfers, rows.Err()
}

// Ensure TransferRepository implements the interface
var _ secondary.TransferRepository = (*TransferRepository)(nil)
