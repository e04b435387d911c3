package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/solrelay/internal/ports/secondary"
)

// EmailQueueRepository implements secondary.EmailQueueRepository with SQLite.
type EmailQueueRepository struct {
	db *sql.DB
}

// NewEmailQueueRepository creates a new SQLite email queue repository.
func NewEmailQueueRepository(db *sql.DB) *EmailQueueRepository {
	return &EmailQueueRepository{db: db}
}

const emailSelectCols = "id, to_email, subject, html_body, email_type, status, attempts, error, provider_id, transfer_id, mission_id, scheduled_for, sent_at, created_at"

func scanEmail(scanner interface {
	Scan(dest ...any) error
}) (*secondary.EmailRecord, error) {
	var (
		errText    sql.NullString
		providerID sql.NullString
		transferID sql.NullString
		missionID  sql.NullString
		sentAt     sql.NullTime
	)

	record := &secondary.EmailRecord{}
	err := scanner.Scan(
		&record.ID, &record.ToEmail, &record.Subject, &record.HTMLBody,
		&record.EmailType, &record.Status, &record.Attempts, &errText,
		&providerID, &transferID, &missionID, &record.ScheduledFor,
		&sentAt, &record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Error = errText.String
	record.ProviderID = providerID.String
	record.TransferID = transferID.String
	record.MissionID = missionID.String
	record.SentAt = sentAt.Time

	return record, nil
}

// Queue persists a new pending email.
func (r *EmailQueueRepository) Queue(ctx context.Context, email *secondary.EmailRecord) error {
	var transferID, missionID sql.NullString
	if email.TransferID != "" {
		transferID = sql.NullString{String: email.TransferID, Valid: true}
	}
	if email.MissionID != "" {
		missionID = sql.NullString{String: email.MissionID, Valid: true}
	}

	emailType := email.EmailType
	if emailType == "" {
		emailType = "notification"
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO email_queue (id, to_email, subject, html_body, email_type, status, transfer_id, mission_id, scheduled_for, created_at) VALUES (?, ?, ?, ?, ?, 'pending', ?, ?, ?, ?)",
		email.ID, email.ToEmail, email.Subject, email.HTMLBody, emailType,
		transferID, missionID, email.ScheduledFor.UTC(), email.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to queue email: %w", err)
	}

	return nil
}

// GetByID retrieves a queued email by its ID.
func (r *EmailQueueRepository) GetByID(ctx context.Context, id string) (*secondary.EmailRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+emailSelectCols+" FROM email_queue WHERE id = ?",
		id,
	)

	record, err := scanEmail(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("email %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get email: %w", err)
	}

	return record, nil
}

// GetPending retrieves due pending emails with attempts below the cap,
// oldest scheduled_for first.
func (r *EmailQueueRepository) GetPending(ctx context.Context, now time.Time, maxAttempts, limit int) ([]*secondary.EmailRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+emailSelectCols+" FROM email_queue WHERE status = 'pending' AND scheduled_for <= ? AND attempts < ? ORDER BY scheduled_for ASC LIMIT ?",
		now.UTC(), maxAttempts, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending emails: %w", err)
	}
	defer rows.Close()

	var emails []*secondary.EmailRecord
	for rows.Next() {
		record, err := scanEmail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan email: %w", err)
		}
		emails = append(emails, record)
	}

	return emails, rows.Err()
}

// MarkSending conditionally moves a pending email to sending and
// increments attempts.
func (r *EmailQueueRepository) MarkSending(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		"UPDATE email_queue SET status = 'sending', attempts = attempts + 1 WHERE id = ? AND status = 'pending'",
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark email sending: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	return rowsAffected == 1, nil
}

// MarkSent records successful delivery with the provider message id.
func (r *EmailQueueRepository) MarkSent(ctx context.Context, id, providerID string, now time.Time) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE email_queue SET status = 'sent', provider_id = ?, sent_at = ? WHERE id = ?",
		providerID, now.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark email sent: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("email %s not found", id)
	}

	return nil
}

// MarkFailed records terminal delivery failure.
func (r *EmailQueueRepository) MarkFailed(ctx context.Context, id, errMsg string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE email_queue SET status = 'failed', error = ? WHERE id = ?",
		errMsg, id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark email failed: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("email %s not found", id)
	}

	return nil
}

// GetSentCountSince counts emails sent at or after the given instant.
func (r *EmailQueueRepository) GetSentCountSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM email_queue WHERE status = 'sent' AND sent_at >= ?",
		since.UTC(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count sent emails: %w", err)
	}
	return count, nil
}

// GetNextID returns the next available email ID.
func (r *EmailQueueRepository) GetNextID(ctx context.Context) (string, error) {
	var maxID int
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(CAST(SUBSTR(id, 5) AS INTEGER)), 0) FROM email_queue",
	).Scan(&maxID)
	if err != nil {
		return "", fmt.Errorf("failed to get next email ID: %w", err)
	}

	return fmt.Sprintf("EML-%03d", maxID+1), nil
}

// Ensure EmailQueueRepository implements the interface
var _ secondary.EmailQueueRepository = (*EmailQueueRepository)(nil)
