package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/solrelay/internal/ports/secondary"
)

// EventRepository implements secondary.EventRepository with SQLite.
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new SQLite event repository.
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventSelectCols = "id, event_type, source, data, transfer_id, mission_id, processed, processed_at, created_at"

func scanEvent(scanner interface {
	Scan(dest ...any) error
}) (*secondary.EventRecord, error) {
	var (
		transferID  sql.NullString
		missionID   sql.NullString
		processedAt sql.NullTime
	)

	record := &secondary.EventRecord{}
	err := scanner.Scan(
		&record.ID, &record.EventType, &record.Source, &record.Data,
		&transferID, &missionID, &record.Processed, &processedAt,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.TransferID = transferID.String
	record.MissionID = missionID.String
	record.ProcessedAt = processedAt.Time

	return record, nil
}

// Emit appends an event and populates the record's ID.
func (r *EventRepository) Emit(ctx context.Context, event *secondary.EventRecord) error {
	var transferID, missionID sql.NullString
	if event.TransferID != "" {
		transferID = sql.NullString{String: event.TransferID, Valid: true}
	}
	if event.MissionID != "" {
		missionID = sql.NullString{String: event.MissionID, Valid: true}
	}

	source := event.Source
	if source == "" {
		source = "system"
	}
	data := event.Data
	if data == "" {
		data = "{}"
	}

	result, err := r.db.ExecContext(ctx,
		"INSERT INTO events (event_type, source, data, transfer_id, mission_id, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		event.EventType, source, data, transferID, missionID, event.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to emit event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read event id: %w", err)
	}
	event.ID = id

	return nil
}

// ListUnprocessed retrieves unprocessed events, oldest first.
func (r *EventRepository) ListUnprocessed(ctx context.Context, limit int) ([]*secondary.EventRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+eventSelectCols+" FROM events WHERE processed = 0 ORDER BY created_at ASC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list unprocessed events: %w", err)
	}
	defer rows.Close()

	var events []*secondary.EventRecord
	for rows.Next() {
		record, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, record)
	}

	return events, rows.Err()
}

// MarkProcessed flags an event as consumed downstream.
func (r *EventRepository) MarkProcessed(ctx context.Context, id int64, now time.Time) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE events SET processed = 1, processed_at = ? WHERE id = ?",
		now.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("event %d not found", id)
	}

	return nil
}

// Ensure EventRepository implements the interface
var _ secondary.EventRepository = (*EventRepository)(nil)
