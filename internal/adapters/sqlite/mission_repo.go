package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/solrelay/internal/ports/secondary"
)

// MissionRepository implements secondary.MissionRepository with SQLite.
//
// Claim is the single concurrency-safety mechanism in the system: a
// conditional UPDATE whose WHERE clause re-checks the status, so two
// concurrent claimers can never both win.
type MissionRepository struct {
	db *sql.DB
}

// NewMissionRepository creates a new SQLite mission repository.
func NewMissionRepository(db *sql.DB) *MissionRepository {
	return &MissionRepository{db: db}
}

const missionSelectCols = "id, type, source, status, priority, scheduled_for, input_data, output_data, error, blocked_reason, transfer_id, parent_mission_id, attempts, created_at, approved_at, started_at, completed_at"

// scanMission scans a mission row into a MissionRecord.
func scanMission(scanner interface {
	Scan(dest ...any) error
}) (*secondary.MissionRecord, error) {
	var (
		outputData      sql.NullString
		errText         sql.NullString
		blockedReason   sql.NullString
		transferID      sql.NullString
		parentMissionID sql.NullString
		approvedAt      sql.NullTime
		startedAt       sql.NullTime
		completedAt     sql.NullTime
	)

	record := &secondary.MissionRecord{}
	err := scanner.Scan(
		&record.ID, &record.Type, &record.Source, &record.Status,
		&record.Priority, &record.ScheduledFor, &record.InputData,
		&outputData, &errText, &blockedReason, &transferID,
		&parentMissionID, &record.Attempts, &record.CreatedAt,
		&approvedAt, &startedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	record.OutputData = outputData.String
	record.Error = errText.String
	record.BlockedReason = blockedReason.String
	record.TransferID = transferID.String
	record.ParentMissionID = parentMissionID.String
	record.ApprovedAt = approvedAt.Time
	record.StartedAt = startedAt.Time
	record.CompletedAt = completedAt.Time

	return record, nil
}

// Create persists a new mission. The caller sets Status and ApprovedAt
// according to the auto-approve decision.
func (r *MissionRepository) Create(ctx context.Context, mission *secondary.MissionRecord) error {
	var transferID, parentMissionID sql.NullString
	if mission.TransferID != "" {
		transferID = sql.NullString{String: mission.TransferID, Valid: true}
	}
	if mission.ParentMissionID != "" {
		parentMissionID = sql.NullString{String: mission.ParentMissionID, Valid: true}
	}

	var approvedAt sql.NullTime
	if !mission.ApprovedAt.IsZero() {
		approvedAt = sql.NullTime{Time: mission.ApprovedAt.UTC(), Valid: true}
	}

	inputData := mission.InputData
	if inputData == "" {
		inputData = "{}"
	}
	source := mission.Source
	if source == "" {
		source = "trigger"
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO missions (id, type, source, status, priority, scheduled_for, input_data, transfer_id, parent_mission_id, created_at, approved_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		mission.ID, mission.Type, source, mission.Status, mission.Priority,
		mission.ScheduledFor.UTC(), inputData, transferID, parentMissionID,
		mission.CreatedAt.UTC(), approvedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create mission: %w", err)
	}

	return nil
}

// GetByID retrieves a mission by its ID.
func (r *MissionRepository) GetByID(ctx context.Context, id string) (*secondary.MissionRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+missionSelectCols+" FROM missions WHERE id = ?",
		id,
	)

	record, err := scanMission(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("mission %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mission: %w", err)
	}

	return record, nil
}

// List retrieves missions matching the given filters.
func (r *MissionRepository) List(ctx context.Context, filters secondary.MissionFilters) ([]*secondary.MissionRecord, error) {
	query := "SELECT " + missionSelectCols + " FROM missions WHERE 1=1"
	args := []any{}

	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, filters.Status)
	}

	if filters.Type != "" {
		query += " AND type = ?"
		args = append(args, filters.Type)
	}

	query += " ORDER BY created_at DESC"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list missions: %w", err)
	}
	defer rows.Close()

	return collectMissions(rows)
}

// GetPending retrieves missions ready to execute, by priority then
// schedule, oldest first.
func (r *MissionRepository) GetPending(ctx context.Context, now time.Time, maxAttempts, limit int) ([]*secondary.MissionRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+missionSelectCols+" FROM missions WHERE status IN ('pending', 'approved') AND scheduled_for <= ? AND attempts < ? ORDER BY priority ASC, scheduled_for ASC LIMIT ?",
		now.UTC(), maxAttempts, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending missions: %w", err)
	}
	defer rows.Close()

	return collectMissions(rows)
}

// Claim atomically transitions a mission to running. The WHERE clause
// re-checks the status, so exactly one of any set of concurrent
// claimers observes rowsAffected == 1.
func (r *MissionRepository) Claim(ctx context.Context, id string, now time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		"UPDATE missions SET status = 'running', started_at = ?, attempts = attempts + 1 WHERE id = ? AND status IN ('pending', 'approved')",
		now.UTC(), id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to claim mission: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	return rowsAffected == 1, nil
}

// Succeed terminally resolves a mission with an output payload.
func (r *MissionRepository) Succeed(ctx context.Context, id, outputData string, now time.Time) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE missions SET status = 'succeeded', output_data = ?, completed_at = ? WHERE id = ? AND status = 'running'",
		outputData, now.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark mission succeeded: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("mission %s not running", id)
	}

	return nil
}

// Fail terminally resolves a mission with an error message.
func (r *MissionRepository) Fail(ctx context.Context, id, errMsg string, now time.Time) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE missions SET status = 'failed', error = ?, completed_at = ? WHERE id = ? AND status IN ('pending', 'approved', 'running')",
		errMsg, now.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark mission failed: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("mission %s not found or already resolved", id)
	}

	return nil
}

// Block parks a pending/approved mission with a cap-gate reason.
func (r *MissionRepository) Block(ctx context.Context, id, reason string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE missions SET status = 'blocked', blocked_reason = ? WHERE id = ? AND status IN ('pending', 'approved')",
		reason, id,
	)
	if err != nil {
		return fmt.Errorf("failed to block mission: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("mission %s not found or not blockable", id)
	}

	return nil
}

// Approve moves a pending mission to approved.
func (r *MissionRepository) Approve(ctx context.Context, id string, now time.Time) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE missions SET status = 'approved', approved_at = ? WHERE id = ? AND status = 'pending'",
		now.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to approve mission: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("mission %s not found or not pending", id)
	}

	return nil
}

// Reschedule pushes a pending mission's scheduled_for.
func (r *MissionRepository) Reschedule(ctx context.Context, id string, scheduledFor time.Time) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE missions SET status = 'pending', scheduled_for = ? WHERE id = ? AND status IN ('pending', 'approved')",
		scheduledFor.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to reschedule mission: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("mission %s not found or not reschedulable", id)
	}

	return nil
}

// GetActiveCountByType counts pending, approved, and running missions
// of a type.
func (r *MissionRepository) GetActiveCountByType(ctx context.Context, missionType string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM missions WHERE type = ? AND status IN ('pending', 'approved', 'running')",
		missionType,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active missions: %w", err)
	}
	return count, nil
}

// GetSucceededCountByTypeSince counts missions of a type succeeded at
// or after the given instant.
func (r *MissionRepository) GetSucceededCountByTypeSince(ctx context.Context, missionType string, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM missions WHERE type = ? AND status = 'succeeded' AND completed_at >= ?",
		missionType, since.UTC(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count succeeded missions: %w", err)
	}
	return count, nil
}

// RecoverStale force-fails running missions whose started_at precedes
// olderThan. This is the sole fault-recovery path for crashed or hung
// executors.
func (r *MissionRepository) RecoverStale(ctx context.Context, olderThan time.Time, errMsg string, now time.Time) (int, error) {
	result, err := r.db.ExecContext(ctx,
		"UPDATE missions SET status = 'failed', error = ?, completed_at = ? WHERE status = 'running' AND started_at < ?",
		errMsg, now.UTC(), olderThan.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to recover stale missions: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	return int(rowsAffected), nil
}

// GetNextID returns the next available mission ID.
func (r *MissionRepository) GetNextID(ctx context.Context) (string, error) {
	var maxID int
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(CAST(SUBSTR(id, 5) AS INTEGER)), 0) FROM missions",
	).Scan(&maxID)
	if err != nil {
		return "", fmt.Errorf("failed to get next mission ID: %w", err)
	}

	return fmt.Sprintf("MSN-%03d", maxID+1), nil
}

func collectMissions(rows *sql.Rows) ([]*secondary.MissionRecord, error) {
	var missions []*secondary.MissionRecord
	for rows.Next() {
		record, err := scanMission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mission: %w", err)
		}
		missions = append(missions, record)
	}

	return missions, rows.Err()
}

// Ensure MissionRepository implements the interface
var _ secondary.MissionRepository = (*MissionRepository)(nil)
