// Package sqlite_test contains integration tests for SQLite repositories.
//
// This file is the SINGLE POINT where the database schema is loaded for
// tests. All test setup functions use db.GetSchemaSQL() so tests run
// against the authoritative schema; do not hardcode CREATE TABLE
// statements in test files.
package sqlite_test

import (
	"database/sql"
	"context"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/solrelay/internal/adapters/sqlite"
	"github.com/example/solrelay/internal/db"
	"github.com/example/solrelay/internal/ports/secondary"
)

// setupTestDB creates an in-memory database with the authoritative schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	// Each pooled connection to :memory: gets its own database, so the
	// schema would vanish on a second connection.
	testDB.SetMaxOpenConns(1)

	if _, err := testDB.Exec(db.GetSchemaSQL()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// testTime is a fixed reference instant used across repository tests.
var testTime = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

// seedTransfer inserts a test transfer and returns its record.
// createdAt controls the age windows the trigger queries select on.
func seedTransfer(t *testing.T, database *sql.DB, id string, createdAt time.Time) *secondary.TransferRecord {
	t.Helper()

	repo := sqlite.NewTransferRepository(database)
	record := &secondary.TransferRecord{
		ID:            id,
		Email:         "alice@example.com",
		EmailHash:     "hash-" + id,
		ClaimCodeHash: "cch-" + id,
		Amount:        1.5,
		Token:         "SOL",
		SenderPubkey:  "SenderPubkey1111111111111111111111111111111",
		CreatedAt:     createdAt,
		ExpiresAt:     createdAt.Add(72 * time.Hour),
	}
	if err := repo.Create(context.Background(), record); err != nil {
		t.Fatalf("failed to seed transfer: %v", err)
	}
	return record
}

// seedMission inserts a test mission in the given status and returns it.
func seedMission(t *testing.T, database *sql.DB, id, missionType, status string, transferID string) *secondary.MissionRecord {
	t.Helper()

	repo := sqlite.NewMissionRepository(database)
	record := &secondary.MissionRecord{
		ID:           id,
		Type:         missionType,
		Source:       "trigger_24h",
		Status:       "approved",
		Priority:     5,
		ScheduledFor: testTime,
		InputData:    `{"reminder_type":"first"}`,
		TransferID:   transferID,
		CreatedAt:    testTime,
		ApprovedAt:   testTime,
	}
	if err := repo.Create(context.Background(), record); err != nil {
		t.Fatalf("failed to seed mission: %v", err)
	}

	if status != "approved" {
		if _, err := database.Exec("UPDATE missions SET status = ? WHERE id = ?", status, id); err != nil {
			t.Fatalf("failed to set mission status: %v", err)
		}
		record.Status = status
	}
	return record
}
