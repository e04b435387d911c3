package sqlite_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/example/solrelay/internal/adapters/sqlite"
	"github.com/example/solrelay/internal/ports/secondary"
)

func TestTransferRepository_CreateAndGet(t *testing.T) {
	database := setupTestDB(t)
	repo := sqlite.NewTransferRepository(database)
	ctx := context.Background()

	seedTransfer(t, database, "TRF-001", testTime.Add(-2*time.Hour))

	retrieved, err := repo.GetByID(ctx, "TRF-001")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if retrieved.Status != "pending" {
		t.Errorf("expected status 'pending', got '%s'", retrieved.Status)
	}
	if retrieved.Amount != 1.5 || retrieved.Token != "SOL" {
		t.Errorf("unexpected amount/token: %f %s", retrieved.Amount, retrieved.Token)
	}
	if retrieved.RemindersSent != 0 || retrieved.ReclaimAttempts != 0 {
		t.Errorf("expected zero counters, got %d/%d", retrieved.RemindersSent, retrieved.ReclaimAttempts)
	}
	if retrieved.Metadata != "{}" {
		t.Errorf("expected empty metadata object, got %s", retrieved.Metadata)
	}

	_, err = repo.GetByID(ctx, "TRF-999")
	if err == nil {
		t.Error("expected error for missing transfer")
	}
}

func TestTransferRepository_GetNeedingReminder(t *testing.T) {
	database := setupTestDB(t)
	repo := sqlite.NewTransferRepository(database)
	ctx := context.Background()

	// In the 24-48h window with no reminders yet: eligible.
	seedTransfer(t, database, "TRF-001", testTime.Add(-25*time.Hour))
	// Too young.
	seedTransfer(t, database, "TRF-002", testTime.Add(-2*time.Hour))
	// Past the window.
	seedTransfer(t, database, "TRF-003", testTime.Add(-50*time.Hour))
	// In the window but already reminded once.
	seedTransfer(t, database, "TRF-004", testTime.Add(-30*time.Hour))
	if err := repo.RecordReminder(ctx, "TRF-004", testTime.Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}
	// In the window but already claimed.
	seedTransfer(t, database, "TRF-005", testTime.Add(-26*time.Hour))
	if err := repo.MarkClaimed(ctx, "TRF-005", testTime.Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}

	got, err := repo.GetNeedingReminder(ctx, secondary.ReminderQuery{
		RemindersSent: 0,
		CreatedBefore: testTime.Add(-24 * time.Hour),
		CreatedAfter:  testTime.Add(-48 * time.Hour),
		Now:           testTime,
		Limit:         20,
	})
	if err != nil {
		t.Fatalf("GetNeedingReminder failed: %v", err)
	}

	if len(got) != 1 || got[0].ID != "TRF-001" {
		t.Fatalf("expected only TRF-001, got %d rows", len(got))
	}

	// The second wave picks up TRF-004 (one reminder, 48h+ old) once it
	// ages past the window start.
	got, err = repo.GetNeedingReminder(ctx, secondary.ReminderQuery{
		RemindersSent: 1,
		CreatedBefore: testTime.Add(-24 * time.Hour),
		CreatedAfter:  testTime.Add(-48 * time.Hour),
		Now:           testTime,
		Limit:         20,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "TRF-004" {
		t.Fatalf("expected only TRF-004 in second wave, got %d rows", len(got))
	}
}

func TestTransferRepository_GetExpiringSoon(t *testing.T) {
	database := setupTestDB(t)
	repo := sqlite.NewTransferRepository(database)
	ctx := context.Background()

	// Expires in 1.5h: inside the 2h final-notice window.
	seedTransfer(t, database, "TRF-001", testTime.Add(-70*time.Hour).Add(-30*time.Minute))
	// Expires in 10h: outside.
	seedTransfer(t, database, "TRF-002", testTime.Add(-62*time.Hour))
	// Already expired: excluded.
	seedTransfer(t, database, "TRF-003", testTime.Add(-80*time.Hour))
	// Inside the window but out of reminder budget.
	seedTransfer(t, database, "TRF-004", testTime.Add(-71*time.Hour))
	for i := 0; i < 3; i++ {
		if err := repo.RecordReminder(ctx, "TRF-004", testTime.Add(-time.Hour)); err != nil {
			t.Fatal(err)
		}
	}

	got, err := repo.GetExpiringSoon(ctx, testTime, 2*time.Hour, 3, 10)
	if err != nil {
		t.Fatalf("GetExpiringSoon failed: %v", err)
	}

	if len(got) != 1 || got[0].ID != "TRF-001" {
		t.Fatalf("expected only TRF-001, got %d rows", len(got))
	}
}

func TestTransferRepository_GetExpiredForReclaim(t *testing.T) {
	database := setupTestDB(t)
	repo := sqlite.NewTransferRepository(database)
	ctx := context.Background()

	// Expired 1h ago: eligible.
	seedTransfer(t, database, "TRF-001", testTime.Add(-73*time.Hour))
	// Not yet expired.
	seedTransfer(t, database, "TRF-002", testTime.Add(-71*time.Hour))
	// Expired but claimed before expiry.
	seedTransfer(t, database, "TRF-003", testTime.Add(-74*time.Hour))
	if err := repo.MarkClaimed(ctx, "TRF-003", testTime.Add(-3*time.Hour)); err != nil {
		t.Fatal(err)
	}
	// Expired but out of reclaim attempts.
	seedTransfer(t, database, "TRF-004", testTime.Add(-75*time.Hour))
	for i := 0; i < 3; i++ {
		if err := repo.IncrementReclaimAttempts(ctx, "TRF-004", testTime.Add(-time.Hour)); err != nil {
			t.Fatal(err)
		}
	}

	got, err := repo.GetExpiredForReclaim(ctx, testTime, 3, 10)
	if err != nil {
		t.Fatalf("GetExpiredForReclaim failed: %v", err)
	}

	if len(got) != 1 || got[0].ID != "TRF-001" {
		t.Fatalf("expected only TRF-001, got %d rows", len(got))
	}
}

func TestTransferRepository_MarkClaimed(t *testing.T) {
	database := setupTestDB(t)
	repo := sqlite.NewTransferRepository(database)
	ctx := context.Background()

	seedTransfer(t, database, "TRF-001", testTime.Add(-2*time.Hour))

	if err := repo.MarkClaimed(ctx, "TRF-001", testTime); err != nil {
		t.Fatalf("MarkClaimed failed: %v", err)
	}

	retrieved, _ := repo.GetByID(ctx, "TRF-001")
	if retrieved.Status != "claimed" || retrieved.ClaimedAt.IsZero() {
		t.Errorf("unexpected transfer after claim: %s", retrieved.Status)
	}

	// Settled transfers cannot be claimed or reclaimed again.
	if err := repo.MarkClaimed(ctx, "TRF-001", testTime); err == nil {
		t.Error("expected second MarkClaimed to fail")
	}
	err := repo.MarkReclaimed(ctx, "TRF-001", testTime)
	if err == nil {
		t.Error("expected MarkReclaimed on claimed transfer to fail")
	}
	if err != nil && !strings.Contains(err.Error(), "already settled") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestTransferRepository_MarkReclaimed(t *testing.T) {
	database := setupTestDB(t)
	repo := sqlite.NewTransferRepository(database)
	ctx := context.Background()

	seedTransfer(t, database, "TRF-001", testTime.Add(-73*time.Hour))

	if err := repo.MarkReclaimed(ctx, "TRF-001", testTime); err != nil {
		t.Fatalf("MarkReclaimed failed: %v", err)
	}

	retrieved, _ := repo.GetByID(ctx, "TRF-001")
	if retrieved.Status != "reclaimed" || retrieved.ReclaimedAt.IsZero() {
		t.Errorf("unexpected transfer after reclaim: %s", retrieved.Status)
	}

	if err := repo.MarkClaimed(ctx, "TRF-001", testTime); err == nil {
		t.Error("expected MarkClaimed on reclaimed transfer to fail")
	}
}

func TestTransferRepository_MarkExpired(t *testing.T) {
	database := setupTestDB(t)
	repo := sqlite.NewTransferRepository(database)
	ctx := context.Background()

	seedTransfer(t, database, "TRF-001", testTime.Add(-73*time.Hour))

	metadata := `{"reclaim_needed":true,"reclaim_requested_at":"2025-06-10T12:00:00Z"}`
	if err := repo.MarkExpired(ctx, "TRF-001", metadata, testTime); err != nil {
		t.Fatalf("MarkExpired failed: %v", err)
	}

	retrieved, _ := repo.GetByID(ctx, "TRF-001")
	if retrieved.Status != "expired" {
		t.Errorf("expected status 'expired', got '%s'", retrieved.Status)
	}
	if !strings.Contains(retrieved.Metadata, "reclaim_needed") {
		t.Errorf("expected reclaim marker in metadata, got %s", retrieved.Metadata)
	}
}

func TestTransferRepository_RecordReminder(t *testing.T) {
	database := setupTestDB(t)
	repo := sqlite.NewTransferRepository(database)
	ctx := context.Background()

	seedTransfer(t, database, "TRF-001", testTime.Add(-25*time.Hour))

	for i := 1; i <= 2; i++ {
		if err := repo.RecordReminder(ctx, "TRF-001", testTime); err != nil {
			t.Fatalf("RecordReminder failed: %v", err)
		}
		retrieved, _ := repo.GetByID(ctx, "TRF-001")
		if retrieved.RemindersSent != i {
			t.Errorf("expected %d reminders, got %d", i, retrieved.RemindersSent)
		}
		if retrieved.LastReminderAt.IsZero() {
			t.Error("expected last_reminder_at to be stamped")
		}
	}

	if err := repo.RecordReminder(ctx, "TRF-999", testTime); err == nil {
		t.Error("expected error for missing transfer")
	}
}

func TestTransferRepository_List(t *testing.T) {
	database := setupTestDB(t)
	repo := sqlite.NewTransferRepository(database)
	ctx := context.Background()

	seedTransfer(t, database, "TRF-001", testTime.Add(-3*time.Hour))
	seedTransfer(t, database, "TRF-002", testTime.Add(-2*time.Hour))
	seedTransfer(t, database, "TRF-003", testTime.Add(-1*time.Hour))
	if err := repo.MarkClaimed(ctx, "TRF-002", testTime); err != nil {
		t.Fatal(err)
	}

	all, err := repo.List(ctx, secondary.TransferFilters{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 transfers, got %d", len(all))
	}
	// Newest first.
	if all[0].ID != "TRF-003" {
		t.Errorf("expected TRF-003 first, got %s", all[0].ID)
	}

	pending, err := repo.List(ctx, secondary.TransferFilters{Status: "pending", Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].ID != "TRF-003" {
		t.Fatalf("unexpected filtered result: %+v", pending)
	}
}

func TestTransferRepository_GetNextID(t *testing.T) {
	database := setupTestDB(t)
	repo := sqlite.NewTransferRepository(database)
	ctx := context.Background()

	id, err := repo.GetNextID(ctx)
	if err != nil {
		t.Fatalf("GetNextID failed: %v", err)
	}
	if id != "TRF-001" {
		t.Errorf("expected TRF-001, got %s", id)
	}

	seedTransfer(t, database, "TRF-001", testTime)
	seedTransfer(t, database, "TRF-002", testTime)
	id, _ = repo.GetNextID(ctx)
	if id != "TRF-003" {
		t.Errorf("expected TRF-003, got %s", id)
	}
}
