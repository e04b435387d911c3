package app

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/solrelay/internal/adapters/sqlite"
	"github.com/example/solrelay/internal/config"
	"github.com/example/solrelay/internal/core/trigger"
	"github.com/example/solrelay/internal/db"
	"github.com/example/solrelay/internal/ports/secondary"
)

// Tests here run the real services over an in-memory database with a
// controllable clock, so trigger windows and cap gates can be
// exercised by advancing time instead of sleeping.

var testStart = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

// fakeClock is an adjustable time source injected in place of time.Now.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeSender records sent messages and can be told to fail.
type fakeSender struct {
	mu       sync.Mutex
	messages []secondary.EmailMessage
	failWith error
}

func (s *fakeSender) Send(_ context.Context, msg secondary.EmailMessage) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return "", s.failWith
	}
	s.messages = append(s.messages, msg)
	return "fake-msg-id", nil
}

func (s *fakeSender) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

var errSendFailed = errors.New("provider rejected the message")

// testEnv wires the full service stack over one in-memory database.
type testEnv struct {
	db     *sql.DB
	clock  *fakeClock
	cfg    *config.Config
	sender *fakeSender

	transferRepo *sqlite.TransferRepository
	missionRepo  *sqlite.MissionRepository
	emailRepo    *sqlite.EmailQueueRepository
	eventRepo    *sqlite.EventRepository
	blockedRepo  *sqlite.BlockedRepository
	stateRepo    *sqlite.StateRepository

	gate      *GateService
	missions  *MissionServiceImpl
	transfers *TransferServiceImpl
	blocks    *BlockServiceImpl
	triggers  *TriggerService
	dispatch  *DispatchService
	loop      *AgentLoop
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	database, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	database.SetMaxOpenConns(1)
	if _, err := database.Exec(db.GetSchemaSQL()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	t.Cleanup(func() {
		database.Close()
	})

	clock := newFakeClock(testStart)
	sender := &fakeSender{}

	cfg := &config.Config{
		PollInterval:         30 * time.Second,
		MaxRemindersPerDay:   100,
		MaxRemindersPerHour:  30,
		MaxReclaimsPerMinute: 5,
		ReclaimEnabled:       true,
		StaleWindow:          30 * time.Minute,
		MissionBatch:         10,
		EmailBatch:           10,
		MaxAttempts:          3,
		Thresholds:           trigger.DefaultThresholds(),
		FromEmail:            "PayInbox <noreply@payinbox.xyz>",
		FrontendURL:          "http://localhost:3000",
		LeaseTTL:             90 * time.Second,
	}

	env := &testEnv{
		db:           database,
		clock:        clock,
		cfg:          cfg,
		sender:       sender,
		transferRepo: sqlite.NewTransferRepository(database),
		missionRepo:  sqlite.NewMissionRepository(database),
		emailRepo:    sqlite.NewEmailQueueRepository(database),
		eventRepo:    sqlite.NewEventRepository(database),
		blockedRepo:  sqlite.NewBlockedRepository(database),
		stateRepo:    sqlite.NewStateRepository(database),
	}

	env.gate = NewGateService(env.missionRepo, env.emailRepo, env.blockedRepo, cfg.GateLimits())
	env.missions = NewMissionService(env.missionRepo, env.transferRepo, env.gate, clock.Now)
	env.transfers = NewTransferService(env.transferRepo, clock.Now)
	env.blocks = NewBlockService(env.blockedRepo, clock.Now)
	env.triggers = NewTriggerService(env.transferRepo, env.missions, env.gate, cfg.Thresholds)
	env.dispatch = NewDispatchService(env.emailRepo, env.eventRepo, sender, cfg.FromEmail, cfg.EmailBatch)

	registry := NewExecutorRegistry()
	registry.Register("send_reminder", NewReminderExecutor(env.transferRepo, env.emailRepo, env.eventRepo, cfg.FromEmail, cfg.FrontendURL, false))
	registry.Register("auto_reclaim", NewReclaimExecutor(env.transferRepo, env.eventRepo, false))
	registry.Register("investigate_abuse", NewAbuseExecutor(env.eventRepo))

	env.loop = NewAgentLoop(cfg, env.missionRepo, env.transferRepo, env.emailRepo, env.stateRepo,
		env.triggers, registry, env.dispatch, "agent-test", clock.Now)

	return env
}

// createTransfer seeds a transfer created at the given clock offset
// before the current fake time.
func (e *testEnv) createTransfer(t *testing.T, id string, age time.Duration) *secondary.TransferRecord {
	t.Helper()

	createdAt := e.clock.Now().Add(-age)
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
	if err := e.transferRepo.Create(context.Background(), record); err != nil {
		t.Fatalf("failed to create transfer: %v", err)
	}
	return record
}

// tick runs one loop iteration and fails the test on a loop error.
func (e *testEnv) tick(t *testing.T) *tickSummary {
	t.Helper()

	result, err := e.loop.RunTick(context.Background())
	if err != nil {
		t.Fatalf("RunTick failed: %v", err)
	}
	return &tickSummary{result.MissionsCreated, result.MissionsOK, result.MissionsSkipped, result.MissionsFailed, result.EmailsSent, result.Skipped}
}

type tickSummary struct {
	created int
	ok      int
	skipped int
	failed  int
	sent    int
	idle    bool
}
