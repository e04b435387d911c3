package app

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/example/solrelay/internal/core/gate"
	"github.com/example/solrelay/internal/ports/primary"
	"github.com/example/solrelay/internal/ports/secondary"
)

func TestGateService_HourlyCapWithClockAdvance(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	env.createTransfer(t, "TRF-001", 25*time.Hour)

	// Fill the hourly budget: 30 emails sent within the last hour.
	now := env.clock.Now()
	for i := 1; i <= 30; i++ {
		id := fmt.Sprintf("EML-%03d", i)
		err := env.emailRepo.Queue(ctx, &secondary.EmailRecord{
			ID:           id,
			ToEmail:      "bob@example.com",
			Subject:      "x",
			HTMLBody:     "x",
			ScheduledFor: now.Add(-30 * time.Minute),
			CreatedAt:    now.Add(-30 * time.Minute),
		})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := env.emailRepo.MarkSending(ctx, id); err != nil {
			t.Fatal(err)
		}
		if err := env.emailRepo.MarkSent(ctx, id, "prov", now.Add(-30*time.Minute)); err != nil {
			t.Fatal(err)
		}
	}

	// The gate denies; the candidate is dropped, not blocked.
	summary := env.tick(t)
	if summary.created != 0 {
		t.Fatalf("expected gate to deny reminder, got %d created", summary.created)
	}

	// Denial is idempotent across ticks.
	summary = env.tick(t)
	if summary.created != 0 {
		t.Fatalf("expected repeat denial, got %d created", summary.created)
	}

	missions, _ := env.missionRepo.List(ctx, secondary.MissionFilters{})
	if len(missions) != 0 {
		t.Fatalf("expected no missions while capped, got %d", len(missions))
	}

	// An hour later the budget frees up and the same trigger fires.
	env.clock.Advance(61 * time.Minute)
	summary = env.tick(t)
	if summary.created != 1 || summary.ok != 1 {
		t.Fatalf("expected reminder after cap reset, got %+v", summary)
	}
}

func TestGateService_DailyCap(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	// A tight custom limit makes the daily cap reachable.
	tight := NewGateService(env.missionRepo, env.emailRepo, env.blockedRepo, gate.Limits{
		MaxRemindersPerDay:   1,
		MaxRemindersPerHour:  30,
		MaxReclaimsPerMinute: 5,
		MaxRemindersPerXfer:  3,
		ReclaimEnabled:       true,
	})

	now := env.clock.Now()
	err := env.missionRepo.Create(ctx, &secondary.MissionRecord{
		ID:           "MSN-001",
		Type:         "send_reminder",
		Status:       "approved",
		Priority:     5,
		ScheduledFor: now,
		CreatedAt:    now,
		ApprovedAt:   now,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.missionRepo.Claim(ctx, "MSN-001", now); err != nil {
		t.Fatal(err)
	}
	if err := env.missionRepo.Succeed(ctx, "MSN-001", "{}", now); err != nil {
		t.Fatal(err)
	}

	transfer := env.createTransfer(t, "TRF-001", 25*time.Hour)

	decision, err := tight.Evaluate(ctx, "send_reminder", transfer, now)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if decision.OK {
		t.Fatal("expected daily cap denial")
	}
	if decision.Reason != "daily reminder limit reached (1)" {
		t.Errorf("unexpected reason: %s", decision.Reason)
	}

	// Yesterday's successes do not count against today.
	tomorrow := now.Add(24 * time.Hour)
	decision, err = tight.Evaluate(ctx, "send_reminder", transfer, tomorrow)
	if err != nil {
		t.Fatal(err)
	}
	if !decision.OK {
		t.Errorf("expected the cap to reset at midnight, got denial: %s", decision.Reason)
	}
}

func TestGateService_BlockedRecipient(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	env.createTransfer(t, "TRF-001", 25*time.Hour)

	_, err := env.blocks.BlockEntity(ctx, primary.BlockEntityRequest{
		EntityType:  "email",
		EntityValue: "Alice@Example.com",
		Reason:      "abuse report",
		BlockedBy:   "ops",
	})
	if err != nil {
		t.Fatal(err)
	}

	summary := env.tick(t)
	if summary.created != 0 {
		t.Fatalf("expected blocked recipient to suppress reminder, got %d", summary.created)
	}

	if err := env.blocks.UnblockEntity(ctx, "email", "alice@example.com"); err != nil {
		t.Fatal(err)
	}

	summary = env.tick(t)
	if summary.created != 1 {
		t.Fatalf("expected reminder after unblock, got %+v", summary)
	}
}

func TestGateService_ReclaimDisabled(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	disabled := NewGateService(env.missionRepo, env.emailRepo, env.blockedRepo, gate.Limits{
		MaxRemindersPerDay:   100,
		MaxRemindersPerHour:  30,
		MaxReclaimsPerMinute: 5,
		MaxRemindersPerXfer:  3,
		ReclaimEnabled:       false,
	})

	transfer := env.createTransfer(t, "TRF-001", 73*time.Hour)

	decision, err := disabled.Evaluate(ctx, "auto_reclaim", transfer, env.clock.Now())
	if err != nil {
		t.Fatal(err)
	}
	if decision.OK {
		t.Fatal("expected reclaim denial while disabled")
	}
	if !strings.Contains(decision.Reason, "disabled") {
		t.Errorf("unexpected reason: %s", decision.Reason)
	}
}

func TestGateService_ReclaimRateLimit(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	now := env.clock.Now()
	// Five unresolved reclaims saturate the rate limit.
	for i := 1; i <= 5; i++ {
		err := env.missionRepo.Create(ctx, &secondary.MissionRecord{
			ID:           fmt.Sprintf("MSN-%03d", i),
			Type:         "auto_reclaim",
			Status:       "approved",
			Priority:     5,
			ScheduledFor: now,
			CreatedAt:    now,
			ApprovedAt:   now,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	decision, err := env.gate.Evaluate(ctx, "auto_reclaim", nil, now)
	if err != nil {
		t.Fatal(err)
	}
	if decision.OK {
		t.Fatal("expected rate limit denial")
	}
	if decision.Reason != "rate limit: 5 reclaims/minute" {
		t.Errorf("unexpected reason: %s", decision.Reason)
	}
}
