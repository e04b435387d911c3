// Package app contains the application services: the imperative shell
// that wires repositories, the cap gate, executors, and the loop.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/example/solrelay/internal/core/gate"
	"github.com/example/solrelay/internal/ports/secondary"
)

// GateService gathers rate counters from the store and runs the pure
// cap gate over them.
type GateService struct {
	missionRepo secondary.MissionRepository
	emailRepo   secondary.EmailQueueRepository
	blockedRepo secondary.BlockedRepository
	limits      gate.Limits
}

// NewGateService creates a new GateService with injected dependencies.
func NewGateService(
	missionRepo secondary.MissionRepository,
	emailRepo secondary.EmailQueueRepository,
	blockedRepo secondary.BlockedRepository,
	limits gate.Limits,
) *GateService {
	return &GateService{
		missionRepo: missionRepo,
		emailRepo:   emailRepo,
		blockedRepo: blockedRepo,
		limits:      limits,
	}
}

// Evaluate checks the cap gates for one candidate mission. transfer
// may be nil for missions not tied to a transfer.
func (s *GateService) Evaluate(ctx context.Context, missionType string, transfer *secondary.TransferRecord, now time.Time) (gate.Decision, error) {
	counters, err := s.counters(ctx, now)
	if err != nil {
		return gate.Decision{}, err
	}

	gateCtx := gate.Context{}
	if transfer != nil {
		gateCtx.HasTransfer = true
		gateCtx.TransferRemindersSent = transfer.RemindersSent

		blocked, err := s.blockedRepo.IsBlocked(ctx, "email", transfer.Email, now)
		if err != nil {
			return gate.Decision{}, fmt.Errorf("failed to check blocklist: %w", err)
		}
		gateCtx.RecipientBlocked = blocked
	}

	return gate.Check(missionType, s.limits, counters, gateCtx), nil
}

func (s *GateService) counters(ctx context.Context, now time.Time) (gate.Counters, error) {
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	remindersToday, err := s.missionRepo.GetSucceededCountByTypeSince(ctx, gate.TypeSendReminder, startOfDay)
	if err != nil {
		return gate.Counters{}, fmt.Errorf("failed to count reminders today: %w", err)
	}

	sentLastHour, err := s.emailRepo.GetSentCountSince(ctx, now.Add(-time.Hour))
	if err != nil {
		return gate.Counters{}, fmt.Errorf("failed to count emails last hour: %w", err)
	}

	activeReclaims, err := s.missionRepo.GetActiveCountByType(ctx, gate.TypeAutoReclaim)
	if err != nil {
		return gate.Counters{}, fmt.Errorf("failed to count active reclaims: %w", err)
	}

	return gate.Counters{
		RemindersSucceededToday: remindersToday,
		EmailsSentLastHour:      sentLastHour,
		ActiveReclaims:          activeReclaims,
	}, nil
}
