package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/example/solrelay/internal/core/trigger"
	"github.com/example/solrelay/internal/models"
	"github.com/example/solrelay/internal/ports/secondary"
)

// TriggerService evaluates all trigger rules over the transfer table
// and creates pre-gated missions for matching transfers. Candidates
// the gate denies are dropped silently; the trigger fires again on the
// next tick and the caps may have room by then.
type TriggerService struct {
	transferRepo secondary.TransferRepository
	missions     *MissionServiceImpl
	gate         *GateService
	thresholds   trigger.Thresholds
}

// NewTriggerService creates a new TriggerService with injected dependencies.
func NewTriggerService(
	transferRepo secondary.TransferRepository,
	missions *MissionServiceImpl,
	gate *GateService,
	thresholds trigger.Thresholds,
) *TriggerService {
	return &TriggerService{
		transferRepo: transferRepo,
		missions:     missions,
		gate:         gate,
		thresholds:   thresholds,
	}
}

// Evaluate runs the four trigger rules and returns the number of
// missions created. Per-rule query errors are logged and skipped so
// one broken rule cannot starve the others.
func (s *TriggerService) Evaluate(ctx context.Context, now time.Time) int {
	created := 0
	for _, rule := range []func(context.Context, time.Time) (int, error){
		s.firstReminders,
		s.urgentReminders,
		s.finalNotices,
		s.reclaims,
	} {
		n, err := rule(ctx, now)
		if err != nil {
			log.Printf("trigger rule failed: %v", err)
			continue
		}
		created += n
	}
	return created
}

// firstReminders targets pending transfers aged 24-48h with no
// reminders yet.
func (s *TriggerService) firstReminders(ctx context.Context, now time.Time) (int, error) {
	createdBefore, createdAfter := s.thresholds.FirstWindow(now)
	transfers, err := s.transferRepo.GetNeedingReminder(ctx, secondary.ReminderQuery{
		RemindersSent: 0,
		CreatedBefore: createdBefore,
		CreatedAfter:  createdAfter,
		Now:           now,
		Limit:         s.thresholds.ReminderBatch,
	})
	if err != nil {
		return 0, fmt.Errorf("first-reminder query: %w", err)
	}

	return s.createReminders(ctx, transfers, trigger.ReminderFirst, trigger.Source24h, now)
}

// urgentReminders targets pending transfers aged 48-70h with exactly
// one reminder sent.
func (s *TriggerService) urgentReminders(ctx context.Context, now time.Time) (int, error) {
	createdBefore, createdAfter := s.thresholds.SecondWindow(now)
	transfers, err := s.transferRepo.GetNeedingReminder(ctx, secondary.ReminderQuery{
		RemindersSent: 1,
		CreatedBefore: createdBefore,
		CreatedAfter:  createdAfter,
		Now:           now,
		Limit:         s.thresholds.ReminderBatch,
	})
	if err != nil {
		return 0, fmt.Errorf("urgent-reminder query: %w", err)
	}

	return s.createReminders(ctx, transfers, trigger.ReminderUrgent, trigger.Source48h, now)
}

// finalNotices targets pending transfers inside the last stretch
// before expiry that still have reminder budget.
func (s *TriggerService) finalNotices(ctx context.Context, now time.Time) (int, error) {
	transfers, err := s.transferRepo.GetExpiringSoon(ctx, now, s.thresholds.FinalNoticeWindow, models.MaxRemindersPerTransfer, s.thresholds.ReminderBatch)
	if err != nil {
		return 0, fmt.Errorf("final-notice query: %w", err)
	}

	return s.createReminders(ctx, transfers, trigger.ReminderFinal, trigger.SourceExpiry, now)
}

// reclaims targets pending transfers past expiry with reclaim
// attempts left.
func (s *TriggerService) reclaims(ctx context.Context, now time.Time) (int, error) {
	transfers, err := s.transferRepo.GetExpiredForReclaim(ctx, now, models.MaxReclaimAttempts, s.thresholds.ReclaimBatch)
	if err != nil {
		return 0, fmt.Errorf("reclaim query: %w", err)
	}

	created := 0
	for _, transfer := range transfers {
		if exists, err := s.hasActiveMission(ctx, "auto_reclaim", transfer.ID); err != nil || exists {
			continue
		}

		decision, err := s.gate.Evaluate(ctx, "auto_reclaim", transfer, now)
		if err != nil {
			return created, err
		}
		if !decision.OK {
			continue
		}

		if _, err := s.missions.CreateFromCandidate(ctx, trigger.ReclaimCandidate(transfer.ID)); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func (s *TriggerService) createReminders(ctx context.Context, transfers []*secondary.TransferRecord, kind, source string, now time.Time) (int, error) {
	created := 0
	for _, transfer := range transfers {
		if exists, err := s.hasActiveMission(ctx, "send_reminder", transfer.ID); err != nil || exists {
			continue
		}

		decision, err := s.gate.Evaluate(ctx, "send_reminder", transfer, now)
		if err != nil {
			return created, err
		}
		if !decision.OK {
			continue
		}

		if _, err := s.missions.CreateFromCandidate(ctx, trigger.ReminderCandidate(transfer.ID, kind, source)); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// hasActiveMission reports whether an unresolved mission of the given
// type already exists for a transfer, so a transfer sitting in a
// trigger window does not accumulate duplicates across ticks.
func (s *TriggerService) hasActiveMission(ctx context.Context, missionType, transferID string) (bool, error) {
	missions, err := s.missions.missionRepo.List(ctx, secondary.MissionFilters{Type: missionType})
	if err != nil {
		return false, err
	}
	for _, m := range missions {
		if m.TransferID != transferID {
			continue
		}
		if m.Status == "pending" || m.Status == "approved" || m.Status == "running" {
			return true, nil
		}
	}
	return false, nil
}
