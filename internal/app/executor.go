package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/example/solrelay/internal/core/notify"
	"github.com/example/solrelay/internal/core/trigger"
	"github.com/example/solrelay/internal/models"
	"github.com/example/solrelay/internal/ports/secondary"
)

// Outcome is the result of executing a mission. A skip is a success
// whose precondition evaporated between trigger and execution (the
// transfer got claimed, for example); it is not an error and consumes
// no retry budget beyond the attempt already spent.
type Outcome struct {
	Skipped bool
	Reason  string
	Output  string // JSON payload stored as the mission's output_data
}

// Executor runs one mission type.
type Executor interface {
	Execute(ctx context.Context, mission *secondary.MissionRecord, now time.Time) (Outcome, error)
}

// ExecutorRegistry maps mission types to their executors. Claiming a
// mission whose type has no executor is a hard failure, which burns an
// attempt each tick until the attempt cap parks the mission for good.
type ExecutorRegistry struct {
	executors map[string]Executor
}

// NewExecutorRegistry creates an empty registry.
func NewExecutorRegistry() *ExecutorRegistry {
	return &ExecutorRegistry{executors: make(map[string]Executor)}
}

// Register binds an executor to a mission type.
func (r *ExecutorRegistry) Register(missionType string, executor Executor) {
	r.executors[missionType] = executor
}

// Get returns the executor for a mission type.
func (r *ExecutorRegistry) Get(missionType string) (Executor, bool) {
	executor, ok := r.executors[missionType]
	return executor, ok
}

// ReminderExecutor handles send_reminder missions: it renders the
// reminder content, queues the email, bumps the transfer's reminder
// counter, and emits an audit event with the recipient masked.
type ReminderExecutor struct {
	transferRepo secondary.TransferRepository
	emailRepo    secondary.EmailQueueRepository
	eventRepo    secondary.EventRepository
	fromEmail    string
	frontendURL  string
	dryRun       bool
}

// NewReminderExecutor creates a new ReminderExecutor.
func NewReminderExecutor(
	transferRepo secondary.TransferRepository,
	emailRepo secondary.EmailQueueRepository,
	eventRepo secondary.EventRepository,
	fromEmail, frontendURL string,
	dryRun bool,
) *ReminderExecutor {
	return &ReminderExecutor{
		transferRepo: transferRepo,
		emailRepo:    emailRepo,
		eventRepo:    eventRepo,
		fromEmail:    fromEmail,
		frontendURL:  frontendURL,
		dryRun:       dryRun,
	}
}

func (e *ReminderExecutor) Execute(ctx context.Context, mission *secondary.MissionRecord, now time.Time) (Outcome, error) {
	transfer, err := e.transferRepo.GetByID(ctx, mission.TransferID)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to load transfer: %w", err)
	}

	// Re-check the precondition at execution time.
	if transfer.Status != models.TransferStatusPending && transfer.Status != models.TransferStatusConfirmed {
		return Outcome{Skipped: true, Reason: fmt.Sprintf("transfer is %s", transfer.Status)}, nil
	}
	if !transfer.ClaimedAt.IsZero() {
		return Outcome{Skipped: true, Reason: "transfer already claimed"}, nil
	}

	kind := reminderKind(mission.InputData)

	if e.dryRun {
		log.Printf("[dry-run] reminder %s to %s for %s", kind, notify.MaskEmail(transfer.Email), transfer.ID)
		return Outcome{Output: fmt.Sprintf(`{"dry_run":true,"reminder_type":"%s"}`, kind)}, nil
	}

	claimURL := e.frontendURL + "/claim/" + transfer.ID
	rendered := notify.RenderReminder(kind, transfer.Amount, transfer.Token, claimURL, transfer.ExpiresAt, now)

	emailID, err := e.emailRepo.GetNextID(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to generate email ID: %w", err)
	}
	err = e.emailRepo.Queue(ctx, &secondary.EmailRecord{
		ID:           emailID,
		ToEmail:      transfer.Email,
		Subject:      rendered.Subject,
		HTMLBody:     rendered.HTML,
		EmailType:    "reminder",
		TransferID:   transfer.ID,
		MissionID:    mission.ID,
		ScheduledFor: now,
		CreatedAt:    now,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to queue email: %w", err)
	}

	if err := e.transferRepo.RecordReminder(ctx, transfer.ID, now); err != nil {
		return Outcome{}, fmt.Errorf("failed to record reminder: %w", err)
	}

	err = e.eventRepo.Emit(ctx, &secondary.EventRecord{
		EventType:  models.EventReminderScheduled,
		Source:     "send_reminder",
		Data:       fmt.Sprintf(`{"email":"%s","reminder_type":"%s","email_id":"%s"}`, notify.MaskEmail(transfer.Email), kind, emailID),
		TransferID: transfer.ID,
		MissionID:  mission.ID,
		CreatedAt:  now,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to emit event: %w", err)
	}

	return Outcome{Output: fmt.Sprintf(`{"email_id":"%s","reminder_type":"%s"}`, emailID, kind)}, nil
}

// reminderKind extracts the reminder type from mission input; a
// missing or malformed payload falls back to a first reminder.
func reminderKind(inputData string) string {
	var payload struct {
		ReminderType string `json:"reminder_type"`
	}
	if err := json.Unmarshal([]byte(inputData), &payload); err != nil || payload.ReminderType == "" {
		return trigger.ReminderFirst
	}
	return payload.ReminderType
}

// ReclaimExecutor handles auto_reclaim missions: it marks an expired
// transfer for on-chain reclaim and emits the reclaim_needed event the
// chain worker consumes. The actual fund movement happens outside the
// agent.
type ReclaimExecutor struct {
	transferRepo secondary.TransferRepository
	eventRepo    secondary.EventRepository
	dryRun       bool
}

// NewReclaimExecutor creates a new ReclaimExecutor.
func NewReclaimExecutor(transferRepo secondary.TransferRepository, eventRepo secondary.EventRepository, dryRun bool) *ReclaimExecutor {
	return &ReclaimExecutor{transferRepo: transferRepo, eventRepo: eventRepo, dryRun: dryRun}
}

func (e *ReclaimExecutor) Execute(ctx context.Context, mission *secondary.MissionRecord, now time.Time) (Outcome, error) {
	transfer, err := e.transferRepo.GetByID(ctx, mission.TransferID)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to load transfer: %w", err)
	}

	if !transfer.ClaimedAt.IsZero() || !transfer.ReclaimedAt.IsZero() {
		return Outcome{Skipped: true, Reason: "transfer already settled"}, nil
	}
	if transfer.ExpiresAt.After(now) {
		return Outcome{Skipped: true, Reason: "transfer not expired yet"}, nil
	}

	if e.dryRun {
		log.Printf("[dry-run] reclaim for %s (%g %s)", transfer.ID, transfer.Amount, transfer.Token)
		return Outcome{Output: `{"dry_run":true,"reclaim_marked":false}`}, nil
	}

	if err := e.transferRepo.IncrementReclaimAttempts(ctx, transfer.ID, now); err != nil {
		return Outcome{}, fmt.Errorf("failed to increment reclaim attempts: %w", err)
	}

	metadata := fmt.Sprintf(`{"reclaim_needed":true,"reclaim_requested_at":"%s"}`, now.UTC().Format(time.RFC3339))
	if err := e.transferRepo.MarkExpired(ctx, transfer.ID, metadata, now); err != nil {
		return Outcome{}, fmt.Errorf("failed to mark transfer expired: %w", err)
	}

	err = e.eventRepo.Emit(ctx, &secondary.EventRecord{
		EventType:  models.EventReclaimNeeded,
		Source:     "auto_reclaim",
		Data:       fmt.Sprintf(`{"sender_pubkey":"%s","amount":%g}`, transfer.SenderPubkey, transfer.Amount),
		TransferID: transfer.ID,
		MissionID:  mission.ID,
		CreatedAt:  now,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to emit event: %w", err)
	}

	return Outcome{Output: `{"reclaim_marked":true}`}, nil
}

// AbuseExecutor handles investigate_abuse missions. These only reach
// execution after human approval; the executor records the
// investigation for downstream review.
type AbuseExecutor struct {
	eventRepo secondary.EventRepository
}

// NewAbuseExecutor creates a new AbuseExecutor.
func NewAbuseExecutor(eventRepo secondary.EventRepository) *AbuseExecutor {
	return &AbuseExecutor{eventRepo: eventRepo}
}

func (e *AbuseExecutor) Execute(ctx context.Context, mission *secondary.MissionRecord, now time.Time) (Outcome, error) {
	log.Printf("investigating abuse report: mission=%s input=%s", mission.ID, mission.InputData)

	err := e.eventRepo.Emit(ctx, &secondary.EventRecord{
		EventType:  models.EventAbuseLogged,
		Source:     "investigate_abuse",
		Data:       mission.InputData,
		TransferID: mission.TransferID,
		MissionID:  mission.ID,
		CreatedAt:  now,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to emit event: %w", err)
	}

	return Outcome{Output: `{"logged":true}`}, nil
}
