package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/example/solrelay/internal/config"
	coremission "github.com/example/solrelay/internal/core/mission"
	"github.com/example/solrelay/internal/models"
	"github.com/example/solrelay/internal/ports/primary"
	"github.com/example/solrelay/internal/ports/secondary"
)

// leaseKey is the agent_state key holding the leadership lease.
const leaseKey = "leader_lease"

// lastLoopKey is the agent_state key holding the last loop summary.
const lastLoopKey = "last_loop"

// startupKey is the agent_state key stamped on process start.
const startupKey = "startup"

// AgentLoop drives one full iteration of the autonomous loop. The loop
// body is single-threaded: a re-entrancy guard skips a tick if the
// previous one is still running, and a leadership lease in agent_state
// keeps a second process from running the loop concurrently.
type AgentLoop struct {
	cfg *config.Config

	missionRepo  secondary.MissionRepository
	transferRepo secondary.TransferRepository
	emailRepo    secondary.EmailQueueRepository
	stateRepo    secondary.StateRepository

	triggers *TriggerService
	registry *ExecutorRegistry
	dispatch *DispatchService

	instanceID string
	now        func() time.Time

	mu        sync.Mutex
	isRunning bool
	loopCount int
	lastTick  *primary.TickResult
}

// NewAgentLoop creates a new AgentLoop with injected dependencies.
// instanceID identifies this process in the leadership lease.
func NewAgentLoop(
	cfg *config.Config,
	missionRepo secondary.MissionRepository,
	transferRepo secondary.TransferRepository,
	emailRepo secondary.EmailQueueRepository,
	stateRepo secondary.StateRepository,
	triggers *TriggerService,
	registry *ExecutorRegistry,
	dispatch *DispatchService,
	instanceID string,
	now func() time.Time,
) *AgentLoop {
	if now == nil {
		now = time.Now
	}
	return &AgentLoop{
		cfg:          cfg,
		missionRepo:  missionRepo,
		transferRepo: transferRepo,
		emailRepo:    emailRepo,
		stateRepo:    stateRepo,
		triggers:     triggers,
		registry:     registry,
		dispatch:     dispatch,
		instanceID:   instanceID,
		now:          now,
	}
}

type lease struct {
	Holder    string    `json:"holder"`
	ExpiresAt time.Time `json:"expires_at"`
}

type loopState struct {
	LoopCount int       `json:"loop_count"`
	Timestamp time.Time `json:"timestamp"`
	Created   int       `json:"missions_created"`
	Executed  int       `json:"missions_executed"`
	Sent      int       `json:"emails_sent"`
	Recovered int       `json:"stale_recovered"`
	Errors    int       `json:"errors"`
}

// Startup records the process start in agent state. Failing here is
// the one intentionally fatal path: if the store cannot take a single
// row, there is no point entering the loop.
func (l *AgentLoop) Startup(ctx context.Context) error {
	now := l.now()
	payload, _ := json.Marshal(struct {
		Instance  string    `json:"instance"`
		StartedAt time.Time `json:"started_at"`
	}{Instance: l.instanceID, StartedAt: now})

	if err := l.stateRepo.Set(ctx, startupKey, string(payload), now); err != nil {
		return fmt.Errorf("store unreachable: %w", err)
	}
	return nil
}

// RunTick executes one loop iteration. Step errors are recorded on the
// result, never propagated: a broken step must not stop the loop.
func (l *AgentLoop) RunTick(ctx context.Context) (*primary.TickResult, error) {
	l.mu.Lock()
	if l.isRunning {
		l.mu.Unlock()
		return &primary.TickResult{Skipped: true}, nil
	}
	l.isRunning = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.isRunning = false
		l.mu.Unlock()
	}()

	now := l.now()
	result := &primary.TickResult{StartedAt: now}

	held, err := l.acquireLease(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("lease check failed: %w", err)
	}
	if !held {
		result.Skipped = true
		result.FinishedAt = l.now()
		return result, nil
	}

	// Step 1: evaluate triggers and create missions.
	result.MissionsCreated = l.triggers.Evaluate(ctx, now)

	// Step 2: execute pending missions.
	l.executeMissions(ctx, now, result)

	// Step 3: drain the email queue.
	sent, failed, err := l.dispatch.Drain(ctx, now)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
	}
	result.EmailsSent = sent
	result.EmailsFailed = failed

	// Step 4: self-healing, recover stale missions.
	recovered, err := l.missionRepo.RecoverStale(ctx,
		now.Add(-l.cfg.StaleWindow),
		coremission.StaleError(l.cfg.StaleWindow),
		now,
	)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
	}
	result.StaleRecovered = recovered
	if recovered > 0 {
		log.Printf("recovered %d stale missions", recovered)
	}

	// Step 5: persist the loop summary.
	l.mu.Lock()
	l.loopCount++
	loopCount := l.loopCount
	l.mu.Unlock()

	state, _ := json.Marshal(loopState{
		LoopCount: loopCount,
		Timestamp: now,
		Created:   result.MissionsCreated,
		Executed:  result.MissionsRun,
		Sent:      result.EmailsSent,
		Recovered: result.StaleRecovered,
		Errors:    len(result.Errors),
	})
	if err := l.stateRepo.Set(ctx, lastLoopKey, string(state), now); err != nil {
		result.Errors = append(result.Errors, err.Error())
	}

	result.FinishedAt = l.now()

	l.mu.Lock()
	l.lastTick = result
	l.mu.Unlock()

	return result, nil
}

func (l *AgentLoop) executeMissions(ctx context.Context, now time.Time, result *primary.TickResult) {
	pending, err := l.missionRepo.GetPending(ctx, now, models.MaxMissionAttempts, l.cfg.MissionBatch)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return
	}

	for _, mission := range pending {
		executor, ok := l.registry.Get(mission.Type)
		if !ok {
			if err := l.missionRepo.Fail(ctx, mission.ID, "no executor for type: "+mission.Type, now); err != nil {
				result.Errors = append(result.Errors, err.Error())
			}
			result.MissionsFailed++
			continue
		}

		claimed, err := l.missionRepo.Claim(ctx, mission.ID, now)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		if !claimed {
			// Lost the race; someone else has it.
			continue
		}
		result.MissionsRun++

		outcome, err := executor.Execute(ctx, mission, now)
		if err != nil {
			log.Printf("mission %s (%s) failed: %v", mission.ID, mission.Type, err)
			if failErr := l.missionRepo.Fail(ctx, mission.ID, err.Error(), now); failErr != nil {
				result.Errors = append(result.Errors, failErr.Error())
			}
			result.MissionsFailed++
			continue
		}

		output := outcome.Output
		if outcome.Skipped {
			output = fmt.Sprintf(`{"skipped":true,"reason":%q}`, outcome.Reason)
			result.MissionsSkipped++
		} else {
			result.MissionsOK++
		}
		if output == "" {
			output = "{}"
		}
		if err := l.missionRepo.Succeed(ctx, mission.ID, output, now); err != nil {
			result.Errors = append(result.Errors, err.Error())
		}
	}
}

// acquireLease takes or renews the leadership lease. Another holder
// with an unexpired lease wins; this instance then skips its tick.
func (l *AgentLoop) acquireLease(ctx context.Context, now time.Time) (bool, error) {
	value, found, err := l.stateRepo.Get(ctx, leaseKey)
	if err != nil {
		return false, err
	}

	if found {
		var current lease
		if err := json.Unmarshal([]byte(value), &current); err == nil {
			if current.Holder != l.instanceID && current.ExpiresAt.After(now) {
				return false, nil
			}
		}
	}

	renewed, _ := json.Marshal(lease{
		Holder:    l.instanceID,
		ExpiresAt: now.Add(l.cfg.LeaseTTL),
	})
	if err := l.stateRepo.Set(ctx, leaseKey, string(renewed), now); err != nil {
		return false, err
	}
	return true, nil
}

// Status reports the agent's current view of the world.
func (l *AgentLoop) Status(ctx context.Context) (*primary.AgentStatus, error) {
	now := l.now()

	pendingMissions, err := l.missionRepo.GetPending(ctx, now, models.MaxMissionAttempts, 100)
	if err != nil {
		return nil, fmt.Errorf("failed to count pending missions: %w", err)
	}

	runningMissions, err := l.missionRepo.List(ctx, secondary.MissionFilters{Status: coremission.StatusRunning})
	if err != nil {
		return nil, fmt.Errorf("failed to count running missions: %w", err)
	}

	pendingEmails, err := l.emailRepo.GetPending(ctx, now, models.MaxEmailAttempts, 100)
	if err != nil {
		return nil, fmt.Errorf("failed to count pending emails: %w", err)
	}

	pendingTransfers, err := l.transferRepo.List(ctx, secondary.TransferFilters{Status: models.TransferStatusPending})
	if err != nil {
		return nil, fmt.Errorf("failed to count pending transfers: %w", err)
	}

	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	remindersToday, err := l.missionRepo.GetSucceededCountByTypeSince(ctx, models.MissionTypeSendReminder, startOfDay)
	if err != nil {
		return nil, fmt.Errorf("failed to count today's reminders: %w", err)
	}

	status := &primary.AgentStatus{
		PendingMissions:  len(pendingMissions),
		RunningMissions:  len(runningMissions),
		PendingEmails:    len(pendingEmails),
		PendingTransfers: len(pendingTransfers),
		RemindersToday:   remindersToday,
	}

	l.mu.Lock()
	status.Running = l.isRunning
	status.LoopCount = l.loopCount
	status.LastTick = l.lastTick
	if l.lastTick != nil {
		status.LastLoopAt = l.lastTick.StartedAt
	}
	l.mu.Unlock()

	// A restarted process has an empty in-memory view; fall back to the
	// persisted loop summary.
	if status.LastLoopAt.IsZero() {
		if value, found, err := l.stateRepo.Get(ctx, lastLoopKey); err == nil && found {
			var state loopState
			if json.Unmarshal([]byte(value), &state) == nil {
				status.LastLoopAt = state.Timestamp
				status.LoopCount = state.LoopCount
			}
		}
	}

	return status, nil
}

// Ensure AgentLoop implements the interface
var _ primary.AgentService = (*AgentLoop)(nil)
