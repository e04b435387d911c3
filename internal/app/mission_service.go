package app

import (
	"context"
	"fmt"
	"time"

	coremission "github.com/example/solrelay/internal/core/mission"
	"github.com/example/solrelay/internal/core/trigger"
	"github.com/example/solrelay/internal/models"
	"github.com/example/solrelay/internal/ports/primary"
	"github.com/example/solrelay/internal/ports/secondary"
)

// MissionServiceImpl implements the MissionService interface.
type MissionServiceImpl struct {
	missionRepo  secondary.MissionRepository
	transferRepo secondary.TransferRepository
	gate         *GateService
	now          func() time.Time
}

// NewMissionService creates a new MissionService with injected dependencies.
func NewMissionService(
	missionRepo secondary.MissionRepository,
	transferRepo secondary.TransferRepository,
	gate *GateService,
	now func() time.Time,
) *MissionServiceImpl {
	if now == nil {
		now = time.Now
	}
	return &MissionServiceImpl{
		missionRepo:  missionRepo,
		transferRepo: transferRepo,
		gate:         gate,
		now:          now,
	}
}

// CreateMission creates a new mission after running the cap gate.
// A gate denial does not fail the call: the mission is created in
// blocked status carrying the denial reason, so an operator can see
// why it never ran.
func (s *MissionServiceImpl) CreateMission(ctx context.Context, req primary.CreateMissionRequest) (*primary.CreateMissionResponse, error) {
	now := s.now()

	// 1. Load the transfer for gate context, if any.
	var transfer *secondary.TransferRecord
	if req.TransferID != "" {
		var err error
		transfer, err = s.transferRepo.GetByID(ctx, req.TransferID)
		if err != nil {
			return nil, fmt.Errorf("transfer not found: %w", err)
		}
	}

	// 2. Run the cap gate.
	decision, err := s.gate.Evaluate(ctx, req.Type, transfer, now)
	if err != nil {
		return nil, fmt.Errorf("gate evaluation failed: %w", err)
	}

	// 3. Settle the initial status. Denied missions are inserted
	// pending, then immediately blocked with the denial reason.
	status := coremission.InitialStatus(!decision.NeedsApproval)
	if !decision.OK {
		status = coremission.StatusPending
	}

	// 4. Generate ID and persist.
	nextID, err := s.missionRepo.GetNextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate mission ID: %w", err)
	}

	priority := req.Priority
	if priority == 0 {
		priority = models.DefaultMissionPriority
	}
	scheduledFor := req.ScheduledFor
	if scheduledFor.IsZero() {
		scheduledFor = now
	}

	record := &secondary.MissionRecord{
		ID:           nextID,
		Type:         req.Type,
		Source:       req.Source,
		Status:       status,
		Priority:     priority,
		ScheduledFor: scheduledFor,
		InputData:    req.InputData,
		TransferID:   req.TransferID,
		CreatedAt:    now,
	}
	if status == coremission.StatusApproved {
		record.ApprovedAt = now
	}

	if err := s.missionRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create mission: %w", err)
	}
	if !decision.OK {
		if err := s.missionRepo.Block(ctx, record.ID, decision.Reason); err != nil {
			return nil, fmt.Errorf("failed to block mission: %w", err)
		}
		record.Status = coremission.StatusBlocked
		record.BlockedReason = decision.Reason
	}

	return &primary.CreateMissionResponse{
		MissionID: record.ID,
		Mission:   recordToMission(record),
	}, nil
}

// CreateFromCandidate creates a mission from a pre-gated trigger
// candidate. The caller has already evaluated the gate; denied
// candidates never reach here.
func (s *MissionServiceImpl) CreateFromCandidate(ctx context.Context, cand trigger.Candidate) (*secondary.MissionRecord, error) {
	now := s.now()

	nextID, err := s.missionRepo.GetNextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate mission ID: %w", err)
	}

	record := &secondary.MissionRecord{
		ID:           nextID,
		Type:         cand.Type,
		Source:       cand.Source,
		Status:       coremission.InitialStatus(cand.AutoApprove),
		Priority:     models.DefaultMissionPriority,
		ScheduledFor: now,
		InputData:    cand.InputData,
		TransferID:   cand.TransferID,
		CreatedAt:    now,
	}
	if cand.AutoApprove {
		record.ApprovedAt = now
	}

	if err := s.missionRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create mission: %w", err)
	}

	return record, nil
}

// GetMission retrieves a mission by ID.
func (s *MissionServiceImpl) GetMission(ctx context.Context, missionID string) (*primary.Mission, error) {
	record, err := s.missionRepo.GetByID(ctx, missionID)
	if err != nil {
		return nil, err
	}
	return recordToMission(record), nil
}

// ListMissions lists missions with optional filters.
func (s *MissionServiceImpl) ListMissions(ctx context.Context, filters primary.MissionFilters) ([]*primary.Mission, error) {
	records, err := s.missionRepo.List(ctx, secondary.MissionFilters{
		Status: filters.Status,
		Type:   filters.Type,
		Limit:  filters.Limit,
	})
	if err != nil {
		return nil, err
	}

	missions := make([]*primary.Mission, len(records))
	for i, record := range records {
		missions[i] = recordToMission(record)
	}
	return missions, nil
}

// ApproveMission moves a pending mission to approved.
func (s *MissionServiceImpl) ApproveMission(ctx context.Context, missionID string) error {
	return s.missionRepo.Approve(ctx, missionID, s.now())
}

// RescheduleMission pushes an unstarted mission's schedule forward.
func (s *MissionServiceImpl) RescheduleMission(ctx context.Context, missionID string, scheduledFor time.Time) error {
	return s.missionRepo.Reschedule(ctx, missionID, scheduledFor)
}

func recordToMission(record *secondary.MissionRecord) *primary.Mission {
	return &primary.Mission{
		ID:            record.ID,
		Type:          record.Type,
		Source:        record.Source,
		Status:        record.Status,
		Priority:      record.Priority,
		ScheduledFor:  record.ScheduledFor,
		InputData:     record.InputData,
		OutputData:    record.OutputData,
		Error:         record.Error,
		BlockedReason: record.BlockedReason,
		TransferID:    record.TransferID,
		Attempts:      record.Attempts,
		CreatedAt:     record.CreatedAt,
		ApprovedAt:    record.ApprovedAt,
		StartedAt:     record.StartedAt,
		CompletedAt:   record.CompletedAt,
	}
}

// Ensure MissionServiceImpl implements the interface
var _ primary.MissionService = (*MissionServiceImpl)(nil)
