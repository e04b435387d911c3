// Package trigger contains the pure rule logic for proposing missions
// from transfer state: age windows, batch limits, and candidate
// construction. Store queries and cap gating live in the service layer.
package trigger

import "time"

// Reminder kinds, carried in mission input payloads.
const (
	ReminderFirst  = "first"
	ReminderUrgent = "urgent"
	ReminderFinal  = "final"
)

// Trigger source names recorded on created missions.
const (
	Source24h     = "trigger_24h"
	Source48h     = "trigger_48h"
	SourceExpiry  = "trigger_expiry"
	SourceExpired = "trigger_expired"
)

// Thresholds externalizes every trigger window so the evaluator and
// the configuration surface share one source of truth.
type Thresholds struct {
	FirstReminderAfter  time.Duration // transfer age before the first reminder
	SecondReminderAfter time.Duration // transfer age before the urgent reminder
	SecondReminderUntil time.Duration // urgent reminder window upper bound
	FinalNoticeWindow   time.Duration // time-to-expiry for the final notice
	ReminderBatch       int           // per-rule transfer selection limit
	ReclaimBatch        int
}

// DefaultThresholds returns the production windows: first reminder in
// (24h, 48h) of age, urgent in (48h, 70h), final notice inside the
// last 2h before expiry, batches of 20 reminders and 10 reclaims.
func DefaultThresholds() Thresholds {
	return Thresholds{
		FirstReminderAfter:  24 * time.Hour,
		SecondReminderAfter: 48 * time.Hour,
		SecondReminderUntil: 70 * time.Hour,
		FinalNoticeWindow:   2 * time.Hour,
		ReminderBatch:       20,
		ReclaimBatch:        10,
	}
}

// FirstWindow returns the creation-time bounds for the first-reminder
// rule: created before now-24h but after now-48h.
func (t Thresholds) FirstWindow(now time.Time) (createdBefore, createdAfter time.Time) {
	return now.Add(-t.FirstReminderAfter), now.Add(-t.SecondReminderAfter)
}

// SecondWindow returns the creation-time bounds for the urgent-reminder
// rule: created before now-48h but after now-70h.
func (t Thresholds) SecondWindow(now time.Time) (createdBefore, createdAfter time.Time) {
	return now.Add(-t.SecondReminderAfter), now.Add(-t.SecondReminderUntil)
}

// Candidate is a proposed mission, pre-validated by the cap gate
// before it reaches mission creation.
type Candidate struct {
	Type        string
	TransferID  string
	InputData   string // JSON payload
	AutoApprove bool
	Source      string
}

// ReminderCandidate builds a send_reminder candidate for a transfer.
func ReminderCandidate(transferID, kind, source string) Candidate {
	return Candidate{
		Type:        "send_reminder",
		TransferID:  transferID,
		InputData:   `{"reminder_type":"` + kind + `"}`,
		AutoApprove: true,
		Source:      source,
	}
}

// ReclaimCandidate builds an auto_reclaim candidate for a transfer.
func ReclaimCandidate(transferID string) Candidate {
	return Candidate{
		Type:        "auto_reclaim",
		TransferID:  transferID,
		InputData:   "{}",
		AutoApprove: true,
		Source:      SourceExpired,
	}
}
