package trigger

import (
	"testing"
	"time"
)

func TestDefaultThresholds(t *testing.T) {
	th := DefaultThresholds()
	if th.FirstReminderAfter != 24*time.Hour {
		t.Errorf("expected 24h first reminder threshold, got %v", th.FirstReminderAfter)
	}
	if th.SecondReminderUntil != 70*time.Hour {
		t.Errorf("expected 70h urgent window bound, got %v", th.SecondReminderUntil)
	}
	if th.ReminderBatch != 20 || th.ReclaimBatch != 10 {
		t.Errorf("unexpected batch sizes: %d/%d", th.ReminderBatch, th.ReclaimBatch)
	}
}

func TestFirstWindow(t *testing.T) {
	now := time.Date(2025, 6, 3, 12, 0, 0, 0, time.UTC)
	before, after := DefaultThresholds().FirstWindow(now)

	if want := now.Add(-24 * time.Hour); !before.Equal(want) {
		t.Errorf("createdBefore = %v, want %v", before, want)
	}
	if want := now.Add(-48 * time.Hour); !after.Equal(want) {
		t.Errorf("createdAfter = %v, want %v", after, want)
	}
}

func TestSecondWindow(t *testing.T) {
	now := time.Date(2025, 6, 3, 12, 0, 0, 0, time.UTC)
	before, after := DefaultThresholds().SecondWindow(now)

	if want := now.Add(-48 * time.Hour); !before.Equal(want) {
		t.Errorf("createdBefore = %v, want %v", before, want)
	}
	if want := now.Add(-70 * time.Hour); !after.Equal(want) {
		t.Errorf("createdAfter = %v, want %v", after, want)
	}
}

func TestReminderCandidate(t *testing.T) {
	c := ReminderCandidate("TRF-001", ReminderUrgent, Source48h)
	if c.Type != "send_reminder" {
		t.Errorf("unexpected type %s", c.Type)
	}
	if c.InputData != `{"reminder_type":"urgent"}` {
		t.Errorf("unexpected input data %s", c.InputData)
	}
	if !c.AutoApprove {
		t.Error("reminder candidates are auto-approved")
	}
}

func TestReclaimCandidate(t *testing.T) {
	c := ReclaimCandidate("TRF-002")
	if c.Type != "auto_reclaim" || c.Source != SourceExpired {
		t.Errorf("unexpected candidate %+v", c)
	}
	if c.InputData != "{}" {
		t.Errorf("unexpected input data %s", c.InputData)
	}
}
