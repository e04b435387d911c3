package gate

import "testing"

func testLimits() Limits {
	return Limits{
		MaxRemindersPerDay:   100,
		MaxRemindersPerHour:  30,
		MaxReclaimsPerMinute: 5,
		MaxRemindersPerXfer:  3,
		ReclaimEnabled:       true,
	}
}

func TestCheck_SendReminder_Allowed(t *testing.T) {
	d := Check(TypeSendReminder, testLimits(), Counters{}, Context{HasTransfer: true})
	if !d.OK {
		t.Fatalf("expected allow, got denial: %s", d.Reason)
	}
	if d.NeedsApproval {
		t.Error("send_reminder should not need approval")
	}
}

func TestCheck_SendReminder_DailyCap(t *testing.T) {
	counters := Counters{RemindersSucceededToday: 100}
	d := Check(TypeSendReminder, testLimits(), counters, Context{})
	if d.OK {
		t.Fatal("expected denial at daily cap")
	}
	if d.Reason != "daily reminder limit reached (100)" {
		t.Errorf("unexpected reason: %s", d.Reason)
	}
}

func TestCheck_SendReminder_HourlyCap(t *testing.T) {
	counters := Counters{EmailsSentLastHour: 30}
	d := Check(TypeSendReminder, testLimits(), counters, Context{})
	if d.OK {
		t.Fatal("expected denial at hourly cap")
	}
}

func TestCheck_SendReminder_PerTransferCap(t *testing.T) {
	ctx := Context{HasTransfer: true, TransferRemindersSent: 3}
	d := Check(TypeSendReminder, testLimits(), Counters{}, ctx)
	if d.OK {
		t.Fatal("expected denial at per-transfer cap")
	}
}

func TestCheck_SendReminder_BlockedRecipient(t *testing.T) {
	ctx := Context{HasTransfer: true, RecipientBlocked: true}
	d := Check(TypeSendReminder, testLimits(), Counters{}, ctx)
	if d.OK {
		t.Fatal("expected denial for blocked recipient")
	}
	if d.Reason != "recipient email is blocked" {
		t.Errorf("unexpected reason: %s", d.Reason)
	}
}

func TestCheck_AutoReclaim_Disabled(t *testing.T) {
	limits := testLimits()
	limits.ReclaimEnabled = false
	d := Check(TypeAutoReclaim, limits, Counters{}, Context{})
	if d.OK {
		t.Fatal("expected denial when reclaim disabled")
	}
	if d.Reason != "auto-reclaim is disabled" {
		t.Errorf("unexpected reason: %s", d.Reason)
	}
}

func TestCheck_AutoReclaim_RateLimit(t *testing.T) {
	d := Check(TypeAutoReclaim, testLimits(), Counters{ActiveReclaims: 5}, Context{})
	if d.OK {
		t.Fatal("expected denial at reclaim rate limit")
	}
}

func TestCheck_InvestigateAbuse_NeedsApproval(t *testing.T) {
	d := Check(TypeInvestigateAbuse, testLimits(), Counters{}, Context{})
	if !d.OK {
		t.Fatal("investigate_abuse should always be allowed")
	}
	if !d.NeedsApproval {
		t.Error("investigate_abuse should need approval")
	}
}

func TestCheck_UnknownType_FailOpen(t *testing.T) {
	d := Check("rotate_keys", testLimits(), Counters{}, Context{})
	if !d.OK {
		t.Fatal("unknown mission types should pass by default")
	}
}
