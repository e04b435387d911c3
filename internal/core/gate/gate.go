// Package gate contains the pure admission-control logic for mission
// creation. The service layer gathers counters from the store; this
// package only decides.
package gate

import "fmt"

// Mission type names the gate knows about. Anything else passes by
// default, a deliberate forward-compatibility choice inherited from
// the production policy.
const (
	TypeSendReminder     = "send_reminder"
	TypeAutoReclaim      = "auto_reclaim"
	TypeInvestigateAbuse = "investigate_abuse"
)

// Limits holds the configured caps.
type Limits struct {
	MaxRemindersPerDay   int
	MaxRemindersPerHour  int
	MaxReclaimsPerMinute int
	MaxRemindersPerXfer  int
	ReclaimEnabled       bool
}

// Counters is a point-in-time snapshot of the rate counters read from
// the store.
type Counters struct {
	RemindersSucceededToday int
	EmailsSentLastHour      int
	ActiveReclaims          int
}

// Context carries the per-candidate facts the gate consults.
type Context struct {
	HasTransfer           bool
	TransferRemindersSent int
	RecipientBlocked      bool
}

// Decision is the structured allow/deny outcome. Denials are not
// errors; the candidate mission is simply never created.
type Decision struct {
	OK            bool
	Reason        string
	NeedsApproval bool
}

func deny(format string, args ...any) Decision {
	return Decision{OK: false, Reason: fmt.Sprintf(format, args...)}
}

// Check evaluates the cap gates for one candidate mission.
func Check(missionType string, limits Limits, counters Counters, ctx Context) Decision {
	switch missionType {
	case TypeSendReminder:
		return checkSendReminder(limits, counters, ctx)
	case TypeAutoReclaim:
		return checkAutoReclaim(limits, counters)
	case TypeInvestigateAbuse:
		// Abuse investigations always need human approval.
		return Decision{OK: true, NeedsApproval: true}
	default:
		// Unknown types pass by default.
		return Decision{OK: true}
	}
}

func checkSendReminder(limits Limits, counters Counters, ctx Context) Decision {
	if counters.RemindersSucceededToday >= limits.MaxRemindersPerDay {
		return deny("daily reminder limit reached (%d)", limits.MaxRemindersPerDay)
	}
	if counters.EmailsSentLastHour >= limits.MaxRemindersPerHour {
		return deny("hourly email limit reached (%d)", limits.MaxRemindersPerHour)
	}
	if ctx.HasTransfer && ctx.TransferRemindersSent >= limits.MaxRemindersPerXfer {
		return deny("max reminders per transfer reached (%d)", limits.MaxRemindersPerXfer)
	}
	if ctx.RecipientBlocked {
		return deny("recipient email is blocked")
	}
	return Decision{OK: true}
}

func checkAutoReclaim(limits Limits, counters Counters) Decision {
	if !limits.ReclaimEnabled {
		return deny("auto-reclaim is disabled")
	}
	if counters.ActiveReclaims >= limits.MaxReclaimsPerMinute {
		return deny("rate limit: %d reclaims/minute", limits.MaxReclaimsPerMinute)
	}
	return Decision{OK: true}
}
