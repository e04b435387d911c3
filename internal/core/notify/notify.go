// Package notify contains reminder email content selection and the
// recipient masking rule used in audit events.
package notify

import (
	"fmt"
	"strings"
	"time"
)

// Reminder carries the rendered email content for one reminder kind.
type Reminder struct {
	Subject string
	HTML    string
}

type template struct {
	subject string
	heading string
	message string
}

var templates = map[string]template{
	"first": {
		subject: "Reminder: You have %s %s waiting!",
		heading: "Don't forget your crypto!",
		message: "Someone sent you crypto, but you haven't claimed it yet. Visit the link below to claim it to your wallet.",
	},
	"urgent": {
		subject: "Urgent: %s %s expires soon!",
		heading: "Time is running out!",
		message: "Your crypto transfer will expire soon. Don't miss out!",
	},
	"final": {
		subject: "FINAL NOTICE: %s %s expires in 2 hours!",
		heading: "Last chance!",
		message: "This is your final reminder. Your transfer expires in just 2 hours. After that, the funds will be returned to the sender.",
	},
}

// RenderReminder builds the email content for a reminder kind.
// Unknown kinds fall back to the first-reminder template.
func RenderReminder(kind string, amount float64, token, claimBaseURL string, expiresAt, now time.Time) Reminder {
	t, ok := templates[kind]
	if !ok {
		t = templates["first"]
	}

	amountStr := strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", amount), "0"), ".")
	hoursLeft := int(expiresAt.Sub(now).Round(time.Hour).Hours())
	if hoursLeft < 0 {
		hoursLeft = 0
	}

	html := fmt.Sprintf(
		`<html><body><h1>%s</h1><p><strong>%s %s</strong></p><p>%s</p><p><a href="%s">Claim your transfer</a></p><p>Expires in approximately %d hours.</p><p>If you've already claimed this or don't want to receive reminders, you can safely ignore this email.</p></body></html>`,
		t.heading, amountStr, token, t.message, claimBaseURL, hoursLeft,
	)

	return Reminder{
		Subject: fmt.Sprintf(t.subject, amountStr, token),
		HTML:    html,
	}
}

// MaskEmail masks a recipient for audit events: "alice@example.com"
// becomes "al***@example.com". Addresses with fewer than two
// characters before the @ are returned unchanged, matching the
// production masking rule exactly.
func MaskEmail(email string) string {
	at := strings.Index(email, "@")
	if at < 2 {
		return email
	}
	return email[:2] + "***" + email[at:]
}
