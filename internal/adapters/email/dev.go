package email

import (
	"context"
	"log"

	"github.com/example/solrelay/internal/ports/secondary"
)

// DevSender logs messages instead of delivering them. Used when no
// provider is configured so the pipeline still drains in development.
type DevSender struct{}

// NewDevSender creates a log-only sender.
func NewDevSender() *DevSender {
	return &DevSender{}
}

// Send logs the message and reports the synthetic provider id
// "dev-mode".
func (s *DevSender) Send(_ context.Context, msg secondary.EmailMessage) (string, error) {
	log.Printf("[dev-mode] email to=%s subject=%q", msg.To, msg.Subject)
	return "dev-mode", nil
}

// Ensure DevSender implements the interface
var _ secondary.EmailSender = (*DevSender)(nil)
