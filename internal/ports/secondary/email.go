package secondary

import "context"

// EmailSender defines the secondary port for outbound mail delivery.
type EmailSender interface {
	// Send delivers one message and returns the provider's message id.
	Send(ctx context.Context, msg EmailMessage) (string, error)
}

// EmailMessage is a single outbound email.
type EmailMessage struct {
	From     string
	To       string
	Subject  string
	HTMLBody string
}
