package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/example/solrelay/internal/core/notify"
	"github.com/example/solrelay/internal/models"
	"github.com/example/solrelay/internal/ports/secondary"
)

// DispatchService drains the email queue through the configured
// sender. Each email is moved to sending with a conditional update
// before delivery, so a second dispatcher racing on the same queue
// cannot double-send.
type DispatchService struct {
	emailRepo secondary.EmailQueueRepository
	eventRepo secondary.EventRepository
	sender    secondary.EmailSender
	fromEmail string
	batch     int
}

// NewDispatchService creates a new DispatchService with injected dependencies.
func NewDispatchService(
	emailRepo secondary.EmailQueueRepository,
	eventRepo secondary.EventRepository,
	sender secondary.EmailSender,
	fromEmail string,
	batch int,
) *DispatchService {
	return &DispatchService{
		emailRepo: emailRepo,
		eventRepo: eventRepo,
		sender:    sender,
		fromEmail: fromEmail,
		batch:     batch,
	}
}

// Drain sends due pending emails, up to the batch size. Delivery
// failures are terminal: the email is marked failed and never retried
// automatically. Returns the sent and failed counts.
func (s *DispatchService) Drain(ctx context.Context, now time.Time) (sent, failed int, err error) {
	pending, err := s.emailRepo.GetPending(ctx, now, models.MaxEmailAttempts, s.batch)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get pending emails: %w", err)
	}

	for _, email := range pending {
		ok, err := s.emailRepo.MarkSending(ctx, email.ID)
		if err != nil {
			return sent, failed, fmt.Errorf("failed to mark email sending: %w", err)
		}
		if !ok {
			// Someone else took it.
			continue
		}

		providerID, sendErr := s.sender.Send(ctx, secondary.EmailMessage{
			From:     s.fromEmail,
			To:       email.ToEmail,
			Subject:  email.Subject,
			HTMLBody: email.HTMLBody,
		})
		if sendErr != nil {
			log.Printf("email %s delivery failed: %v", email.ID, sendErr)
			if err := s.emailRepo.MarkFailed(ctx, email.ID, sendErr.Error()); err != nil {
				return sent, failed, fmt.Errorf("failed to mark email failed: %w", err)
			}
			failed++
			continue
		}

		if err := s.emailRepo.MarkSent(ctx, email.ID, providerID, now); err != nil {
			return sent, failed, fmt.Errorf("failed to mark email sent: %w", err)
		}

		err = s.eventRepo.Emit(ctx, &secondary.EventRecord{
			EventType:  models.EventEmailSent,
			Source:     "dispatcher",
			Data:       fmt.Sprintf(`{"email":"%s","provider_id":"%s"}`, notify.MaskEmail(email.ToEmail), providerID),
			TransferID: email.TransferID,
			MissionID:  email.MissionID,
			CreatedAt:  now,
		})
		if err != nil {
			return sent, failed, fmt.Errorf("failed to emit event: %w", err)
		}
		sent++
	}

	return sent, failed, nil
}
