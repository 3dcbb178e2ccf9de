package application

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/aifinder/aifinder-api/pkg/mailer"
)

var ErrComplaintTooLong = errors.New("complaint message too long")

const maxComplaintLen = 5000

// ComplaintService forwards user complaints to the support mailbox through
// the email queue.
type ComplaintService struct {
	Mail      EmailPublisher
	Recipient string
	Logger    *logrus.Logger
}

func NewComplaintService(mail EmailPublisher, recipient string, logger *logrus.Logger) *ComplaintService {
	return &ComplaintService{Mail: mail, Recipient: recipient, Logger: logger}
}

func (s *ComplaintService) Submit(ctx context.Context, email, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return errors.New("complaint message is empty")
	}
	if len(message) > maxComplaintLen {
		return ErrComplaintTooLong
	}
	if s.Mail == nil || s.Recipient == "" {
		return errors.New("complaint mailbox not configured")
	}

	job := mailer.EmailJob{
		To:       s.Recipient,
		Template: mailer.TemplateComplaint,
		Data: map[string]any{
			"Email":   email,
			"Message": message,
		},
	}
	if err := s.Mail.PublishJSON(ctx, job); err != nil {
		s.Logger.WithError(err).Error("queue complaint email failed")
		return err
	}
	s.Logger.WithField("from", email).Info("complaint queued")
	return nil
}
