package noop

import (
	"context"
	"log"

	"github.com/Onebillie/onebillconvo-sub004/internal/port"
)

type noopSender struct{}

// NewNoopSender creates an EmailSender that only logs. Used in development
// and when no email provider is configured.
func NewNoopSender() port.EmailSender {
	return &noopSender{}
}

func (s *noopSender) SendNotification(_ context.Context, toEmail, subject, _ string) error {
	log.Printf("email.NoopSender: would send %q to %s", subject, toEmail)
	return nil
}
