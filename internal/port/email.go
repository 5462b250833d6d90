package port

import "context"

// EmailSender delivers operator notifications.
type EmailSender interface {
	SendNotification(ctx context.Context, toEmail, subject, textBody string) error
}
