package mailer

import (
	"context"

	"github.com/diagnosis/clinic-bookings/pkg/logger"
)

// DevMailer logs messages instead of delivering them.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) Send(ctx context.Context, msg Message) error {
	logger.InfoContext(ctx, "📧 [DEV MAIL]",
		"to", msg.ToEmail,
		"name", msg.ToName,
		"subject", msg.Subject,
		"text", msg.Text,
	)
	return nil
}
