package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/diagnosis/clinic-bookings/pkg/config"
)

// Message is a rendered email with plain text and HTML bodies.
type Message struct {
	ToEmail string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

type Service interface {
	Send(ctx context.Context, msg Message) error
}

// New picks the provider named in cfg.Provider. Unknown providers fall back to the dev mailer.
func New(cfg config.EmailConfig) (Service, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "mailersend":
		m := NewMailerSend(cfg.MailerSendKey, cfg.FromName, cfg.FromEmail)
		if !m.enabled {
			return nil, fmt.Errorf("mailersend requires an API key and a from address")
		}
		return m, nil
	case "smtp":
		if cfg.SMTPHost == "" {
			return nil, fmt.Errorf("smtp requires a host")
		}
		return NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.FromEmail, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPUseTLS), nil
	default:
		return NewDevMailer(), nil
	}
}
