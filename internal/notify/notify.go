// Package notify turns domain events into patient emails.
package notify

import (
	"context"
	"fmt"

	"github.com/diagnosis/clinic-bookings/internal/mailer"
	"github.com/diagnosis/clinic-bookings/pkg/events"
	"github.com/diagnosis/clinic-bookings/pkg/logger"
)

// QueueGroup load-balances deliveries across notify replicas.
const QueueGroup = "notify"

var subjects = []string{
	events.UserRegistered,
	events.AppointmentCreated,
	events.AppointmentStatusChanged,
	events.AppointmentDeleted,
}

type Consumer struct {
	sub  events.Subscriber
	mail mailer.Service
}

func NewConsumer(sub events.Subscriber, mail mailer.Service) *Consumer {
	return &Consumer{sub: sub, mail: mail}
}

// Start subscribes to every clinic subject. ctx bounds each delivery.
func (c *Consumer) Start(ctx context.Context) error {
	for _, subject := range subjects {
		err := c.sub.QueueSubscribe(subject, QueueGroup, func(msg *events.Message) {
			if err := c.Handle(ctx, msg); err != nil {
				logger.ErrorContext(ctx, "Failed to handle event",
					"subject", msg.Subject, "event_id", msg.ID, "error", err)
			}
		})
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
		}
		logger.Info("Subscribed", "subject", subject, "queue", QueueGroup)
	}
	return nil
}

// Handle decodes one event and sends the matching email, if any.
func (c *Consumer) Handle(ctx context.Context, msg *events.Message) error {
	switch msg.Subject {
	case events.UserRegistered:
		var e events.UserRegisteredEvent
		if err := msg.Decode(&e); err != nil {
			return fmt.Errorf("decode %s: %w", msg.Subject, err)
		}
		return c.mail.Send(ctx, welcomeMessage(e))

	case events.AppointmentCreated:
		var e events.AppointmentCreatedEvent
		if err := msg.Decode(&e); err != nil {
			return fmt.Errorf("decode %s: %w", msg.Subject, err)
		}
		return c.mail.Send(ctx, receivedMessage(e))

	case events.AppointmentStatusChanged:
		var e events.AppointmentStatusChangedEvent
		if err := msg.Decode(&e); err != nil {
			return fmt.Errorf("decode %s: %w", msg.Subject, err)
		}
		m, ok := statusMessage(e)
		if !ok {
			logger.DebugContext(ctx, "No mail for status change", "appointment_id", e.AppointmentID, "to", e.To)
			return nil
		}
		return c.mail.Send(ctx, m)

	case events.AppointmentDeleted:
		var e events.AppointmentDeletedEvent
		if err := msg.Decode(&e); err != nil {
			return fmt.Errorf("decode %s: %w", msg.Subject, err)
		}
		logger.InfoContext(ctx, "Appointment deleted", "appointment_id", e.AppointmentID, "user_id", e.UserID)
		return nil

	default:
		logger.WarnContext(ctx, "Unhandled subject", "subject", msg.Subject)
		return nil
	}
}
