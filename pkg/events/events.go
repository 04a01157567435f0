package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/diagnosis/clinic-bookings/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
	ID        string
}

// Decode unmarshals the message payload into v.
func (m *Message) Decode(v interface{}) error {
	return json.Unmarshal(m.Data, v)
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url,
		nats.Name("clinic-bookings"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	msg := nats.NewMsg(subject)
	msg.Data = payload
	msg.Header.Set(nats.MsgIdHdr, uuid.NewString())
	return n.conn.PublishMsg(msg)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(toMessage(msg))
	})
	return err
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(toMessage(msg))
	})
	return err
}

// Drain lets in-flight handlers finish before the connection closes.
func (n *NATSEventBus) Drain() error {
	return n.conn.Drain()
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

func toMessage(msg *nats.Msg) *Message {
	id := ""
	if msg.Header != nil {
		id = msg.Header.Get(nats.MsgIdHdr)
	}
	if id == "" {
		id = fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return &Message{
		Subject:   msg.Subject,
		Data:      msg.Data,
		Timestamp: time.Now(),
		ID:        id,
	}
}

// NoopBus is used when events are disabled. Publish only logs.
type NoopBus struct{}

func (NoopBus) Publish(ctx context.Context, subject string, _ interface{}) error {
	logger.DebugContext(ctx, "event bus disabled, dropping event", "subject", subject)
	return nil
}

func (NoopBus) Subscribe(string, func(*Message)) error { return nil }

func (NoopBus) QueueSubscribe(string, string, func(*Message)) error { return nil }

func (NoopBus) Close() error { return nil }

// Event types and subjects
const (
	UserRegistered = "user.registered"

	AppointmentCreated       = "appointment.created"
	AppointmentStatusChanged = "appointment.status_changed"
	AppointmentDeleted       = "appointment.deleted"
)

// Event payloads
type UserRegisteredEvent struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         string    `json:"role"`
	RegisteredAt time.Time `json:"registered_at"`
}

type AppointmentCreatedEvent struct {
	AppointmentID string    `json:"appointment_id"`
	UserID        string    `json:"user_id"`
	PatientName   string    `json:"patient_name"`
	PatientEmail  string    `json:"patient_email"`
	Service       string    `json:"service"`
	DoctorName    string    `json:"doctor_name"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	CreatedAt     time.Time `json:"created_at"`
}

type AppointmentStatusChangedEvent struct {
	AppointmentID string    `json:"appointment_id"`
	PatientName   string    `json:"patient_name"`
	PatientEmail  string    `json:"patient_email"`
	DoctorName    string    `json:"doctor_name"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	From          string    `json:"from"`
	To            string    `json:"to"`
	ChangedAt     time.Time `json:"changed_at"`
}

type AppointmentDeletedEvent struct {
	AppointmentID string    `json:"appointment_id"`
	UserID        string    `json:"user_id"`
	DeletedAt     time.Time `json:"deleted_at"`
}
