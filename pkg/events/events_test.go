package events

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageDecode(t *testing.T) {
	msg := &Message{Subject: AppointmentStatusChanged, Data: []byte(`{"appointment_id":"a1","from":"pending","to":"confirmed"}`)}

	var e AppointmentStatusChangedEvent
	require.NoError(t, msg.Decode(&e))
	assert.Equal(t, "a1", e.AppointmentID)
	assert.Equal(t, "confirmed", e.To)

	assert.Error(t, (&Message{Data: []byte("{")}).Decode(&e))
}

func TestNoopBus(t *testing.T) {
	var bus EventBus = NoopBus{}
	assert.NoError(t, bus.Publish(context.Background(), UserRegistered, UserRegisteredEvent{Email: "a@b.c"}))
	assert.NoError(t, bus.QueueSubscribe(UserRegistered, "q", func(*Message) {}))
	assert.NoError(t, bus.Close())
}

func TestNATSRoundTrip(t *testing.T) {
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("NATS_URL not set")
	}

	bus, err := NewNATSEventBus(url)
	require.NoError(t, err)
	defer bus.Close()

	got := make(chan *Message, 1)
	require.NoError(t, bus.QueueSubscribe(AppointmentCreated, "events-test", func(m *Message) { got <- m }))

	require.NoError(t, bus.Publish(context.Background(), AppointmentCreated, AppointmentCreatedEvent{AppointmentID: "a1"}))

	select {
	case m := <-got:
		var e AppointmentCreatedEvent
		require.NoError(t, m.Decode(&e))
		assert.Equal(t, "a1", e.AppointmentID)
		assert.NotEmpty(t, m.ID)
	case <-time.After(3 * time.Second):
		t.Fatal("no message received")
	}
}
