package websocket

import (
	"context"
	"testing"

	"github.com/dafibh/budget-tracker/budget-backend/internal/events"
	"github.com/stretchr/testify/assert"
)

func TestHub_Publish(t *testing.T) {
	hub := NewHub()
	client := newFakeClient("client-1", "U1")
	hub.Register(client)

	var publisher EventPublisher = hub
	publisher.Publish("U1", SettingsUpdated(map[string]string{"currency": "EUR"}))

	assert.Equal(t, []string{"settings.updated"}, client.eventTypes(t))
}

func TestHub_HandleInvalidation(t *testing.T) {
	hub := NewHub()
	client := newFakeClient("client-1", "U1")
	other := newFakeClient("client-2", "U2")
	hub.Register(client)
	hub.Register(other)

	bus := events.NewBus()
	bus.Subscribe("websocket", hub)
	bus.Invalidate(context.Background(), "U1", "overview")

	assert.Equal(t, []string{"overview.invalidated"}, client.eventTypes(t))
	assert.Empty(t, other.eventTypes(t))
}

func TestNoOpPublisher_Publish(t *testing.T) {
	publisher := &NoOpPublisher{}

	assert.NotPanics(t, func() {
		publisher.Publish("U1", OverviewInvalidated())
	})
}
