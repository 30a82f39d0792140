package websocket

import (
	"context"

	"github.com/dafibh/budget-tracker/budget-backend/internal/events"
)

// EventPublisher defines the interface for publishing events to WebSocket clients
type EventPublisher interface {
	// Publish sends an event to all clients connected for the specified user
	Publish(userID string, event Event)
}

// Ensure Hub implements EventPublisher and events.Subscriber
var (
	_ EventPublisher    = (*Hub)(nil)
	_ events.Subscriber = (*Hub)(nil)
)

// Publish implements EventPublisher by broadcasting the event to the user
func (h *Hub) Publish(userID string, event Event) {
	h.Broadcast(userID, event)
}

// HandleInvalidation pushes "<key>.invalidated" to the user's open clients
func (h *Hub) HandleInvalidation(ctx context.Context, inv events.Invalidation) error {
	evt := NewEvent(EventTypeInvalidated, EntityType(inv.Key), nil)
	evt.Timestamp = inv.Timestamp
	h.Broadcast(inv.UserID, evt)
	return nil
}

// NoOpPublisher is a publisher that does nothing (for testing or when WebSocket is disabled)
type NoOpPublisher struct{}

// Publish does nothing
func (n *NoOpPublisher) Publish(userID string, event Event) {}
