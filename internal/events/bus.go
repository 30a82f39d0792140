// Package events carries cache-invalidation signals from writers to whatever maintains derived data.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Invalidation tells subscribers that cached data under Key is stale for UserID
type Invalidation struct {
	UserID    string    `json:"userId"`
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
}

// Subscriber consumes invalidation signals
type Subscriber interface {
	HandleInvalidation(ctx context.Context, inv Invalidation) error
}

// SubscriberFunc adapts a function to Subscriber
type SubscriberFunc func(ctx context.Context, inv Invalidation) error

// HandleInvalidation implements Subscriber
func (f SubscriberFunc) HandleInvalidation(ctx context.Context, inv Invalidation) error {
	return f(ctx, inv)
}

// Invalidator emits invalidation signals
type Invalidator interface {
	Invalidate(ctx context.Context, userID string, key string)
}

// Bus fans invalidation signals out to subscribers synchronously, in registration order.
// A failing subscriber is logged and does not stop delivery to the others.
type Bus struct {
	mu          sync.RWMutex
	subscribers []namedSubscriber
}

type namedSubscriber struct {
	name string
	sub  Subscriber
}

// NewBus creates an empty Bus
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers sub under name (used in logs)
func (b *Bus) Subscribe(name string, sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, namedSubscriber{name: name, sub: sub})
}

// Invalidate implements Invalidator
func (b *Bus) Invalidate(ctx context.Context, userID string, key string) {
	inv := Invalidation{
		UserID:    userID,
		Key:       key,
		Timestamp: time.Now().UTC(),
	}

	b.mu.RLock()
	subs := make([]namedSubscriber, len(b.subscribers))
	copy(subs, b.subscribers)
	b.mu.RUnlock()

	for _, s := range subs {
		if err := s.sub.HandleInvalidation(ctx, inv); err != nil {
			log.Warn().
				Err(err).
				Str("subscriber", s.name).
				Str("user_id", userID).
				Str("key", key).
				Msg("Invalidation subscriber failed")
		}
	}

	log.Debug().
		Str("user_id", userID).
		Str("key", key).
		Int("subscriber_count", len(subs)).
		Msg("Invalidated")
}

// NoOpInvalidator drops every signal (for tests or when nothing derives data)
type NoOpInvalidator struct{}

// Invalidate does nothing
func (NoOpInvalidator) Invalidate(ctx context.Context, userID string, key string) {}
