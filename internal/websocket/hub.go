package websocket

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrClientClosed is returned when sending to a closed client
var ErrClientClosed = errors.New("client is closed")

// ClientInterface is what the Hub needs from a connection
type ClientInterface interface {
	ID() string
	UserID() string
	Send(data []byte) error
	Close() error
}

// EntityFilter is implemented by clients that only want some entities pushed
type EntityFilter interface {
	Wants(entity EntityType) bool
}

// Hub routes events to the connections of one user at a time. It is safe for concurrent use.
type Hub struct {
	mu    sync.RWMutex
	users map[string]map[string]ClientInterface // user ID -> client ID -> client
}

func NewHub() *Hub {
	return &Hub{users: make(map[string]map[string]ClientInterface)}
}

func (h *Hub) Register(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.users[client.UserID()]
	if !ok {
		clients = make(map[string]ClientInterface)
		h.users[client.UserID()] = clients
	}
	clients[client.ID()] = client

	log.Debug().Str("user_id", client.UserID()).Str("client_id", client.ID()).Msg("WebSocket client registered")
}

// Unregister removes client. Unknown clients are ignored.
func (h *Hub) Unregister(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.users[client.UserID()]
	if _, ok := clients[client.ID()]; !ok {
		return
	}
	delete(clients, client.ID())
	if len(clients) == 0 {
		delete(h.users, client.UserID())
	}

	log.Debug().Str("user_id", client.UserID()).Str("client_id", client.ID()).Msg("WebSocket client unregistered")
}

// recipients snapshots the user's clients that want entity
func (h *Hub) recipients(userID string, entity EntityType) []ClientInterface {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]ClientInterface, 0, len(h.users[userID]))
	for _, c := range h.users[userID] {
		if f, ok := c.(EntityFilter); ok && !f.Wants(entity) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Broadcast sends event to every connection of userID that wants its entity.
// Client.Send never blocks, so delivery happens inline.
func (h *Hub) Broadcast(userID string, event Event) {
	targets := h.recipients(userID, event.Entity)
	if len(targets) == 0 {
		return
	}

	data, err := event.ToJSON()
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("event_type", event.Type).Msg("Failed to serialize event")
		return
	}

	delivered := 0
	for _, c := range targets {
		if err := c.Send(data); err != nil {
			log.Warn().Err(err).Str("user_id", userID).Str("client_id", c.ID()).Msg("Failed to send to client")
			continue
		}
		delivered++
	}

	log.Debug().
		Str("user_id", userID).
		Str("event_type", event.Type).
		Int("delivered", delivered).
		Msg("Broadcast event")
}

// CloseAll disconnects every client, used on server shutdown
func (h *Hub) CloseAll() {
	h.mu.Lock()
	users := h.users
	h.users = make(map[string]map[string]ClientInterface)
	h.mu.Unlock()

	for _, clients := range users {
		for _, c := range clients {
			_ = c.Close()
		}
	}
}

func (h *Hub) ClientCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

func (h *Hub) TotalClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, clients := range h.users {
		total += len(clients)
	}
	return total
}
