package websocket

import (
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ErrSlowClient is returned when a client's send queue is full. The client is closed.
var ErrSlowClient = errors.New("client send queue is full")

// ClientConfig holds connection timing for a Client
type ClientConfig struct {
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration // must be shorter than PongWait
	MaxMessageSize int64
	QueueSize      int
}

// DefaultClientConfig is used by NewClient
var DefaultClientConfig = ClientConfig{
	WriteWait:      10 * time.Second,
	PongWait:       60 * time.Second,
	PingPeriod:     54 * time.Second,
	MaxMessageSize: 512,
	QueueSize:      64,
}

// SubscribeMessage is the only message a client may send. It narrows the entities
// pushed to that connection; an empty list restores everything.
type SubscribeMessage struct {
	Action   string       `json:"action"`
	Entities []EntityType `json:"entities"`
}

const actionSubscribe = "subscribe"

// Client is one user's push-only websocket connection
type Client struct {
	id     string
	userID string
	conn   *websocket.Conn
	hub    *Hub
	cfg    ClientConfig

	queue     chan []byte
	mu        sync.RWMutex
	closed    bool
	entities  map[EntityType]bool
	closeOnce sync.Once
}

// NewClient creates a Client with DefaultClientConfig
func NewClient(conn *websocket.Conn, userID string, hub *Hub) *Client {
	return NewClientWithConfig(conn, userID, hub, DefaultClientConfig)
}

// NewClientWithConfig creates a Client with custom timing
func NewClientWithConfig(conn *websocket.Conn, userID string, hub *Hub, cfg ClientConfig) *Client {
	return &Client{
		id:     uuid.New().String(),
		userID: userID,
		conn:   conn,
		hub:    hub,
		cfg:    cfg,
		queue:  make(chan []byte, cfg.QueueSize),
	}
}

func (c *Client) ID() string {
	return c.id
}

func (c *Client) UserID() string {
	return c.userID
}

// Wants reports whether events about entity should be pushed to this client
func (c *Client) Wants(entity EntityType) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entities) == 0 || c.entities[entity]
}

func (c *Client) subscribe(entities []EntityType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(entities) == 0 {
		c.entities = nil
		return
	}
	c.entities = make(map[EntityType]bool, len(entities))
	for _, e := range entities {
		c.entities[e] = true
	}
}

// Send queues data for the writer. A client that cannot keep up is dropped.
func (c *Client) Send(data []byte) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return ErrClientClosed
	}
	select {
	case c.queue <- data:
		c.mu.RUnlock()
		return nil
	default:
		c.mu.RUnlock()
	}

	c.hub.Unregister(c)
	c.Close()
	return ErrSlowClient
}

// Close shuts the connection down. It is idempotent.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.queue)
		c.mu.Unlock()
		err = c.conn.Close()
	})
	return err
}

func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Serve registers the client and runs its reader and writer until the connection ends
func (c *Client) Serve() {
	c.hub.Register(c)
	go c.writeLoop()
	c.readLoop()
}

func (c *Client) readLoop() {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		var msg SubscribeMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF) {
				log.Debug().Err(err).Str("client_id", c.id).Msg("Ignoring malformed websocket message")
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("client_id", c.id).Str("user_id", c.userID).Msg("WebSocket unexpected close")
			}
			return
		}
		if msg.Action == actionSubscribe {
			c.subscribe(msg.Entities)
		}
	}
}

func (c *Client) writeLoop() {
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case data, ok := <-c.queue:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("client_id", c.id).Str("user_id", c.userID).Msg("WebSocket write error")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
