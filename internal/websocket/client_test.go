package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dialTestClient starts a server that wraps each upgraded connection in a Client and
// returns the dialer side plus the server side client
func dialTestClient(t *testing.T, hub *Hub, cfg ClientConfig, serve bool) (*websocket.Conn, *Client) {
	t.Helper()

	clients := make(chan *Client, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClientWithConfig(conn, "U1", hub, cfg)
		clients <- client
		if serve {
			go client.Serve()
		}
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	select {
	case c := <-clients:
		return conn, c
	case <-time.After(2 * time.Second):
		t.Fatal("server never upgraded the connection")
		return nil, nil
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var evt Event
	require.NoError(t, json.Unmarshal(data, &evt))
	return evt
}

func TestClient_ReceivesBroadcast(t *testing.T) {
	hub := NewHub()
	conn, _ := dialTestClient(t, hub, DefaultClientConfig, true)

	require.Eventually(t, func() bool { return hub.ClientCount("U1") == 1 }, time.Second, 10*time.Millisecond)

	hub.Broadcast("U1", OverviewInvalidated())

	evt := readEvent(t, conn)
	assert.Equal(t, "overview.invalidated", evt.Type)
	assert.Equal(t, EntityTypeOverview, evt.Entity)
}

func TestClient_SubscribeNarrowsEntities(t *testing.T) {
	hub := NewHub()
	conn, client := dialTestClient(t, hub, DefaultClientConfig, true)
	require.Eventually(t, func() bool { return hub.ClientCount("U1") == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(SubscribeMessage{Action: "subscribe", Entities: []EntityType{EntityTypeTransaction}}))
	require.Eventually(t, func() bool { return !client.Wants(EntityTypeOverview) }, time.Second, 10*time.Millisecond)

	hub.Broadcast("U1", OverviewInvalidated())
	hub.Broadcast("U1", TransactionCreated(map[string]string{"id": "t1"}))

	evt := readEvent(t, conn)
	assert.Equal(t, "transaction.created", evt.Type)

	// an empty subscription restores every entity
	require.NoError(t, conn.WriteJSON(SubscribeMessage{Action: "subscribe"}))
	require.Eventually(t, func() bool { return client.Wants(EntityTypeOverview) }, time.Second, 10*time.Millisecond)
}

func TestClient_MalformedMessageKeepsConnection(t *testing.T) {
	messages := map[string]string{
		"not json":   "not json",
		"empty":      "",
		"truncated":  `{"action":"subscribe","entities":[`,
		"wrong type": `{"action":42}`,
	}

	for name, msg := range messages {
		t.Run(name, func(t *testing.T) {
			hub := NewHub()
			conn, client := dialTestClient(t, hub, DefaultClientConfig, true)
			require.Eventually(t, func() bool { return hub.ClientCount("U1") == 1 }, time.Second, 10*time.Millisecond)

			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))
			require.NoError(t, conn.WriteJSON(SubscribeMessage{Action: "subscribe", Entities: []EntityType{EntityTypeOverview}}))
			require.Eventually(t, func() bool { return !client.Wants(EntityTypeTransaction) }, time.Second, 10*time.Millisecond)

			hub.Broadcast("U1", OverviewInvalidated())

			evt := readEvent(t, conn)
			assert.Equal(t, "overview.invalidated", evt.Type)
			assert.Equal(t, 1, hub.ClientCount("U1"))
		})
	}
}

func TestClient_SlowClientIsDropped(t *testing.T) {
	hub := NewHub()
	cfg := DefaultClientConfig
	cfg.QueueSize = 1
	_, client := dialTestClient(t, hub, cfg, false)
	hub.Register(client)

	require.NoError(t, client.Send([]byte(`{}`)))
	assert.ErrorIs(t, client.Send([]byte(`{}`)), ErrSlowClient)
	assert.True(t, client.IsClosed())
	assert.Equal(t, 0, hub.ClientCount("U1"))
	assert.ErrorIs(t, client.Send([]byte(`{}`)), ErrClientClosed)
}

func TestClient_CloseIsIdempotent(t *testing.T) {
	hub := NewHub()
	_, client := dialTestClient(t, hub, DefaultClientConfig, false)

	assert.NoError(t, client.Close())
	assert.NoError(t, client.Close())
	assert.True(t, client.IsClosed())
}

func TestClient_DisconnectUnregisters(t *testing.T) {
	hub := NewHub()
	conn, _ := dialTestClient(t, hub, DefaultClientConfig, true)
	require.Eventually(t, func() bool { return hub.ClientCount("U1") == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount("U1") == 0 }, 2*time.Second, 10*time.Millisecond)
}
