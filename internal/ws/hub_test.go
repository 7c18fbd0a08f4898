package ws

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

	"rfid-asset-tracker/internal/model"
)

func newTestServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()

	hub := NewHub()
	go hub.Run()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWS(hub, w, r)
	}))

	t.Cleanup(func() {
		srv.Close()
		hub.Close()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_PublishReachesSubscriber(t *testing.T) {
	hub, srv := newTestServer(t)
	conn := dial(t, srv)

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	event := model.AssetMovementEvent{
		Event: model.AssetUpdateEventName,
		Data: model.AssetMovementData{
			TagID:     "TAG-1",
			AssetName: "Projector",
			Category:  model.CategoryNormal,
		},
	}
	hub.Publish(event)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var got model.AssetMovementEvent
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, model.AssetUpdateEventName, got.Event)
	assert.Equal(t, "TAG-1", got.Data.TagID)
	assert.Equal(t, "Projector", got.Data.AssetName)
}

func TestHub_BroadcastToMultipleSubscribers(t *testing.T) {
	hub, srv := newTestServer(t)
	first := dial(t, srv)
	second := dial(t, srv)

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 2
	}, 2*time.Second, 10*time.Millisecond)

	hub.Publish(model.AssetMovementEvent{
		Event: model.AssetUpdateEventName,
		Data:  model.AssetMovementData{TagID: "TAG-2"},
	})

	for _, conn := range []*websocket.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, payload, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.Contains(t, string(payload), "TAG-2")
	}
}

func TestHub_ClientCountDropsOnDisconnect(t *testing.T) {
	hub, srv := newTestServer(t)
	conn := dial(t, srv)

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	conn.Close()

	assert.Eventually(t, func() bool {
		return hub.ClientCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHub_CloseWithConnectedClient(t *testing.T) {
	hub, srv := newTestServer(t)
	conn := dial(t, srv)

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	hub.Close()

	// The server side tears the connection down; the client's read loop must
	// unwind cleanly even though the run loop already returned.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	assert.Zero(t, hub.ClientCount())

	// A connection arriving after shutdown is rejected without hanging.
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	if late, _, err := websocket.DefaultDialer.Dial(url, nil); err == nil {
		late.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, _, readErr := late.ReadMessage()
		assert.Error(t, readErr)
		late.Close()
	}
	assert.Zero(t, hub.ClientCount())
}

func TestHub_PublishWithNoSubscribers(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Close()

	// Must not block or panic with an empty client set.
	hub.Publish(model.AssetMovementEvent{Event: model.AssetUpdateEventName})
}

func TestHub_CloseIsIdempotent(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	hub.Close()
	hub.Close()

	assert.Zero(t, hub.ClientCount())
}
