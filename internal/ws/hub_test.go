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
)

func TestHubDeliversToAddressedUser(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	alice := &Client{hub: hub, send: make(chan []byte, 4), userID: "alice"}
	bob := &Client{hub: hub, send: make(chan []byte, 4), userID: "bob"}
	hub.register <- alice
	hub.register <- bob

	hub.Send("alice", Event{Type: EventMessage, Payload: map[string]string{"content": "Hello World"}})

	select {
	case data := <-alice.send:
		var ev struct {
			Type    string            `json:"type"`
			Payload map[string]string `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(data, &ev))
		assert.Equal(t, EventMessage, ev.Type)
		assert.Equal(t, "Hello World", ev.Payload["content"])
	case <-time.After(time.Second):
		t.Fatal("alice got nothing")
	}

	// Give some time for the hub to process
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, bob.send)
}

func TestSendAfterStopDoesNotBlock(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	hub.Stop()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Send("alice", Event{Type: EventNotification})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Send blocked on a stopped hub")
	}
}

func TestServeWs(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, w, r, r.URL.Query().Get("user"))
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user=alice"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// registration happens in the handler goroutine; retry until the event arrives
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	got := make(chan []byte, 1)
	go func() {
		_, data, err := conn.ReadMessage()
		if err == nil {
			got <- data
		}
	}()
	deadline := time.After(2 * time.Second)
	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case data := <-got:
			assert.Contains(t, string(data), `"type":"notification"`)
			return
		case <-tick.C:
			hub.Send("alice", Event{Type: EventNotification, Payload: "ping"})
		case <-deadline:
			t.Fatal("no event received over the socket")
		}
	}
}
