package display

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func TestMessageEncodingOmitsEmptyFields(t *testing.T) {
	raw, err := Message{Type: TypeDespawn, Entity: 12}.Encode()
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `{"type":"despawn","entity":12}` {
		t.Fatalf("encoded = %s", raw)
	}
}

func TestHubDeliversHelloAndBroadcasts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub("session-1", zap.NewNop())
	go hub.Run(ctx)
	srv := NewServer("", hub, time.Second, zap.NewNop())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	spawn, _ := Message{Type: TypeSpawn, Entity: 3, Mesh: "box"}.Encode()
	hub.Publish(spawn)

	var got []Message
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for len(got) < 2 {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v (got %+v)", err, got)
		}
		for _, line := range strings.Split(string(raw), "\n") {
			var m Message
			if err := json.Unmarshal([]byte(line), &m); err != nil {
				t.Fatal(err)
			}
			got = append(got, m)
		}
	}
	if got[0].Type != TypeHello || got[0].Session != "session-1" {
		t.Fatalf("first message = %+v", got[0])
	}
	if got[1].Type != TypeSpawn || got[1].Entity != 3 {
		t.Fatalf("second message = %+v", got[1])
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	hub := NewHub("s", zap.NewNop()) // not running: nothing drains broadcast
	for range 1000 {
		hub.Publish([]byte("x"))
	}
	if hub.Dropped() != 1000-256 {
		t.Fatalf("dropped = %d", hub.Dropped())
	}
}
