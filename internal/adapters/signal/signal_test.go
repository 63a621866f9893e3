package signal

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/TalkNet/internal/app"
	"github.com/dkeye/TalkNet/internal/app/orch"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T) (*httptest.Server, *orch.Orchestrator) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	o := orch.New(app.NewRegistry(), app.NewMultiplexer(), app.SimplePolicy{})
	ctl := NewSignalWSController(o, DefaultOptions())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { ctl.HandleSignal(ctx, c) })
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, o
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func send(t *testing.T, ws *websocket.Conn, v any) {
	t.Helper()
	if err := ws.WriteJSON(v); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// expect reads frames until one of type typ arrives.
func expect(t *testing.T, ws *websocket.Conn, typ string) map[string]any {
	t.Helper()
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var m map[string]any
		if err := ws.ReadJSON(&m); err != nil {
			t.Fatalf("waiting for %q: %v", typ, err)
		}
		if m["type"] == typ {
			return m
		}
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSignalingOverWebsocket(t *testing.T) {
	srv, o := newTestServer(t)
	a := dial(t, srv)
	b := dial(t, srv)

	send(t, a, map[string]any{"type": "join", "roomName": "demo", "displayName": "Alice"})
	joinedA := expect(t, a, "joined")
	if members := joinedA["members"].([]any); len(members) != 0 {
		t.Fatalf("expected empty snapshot, got %v", members)
	}
	aID := joinedA["id"].(string)

	send(t, b, map[string]any{"type": "join", "roomName": "demo", "displayName": "Bob"})
	joinedB := expect(t, b, "joined")
	members := joinedB["members"].([]any)
	if len(members) != 1 || members[0].(map[string]any)["id"] != aID {
		t.Fatalf("expected snapshot with A, got %v", members)
	}
	if members[0].(map[string]any)["displayName"] != "Alice" || joinedB["roomName"] != "demo" {
		t.Errorf("snapshot keys must be roomName/displayName, got %v", joinedB)
	}
	bID := joinedB["id"].(string)

	peer := expect(t, a, "peer-joined")
	if peer["id"] != bID || peer["displayName"] != "Bob" {
		t.Errorf("unexpected peer-joined: %v", peer)
	}

	send(t, a, map[string]any{
		"type":    "offer",
		"target":  bID,
		"sender":  "spoofed",
		"payload": map[string]any{"type": "offer", "sdp": "v=0"},
	})
	offer := expect(t, b, "offer")
	if offer["sender"] != aID {
		t.Errorf("sender must be stamped by the server, got %v", offer["sender"])
	}
	if payload := offer["payload"].(map[string]any); payload["sdp"] != "v=0" {
		t.Errorf("payload altered: %v", payload)
	}

	send(t, b, map[string]any{"type": "status-update", "videoOff": true})
	status := expect(t, a, "peer-status")
	if status["id"] != bID || status["videoOff"] != true {
		t.Errorf("unexpected peer-status: %v", status)
	}

	_ = b.Close()
	left := expect(t, a, "peer-left")
	if left["id"] != bID {
		t.Errorf("expected peer-left for B, got %v", left)
	}
	if !o.Registry.HasRoom("demo") {
		t.Error("room with A must survive")
	}

	send(t, a, map[string]any{"type": "leave"})
	expect(t, a, "left")
	if o.Registry.HasRoom("demo") {
		t.Error("room must be removed after the last leave")
	}
	_ = a.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := a.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("expected normal closure after leave, got %v", err)
	}
	waitFor(t, func() bool { return o.Sessions.Len() == 0 })
}

func TestSignalingErrors(t *testing.T) {
	srv, _ := newTestServer(t)
	ws := dial(t, srv)

	if err := ws.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatal(err)
	}
	if ev := expect(t, ws, "error"); ev["reason"] != "bad_payload" {
		t.Errorf("unexpected error reason: %v", ev)
	}

	send(t, ws, map[string]any{"type": "dance"})
	if ev := expect(t, ws, "error"); ev["reason"] != "unknown_type" {
		t.Errorf("unexpected error reason: %v", ev)
	}

	send(t, ws, map[string]any{"type": "join", "roomName": "demo", "displayName": "   "})
	if ev := expect(t, ws, "join-error"); ev["reason"] != "invalid_request" {
		t.Errorf("unexpected join-error reason: %v", ev)
	}

	send(t, ws, map[string]any{"type": "join", "roomName": "demo", "displayName": "Alice"})
	expect(t, ws, "joined")
	send(t, ws, map[string]any{"type": "join", "roomName": "demo", "displayName": "Alice"})
	if ev := expect(t, ws, "join-error"); ev["reason"] != "duplicate_join" {
		t.Errorf("unexpected join-error reason: %v", ev)
	}

	send(t, ws, map[string]any{"type": "ping"})
	expect(t, ws, "pong")
}

func TestDisconnectBeforeJoin(t *testing.T) {
	srv, o := newTestServer(t)
	ws := dial(t, srv)
	waitFor(t, func() bool { return o.Sessions.Len() == 1 })

	_ = ws.Close()
	waitFor(t, func() bool { return o.Sessions.Len() == 0 })
	if rooms := o.Rooms(); len(rooms) != 0 {
		t.Errorf("expected no rooms, got %+v", rooms)
	}
}

func TestConnRateLimiter(t *testing.T) {
	rl := NewConnRateLimiter(1, 2)
	if !rl.Allow() || !rl.Allow() {
		t.Fatal("burst should be allowed")
	}
	if rl.Allow() {
		t.Error("third frame in the same instant should be limited")
	}

	unlimited := NewConnRateLimiter(0, 0)
	for i := 0; i < 1000; i++ {
		if !unlimited.Allow() {
			t.Fatal("non-positive rate must disable limiting")
		}
	}
}
