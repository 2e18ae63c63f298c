package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/example/trivia-rooms/events"
)

type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
	err    error
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.frames = append(c.frames, data)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) types(t *testing.T) []string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, f := range c.frames {
		var env Envelope
		if err := json.Unmarshal(f, &env); err != nil {
			t.Fatalf("invalid frame %s: %v", f, err)
		}
		out = append(out, env.Type)
	}
	return out
}

func newClient(h *Hub, id, username, roomID string) (*Client, *fakeConn) {
	conn := &fakeConn{}
	c := &Client{ID: id, Username: username, Conn: conn}
	h.handleRegister(c)
	if roomID != "" {
		h.JoinRoom(id, roomID)
	}
	return c, conn
}

func TestHub_HandleBroadcastRouting(t *testing.T) {
	tests := []struct {
		name    string
		msg     BroadcastMessage
		wantA   int
		wantB   int
		wantC   int
	}{
		{name: "whole room", msg: BroadcastMessage{RoomID: "r1", Type: "x"}, wantA: 1, wantB: 1},
		{name: "excluding sender", msg: BroadcastMessage{RoomID: "r1", Type: "x", Exclude: "alice"}, wantB: 1},
		{name: "addressed", msg: BroadcastMessage{RoomID: "r1", Type: "x", To: []string{"bob"}}, wantB: 1},
		{name: "other room", msg: BroadcastMessage{RoomID: "r2", Type: "x"}, wantC: 1},
		{name: "unknown room", msg: BroadcastMessage{RoomID: "nope", Type: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHub()
			_, a := newClient(h, "c1", "alice", "r1")
			_, b := newClient(h, "c2", "bob", "r1")
			_, c := newClient(h, "c3", "carol", "r2")

			msg := tt.msg
			h.handleBroadcast(&msg)

			for _, check := range []struct {
				name string
				conn *fakeConn
				want int
			}{{"alice", a, tt.wantA}, {"bob", b, tt.wantB}, {"carol", c, tt.wantC}} {
				if got := len(check.conn.types(t)); got != check.want {
					t.Errorf("%s received %d frames, want %d", check.name, got, check.want)
				}
			}
		})
	}
}

func TestHub_CloseDetachesRecipients(t *testing.T) {
	h := NewHub()
	alice, _ := newClient(h, "c1", "alice", "r1")
	bob, bobConn := newClient(h, "c2", "bob", "r1")

	h.handleBroadcast(&BroadcastMessage{RoomID: "r1", Type: "removedFromRoom", To: []string{"bob"}, Close: true})

	if h.CurrentRoom(bob.ID) != "" {
		t.Errorf("bob still attached to %q", h.CurrentRoom(bob.ID))
	}
	if h.CurrentRoom(alice.ID) != "r1" {
		t.Errorf("alice detached, room = %q", h.CurrentRoom(alice.ID))
	}
	if h.RoomClientCount("r1") != 1 {
		t.Errorf("RoomClientCount() = %d, want 1", h.RoomClientCount("r1"))
	}

	h.handleBroadcast(&BroadcastMessage{RoomID: "r1", Type: "roomClosed", Close: true})
	if h.RoomClientCount("r1") != 0 {
		t.Errorf("RoomClientCount() after close = %d, want 0", h.RoomClientCount("r1"))
	}
	if got := bobConn.types(t); len(got) != 1 || got[0] != "removedFromRoom" {
		t.Errorf("bob frames = %v", got)
	}
	if h.ClientCount() != 2 {
		t.Errorf("ClientCount() = %d, connections must stay registered", h.ClientCount())
	}
}

func TestHub_EnvelopeFormat(t *testing.T) {
	h := NewHub()
	_, conn := newClient(h, "c1", "alice", "r1")

	h.handleBroadcast(&BroadcastMessage{RoomID: "r1", Type: "playerJoined", Payload: json.RawMessage(`{"newPlayerUsername":"bob"}`)})

	var env struct {
		Type    string `json:"type"`
		Payload struct {
			NewPlayerUsername string `json:"newPlayerUsername"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(conn.frames[0], &env); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if env.Type != "playerJoined" || env.Payload.NewPlayerUsername != "bob" {
		t.Errorf("frame = %s", conn.frames[0])
	}
}

func TestHub_SendTo(t *testing.T) {
	h := NewHub()
	client, conn := newClient(h, "c1", "alice", "")

	if err := h.SendTo(client, "error", map[string]string{"message": "nope"}); err != nil {
		t.Fatalf("SendTo() error = %v", err)
	}
	if got := string(conn.frames[0]); got != `{"type":"error","payload":{"message":"nope"}}` {
		t.Errorf("frame = %s", got)
	}

	conn.err = errors.New("broken pipe")
	if err := h.SendTo(client, "error", nil); err == nil {
		t.Error("SendTo() on a broken connection should fail")
	}
}

func TestHub_RunLifecycle(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	conn := &fakeConn{}
	client := &Client{ID: "c1", Username: "alice", Conn: conn}
	h.Register(client)
	h.JoinRoom(client.ID, "r1")
	h.Broadcast(&BroadcastMessage{RoomID: "r1", Type: "startQuestion"})

	deadline := time.Now().Add(time.Second)
	for len(conn.types(t)) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := conn.types(t); len(got) != 1 || got[0] != "startQuestion" {
		t.Errorf("frames = %v", got)
	}

	h.Unregister(client)
	deadline = time.Now().Add(time.Second)
	for h.ClientCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if h.ClientCount() != 0 {
		t.Errorf("ClientCount() after Unregister = %d", h.ClientCount())
	}

	h.Register(&Client{ID: "c2", Username: "bob", Conn: conn})
	cancel()
	h.Wait()
	if !conn.closed {
		t.Error("connections not closed on shutdown")
	}
}

func TestToBroadcast(t *testing.T) {
	ev := events.RoomMessageEvent{
		RoomID:  "r1",
		Type:    "endGame",
		Payload: json.RawMessage(`{}`),
		To:      []string{"alice"},
		Exclude: "bob",
		Close:   true,
	}
	msg := toBroadcast(ev)
	if msg.RoomID != "r1" || msg.Type != "endGame" || msg.To[0] != "alice" || msg.Exclude != "bob" || !msg.Close {
		t.Errorf("toBroadcast() = %+v", msg)
	}
}
