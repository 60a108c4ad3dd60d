package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/workboardhq/workboard/internal/backoff"
	"github.com/workboardhq/workboard/internal/notify"
	"github.com/workboardhq/workboard/internal/session"
	"github.com/workboardhq/workboard/pkg/models"
)

// chatServer is a fake backend channel endpoint.
type chatServer struct {
	t        *testing.T
	server   *httptest.Server
	upgrades atomic.Int64
	handle   func(conn *websocket.Conn, count int64)
}

func newChatServer(t *testing.T, handle func(conn *websocket.Conn, count int64)) *chatServer {
	t.Helper()
	cs := &chatServer{t: t, handle: handle}
	upgrader := websocket.Upgrader{}
	cs.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		count := cs.upgrades.Add(1)
		if cs.handle != nil {
			cs.handle(conn, count)
		}
	}))
	t.Cleanup(cs.server.Close)
	return cs
}

func (cs *chatServer) url() string {
	return "ws" + strings.TrimPrefix(cs.server.URL, "http")
}

// drain services the connection (including control frames) until the peer
// closes it.
func drain(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func newTestManager(t *testing.T, cs *chatServer, mutate func(*Options)) (*Manager, *session.Store, *notify.Capture) {
	t.Helper()
	store := session.NewStore()
	store.Set("T1")
	sink := &notify.Capture{}
	opts := Options{
		URL:     cs.url(),
		Session: store,
		Sink:    sink,
		Reconnect: backoff.Policy{
			MaxAttempts: 2,
			Initial:     10 * time.Millisecond,
			Max:         20 * time.Millisecond,
			Factor:      2,
		},
	}
	if mutate != nil {
		mutate(&opts)
	}
	m := NewManager(opts)
	t.Cleanup(m.Close)
	return m, store, sink
}

func nextEvent(t *testing.T, events <-chan Event, want EventKind) Event {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case event, ok := <-events:
			if !ok {
				t.Fatalf("event stream closed while waiting for %v", want)
			}
			if event.Kind == want {
				return event
			}
			// State transitions interleave with the payload events most
			// tests care about.
			if event.Kind == EventState {
				continue
			}
			t.Fatalf("got %+v, want kind %v", event, want)
		case <-deadline:
			t.Fatalf("timed out waiting for %v", want)
		}
	}
}

func waitState(t *testing.T, m *Manager, want State) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if m.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("state = %v, want %v", m.State(), want)
}

func TestConnectWithoutCredential(t *testing.T) {
	cs := newChatServer(t, nil)
	m, store, _ := newTestManager(t, cs, nil)
	store.Clear()

	if err := m.Connect(context.Background()); err != ErrNoCredential {
		t.Fatalf("Connect = %v, want ErrNoCredential", err)
	}
}

func TestReceiveMessageAndPresence(t *testing.T) {
	cs := newChatServer(t, func(conn *websocket.Conn, count int64) {
		_ = conn.WriteJSON(map[string]any{"senderId": 1, "content": "hi", "timestamp": 123})
		_ = conn.WriteJSON(map[string]any{"senderId": 2})
		_ = conn.WriteJSON(map[string]any{"type": "noise"}) // dropped, must not kill the connection
		_ = conn.WriteJSON(map[string]any{"senderId": 3, "content": "still alive", "timestamp": 456})
		drain(conn)
	})
	m, _, _ := newTestManager(t, cs, nil)

	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	msg := nextEvent(t, m.Events(), EventMessage)
	if msg.Message.SenderID != 1 || msg.Message.Content != "hi" {
		t.Errorf("message = %+v", msg.Message)
	}
	presence := nextEvent(t, m.Events(), EventPresence)
	if presence.Presence.ContactID != 2 || !presence.Presence.Online {
		t.Errorf("presence = %+v", presence.Presence)
	}
	// The unrecognized frame was dropped silently; the next message still
	// arrives on the same connection.
	msg = nextEvent(t, m.Events(), EventMessage)
	if msg.Message.SenderID != 3 {
		t.Errorf("message = %+v", msg.Message)
	}
	if got := cs.upgrades.Load(); got != 1 {
		t.Errorf("upgrades = %d, want 1", got)
	}
}

func TestTokenPassedAsQueryParam(t *testing.T) {
	gotToken := make(chan string, 1)
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken <- r.URL.Query().Get("token")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err == nil {
			defer conn.Close()
			time.Sleep(100 * time.Millisecond)
		}
	}))
	defer server.Close()

	store := session.NewStore()
	store.Set("tok-123")
	m := NewManager(Options{
		URL:     "ws" + strings.TrimPrefix(server.URL, "http"),
		Session: store,
		Sink:    &notify.Capture{},
	})
	defer m.Close()

	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	select {
	case token := <-gotToken:
		if token != "tok-123" {
			t.Errorf("token = %q, want tok-123", token)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server never saw the handshake")
	}
}

func TestSecondConnectIsNoOp(t *testing.T) {
	cs := newChatServer(t, func(conn *websocket.Conn, count int64) {
		drain(conn)
	})
	m, _, _ := newTestManager(t, cs, nil)

	if err := m.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitState(t, m, StateOpen)
	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("second Connect should be a no-op, got %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if got := cs.upgrades.Load(); got != 1 {
		t.Errorf("upgrades = %d, want 1", got)
	}
}

func TestSendPreconditions(t *testing.T) {
	cs := newChatServer(t, func(conn *websocket.Conn, count int64) {
		drain(conn)
	})
	m, _, _ := newTestManager(t, cs, func(opts *Options) {
		opts.SendGuard = func(receiverID int64) bool { return receiverID == 42 }
	})

	// Disconnected: no-op, no frame.
	if m.Send(42, "hello") {
		t.Error("Send while disconnected must return false")
	}

	if err := m.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitState(t, m, StateOpen)

	if m.Send(42, "   ") {
		t.Error("Send with blank content must return false")
	}
	if m.Send(7, "hello") {
		t.Error("Send to a non-active target must return false")
	}
	if !m.Send(42, "hello") {
		t.Error("Send with all preconditions met must return true")
	}
}

func TestSendWritesClientTimestampedFrame(t *testing.T) {
	frames := make(chan models.OutboundMessage, 1)
	cs := newChatServer(t, func(conn *websocket.Conn, count int64) {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var frame models.OutboundMessage
		_ = json.Unmarshal(data, &frame)
		frames <- frame
		drain(conn)
	})
	m, _, _ := newTestManager(t, cs, nil)

	if err := m.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitState(t, m, StateOpen)

	before := time.Now().UnixMilli()
	if !m.Send(5, "  trimmed  ") {
		t.Fatal("Send failed")
	}

	select {
	case frame := <-frames:
		if frame.ReceiverID != 5 {
			t.Errorf("receiverId = %d", frame.ReceiverID)
		}
		if frame.Content != "trimmed" {
			t.Errorf("content = %q, want whitespace trimmed", frame.Content)
		}
		if frame.Timestamp < before || frame.Timestamp > time.Now().UnixMilli() {
			t.Errorf("timestamp = %d, want client-assigned now-ish", frame.Timestamp)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no frame arrived")
	}
}

func TestReconnectAfterServerDrop(t *testing.T) {
	cs := newChatServer(t, func(conn *websocket.Conn, count int64) {
		if count == 1 {
			conn.Close() // unexpected server-side drop
			return
		}
		_ = conn.WriteJSON(map[string]any{"senderId": 1, "content": "back", "timestamp": 1})
		drain(conn)
	})
	m, _, _ := newTestManager(t, cs, nil)

	if err := m.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}

	msg := nextEvent(t, m.Events(), EventMessage)
	if msg.Message.Content != "back" {
		t.Errorf("message = %+v", msg.Message)
	}
	if got := cs.upgrades.Load(); got != 2 {
		t.Errorf("upgrades = %d, want 2 (one reconnect)", got)
	}
}

func TestReconnectExhaustionNotifiesOnce(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close() // nothing listening

	store := session.NewStore()
	store.Set("T1")
	sink := &notify.Capture{}
	m := NewManager(Options{
		URL:     "ws" + strings.TrimPrefix(server.URL, "http"),
		Session: store,
		Sink:    sink,
		Reconnect: backoff.Policy{
			MaxAttempts: 3,
			Initial:     time.Millisecond,
			Max:         2 * time.Millisecond,
			Factor:      2,
		},
	})
	defer m.Close()

	if err := m.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}

	sawError := false
	for event := range m.Events() {
		if event.Kind == EventError {
			sawError = true
		}
	}
	if !sawError {
		t.Error("expected a channel error event before the stream closed")
	}
	if m.State() != StateDisconnected {
		t.Errorf("state = %v, want disconnected", m.State())
	}
	if n := len(sink.Entries()); n != 1 {
		t.Errorf("exhaustion should notify once, got %d", n)
	}
}

func TestCloseIsDeterministic(t *testing.T) {
	cs := newChatServer(t, func(conn *websocket.Conn, count int64) {
		drain(conn)
	})
	m, _, _ := newTestManager(t, cs, nil)

	if err := m.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitState(t, m, StateOpen)

	m.Close()
	if m.State() != StateDisconnected {
		t.Errorf("state = %v, want disconnected", m.State())
	}
	// Stream is closed; drain returns promptly.
	for range m.Events() {
	}

	// No reconnect after explicit teardown.
	time.Sleep(50 * time.Millisecond)
	if got := cs.upgrades.Load(); got != 1 {
		t.Errorf("upgrades = %d, want 1", got)
	}
	m.Close() // idempotent
}

func TestCredentialClearTearsChannelDown(t *testing.T) {
	cs := newChatServer(t, func(conn *websocket.Conn, count int64) {
		drain(conn)
	})
	m, store, _ := newTestManager(t, cs, nil)

	if err := m.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitState(t, m, StateOpen)

	store.Clear()

	// The manager notices without polling and stops; no reconnect while
	// the credential is gone.
	for range m.Events() {
	}
	if m.State() != StateDisconnected {
		t.Errorf("state = %v, want disconnected", m.State())
	}
	if got := cs.upgrades.Load(); got != 1 {
		t.Errorf("upgrades = %d, want 1", got)
	}
}
