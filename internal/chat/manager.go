// Package chat owns the lifecycle of the realtime channel: at most one
// websocket connection per session, an explicit state machine, a single
// receive loop that classifies inbound frames, and a capped-backoff
// reconnect policy for unexpected closes.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/workboardhq/workboard/internal/backoff"
	"github.com/workboardhq/workboard/internal/notify"
	"github.com/workboardhq/workboard/internal/observability"
	"github.com/workboardhq/workboard/internal/session"
	"github.com/workboardhq/workboard/pkg/models"
)

// State is the channel state machine. Transitions: Disconnected to
// Connecting to Open, and back to Disconnected on any transport error or
// close. Terminal only after explicit teardown.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateOpen
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	default:
		return "disconnected"
	}
}

const (
	pingInterval = 15 * time.Second
	pongWait     = 45 * time.Second
	writeWait    = 10 * time.Second
	readLimit    = 1 << 20
	eventBuffer  = 256
)

// ErrNoCredential is returned by Connect when no session credential is
// held; the channel handshake carries the token, so there is nothing to
// connect with.
var ErrNoCredential = errors.New("chat: no session credential")

// Options configures a Manager.
type Options struct {
	// URL is the websocket endpoint; the session token is appended as a
	// query parameter (the protocol has no in-band handshake).
	URL string
	// Session supplies the credential and signals expiry. Required.
	Session *session.Store
	// Sink receives the single notification when reconnects are
	// exhausted. Required.
	Sink notify.Sink
	// SendGuard gates outbound sends; it reports whether the receiver is
	// the currently selected conversation target. Nil permits any
	// receiver.
	SendGuard func(receiverID int64) bool
	// Reconnect overrides the backoff policy; the zero value selects the
	// default schedule.
	Reconnect backoff.Policy
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Metrics is optional.
	Metrics *observability.Metrics
	// Dialer overrides the websocket dialer, mainly for tests.
	Dialer *websocket.Dialer
}

// Manager maintains the single realtime channel for a session. Consumers
// read derived state (State(), Events()) and never touch the transport.
type Manager struct {
	url       string
	session   *session.Store
	sink      notify.Sink
	sendGuard func(int64) bool
	policy    backoff.Policy
	logger    *slog.Logger
	metrics   *observability.Metrics
	dialer    *websocket.Dialer

	events     chan Event
	closeEvObj sync.Once

	mu      sync.Mutex
	state   State
	conn    *websocket.Conn
	writeMu sync.Mutex
	cancel  context.CancelFunc
	runDone chan struct{}
	closed  bool
}

// NewManager builds a channel manager in the Disconnected state.
func NewManager(opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	policy := opts.Reconnect
	if policy.MaxAttempts == 0 && policy.Initial == 0 {
		policy = backoff.Default()
	}
	dialer := opts.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	}
	return &Manager{
		url:       opts.URL,
		session:   opts.Session,
		sink:      opts.Sink,
		sendGuard: opts.SendGuard,
		policy:    policy,
		logger:    logger,
		metrics:   opts.Metrics,
		dialer:    dialer,
		events:    make(chan Event, eventBuffer),
	}
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Events returns the inbound event stream. The channel is closed when the
// manager is torn down or abandons reconnecting.
func (m *Manager) Events() <-chan Event {
	return m.events
}

// Connect starts the channel. It is a no-op while a connection is already
// Connecting or Open, and an error after explicit teardown or without a
// credential. The actual dial and all transport handling run on the
// manager's own goroutine; Connect returns immediately.
func (m *Manager) Connect(ctx context.Context) error {
	if _, ok := m.session.Get(); !ok {
		return ErrNoCredential
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return errors.New("chat: manager is closed")
	}
	if m.state != StateDisconnected || m.runDone != nil {
		m.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.runDone = make(chan struct{})
	m.setStateLocked(StateConnecting)
	m.mu.Unlock()

	go m.run(runCtx)
	return nil
}

// Close tears the channel down: the transport is released, the receive
// loop joined, and the event stream closed. No reconnect follows an
// explicit close.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	cancel := m.cancel
	conn := m.conn
	done := m.runDone
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close()
	}
	if done != nil {
		<-done
	}
	m.closeEvents()
}

func (m *Manager) closeEvents() {
	m.closeEvObj.Do(func() {
		close(m.events)
	})
}

// Send transmits a chat message. It is a no-op returning false unless the
// channel is Open, the receiver is the active conversation target, and the
// content is non-empty after trimming. The local message log is never
// updated here; messages become visible only when the server echoes them
// back over the channel.
func (m *Manager) Send(receiverID int64, content string) bool {
	content = strings.TrimSpace(content)
	if content == "" {
		return m.rejectSend("empty content")
	}

	m.mu.Lock()
	state := m.state
	conn := m.conn
	m.mu.Unlock()
	if state != StateOpen || conn == nil {
		return m.rejectSend("channel not open")
	}
	if m.sendGuard != nil && !m.sendGuard(receiverID) {
		return m.rejectSend("receiver is not the active conversation")
	}

	frame := models.OutboundMessage{
		ReceiverID: receiverID,
		Content:    content,
		Timestamp:  time.Now().UnixMilli(),
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(frame); err != nil {
		// The receive loop will observe the broken transport and drive
		// the reconnect; the send itself just fails.
		m.logger.Debug("send failed", "error", err)
		return m.rejectSend("write failed")
	}
	if m.metrics != nil {
		m.metrics.SendCounter.WithLabelValues("sent").Inc()
	}
	return true
}

func (m *Manager) rejectSend(reason string) bool {
	m.logger.Debug("send rejected", "reason", reason)
	if m.metrics != nil {
		m.metrics.SendCounter.WithLabelValues("rejected").Inc()
	}
	return false
}

// run owns the transport for the lifetime of one Connect call: dial,
// receive until failure, and re-dial per the backoff policy. It exits on
// context cancellation, explicit close, credential loss, or policy
// exhaustion.
func (m *Manager) run(ctx context.Context) {
	// The manager is single-use: once the run loop exits for any reason
	// the event stream closes and the manager stays Disconnected.
	defer func() {
		m.mu.Lock()
		m.setStateLocked(StateDisconnected)
		m.conn = nil
		m.closed = true
		done := m.runDone
		m.runDone = nil
		m.mu.Unlock()
		close(done)
		m.closeEvents()
	}()

	expired := m.session.Subscribe()
	attempt := 0

	for {
		if ctx.Err() != nil || m.isClosed() {
			return
		}
		token, ok := m.session.Get()
		if !ok {
			m.logger.Info("credential gone, channel stays down")
			return
		}

		conn, err := m.dial(ctx, token)
		if err == nil {
			attempt = 0
			connID := uuid.NewString()[:8]
			m.logger.Info("channel open", "conn", connID)
			m.mu.Lock()
			m.conn = conn
			m.setStateLocked(StateOpen)
			m.mu.Unlock()
			m.emit(ctx, Event{Kind: EventState, State: StateOpen})

			readErr := m.receive(ctx, conn, expired)

			m.mu.Lock()
			m.conn = nil
			m.setStateLocked(StateDisconnected)
			m.mu.Unlock()
			m.emit(ctx, Event{Kind: EventState, State: StateDisconnected})
			m.logger.Warn("channel closed", "conn", connID, "error", readErr)
		} else {
			m.logger.Warn("dial failed", "error", err)
		}

		if ctx.Err() != nil || m.isClosed() {
			return
		}
		if _, ok := m.session.Get(); !ok {
			return
		}

		attempt++
		if m.metrics != nil {
			m.metrics.Reconnects.Inc()
		}
		if m.policy.Exhausted(attempt) {
			err := fmt.Errorf("chat connection lost after %d attempts", attempt)
			m.sink.Notify(notify.LevelError, "chat connection lost")
			m.emit(ctx, Event{Kind: EventError, Err: err})
			return
		}
		delay := m.policy.Delay(attempt)
		m.logger.Warn("reconnecting", "attempt", attempt, "delay", delay)
		m.mu.Lock()
		m.setStateLocked(StateConnecting)
		m.mu.Unlock()
		select {
		case <-ctx.Done():
			return
		case <-expired:
			return
		case <-time.After(delay):
		}
	}
}

// dial builds the connection URI with the bearer token as a query
// parameter and opens the transport.
func (m *Manager) dial(ctx context.Context, token string) (*websocket.Conn, error) {
	target, err := url.Parse(m.url)
	if err != nil {
		return nil, fmt.Errorf("parse channel url: %w", err)
	}
	query := target.Query()
	query.Set("token", token)
	target.RawQuery = query.Encode()

	conn, resp, err := m.dialer.DialContext(ctx, target.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial channel: %w (status %s)", err, resp.Status)
		}
		return nil, fmt.Errorf("dial channel: %w", err)
	}
	conn.SetReadLimit(readLimit)
	return conn, nil
}

// receive is the single-threaded dispatch loop: frames are processed one
// at a time in arrival order. It returns when the transport fails or the
// session ends.
func (m *Manager) receive(ctx context.Context, conn *websocket.Conn, expired <-chan struct{}) error {
	readDone := make(chan struct{})
	defer close(readDone)

	// Unblock the reader on cancellation or credential expiry, and keep
	// the connection alive with pings.
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-readDone:
				return
			case <-ctx.Done():
				_ = conn.Close()
				return
			case <-expired:
				m.logger.Info("session expired, closing channel")
				_ = conn.Close()
				return
			case <-ticker.C:
				m.writeMu.Lock()
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				err := conn.WriteMessage(websocket.PingMessage, nil)
				m.writeMu.Unlock()
				if err != nil {
					_ = conn.Close()
					return
				}
			}
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		event, ok := classifyFrame(data)
		if !ok {
			m.logger.Debug("dropping unrecognized frame", "size", len(data))
			m.countFrame("unknown")
			continue
		}
		switch event.Kind {
		case EventMessage:
			m.countFrame("message")
		case EventPresence:
			m.countFrame("presence")
		}
		m.emit(ctx, event)
	}
}

// emit delivers an event in order, waiting for the consumer rather than
// reordering or coalescing.
func (m *Manager) emit(ctx context.Context, event Event) {
	select {
	case m.events <- event:
	case <-ctx.Done():
	}
}

func (m *Manager) countFrame(kind string) {
	if m.metrics != nil {
		m.metrics.FrameCounter.WithLabelValues(kind).Inc()
	}
}

func (m *Manager) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// setStateLocked updates the state and gauge; callers hold m.mu.
func (m *Manager) setStateLocked(state State) {
	m.state = state
	if m.metrics != nil {
		m.metrics.ChannelState.Set(float64(state))
	}
}
