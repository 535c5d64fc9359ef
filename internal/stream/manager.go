// Package stream owns the lifetime of the persistent connection to the
// emotion-inference service: connect, send frames, surface classifications
// and warnings, and reconnect after failures.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/serenemind/emotion-monitor/internal/clock"
	"github.com/serenemind/emotion-monitor/internal/emotion"
	"github.com/serenemind/emotion-monitor/internal/observability/metrics"
	"github.com/serenemind/emotion-monitor/pkg/logging"
)

// State is the connection lifecycle state. Transitions happen only inside
// the manager's own run loop (plus Stop, which forces Idle).
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Status is a read-only snapshot of the connection state for observability.
type Status struct {
	State     State  `json:"state"`
	Attempt   int    `json:"attempt"`
	LastError string `json:"last_error,omitempty"`
}

// Conn is the subset of *websocket.Conn the manager uses. Tests substitute
// scripted connections.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Dialer opens one connection to the inference service.
type Dialer interface {
	Dial(ctx context.Context, url string, header http.Header) (Conn, error)
}

type websocketDialer struct {
	dialer *websocket.Dialer
}

// NewWebsocketDialer returns the production dialer. The connect timeout is
// enforced by the manager, not the handshake timeout here.
func NewWebsocketDialer() Dialer {
	return &websocketDialer{dialer: &websocket.Dialer{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
	}}
}

func (w *websocketDialer) Dial(ctx context.Context, url string, header http.Header) (Conn, error) {
	conn, _, err := w.dialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Config holds connection settings. Zero durations fall back to the
// production defaults (10s connect timeout, 3s fixed reconnect delay).
type Config struct {
	URL            string
	APIKey         string
	ConnectTimeout time.Duration
	ReconnectDelay time.Duration
}

// Manager maintains exactly one logical connection to the inference service.
// Failures never surface as errors to callers; they feed the reconnect loop
// and the event stream. Reconnects retry indefinitely at a fixed delay.
type Manager struct {
	cfg     Config
	dialer  Dialer
	clk     clock.Clock
	logger  *logging.Logger
	metrics *metrics.PipelineMetrics

	events chan Event

	mu        sync.Mutex
	state     State
	attempt   int
	lastError string
	conn      Conn
	running   bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewManager creates a connection manager. Nothing connects until Start.
func NewManager(cfg Config, dialer Dialer, clk clock.Clock, logger *logging.Logger, pm *metrics.PipelineMetrics) *Manager {
	if logger == nil {
		logger = logging.Default()
	}
	if clk == nil {
		clk = clock.Real{}
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 3 * time.Second
	}
	return &Manager{
		cfg:     cfg,
		dialer:  dialer,
		clk:     clk,
		logger:  logger,
		metrics: pm,
		events:  make(chan Event, 32),
	}
}

// Events returns the manager's event stream. A single consumer should drain
// it; events are dropped rather than blocking the connection loop when the
// consumer lags.
func (m *Manager) Events() <-chan Event {
	return m.events
}

// Status returns a snapshot of the connection state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusLocked()
}

func (m *Manager) statusLocked() Status {
	return Status{State: m.state, Attempt: m.attempt, LastError: m.lastError}
}

// Start begins connecting. It is idempotent: a no-op while the manager is
// already running (connecting, open, or waiting to reconnect).
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}
	m.running = true
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.run(ctx)
}

// Stop cancels any pending reconnect, closes the live socket if present, and
// leaves the manager Idle. Safe to call from any state, any number of times,
// including before Start. No reconnect fires after Stop.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.state = StateIdle
		m.mu.Unlock()
		return
	}
	m.running = false
	cancel := m.cancel
	conn := m.conn
	done := m.done
	m.cancel = nil
	m.conn = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.Close()
	}
	if done != nil {
		<-done
	}
	m.transition(StateIdle, "")
	m.logger.Info("stream: stopped")
}

// Send transmits one encoded frame. Only valid while Open: otherwise the
// frame is logged and dropped, never queued. A stale frame is superseded by
// the next capture tick anyway.
func (m *Manager) Send(image []byte) {
	m.mu.Lock()
	conn := m.conn
	state := m.state
	m.mu.Unlock()

	if state != StateOpen || conn == nil {
		m.logger.Debug("stream: frame dropped, connection not open", "state", state.String())
		m.metrics.ObserveFrameDropped()
		return
	}
	payload, err := encodeFrame(image)
	if err != nil {
		m.logger.Error("stream: frame encode failed", "error", err)
		m.metrics.ObserveFrameDropped()
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		m.logger.Warn("stream: frame write failed", "error", err)
		m.metrics.ObserveFrameDropped()
		return
	}
	m.metrics.ObserveFrameSent()
}

func (m *Manager) run(ctx context.Context) {
	defer close(m.done)
	for {
		m.transition(StateConnecting, "")
		conn, err := m.dial(ctx)
		if ctx.Err() != nil {
			if conn != nil {
				conn.Close()
			}
			return
		}
		if err != nil {
			m.logger.Warn("stream: connect failed", "error", err, "attempt", m.Status().Attempt)
			m.transition(StateFailed, err.Error())
		} else {
			m.setConn(conn)
			m.transition(StateOpen, "")
			m.logger.Info("stream: connected", "url", m.cfg.URL)

			readErr := m.readLoop(conn)
			m.setConn(nil)
			conn.Close()
			if ctx.Err() != nil {
				return
			}
			if isRemoteClose(readErr) {
				m.logger.Info("stream: connection closed by remote")
				m.transition(StateClosed, "")
			} else {
				m.logger.Warn("stream: transport error", "error", readErr)
				m.transition(StateFailed, readErr.Error())
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-m.clk.After(m.cfg.ReconnectDelay):
		}
		m.bumpAttempt()
	}
}

// dial races the dialer against the connect timeout. The timeout uses the
// injected clock so tests can trigger it without waiting.
func (m *Manager) dial(ctx context.Context) (Conn, error) {
	dialCtx, cancel := context.WithCancel(ctx)

	ch := make(chan dialResult, 1)
	go func() {
		conn, err := m.dialer.Dial(dialCtx, m.cfg.URL, m.header())
		ch <- dialResult{conn: conn, err: err}
	}()

	select {
	case r := <-ch:
		cancel()
		return r.conn, r.err
	case <-m.clk.After(m.cfg.ConnectTimeout):
		cancel()
		go closeLate(ch)
		return nil, fmt.Errorf("stream: no handshake within %s", m.cfg.ConnectTimeout)
	case <-ctx.Done():
		cancel()
		go closeLate(ch)
		return nil, ctx.Err()
	}
}

type dialResult struct {
	conn Conn
	err  error
}

// closeLate discards a connection that completed after its dial was
// abandoned.
func closeLate(ch <-chan dialResult) {
	if r := <-ch; r.conn != nil {
		r.conn.Close()
	}
}

func (m *Manager) header() http.Header {
	h := http.Header{}
	if m.cfg.APIKey != "" {
		h.Set("X-Api-Key", m.cfg.APIKey)
	}
	return h
}

func (m *Manager) readLoop(conn Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		m.handleMessage(data)
	}
}

func (m *Manager) handleMessage(data []byte) {
	p := parseInbound(data)
	if p.warning != "" {
		m.logger.Warn("stream: inference warning", "warning", p.warning)
		m.metrics.ObserveStreamWarning()
		m.emit(Event{Kind: EventWarning, Warning: p.warning})
		return
	}
	frame := &emotion.Frame{Samples: p.samples, CapturedAt: m.clk.Now()}
	m.emit(Event{Kind: EventFrame, Frame: frame})
}

func (m *Manager) setConn(conn Conn) {
	m.mu.Lock()
	m.conn = conn
	m.mu.Unlock()
}

func (m *Manager) transition(s State, errMsg string) {
	m.mu.Lock()
	m.state = s
	switch {
	case s == StateOpen:
		m.attempt = 0
		m.lastError = ""
	case errMsg != "":
		m.lastError = errMsg
	}
	status := m.statusLocked()
	m.mu.Unlock()
	m.emit(Event{Kind: EventStateChange, Status: status})
}

func (m *Manager) bumpAttempt() {
	m.mu.Lock()
	m.attempt++
	m.mu.Unlock()
	m.metrics.ObserveReconnect()
}

func (m *Manager) emit(ev Event) {
	select {
	case m.events <- ev:
	default:
		m.logger.Warn("stream: event dropped, consumer lagging", "kind", int(ev.Kind))
	}
}

func isRemoteClose(err error) bool {
	if err == nil {
		return true
	}
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return true
	}
	return errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed)
}
