package push

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/visionguard/visionguard-monitor/internal/metrics"
)

const (
	// Time allowed to read the next message from the peer before the
	// connection is considered dead. The backend heartbeats every 30s.
	readWait = 90 * time.Second

	// Maximum message size allowed from peer
	maxFrameSize = 512 * 1024 // 512KB
)

// Supervisor owns the single push connection of a session: it dials, detects
// failure, schedules reconnection with a fixed delay, and exposes the current
// connectivity state. It never gives up; retries continue until Close.
//
// Transport errors are terminal at this layer: they become state transitions
// plus a scheduled retry, and never propagate to callers.
type Supervisor struct {
	url        string
	retryDelay time.Duration
	dialer     *websocket.Dialer
	logger     *slog.Logger

	// onFrame receives every inbound frame in arrival order.
	onFrame func(raw []byte, receivedAt time.Time)
	// onState is invoked after every state transition.
	onState func(ConnectionState)

	mu         sync.Mutex
	state      ConnectionState
	conn       *websocket.Conn
	retryTimer *time.Timer
	closed     bool
	gen        int // connection generation; stale pumps and timers are ignored

	// cbMu serializes callback delivery; Close takes it once as a barrier so
	// no callback fires after Close returns.
	cbMu sync.Mutex
}

// Options configures a Supervisor.
type Options struct {
	// SessionID is the client-generated suffix appended to the push endpoint
	// so the backend can correlate the session. Defaults to a timestamp-derived id.
	SessionID      string
	RetryDelay     time.Duration // fixed, not exponential; default 5s
	ConnectTimeout time.Duration // handshake deadline; default 10s
	Logger         *slog.Logger
}

// NewSessionID returns a timestamp-derived unique session suffix.
func NewSessionID() string {
	return fmt.Sprintf("monitor-%d", time.Now().UnixMilli())
}

// NewSupervisor creates a supervisor for the backend's push endpoint.
// backendURL is the HTTP base URL; the ws scheme is derived from it.
func NewSupervisor(backendURL string, opts Options, onFrame func([]byte, time.Time), onState func(ConnectionState)) (*Supervisor, error) {
	if opts.SessionID == "" {
		opts.SessionID = NewSessionID()
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 5 * time.Second
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	wsURL, err := pushEndpoint(backendURL, opts.SessionID)
	if err != nil {
		return nil, err
	}

	return &Supervisor{
		url:        wsURL,
		retryDelay: opts.RetryDelay,
		dialer: &websocket.Dialer{
			HandshakeTimeout: opts.ConnectTimeout,
			Proxy:            http.ProxyFromEnvironment,
		},
		logger:  opts.Logger,
		onFrame: onFrame,
		onState: onState,
		state:   Disconnected,
	}, nil
}

// pushEndpoint derives ws(s)://host/ws/<session> from the HTTP base URL.
func pushEndpoint(backendURL, sessionID string) (string, error) {
	u, err := url.Parse(backendURL)
	if err != nil {
		return "", fmt.Errorf("invalid backend URL %q: %w", backendURL, err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported backend URL scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/" + sessionID
	return u.String(), nil
}

// State returns the current connectivity state.
func (s *Supervisor) State() ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connect starts the connection attempt. Calling it while already Connecting
// or Connected is a no-op; there is never more than one live transport handle.
func (s *Supervisor) Connect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.state == Connecting || s.state == Connected {
		return
	}
	if s.retryTimer != nil {
		s.retryTimer.Stop()
		s.retryTimer = nil
	}
	s.startDialLocked()
}

// startDialLocked transitions to Connecting and dials in the background.
// Bumping the generation invalidates any still-armed retry timer or stale
// pump from the previous attempt. Caller must hold s.mu.
func (s *Supervisor) startDialLocked() {
	s.gen++
	gen := s.gen
	s.setStateLocked(Connecting)
	go s.dial(gen)
}

func (s *Supervisor) dial(gen int) {
	conn, resp, err := s.dialer.Dial(s.url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		return
	}

	if err != nil {
		s.logger.Warn("push: connect failed", "url", s.url, "err", err)
		s.scheduleRetryLocked()
		s.mu.Unlock()
		return
	}

	s.conn = conn
	s.setStateLocked(Connected)
	s.mu.Unlock()

	s.logger.Info("push: connected", "url", s.url)
	go s.readPump(conn, gen)
}

// readPump reads frames in arrival order and hands them to the consumer.
// A read error of any kind ends the pump and schedules a reconnect.
func (s *Supervisor) readPump(conn *websocket.Conn, gen int) {
	conn.SetReadLimit(maxFrameSize)
	conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readWait))
		return nil
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("push: read error", "err", err)
			}
			s.handleDisconnect(gen)
			return
		}
		conn.SetReadDeadline(time.Now().Add(readWait))
		s.deliver(raw, gen)
	}
}

// deliver hands one frame to the consumer unless the session was torn down or
// the connection superseded.
func (s *Supervisor) deliver(raw []byte, gen int) {
	s.cbMu.Lock()
	defer s.cbMu.Unlock()

	s.mu.Lock()
	stale := s.closed || gen != s.gen
	s.mu.Unlock()
	if stale || s.onFrame == nil {
		return
	}
	s.onFrame(raw, time.Now())
}

// handleDisconnect converts a transport failure into Reconnecting plus a
// scheduled retry.
func (s *Supervisor) handleDisconnect(gen int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.gen {
		return
	}
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.scheduleRetryLocked()
}

// scheduleRetryLocked transitions to Reconnecting and arms the owned retry
// timer. Caller must hold s.mu.
func (s *Supervisor) scheduleRetryLocked() {
	s.setStateLocked(Reconnecting)
	metrics.ReconnectsTotal.Inc()

	gen := s.gen
	s.retryTimer = time.AfterFunc(s.retryDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || gen != s.gen {
			return
		}
		s.startDialLocked()
	})
}

// Close tears the session down: it cancels any pending retry, closes the
// live transport, and guarantees no callbacks fire after it returns.
func (s *Supervisor) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.gen++
	if s.retryTimer != nil {
		s.retryTimer.Stop()
		s.retryTimer = nil
	}
	if s.conn != nil {
		s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		s.conn.Close()
		s.conn = nil
	}
	s.setStateLocked(Disconnected)
	s.mu.Unlock()

	// Barrier: any in-flight callback completes before Close returns.
	s.cbMu.Lock()
	s.cbMu.Unlock() //nolint:staticcheck // empty critical section is the barrier
}

// setStateLocked records the transition and notifies the observer.
// Caller must hold s.mu.
func (s *Supervisor) setStateLocked(next ConnectionState) {
	if s.state == next {
		return
	}
	s.state = next
	metrics.ConnectionState.Set(float64(next))
	if s.onState != nil {
		go s.notifyState(next)
	}
}

func (s *Supervisor) notifyState(state ConnectionState) {
	s.cbMu.Lock()
	defer s.cbMu.Unlock()
	// The teardown transition to Disconnected is suppressed; no observer
	// callback fires once Close has begun.
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}
	s.onState(state)
}
