// Package service wires the push supervisor, decoder, reconciler, and task
// registry into one monitoring session.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/visionguard/visionguard-monitor/internal/push"
	"github.com/visionguard/visionguard-monitor/internal/tasks"
	"github.com/visionguard/visionguard-monitor/internal/timeline"
)

// Notifier is the side-channel surface the session probes at startup.
type Notifier interface {
	Probe()
}

type inboundFrame struct {
	raw        []byte
	receivedAt time.Time
}

// Session is one monitoring session: a single push connection feeding a
// single consumer goroutine that owns all alert-driven mutations. Frames are
// processed strictly in arrival order; there is no concurrent decode.
type Session struct {
	supervisor *push.Supervisor
	reconciler *timeline.Reconciler
	registry   *tasks.Registry
	timeline   *timeline.Timeline
	notifier   Notifier
	logger     *slog.Logger

	frames chan inboundFrame
	syncCh chan struct{}
	done   chan struct{}
}

// Options configures a session.
type Options struct {
	BackendURL     string
	SessionID      string
	RetryDelay     time.Duration
	ConnectTimeout time.Duration
	Logger         *slog.Logger
}

// NewSession builds a session around an existing reconciler and registry.
func NewSession(opts Options, tl *timeline.Timeline, rec *timeline.Reconciler, reg *tasks.Registry, notifier Notifier) (*Session, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Session{
		reconciler: rec,
		registry:   reg,
		timeline:   tl,
		notifier:   notifier,
		logger:     opts.Logger,
		frames:     make(chan inboundFrame, 256),
		syncCh:     make(chan struct{}, 1),
		done:       make(chan struct{}),
	}

	sup, err := push.NewSupervisor(opts.BackendURL, push.Options{
		SessionID:      opts.SessionID,
		RetryDelay:     opts.RetryDelay,
		ConnectTimeout: opts.ConnectTimeout,
		Logger:         opts.Logger,
	}, s.onFrame, s.onState)
	if err != nil {
		return nil, err
	}
	s.supervisor = sup
	return s, nil
}

// State returns the supervisor's connectivity state for the indicator.
func (s *Session) State() push.ConnectionState {
	return s.supervisor.State()
}

// Timeline returns the session's timeline.
func (s *Session) Timeline() *timeline.Timeline {
	return s.timeline
}

// Run drives the session until ctx is cancelled. It probes the notification
// permission once, performs the initial task sync, opens the push connection,
// and then consumes frames in arrival order.
func (s *Session) Run(ctx context.Context) error {
	if s.notifier != nil {
		s.notifier.Probe()
	}

	// Initial sync: a failure is reported but does not prevent the session
	// from starting; the next trigger self-corrects.
	if err := s.registry.Sync(ctx); err != nil {
		s.logger.Warn("session: initial task sync failed", "err", err)
	}

	go s.syncLoop(ctx)

	s.supervisor.Connect()
	defer func() {
		close(s.done)
		s.supervisor.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case f := <-s.frames:
			s.handleFrame(ctx, f)
		}
	}
}

// handleFrame decodes and applies one inbound frame. Decode failures are
// logged and dropped; they never terminate the connection or the session.
func (s *Session) handleFrame(ctx context.Context, f inboundFrame) {
	event, kind, err := push.Decode(f.raw, f.receivedAt)
	if err != nil {
		s.logger.Warn("session: dropped undecodable frame", "kind", string(kind), "err", err)
		return
	}
	if event == nil {
		s.logger.Debug("session: ignored non-alert frame", "kind", string(kind))
		return
	}

	s.reconciler.Apply(ctx, event)
	s.logger.Info("session: alert applied",
		"task_id", event.TaskID,
		"camera_id", event.CameraID,
		"event_type", event.EventType,
		"confidence", event.Confidence,
	)

	// An alert can reference a task created since the last sync.
	s.requestSync()
}

// onFrame runs on the supervisor's read pump; it hands the frame to the
// single consumer, preserving arrival order.
func (s *Session) onFrame(raw []byte, receivedAt time.Time) {
	select {
	case s.frames <- inboundFrame{raw: raw, receivedAt: receivedAt}:
	case <-s.done:
	}
}

// onState synthesizes connectivity status entries for the timeline.
func (s *Session) onState(state push.ConnectionState) {
	switch state {
	case push.Connected:
		s.reconciler.Status("Connected to monitoring service")
		s.requestSync()
	case push.Reconnecting:
		s.reconciler.Status("Connection lost, retrying")
	}
	s.logger.Info("session: connection state changed", "state", state.String())
}

// requestSync coalesces sync triggers; at most one is pending at a time.
func (s *Session) requestSync() {
	select {
	case s.syncCh <- struct{}{}:
	default:
	}
}

// syncLoop serves coalesced task registry syncs off the consumer goroutine so
// a slow backend never stalls frame processing.
func (s *Session) syncLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.syncCh:
			syncCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			if err := s.registry.Sync(syncCtx); err != nil {
				s.logger.Warn("session: task sync failed", "err", err)
			}
			cancel()
		}
	}
}
