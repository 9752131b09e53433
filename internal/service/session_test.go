package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visionguard/visionguard-monitor/internal/api"
	"github.com/visionguard/visionguard-monitor/internal/models"
	"github.com/visionguard/visionguard-monitor/internal/tasks"
	"github.com/visionguard/visionguard-monitor/internal/timeline"
)

// testBackend fakes the backend's REST and push surfaces on one server.
type testBackend struct {
	srv      *httptest.Server
	upgrader websocket.Upgrader

	mu        sync.Mutex
	tasks     []models.MonitoringTask
	syncCount int
	connected chan *websocket.Conn
}

func newTestBackend(t *testing.T) *testBackend {
	t.Helper()

	b := &testBackend{
		connected: make(chan *websocket.Conn, 4),
		tasks: []models.MonitoringTask{
			{ID: "t1", UserRequest: "watch the entrance", CameraIDs: []string{"cam1"}},
		},
	}

	router := mux.NewRouter()
	router.HandleFunc("/api/chat/monitoring-tasks", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.syncCount++
		list := models.MonitoringTaskList{Tasks: b.tasks}
		b.mu.Unlock()
		json.NewEncoder(w).Encode(list)
	})
	router.HandleFunc("/ws/{client_id}", func(w http.ResponseWriter, r *http.Request) {
		conn, err := b.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		b.connected <- conn
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	b.srv = httptest.NewServer(router)
	t.Cleanup(b.srv.Close)
	return b
}

func (b *testBackend) waitConn(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-b.connected:
		return conn
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for push connection")
		return nil
	}
}

func (b *testBackend) syncs() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.syncCount
}

type probeNotifier struct {
	mu      sync.Mutex
	probed  int
	granted bool
	alerts  []models.NotifyEvent
}

func (p *probeNotifier) Probe() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.probed++
}

func (p *probeNotifier) Granted() bool { return p.granted }

func (p *probeNotifier) Alert(ev models.NotifyEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alerts = append(p.alerts, ev)
}

func startSession(t *testing.T, backend *testBackend, notifier *probeNotifier) *Session {
	t.Helper()

	tl := timeline.New(10)
	rec := timeline.NewReconciler(tl, notifier, nil, nil, nil)
	client := api.NewClient(backend.srv.URL, 5*time.Second, nil)
	reg := tasks.NewRegistry(client, nil)

	session, err := NewSession(Options{
		BackendURL: backend.srv.URL,
		RetryDelay: 50 * time.Millisecond,
	}, tl, rec, reg, notifier)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- session.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("session did not stop")
		}
	})

	return session
}

const alertFrame = `{
	"type": "monitoring_alert",
	"task_id": "t1",
	"user_request": "watch the entrance",
	"event": {
		"camera_id": "cam1",
		"event_type": "person",
		"timestamp": "2026-08-29T14:30:00.123456",
		"confidence": 0.85
	},
	"message": "Person detected at entrance",
	"timestamp": "2026-08-29T14:30:00.200000"
}`

func TestSession_AlertReachesTimelineAndNotifier(t *testing.T) {
	backend := newTestBackend(t)
	notifier := &probeNotifier{granted: true}
	session := startSession(t, backend, notifier)

	conn := backend.waitConn(t)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(alertFrame)))

	require.Eventually(t, func() bool {
		for _, e := range session.Timeline().Entries() {
			if e.Kind == models.TimelineAlert {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	var alert models.TimelineEntry
	for _, e := range session.Timeline().Entries() {
		if e.Kind == models.TimelineAlert {
			alert = e
		}
	}
	assert.Equal(t, "cam1", alert.CameraID)
	assert.Equal(t, "person", alert.EventType)
	assert.Contains(t, alert.Text, "Person detected at entrance")
	assert.Contains(t, alert.Text, "85% confidence")

	require.Eventually(t, func() bool {
		notifier.mu.Lock()
		defer notifier.mu.Unlock()
		return len(notifier.alerts) == 1
	}, 2*time.Second, 10*time.Millisecond)

	notifier.mu.Lock()
	assert.Equal(t, 1, notifier.probed)
	notifier.mu.Unlock()
}

func TestSession_ConnectionStatusEntries(t *testing.T) {
	backend := newTestBackend(t)
	session := startSession(t, backend, &probeNotifier{})

	conn := backend.waitConn(t)

	require.Eventually(t, func() bool {
		for _, e := range session.Timeline().Entries() {
			if e.Kind == models.TimelineStatus && e.Text == "Connected to monitoring service" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool {
		for _, e := range session.Timeline().Entries() {
			if e.Kind == models.TimelineStatus && e.Text == "Connection lost, retrying" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	// The session reconnects on its own.
	backend.waitConn(t)
}

func TestSession_MalformedFrameIsDroppedSessionContinues(t *testing.T) {
	backend := newTestBackend(t)
	session := startSession(t, backend, &probeNotifier{})

	conn := backend.waitConn(t)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"monitoring_alert"}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json at all`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(alertFrame)))

	// Only the valid frame lands; the drops did not kill the consumer.
	require.Eventually(t, func() bool {
		count := 0
		for _, e := range session.Timeline().Entries() {
			if e.Kind == models.TimelineAlert {
				count++
			}
		}
		return count == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSession_AlertTriggersTaskSync(t *testing.T) {
	backend := newTestBackend(t)
	startSession(t, backend, &probeNotifier{})

	conn := backend.waitConn(t)
	before := backend.syncs()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(alertFrame)))

	require.Eventually(t, func() bool {
		return backend.syncs() > before
	}, 2*time.Second, 10*time.Millisecond)
}
