package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visionguard/visionguard-monitor/internal/models"
)

type capturingChannel struct {
	srv *httptest.Server

	mu     sync.Mutex
	bodies []map[string]interface{}
}

func newCapturingChannel(t *testing.T) *capturingChannel {
	t.Helper()

	c := &capturingChannel{}
	c.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		c.mu.Lock()
		c.bodies = append(c.bodies, body)
		c.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(c.srv.Close)
	return c
}

func (c *capturingChannel) waitDelivery(t *testing.T) map[string]interface{} {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		if len(c.bodies) > 0 {
			body := c.bodies[0]
			c.mu.Unlock()
			return body
		}
		c.mu.Unlock()
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("timed out waiting for notification delivery")
	return nil
}

func sampleEvent() models.NotifyEvent {
	return models.NotifyEvent{
		TaskID:     "t1",
		CameraID:   "cam1",
		CameraName: "Front Entrance",
		EventType:  "person",
		Confidence: 0.85,
		Message:    "Person detected at entrance",
		OccurredAt: "2026-08-29T14:30:00Z",
	}
}

func TestNotifier_ProbeGrants(t *testing.T) {
	n := NewNotifier("http://localhost:9000/hook", models.NotifyChannelWebhook, nil)
	assert.False(t, n.Granted())
	n.Probe()
	assert.True(t, n.Granted())
}

func TestNotifier_ProbeDeniesWithoutChannel(t *testing.T) {
	n := NewNotifier("", models.NotifyChannelWebhook, nil)
	n.Probe()
	assert.False(t, n.Granted())
}

func TestNotifier_ProbeDeniesBadScheme(t *testing.T) {
	n := NewNotifier("ftp://example.com/hook", models.NotifyChannelWebhook, nil)
	n.Probe()
	assert.False(t, n.Granted())
}

func TestNotifier_WebhookDeliversFullEvent(t *testing.T) {
	channel := newCapturingChannel(t)
	n := NewNotifier(channel.srv.URL, models.NotifyChannelWebhook, nil)
	n.Probe()
	require.True(t, n.Granted())

	n.Alert(sampleEvent())

	body := channel.waitDelivery(t)
	assert.Equal(t, "t1", body["task_id"])
	assert.Equal(t, "cam1", body["camera_id"])
	assert.Equal(t, "person", body["event_type"])
	assert.InDelta(t, 0.85, body["confidence"], 1e-9)
}

func TestNotifier_SlackDeliversTextPayload(t *testing.T) {
	channel := newCapturingChannel(t)
	n := NewNotifier(channel.srv.URL, models.NotifyChannelSlack, nil)
	n.Probe()

	n.Alert(sampleEvent())

	body := channel.waitDelivery(t)
	text, ok := body["text"].(string)
	require.True(t, ok)
	assert.Contains(t, text, "person")
	assert.Contains(t, text, "Front Entrance")
	assert.Contains(t, text, "85%")
	assert.Contains(t, text, "Person detected at entrance")
	assert.NotContains(t, body, "task_id")
}

func TestNotifier_AlertWithoutGrantIsNoOp(t *testing.T) {
	channel := newCapturingChannel(t)
	n := NewNotifier(channel.srv.URL, models.NotifyChannelWebhook, nil)
	// Probe deliberately not called.

	n.Alert(sampleEvent())
	time.Sleep(100 * time.Millisecond)

	channel.mu.Lock()
	defer channel.mu.Unlock()
	assert.Empty(t, channel.bodies)
}
