// Package notify implements the out-of-band notification side channel for
// accepted alerts. It fires JSON POST requests to a configured endpoint;
// deliveries are fire-and-forget in a goroutine so they never block the
// alert pipeline, and a failed delivery never removes the alert from the
// visible timeline.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/visionguard/visionguard-monitor/internal/metrics"
	"github.com/visionguard/visionguard-monitor/internal/models"
)

// Notifier delivers alert notifications to a single configured channel.
// Permission is resolved exactly once, by Probe at session start; it is never
// solicited reactively when an alert arrives.
type Notifier struct {
	channelURL  string
	channelType models.NotifyChannelType
	client      *http.Client
	logger      *slog.Logger
	granted     bool
}

// NewNotifier creates a notifier for the given channel. An empty channelURL
// means the side channel was never granted.
func NewNotifier(channelURL string, channelType models.NotifyChannelType, logger *slog.Logger) *Notifier {
	if channelType == "" {
		channelType = models.NotifyChannelWebhook
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		channelURL:  channelURL,
		channelType: channelType,
		client:      &http.Client{Timeout: 5 * time.Second},
		logger:      logger,
	}
}

// Probe resolves the channel permission once, at session start. A missing or
// invalid endpoint leaves the channel denied; alerts still reach the timeline.
func (n *Notifier) Probe() {
	if n.channelURL == "" {
		n.logger.Info("notify: no channel configured, out-of-band notifications disabled")
		return
	}
	u, err := url.Parse(n.channelURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		n.logger.Warn("notify: invalid channel endpoint, notifications disabled", "url", n.channelURL)
		return
	}
	n.granted = true
	n.logger.Info("notify: channel granted", "type", string(n.channelType))
}

// Granted reports whether the side channel may be used.
func (n *Notifier) Granted() bool {
	return n.granted
}

// Alert dispatches one notification. Delivery is asynchronous; this returns
// immediately.
func (n *Notifier) Alert(ev models.NotifyEvent) {
	if !n.granted {
		return
	}
	go n.deliver(ev)
}

// deliver is the internal synchronous delivery routine, called from a goroutine.
func (n *Notifier) deliver(ev models.NotifyEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := n.send(ctx, ev); err != nil {
		metrics.NotifyDeliveriesTotal.WithLabelValues("failure").Inc()
		n.logger.Warn("notify: delivery failed",
			"task_id", ev.TaskID,
			"camera_id", ev.CameraID,
			"err", err,
		)
		return
	}
	metrics.NotifyDeliveriesTotal.WithLabelValues("success").Inc()
}

// send posts the event, adapting the payload format for Slack vs generic.
func (n *Notifier) send(ctx context.Context, ev models.NotifyEvent) error {
	var payload interface{}

	switch n.channelType {
	case models.NotifyChannelSlack:
		// Slack expects {"text": "..."} with optional markdown.
		camera := ev.CameraName
		if camera == "" {
			camera = ev.CameraID
		}
		text := fmt.Sprintf("*[VisionGuard]* `%s` on camera `%s` (%.0f%%)", ev.EventType, camera, ev.Confidence*100)
		if ev.Message != "" {
			text += "\n> " + ev.Message
		}
		payload = map[string]string{"text": text}

	default: // webhook channels get the full NotifyEvent JSON.
		payload = ev
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.channelURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "VisionGuard-Monitor/1.0")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d from channel", resp.StatusCode)
	}
	return nil
}
