// Package api is the typed HTTP client for the VisionGuard backend. Every
// call takes a context and returns an explicit error on non-2xx; callers
// never assume the optimistic outcome of a failed request.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/visionguard/visionguard-monitor/internal/metrics"
	"github.com/visionguard/visionguard-monitor/internal/models"
)

// StatusError is returned for a non-2xx backend response.
type StatusError struct {
	StatusCode int
	Method     string
	Path       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned %d for %s %s", e.StatusCode, e.Method, e.Path)
}

// Client talks to one backend instance.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// MonitoringTasks fetches the authoritative set of active monitoring tasks.
func (c *Client) MonitoringTasks(ctx context.Context) ([]models.MonitoringTask, error) {
	var list models.MonitoringTaskList
	if err := c.doJSON(ctx, http.MethodGet, "/api/chat/monitoring-tasks", nil, &list); err != nil {
		return nil, fmt.Errorf("fetch monitoring tasks: %w", err)
	}
	return list.Tasks, nil
}

// RemoveMonitoringTask deletes a task server-side. The response body is
// ignored; any non-2xx status is a failure.
func (c *Client) RemoveMonitoringTask(ctx context.Context, taskID string) error {
	if err := c.doJSON(ctx, http.MethodDelete, "/api/chat/monitoring-tasks/"+taskID, nil, nil); err != nil {
		return fmt.Errorf("remove monitoring task %s: %w", taskID, err)
	}
	return nil
}

// SendChat posts a chat instruction to the assistant.
func (c *Client) SendChat(ctx context.Context, msg models.ChatMessage) (*models.ChatResponse, error) {
	var resp models.ChatResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/chat/", msg, &resp); err != nil {
		return nil, fmt.Errorf("send chat message: %w", err)
	}
	return &resp, nil
}

// ChatSuggestions fetches the suggested starter questions.
func (c *Client) ChatSuggestions(ctx context.Context) ([]string, error) {
	var out struct {
		Suggestions []string `json:"suggestions"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/chat/suggestions", nil, &out); err != nil {
		return nil, fmt.Errorf("fetch chat suggestions: %w", err)
	}
	return out.Suggestions, nil
}

// Cameras fetches the full camera inventory.
func (c *Client) Cameras(ctx context.Context) (*models.CameraList, error) {
	var list models.CameraList
	if err := c.doJSON(ctx, http.MethodGet, "/api/cameras", nil, &list); err != nil {
		return nil, fmt.Errorf("fetch cameras: %w", err)
	}
	return &list, nil
}

// Camera fetches one camera by id.
func (c *Client) Camera(ctx context.Context, cameraID string) (*models.Camera, error) {
	var cam models.Camera
	if err := c.doJSON(ctx, http.MethodGet, "/api/cameras/"+cameraID, nil, &cam); err != nil {
		return nil, fmt.Errorf("fetch camera %s: %w", cameraID, err)
	}
	return &cam, nil
}

// Health probes backend reachability at session start.
func (c *Client) Health(ctx context.Context) error {
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, nil); err != nil {
		return fmt.Errorf("backend health check: %w", err)
	}
	return nil
}

// doJSON performs one request with JSON in/out and records request latency.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "VisionGuard-Monitor/1.0")

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.BackendRequestDurationSeconds.WithLabelValues(method, metricPath(path)).Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("http %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return &StatusError{StatusCode: resp.StatusCode, Method: method, Path: path}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// metricPath collapses id segments so metric label cardinality stays bounded.
func metricPath(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/chat/monitoring-tasks/"):
		return "/api/chat/monitoring-tasks/{id}"
	case strings.HasPrefix(path, "/api/cameras/"):
		return "/api/cameras/{id}"
	default:
		return path
	}
}
