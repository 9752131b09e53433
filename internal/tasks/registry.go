// Package tasks keeps the locally rendered set of active monitoring tasks
// consistent with the backend's authoritative set.
package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/visionguard/visionguard-monitor/internal/metrics"
	"github.com/visionguard/visionguard-monitor/internal/models"
)

// Backend is the slice of the API client the registry needs.
type Backend interface {
	MonitoringTasks(ctx context.Context) ([]models.MonitoringTask, error)
	RemoveMonitoringTask(ctx context.Context, taskID string) error
}

// Registry mirrors the server-side task set. A successful Sync replaces local
// state wholesale; merge semantics are deliberately not used since the backend
// is the sole source of truth. A Sync racing a Remove is accepted: last write
// wins, and the next sync self-corrects.
type Registry struct {
	backend Backend
	logger  *slog.Logger

	mu    sync.RWMutex
	tasks []models.MonitoringTask
}

func NewRegistry(backend Backend, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{backend: backend, logger: logger}
}

// Sync fetches the authoritative set and replaces local state. On failure the
// local set is left untouched and the error is returned.
func (r *Registry) Sync(ctx context.Context) error {
	fetched, err := r.backend.MonitoringTasks(ctx)
	if err != nil {
		metrics.TaskSyncsTotal.WithLabelValues("failure").Inc()
		return fmt.Errorf("sync task registry: %w", err)
	}

	r.mu.Lock()
	r.tasks = fetched
	r.mu.Unlock()

	metrics.TaskSyncsTotal.WithLabelValues("success").Inc()
	r.logger.Debug("tasks: registry synced", "count", len(fetched))
	return nil
}

// Remove deletes a task: confirm-then-apply. The task disappears locally only
// after the backend confirms, so the list never shows a task as gone that the
// backend still considers active. On failure local state is untouched and the
// error propagates to the caller.
func (r *Registry) Remove(ctx context.Context, taskID string) error {
	if err := r.backend.RemoveMonitoringTask(ctx, taskID); err != nil {
		return err
	}

	r.mu.Lock()
	kept := r.tasks[:0:0]
	for _, t := range r.tasks {
		if t.ID != taskID {
			kept = append(kept, t)
		}
	}
	r.tasks = kept
	r.mu.Unlock()

	r.logger.Info("tasks: removed monitoring task", "task_id", taskID)
	return nil
}

// Tasks returns a copy of the local task set.
func (r *Registry) Tasks() []models.MonitoringTask {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.MonitoringTask, len(r.tasks))
	copy(out, r.tasks)
	return out
}

// Len returns the number of locally known tasks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}
