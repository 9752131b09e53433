package timeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/visionguard/visionguard-monitor/internal/metrics"
	"github.com/visionguard/visionguard-monitor/internal/models"
)

// Notifier is the out-of-band notification side channel. Granted is probed
// once at session start; the reconciler never solicits permission per event.
type Notifier interface {
	Granted() bool
	Alert(ev models.NotifyEvent)
}

// Archive persists accepted alerts beyond the visible timeline.
type Archive interface {
	Save(ctx context.Context, event *models.AlertEvent) error
}

// CameraNamer resolves a camera id to a display name. Failures degrade to the
// raw id and must never block an alert.
type CameraNamer interface {
	DisplayName(ctx context.Context, cameraID string) string
}

// Reconciler applies exactly-once, order-preserving effects for each accepted
// alert: a timeline entry, an archive write, and a best-effort notification.
// Structurally identical events are deliberately not deduplicated; the backend
// may resend identical-looking but distinct events.
type Reconciler struct {
	timeline *Timeline
	notifier Notifier
	archive  Archive
	names    CameraNamer
	logger   *slog.Logger
}

// NewReconciler creates a reconciler. notifier, archive, and names may be nil.
func NewReconciler(tl *Timeline, notifier Notifier, archive Archive, names CameraNamer, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		timeline: tl,
		notifier: notifier,
		archive:  archive,
		names:    names,
		logger:   logger,
	}
}

// Apply records one accepted alert. The timeline entry always happens; the
// notification fires only if the side channel was granted, and its absence or
// failure never excludes the event from the visible log.
func (r *Reconciler) Apply(ctx context.Context, event *models.AlertEvent) {
	cameraName := event.CameraID
	if r.names != nil {
		cameraName = r.names.DisplayName(ctx, event.CameraID)
	}

	entry := models.TimelineEntry{
		ID:        uuid.New().String(),
		Kind:      models.TimelineAlert,
		Text:      formatAlert(event, cameraName),
		CameraID:  event.CameraID,
		EventType: event.EventType,
		AddedAt:   time.Now(),
	}
	r.timeline.prepend(entry)
	metrics.AlertsTotal.WithLabelValues(event.EventType).Inc()

	if r.archive != nil {
		if err := r.archive.Save(ctx, event); err != nil {
			r.logger.Warn("timeline: archive write failed", "task_id", event.TaskID, "err", err)
		}
	}

	if r.notifier != nil && r.notifier.Granted() {
		r.notifier.Alert(models.NotifyEvent{
			TaskID:     event.TaskID,
			CameraID:   event.CameraID,
			CameraName: cameraName,
			EventType:  event.EventType,
			Confidence: event.Confidence,
			Message:    event.HumanMessage,
			OccurredAt: event.OccurredAt.UTC().Format(time.RFC3339),
		})
	}
}

// Status prepends a locally synthesized status entry (connectivity notices).
func (r *Reconciler) Status(text string) {
	r.timeline.prepend(models.TimelineEntry{
		ID:      uuid.New().String(),
		Kind:    models.TimelineStatus,
		Text:    text,
		AddedAt: time.Now(),
	})
}

// formatAlert renders the display composite: message, camera, type, timestamp,
// confidence percentage.
func formatAlert(event *models.AlertEvent, cameraName string) string {
	msg := event.HumanMessage
	if msg == "" {
		msg = fmt.Sprintf("%s detected", event.EventType)
	}
	return fmt.Sprintf("%s [camera %s, %s, %.0f%% confidence, %s]",
		msg,
		cameraName,
		event.EventType,
		event.Confidence*100,
		event.OccurredAt.Format("2006-01-02 15:04:05"),
	)
}
