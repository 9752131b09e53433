package push

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/visionguard/visionguard-monitor/internal/metrics"
	"github.com/visionguard/visionguard-monitor/internal/models"
)

// Decode rejection reasons, used as metric labels and for test assertions.
var (
	ErrMalformedFrame  = errors.New("malformed frame")
	ErrMissingTaskID   = errors.New("missing task_id")
	ErrMissingCameraID = errors.New("missing camera_id")
	ErrMissingEvent    = errors.New("missing event payload")
	ErrBadConfidence   = errors.New("confidence out of range")
	ErrBadTimestamp    = errors.New("unparsable timestamp")
)

// Decode turns one raw inbound frame into a validated AlertEvent, or into
// nothing. Three outcomes:
//
//   - (event, kind, nil): the frame was a valid monitoring_alert.
//   - (nil, kind, nil): a recognized or unknown non-alert kind; dropped by
//     contract so new frame kinds never break an old client.
//   - (nil, kind, err): malformed or invalid input; the whole frame is
//     rejected, never partially accepted.
//
// Decode never panics and an error here must never tear down the connection.
func Decode(raw []byte, receivedAt time.Time) (*models.AlertEvent, models.FrameKind, error) {
	var frame models.PushFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		metrics.FramesRejectedTotal.WithLabelValues("malformed").Inc()
		return nil, "", fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	kind := frame.Type
	if kind == "" {
		kind = "unknown"
	}
	metrics.FramesReceivedTotal.WithLabelValues(string(kind)).Inc()

	// Only monitoring_alert produces an event; every other kind, present or
	// future, is ignored.
	if frame.Type != models.FrameMonitoringAlert {
		return nil, kind, nil
	}

	event, err := validateAlert(&frame, receivedAt)
	if err != nil {
		metrics.FramesRejectedTotal.WithLabelValues(rejectReason(err)).Inc()
		return nil, kind, err
	}
	return event, kind, nil
}

func validateAlert(frame *models.PushFrame, receivedAt time.Time) (*models.AlertEvent, error) {
	if frame.TaskID == "" {
		return nil, ErrMissingTaskID
	}
	if frame.Event == nil {
		return nil, ErrMissingEvent
	}
	if frame.Event.CameraID == "" {
		return nil, ErrMissingCameraID
	}
	if frame.Event.Confidence < 0 || frame.Event.Confidence > 1 {
		return nil, fmt.Errorf("%w: %v", ErrBadConfidence, frame.Event.Confidence)
	}

	occurredAt, err := parseTimestamp(frame.Event.Timestamp)
	if err != nil {
		return nil, err
	}

	return &models.AlertEvent{
		TaskID:       frame.TaskID,
		UserRequest:  frame.UserReq,
		CameraID:     frame.Event.CameraID,
		EventType:    frame.Event.EventType,
		Confidence:   frame.Event.Confidence,
		OccurredAt:   occurredAt,
		HumanMessage: frame.Message,
		ReceivedAt:   receivedAt,
	}, nil
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := models.ParseTime(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrBadTimestamp, err)
	}
	return t, nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrMissingTaskID):
		return "missing_task_id"
	case errors.Is(err, ErrMissingCameraID):
		return "missing_camera_id"
	case errors.Is(err, ErrMissingEvent):
		return "missing_event"
	case errors.Is(err, ErrBadConfidence):
		return "bad_confidence"
	case errors.Is(err, ErrBadTimestamp):
		return "bad_timestamp"
	default:
		return "invalid"
	}
}
