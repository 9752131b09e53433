package models

import "time"

// FrameKind is the discriminant tag carried by every push frame.
type FrameKind string

const (
	FrameMonitoringAlert       FrameKind = "monitoring_alert"
	FrameConnectionEstablished FrameKind = "connection_established"
	FrameHeartbeat             FrameKind = "heartbeat"
	FramePong                  FrameKind = "pong"
	FrameCameraUpdate          FrameKind = "camera_update"
	FrameEventNotification     FrameKind = "event_notification"
	FrameSystemStatus          FrameKind = "system_status"
)

// PushFrame is the raw envelope of one message received over the push connection.
// Only the discriminant is decoded here; kind-specific fields stay in the inner
// structures so unknown kinds pass through without error.
type PushFrame struct {
	Type      FrameKind       `json:"type"`
	TaskID    string          `json:"task_id,omitempty"`
	UserReq   string          `json:"user_request,omitempty"`
	Event     *PushAlertEvent `json:"event,omitempty"`
	Message   string          `json:"message,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

// PushAlertEvent is the inner detection payload of a monitoring_alert frame.
type PushAlertEvent struct {
	CameraID   string  `json:"camera_id"`
	EventType  string  `json:"event_type"`
	Timestamp  string  `json:"timestamp"`
	Confidence float64 `json:"confidence"`
}

// AlertEvent is a decoded and validated monitoring alert.
// Confidence is always within [0,1] and OccurredAt is always a valid instant;
// frames that cannot satisfy that are rejected whole, never partially accepted.
type AlertEvent struct {
	TaskID       string    `json:"task_id"`
	UserRequest  string    `json:"user_request,omitempty"`
	CameraID     string    `json:"camera_id"`
	EventType    string    `json:"event_type"`
	Confidence   float64   `json:"confidence"`
	OccurredAt   time.Time `json:"occurred_at"`
	HumanMessage string    `json:"message"`
	ReceivedAt   time.Time `json:"received_at"`
}
