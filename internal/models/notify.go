package models

// NotifyChannelType identifies the payload format for the out-of-band
// notification side channel.
type NotifyChannelType string

const (
	NotifyChannelWebhook NotifyChannelType = "webhook"
	NotifyChannelSlack   NotifyChannelType = "slack"
)

// NotifyEvent is the payload delivered to the notification side channel for
// each accepted alert. Delivery is best-effort; the timeline entry exists
// regardless of whether this ever leaves the process.
type NotifyEvent struct {
	TaskID     string  `json:"task_id"`
	CameraID   string  `json:"camera_id"`
	CameraName string  `json:"camera_name,omitempty"`
	EventType  string  `json:"event_type"`
	Confidence float64 `json:"confidence"`
	Message    string  `json:"message"`
	OccurredAt string  `json:"occurred_at"`
}
