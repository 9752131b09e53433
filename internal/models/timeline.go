package models

import "time"

// TimelineEntryKind distinguishes alert-derived entries from locally
// synthesized status notices.
type TimelineEntryKind string

const (
	TimelineAlert  TimelineEntryKind = "alert"
	TimelineStatus TimelineEntryKind = "status"
)

// TimelineEntry is one rendered record of the bounded, arrival-ordered
// alert timeline.
type TimelineEntry struct {
	ID        string            `json:"id"`
	Kind      TimelineEntryKind `json:"kind"`
	Text      string            `json:"text"`
	CameraID  string            `json:"camera_id,omitempty"`
	EventType string            `json:"event_type,omitempty"`
	AddedAt   time.Time         `json:"added_at"`
}
