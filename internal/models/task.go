package models

// MonitoringTask mirrors a server-owned standing monitoring rule. The backend
// is the sole source of truth; the local copy is replaced wholesale on every
// successful sync.
type MonitoringTask struct {
	ID          string   `json:"id"`
	UserRequest string   `json:"user_request"`
	CameraIDs   []string `json:"camera_ids"`
	EventTypes  []string `json:"event_types,omitempty"`
	CreatedAt   APITime  `json:"created_at"`
}

// MonitoringTaskList is the response body of GET /api/chat/monitoring-tasks.
type MonitoringTaskList struct {
	Tasks []MonitoringTask `json:"tasks"`
}
