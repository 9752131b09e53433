package models

// Camera is one entry of the backend camera inventory.
type Camera struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Location        string `json:"location,omitempty"`
	URL             string `json:"url"`
	Status          string `json:"status"` // connected, offline, error
	Enabled         bool   `json:"enabled"`
	AIEnabled       bool   `json:"ai_enabled"`
	MotionDetection bool   `json:"motion_detection"`
}

// CameraList is the response body of GET /api/cameras.
type CameraList struct {
	Cameras map[string]Camera `json:"cameras"`
	Total   int               `json:"total"`
	Online  int               `json:"online"`
}
