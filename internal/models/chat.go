package models

// ChatContext is the client-side context attached to every chat instruction.
type ChatContext struct {
	Timestamp  string `json:"timestamp"`
	UserID     string `json:"user_id"`
	ClientType string `json:"client_type"`
}

// ChatMessage is the request body of POST /api/chat/.
type ChatMessage struct {
	Message string       `json:"message"`
	Context *ChatContext `json:"context,omitempty"`
}

// ChatResponse is the backend's reply. Action, when present, signals that the
// instruction changed server-side state (e.g. a monitoring task was created)
// and the task registry should be re-synced.
type ChatResponse struct {
	Response    string   `json:"response"`
	Action      string   `json:"action,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
	Timestamp   string   `json:"timestamp,omitempty"`
}
