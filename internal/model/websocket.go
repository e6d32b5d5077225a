package model

// WebSocket message types
const (
	WSMessageTypeProgress = "progress"
	WSMessageTypeComplete = "complete"
	WSMessageTypeError    = "error"
	WSMessageTypePing     = "ping"
	WSMessageTypePong     = "pong"
)

// WSMessage represents a generic WebSocket message
type WSMessage struct {
	Type string `json:"type"`
}

// WSProgressMessage represents a pipeline progress update
type WSProgressMessage struct {
	Type        string        `json:"type"`
	MeetingID   string        `json:"meetingId"`
	Status      MeetingStatus `json:"status"`
	CurrentStep string        `json:"currentStep,omitempty"`
}

// WSCompleteMessage represents pipeline completion
type WSCompleteMessage struct {
	Type      string      `json:"type"`
	MeetingID string      `json:"meetingId"`
	Result    interface{} `json:"result"`
}

// WSErrorMessage represents a pipeline failure
type WSErrorMessage struct {
	Type      string  `json:"type"`
	MeetingID string  `json:"meetingId"`
	Error     WSError `json:"error"`
}

// WSError represents error details
type WSError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
