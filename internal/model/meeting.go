package model

import "time"

// MeetingStatus tracks a meeting's processing lifecycle
type MeetingStatus string

const (
	MeetingStatusPending    MeetingStatus = "PENDING"
	MeetingStatusProcessing MeetingStatus = "PROCESSING"
	MeetingStatusCompleted  MeetingStatus = "COMPLETED"
	MeetingStatusFailed     MeetingStatus = "FAILED"
)

// IsTerminal reports whether no further pipeline transition may occur.
func (s MeetingStatus) IsTerminal() bool {
	return s == MeetingStatusCompleted || s == MeetingStatusFailed
}

// Pipeline stages
const (
	StageTranscribe = "transcribe"
	StageSummarize  = "summarize"
	StagePublish    = "publish"
)

// Meeting represents one recorded meeting and its processing state.
// Transcript, Summary and NotionPageURL are written once by their stage
// and never cleared; a failed run keeps whatever was persisted before it.
type Meeting struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	AudioURL      string        `json:"audioUrl"`
	Transcript    string        `json:"transcript,omitempty"`
	Summary       string        `json:"summary,omitempty"`
	NotionPageURL string        `json:"notionPageUrl,omitempty"`
	Status        MeetingStatus `json:"status"`
	CurrentStep   string        `json:"currentStep,omitempty"`
	Error         *string       `json:"error,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	StartedAt     *time.Time    `json:"startedAt,omitempty"`
	CompletedAt   *time.Time    `json:"completedAt,omitempty"`
}

// MeetingUploadRequest carries the non-file upload form fields
type MeetingUploadRequest struct {
	Title string `json:"title" validate:"omitempty,max=200"`
}

// MeetingUploadResponse is returned after a recording is accepted
type MeetingUploadResponse struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Status    MeetingStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
}

// MeetingStatusResponse is the polling view of an in-flight meeting
type MeetingStatusResponse struct {
	ID          string        `json:"id"`
	Status      MeetingStatus `json:"status"`
	CurrentStep string        `json:"currentStep,omitempty"`
	Error       *string       `json:"error,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	StartedAt   *time.Time    `json:"startedAt,omitempty"`
	CompletedAt *time.Time    `json:"completedAt,omitempty"`
}

// PipelineTaskPayload is the asynq task body for one pipeline invocation
type PipelineTaskPayload struct {
	MeetingID string `json:"meetingId"`
}
