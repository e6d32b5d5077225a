package handler

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/notesync/api/internal/client"
	"github.com/notesync/api/internal/model"
	"github.com/notesync/api/internal/service"
	"github.com/notesync/api/pkg/response"
)

const maxUploadSize = 100 * 1024 * 1024 // 100MB

type MeetingHandler struct {
	service   *service.MeetingService
	storage   client.StorageClient
	validator *validator.Validate
}

func NewMeetingHandler(svc *service.MeetingService, storage client.StorageClient, v *validator.Validate) *MeetingHandler {
	return &MeetingHandler{
		service:   svc,
		storage:   storage,
		validator: v,
	}
}

// Upload handles POST /api/meetings/upload
// @Summary      Upload meeting recording
// @Description  Upload an audio recording and start the transcription pipeline
// @Tags         Meetings
// @Accept       multipart/form-data
// @Produce      json
// @Param        title formData string false "Meeting title (defaults to filename)"
// @Param        file  formData file   true "Audio file (WAV, MP3, M4A, AAC, OGG, WEBM; max 100MB)"
// @Success      202 {object} model.MeetingUploadResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      429 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/meetings/upload [post]
func (h *MeetingHandler) Upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return response.ValidationError(c, "File is required", nil)
	}

	if file.Size > maxUploadSize {
		return response.ValidationError(c, "File size exceeds 100MB limit", map[string]interface{}{
			"maxSize":  maxUploadSize,
			"fileSize": file.Size,
		})
	}

	contentType := file.Header.Get("Content-Type")
	validTypes := map[string]bool{
		"audio/wav":   true,
		"audio/x-wav": true,
		"audio/wave":  true,
		"audio/mpeg":  true,
		"audio/mp3":   true,
		"audio/mp4":   true,
		"audio/x-m4a": true,
		"audio/aac":   true,
		"audio/x-aac": true,
		"audio/ogg":   true,
		"audio/webm":  true,
	}
	if !validTypes[contentType] {
		return response.ValidationError(c, "Invalid file type. Supported: WAV, MP3, M4A, AAC, OGG, WEBM", map[string]interface{}{
			"contentType": contentType,
		})
	}

	req := model.MeetingUploadRequest{Title: strings.TrimSpace(c.FormValue("title"))}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	title := req.Title
	if title == "" {
		title = file.Filename
	}

	f, err := file.Open()
	if err != nil {
		return response.ServiceError(c, "Failed to open file")
	}
	defer f.Close()

	audioURL, err := h.storeRecording(c, file.Filename, contentType, f)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	meeting, err := h.service.CreateMeeting(c.Context(), title, audioURL)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.Accepted(c, model.MeetingUploadResponse{
		ID:        meeting.ID,
		Title:     meeting.Title,
		Status:    meeting.Status,
		CreatedAt: meeting.CreatedAt,
	})
}

// Get handles GET /api/meetings/:meetingId
// @Summary      Get meeting
// @Description  Get a meeting record including transcript, summary and page URL
// @Tags         Meetings
// @Produce      json
// @Param        meetingId path string true "Meeting ID"
// @Success      200 {object} model.Meeting
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/meetings/{meetingId} [get]
func (h *MeetingHandler) Get(c *fiber.Ctx) error {
	meetingID := c.Params("meetingId")
	if meetingID == "" {
		return response.ValidationError(c, "Meeting ID is required", nil)
	}

	meeting, err := h.service.GetMeeting(c.Context(), meetingID)
	if err != nil {
		if errors.Is(err, service.ErrMeetingNotFound) {
			return response.NotFound(c, "Meeting not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, meeting)
}

// Status handles GET /api/meetings/:meetingId/status
// @Summary      Get meeting status
// @Description  Get the pipeline status of a meeting without its content fields
// @Tags         Meetings
// @Produce      json
// @Param        meetingId path string true "Meeting ID"
// @Success      200 {object} model.MeetingStatusResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/meetings/{meetingId}/status [get]
func (h *MeetingHandler) Status(c *fiber.Ctx) error {
	meetingID := c.Params("meetingId")
	if meetingID == "" {
		return response.ValidationError(c, "Meeting ID is required", nil)
	}

	meeting, err := h.service.GetMeeting(c.Context(), meetingID)
	if err != nil {
		if errors.Is(err, service.ErrMeetingNotFound) {
			return response.NotFound(c, "Meeting not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, model.MeetingStatusResponse{
		ID:          meeting.ID,
		Status:      meeting.Status,
		CurrentStep: meeting.CurrentStep,
		Error:       meeting.Error,
		CreatedAt:   meeting.CreatedAt,
		StartedAt:   meeting.StartedAt,
		CompletedAt: meeting.CompletedAt,
	})
}

// storeRecording uploads the raw audio to R2, or hands back a mock URL when
// storage is not configured (development mode).
func (h *MeetingHandler) storeRecording(c *fiber.Ctx, filename, contentType string, f io.Reader) (string, error) {
	ext := filepath.Ext(filename)
	key := fmt.Sprintf("recordings/%s%s", uuid.New().String(), ext)

	if h.storage == nil {
		return fmt.Sprintf("https://cdn.notesync.dev/%s", key), nil
	}

	audioURL, err := h.storage.Upload(c.Context(), key, f, contentType)
	if err != nil {
		return "", fmt.Errorf("failed to store recording: %w", err)
	}
	return audioURL, nil
}

// formatValidationErrors formats validator errors for response
func formatValidationErrors(err error) interface{} {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		errors := make(map[string]string)
		for _, e := range validationErrors {
			errors[e.Field()] = e.Tag()
		}
		return errors
	}
	return nil
}
