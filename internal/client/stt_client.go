package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"time"

	"github.com/notesync/api/internal/config"
)

// Transcriber converts a stored recording into a transcript
type Transcriber interface {
	Transcribe(ctx context.Context, audioURL string) (string, error)
	IsConfigured() bool
}

// STTClient handles speech-to-text via the OpenAI audio transcription API
type STTClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// transcriptionResponse represents the transcription API response
type transcriptionResponse struct {
	Text string `json:"text"`
}

// NewSTTClient creates a new speech-to-text client
func NewSTTClient(cfg *config.OpenAIConfig) *STTClient {
	return &STTClient{
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}
}

// Transcribe downloads the recording and sends it to the transcription API
func (c *STTClient) Transcribe(ctx context.Context, audioURL string) (string, error) {
	audio, err := c.fetchAudio(ctx, audioURL)
	if err != nil {
		return "", err
	}
	defer audio.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("model", c.model); err != nil {
		return "", fmt.Errorf("failed to write model field: %w", err)
	}

	filename := path.Base(audioURL)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return "", fmt.Errorf("failed to copy audio: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcription API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result transcriptionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return result.Text, nil
}

// fetchAudio retrieves the raw recording from storage
func (c *STTClient) fetchAudio(ctx context.Context, audioURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch audio: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("audio fetch error (status %d): %s", resp.StatusCode, audioURL)
	}

	return resp.Body, nil
}

// IsConfigured returns true if the client has valid configuration
func (c *STTClient) IsConfigured() bool {
	return c.apiKey != ""
}
