package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/notesync/api/internal/config"
)

// Summarizer condenses a transcript into structured markdown
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
	IsConfigured() bool
}

// LLMClient handles summary generation via the Gemini API
type LLMClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// generateContentRequest represents the Gemini generateContent request body
type generateContentRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

// generateContentResponse represents the Gemini generateContent response
type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

// NewLLMClient creates a new Gemini API client
func NewLLMClient(cfg *config.GeminiConfig) *LLMClient {
	return &LLMClient{
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}
}

// Summarize asks the model for a sectioned markdown summary of the transcript.
// The prompted sections (overview, discussion, decisions, action items) are a
// convention only; downstream block conversion does not rely on them.
func (c *LLMClient) Summarize(ctx context.Context, transcript string) (string, error) {
	prompt := buildSummaryPrompt(transcript)

	reqBody := generateContentRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

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
		return "", fmt.Errorf("gemini API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result generateContentResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	return result.Candidates[0].Content.Parts[0].Text, nil
}

func buildSummaryPrompt(transcript string) string {
	return fmt.Sprintf(`You are a professional meeting secretary.
Analyze the following meeting transcript and extract the key information.

Transcript:
%s

Please provide a structured summary in Markdown format with the following sections in Korean:

# 회의 요약
(회의에 대한 간략한 개요)

## 주요 논의 사항
- (논의된 주요 주제에 대한 글머리 기호)

## 결정된 사항
- (합의된 결정 목록)

## 액션 아이템
- [ ] (담당자) : (할 일)`, transcript)
}

// IsConfigured returns true if the client has valid configuration
func (c *LLMClient) IsConfigured() bool {
	return c.apiKey != ""
}
