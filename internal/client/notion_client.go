package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/notesync/api/internal/blocks"
	"github.com/notesync/api/internal/config"
)

// Publisher writes a block tree into the external document store
type Publisher interface {
	CreatePage(ctx context.Context, title string, content []blocks.Block) (string, error)
	IsConfigured() bool
}

// NotionClient handles page creation via the Notion API
type NotionClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	version    string
	databaseID string
}

// createPageResponse represents the Notion pages.create response
type createPageResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// NewNotionClient creates a new Notion API client
func NewNotionClient(cfg *config.NotionConfig) *NotionClient {
	return &NotionClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		version:    cfg.Version,
		databaseID: cfg.DatabaseID,
	}
}

// CreatePage creates a database page titled after the meeting with the given
// blocks as children, in order. Returns the page URL.
func (c *NotionClient) CreatePage(ctx context.Context, title string, content []blocks.Block) (string, error) {
	children := make([]map[string]interface{}, 0, len(content))
	for _, b := range content {
		children = append(children, renderBlock(b))
	}

	reqBody := map[string]interface{}{
		"parent": map[string]interface{}{
			"database_id": c.databaseID,
		},
		"properties": map[string]interface{}{
			"Name": map[string]interface{}{
				"title": []map[string]interface{}{
					{"text": map[string]interface{}{"content": title}},
				},
			},
			"Date": map[string]interface{}{
				"date": map[string]interface{}{"start": time.Now().Format(time.RFC3339)},
			},
		},
		"children": children,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/pages", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Notion-Version", c.version)

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
		return "", fmt.Errorf("notion API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result createPageResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return result.URL, nil
}

// renderBlock converts one block into Notion's wire shape. Text is truncated
// to the per-block content limit here, at the publish boundary.
func renderBlock(b blocks.Block) map[string]interface{} {
	richText := []map[string]interface{}{
		{
			"type": "text",
			"text": map[string]interface{}{"content": blocks.TruncateText(b.Text)},
		},
	}

	blockType := string(b.Type)
	if b.Type == blocks.BlockTypeHeading {
		blockType = fmt.Sprintf("heading_%d", b.Level)
	}

	body := map[string]interface{}{
		"rich_text": richText,
	}
	if b.Type == blocks.BlockTypeCheckbox {
		body["checked"] = b.Checked
	}

	return map[string]interface{}{
		"object":  "block",
		"type":    blockType,
		blockType: body,
	}
}

// IsConfigured returns true if the client has valid configuration
func (c *NotionClient) IsConfigured() bool {
	return c.apiKey != "" && c.databaseID != ""
}
