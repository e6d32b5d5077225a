package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/notesync/api/internal/blocks"
	"github.com/notesync/api/internal/config"
)

func newTestNotionClient(t *testing.T, handler http.HandlerFunc) (*NotionClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewNotionClient(&config.NotionConfig{
		APIKey:     "secret",
		DatabaseID: "db-1",
		BaseURL:    server.URL,
		Version:    "2022-06-28",
	}), server
}

func TestCreatePageRendersBlocksInOrder(t *testing.T) {
	var captured map[string]interface{}
	c, _ := newTestNotionClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pages" {
			t.Errorf("path = %s, want /pages", r.URL.Path)
		}
		if got := r.Header.Get("Notion-Version"); got != "2022-06-28" {
			t.Errorf("Notion-Version = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Fatalf("invalid request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"page-1","url":"https://notion.so/page-1"}`))
	})

	content := []blocks.Block{
		blocks.Heading(1, "회의 요약"),
		blocks.Paragraph("개요"),
		blocks.Bullet("주제"),
		blocks.Checkbox("보고서 작성", true),
	}

	url, err := c.CreatePage(context.Background(), "Weekly Sync", content)
	if err != nil {
		t.Fatalf("CreatePage failed: %v", err)
	}
	if url != "https://notion.so/page-1" {
		t.Errorf("url = %q", url)
	}

	children, ok := captured["children"].([]interface{})
	if !ok || len(children) != 4 {
		t.Fatalf("children = %v, want 4 blocks", captured["children"])
	}

	wantTypes := []string{"heading_1", "paragraph", "bulleted_list_item", "to_do"}
	for i, child := range children {
		block := child.(map[string]interface{})
		if block["type"] != wantTypes[i] {
			t.Errorf("block %d type = %v, want %s", i, block["type"], wantTypes[i])
		}
	}

	todo := children[3].(map[string]interface{})["to_do"].(map[string]interface{})
	if todo["checked"] != true {
		t.Errorf("to_do checked = %v, want true", todo["checked"])
	}
}

func TestCreatePageTruncatesBlockText(t *testing.T) {
	var captured map[string]interface{}
	c, _ := newTestNotionClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &captured)
		w.Write([]byte(`{"id":"p","url":"https://notion.so/p"}`))
	})

	long := strings.Repeat("x", blocks.MaxTextLength+100)
	_, err := c.CreatePage(context.Background(), "t", []blocks.Block{blocks.Paragraph(long)})
	if err != nil {
		t.Fatalf("CreatePage failed: %v", err)
	}

	para := captured["children"].([]interface{})[0].(map[string]interface{})["paragraph"].(map[string]interface{})
	richText := para["rich_text"].([]interface{})[0].(map[string]interface{})
	text := richText["text"].(map[string]interface{})["content"].(string)
	if len([]rune(text)) != blocks.MaxTextLength {
		t.Errorf("content length = %d, want %d", len([]rune(text)), blocks.MaxTextLength)
	}
}

func TestCreatePageAPIError(t *testing.T) {
	c, _ := newTestNotionClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"database not found"}`))
	})

	_, err := c.CreatePage(context.Background(), "t", []blocks.Block{blocks.Paragraph("p")})
	if err == nil {
		t.Fatalf("expected error on API failure")
	}
	if !strings.Contains(err.Error(), "status 400") {
		t.Errorf("error = %v, want status in message", err)
	}
}

func TestNotionClientIsConfigured(t *testing.T) {
	c := NewNotionClient(&config.NotionConfig{})
	if c.IsConfigured() {
		t.Errorf("empty config must not be configured")
	}
	c = NewNotionClient(&config.NotionConfig{APIKey: "k", DatabaseID: "db"})
	if !c.IsConfigured() {
		t.Errorf("api key + database id must be configured")
	}
}
