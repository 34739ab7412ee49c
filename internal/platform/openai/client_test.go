package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yungbote/fitprint-backend/internal/platform/logger"
)

type capturedRequest struct {
	Model    string            `json:"model"`
	Messages []json.RawMessage `json:"messages"`
}

func newTestServer(t *testing.T, content string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path: want=/v1/chat/completions got=%s", r.URL.Path)
		}
		if captured != nil {
			_ = json.NewDecoder(r.Body).Decode(captured)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 3, "completion_tokens": 4, "total_tokens": 7},
		})
	}))
}

func TestGenerateText(t *testing.T) {
	var captured capturedRequest
	srv := newTestServer(t, `{"ok":true}`, &captured)
	defer srv.Close()

	c, err := NewClient(logger.Nop(), Config{APIKey: "k", BaseURL: srv.URL + "/v1", Model: "gpt-4o-mini"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	out, err := c.GenerateText(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if out != `{"ok":true}` {
		t.Fatalf("content: got=%q", out)
	}
	if captured.Model != "gpt-4o-mini" || len(captured.Messages) != 2 {
		t.Fatalf("request: model=%q messages=%d", captured.Model, len(captured.Messages))
	}
}

func TestGenerateTextWithImagesUsesVisionModel(t *testing.T) {
	var captured capturedRequest
	srv := newTestServer(t, "brand", &captured)
	defer srv.Close()

	c, err := NewClient(logger.Nop(), Config{APIKey: "k", BaseURL: srv.URL + "/v1", Model: "text", VisionModel: "vision"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = c.GenerateTextWithImages(context.Background(), "", "who made this?", []ImageInput{{ImageURL: "https://img/a.jpg", Detail: "low"}})
	if err != nil {
		t.Fatalf("GenerateTextWithImages: %v", err)
	}
	if captured.Model != "vision" {
		t.Fatalf("model: want=vision got=%q", captured.Model)
	}
	if len(captured.Messages) != 1 {
		t.Fatalf("messages: want=1 got=%d", len(captured.Messages))
	}
}

func TestGenerateTextEmptyCompletion(t *testing.T) {
	srv := newTestServer(t, "   ", nil)
	defer srv.Close()

	c, err := NewClient(logger.Nop(), Config{APIKey: "k", BaseURL: srv.URL + "/v1"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := c.GenerateText(context.Background(), "", "hi"); !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("want ErrEmptyCompletion got=%v", err)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(logger.Nop(), Config{}); err == nil {
		t.Fatalf("expected error without api key")
	}
}
