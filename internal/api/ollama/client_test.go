package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestListTags(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/tags" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(TagList{Models: []TagModel{
			{Name: "qwen3-coder:latest"},
			{Name: "llama3:8b"},
		}})
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	tags, err := c.ListTags(context.Background())
	if err != nil {
		t.Fatalf("ListTags() error = %v", err)
	}
	if len(tags.Models) != 2 {
		t.Fatalf("models = %d, want 2", len(tags.Models))
	}
	if tags.Models[0].Name != "qwen3-coder:latest" {
		t.Errorf("first model = %s", tags.Models[0].Name)
	}
}

func TestListTagsNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	if _, err := c.ListTags(context.Background()); err == nil {
		t.Fatal("expected error for 503 response")
	}
}

func TestChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("stream must be disabled")
		}
		if req.Options == nil || req.Options.NumPredict != 1000 {
			t.Errorf("options = %+v", req.Options)
		}
		json.NewEncoder(w).Encode(ChatResponse{
			Model:           req.Model,
			Message:         ChatMessage{Role: "assistant", Content: "hi there"},
			Done:            true,
			PromptEvalCount: 12,
			EvalCount:       5,
		})
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	resp, err := c.Chat(context.Background(), &ChatRequest{
		Model:    "qwen3-coder:latest",
		Messages: []ChatMessage{{Role: "user", Content: "hello"}},
		Stream:   true, // client must force this off
		Options:  &ChatOptions{Temperature: 0.7, NumPredict: 1000},
	})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if resp.Content() != "hi there" {
		t.Errorf("content = %q", resp.Content())
	}
	if resp.PromptEvalCount != 12 || resp.EvalCount != 5 {
		t.Errorf("usage = %d/%d", resp.PromptEvalCount, resp.EvalCount)
	}
}

func TestChatErrorKeepsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	_, err := c.Chat(context.Background(), &ChatRequest{Model: "nope"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "model not found") {
		t.Errorf("error should carry the backend body, got %v", err)
	}
}

func TestChatResponseLegacyContent(t *testing.T) {
	r := &ChatResponse{Response: "legacy"}
	if r.Content() != "legacy" {
		t.Errorf("content = %q, want legacy", r.Content())
	}
}
