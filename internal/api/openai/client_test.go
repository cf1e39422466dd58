package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateChatCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}
		var req ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "gpt-4o-mini" {
			t.Errorf("model = %s", req.Model)
		}
		json.NewEncoder(w).Encode(ChatCompletionResponse{
			Model: req.Model,
			Choices: []Choice{{
				Message:      ChatCompletionMessage{Role: "assistant", Content: "pong"},
				FinishReason: "stop",
			}},
			Usage: Usage{PromptTokens: 3, CompletionTokens: 1, TotalTokens: 4},
		})
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := c.CreateChatCompletion(context.Background(), &ChatCompletionRequest{
		Model:    "gpt-4o-mini",
		Messages: []ChatCompletionMessage{{Role: "user", Content: "ping"}},
	})
	if err != nil {
		t.Fatalf("CreateChatCompletion() error = %v", err)
	}
	if len(resp.Choices) != 1 || resp.Choices[0].Message.Content != "pong" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.Usage.TotalTokens != 4 {
		t.Errorf("total tokens = %d, want 4", resp.Usage.TotalTokens)
	}
}

func TestCreateChatCompletionAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(ErrorResponse{Error: &APIError{
			Message: "Incorrect API key provided",
			Type:    "invalid_request_error",
			Code:    "invalid_api_key",
		}})
	}))
	defer srv.Close()

	c := NewClient("bad-key", WithBaseURL(srv.URL))
	_, err := c.CreateChatCompletion(context.Background(), &ChatCompletionRequest{Model: "gpt-4o-mini"})
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *APIError", err)
	}
	if apiErr.Code != "invalid_api_key" {
		t.Errorf("code = %s", apiErr.Code)
	}
}
