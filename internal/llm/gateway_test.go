package llm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/personakit/harness/internal/api/ollama"
	"github.com/personakit/harness/internal/api/openai"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubLocal struct {
	tags     *ollama.TagList
	tagsErr  error
	chatResp *ollama.ChatResponse
	chatErr  error

	tagCalls  int
	chatCalls int
	lastChat  *ollama.ChatRequest
}

func (s *stubLocal) ListTags(ctx context.Context) (*ollama.TagList, error) {
	s.tagCalls++
	if s.tagsErr != nil {
		return nil, s.tagsErr
	}
	return s.tags, nil
}

func (s *stubLocal) Chat(ctx context.Context, req *ollama.ChatRequest) (*ollama.ChatResponse, error) {
	s.chatCalls++
	s.lastChat = req
	if s.chatErr != nil {
		return nil, s.chatErr
	}
	return s.chatResp, nil
}

type stubCloud struct {
	resp    *openai.ChatCompletionResponse
	err     error
	calls   int
	lastReq *openai.ChatCompletionRequest
}

func (s *stubCloud) CreateChatCompletion(ctx context.Context, req *openai.ChatCompletionRequest) (*openai.ChatCompletionResponse, error) {
	s.calls++
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func cloudOK(content string) *openai.ChatCompletionResponse {
	return &openai.ChatCompletionResponse{
		Model: "gpt-4o-mini",
		Choices: []openai.Choice{{
			Message:      openai.ChatCompletionMessage{Role: "assistant", Content: content},
			FinishReason: "stop",
		}},
		Usage: openai.Usage{PromptTokens: 10, CompletionTokens: 4, TotalTokens: 14},
	}
}

func newTestGateway(local *stubLocal, cloud *stubCloud, apiKey string) *Gateway {
	return New(Config{
		OllamaEndpoint: "http://localhost:11434",
		OllamaModel:    "qwen3-coder",
		OpenAIKey:      apiKey,
		OpenAIModel:    "gpt-4o-mini",
	}, testLogger(), WithLocalClient(local), WithCloudClient(cloud))
}

func TestChatPrefersOllama(t *testing.T) {
	local := &stubLocal{
		tags: &ollama.TagList{Models: []ollama.TagModel{{Name: "qwen3-coder:latest"}}},
		chatResp: &ollama.ChatResponse{
			Message:         ollama.ChatMessage{Role: "assistant", Content: "local answer"},
			Done:            true,
			PromptEvalCount: 7,
			EvalCount:       3,
		},
	}
	cloud := &stubCloud{resp: cloudOK("cloud answer")}
	g := newTestGateway(local, cloud, "sk-test")

	resp, err := g.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}}, Options{Model: "gpt-4o-mini"})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if resp.Provider != "ollama" {
		t.Errorf("provider = %s, want ollama", resp.Provider)
	}
	if resp.Content != "local answer" {
		t.Errorf("content = %q", resp.Content)
	}
	// The caller-supplied cloud model name must not reach the local backend.
	if local.lastChat.Model != "qwen3-coder:latest" {
		t.Errorf("local model = %s, want qwen3-coder:latest", local.lastChat.Model)
	}
	if cloud.calls != 0 {
		t.Errorf("cloud calls = %d, want 0", cloud.calls)
	}
	if resp.Usage == nil || resp.Usage.TotalTokens != 10 {
		t.Errorf("usage = %+v, want total 10", resp.Usage)
	}
}

func TestChatFallsBackWhenProbeFails(t *testing.T) {
	local := &stubLocal{tagsErr: errors.New("connection refused")}
	cloud := &stubCloud{resp: cloudOK("cloud answer")}
	g := newTestGateway(local, cloud, "sk-test")

	st := g.Status(context.Background())
	if st.Primary != "openai" {
		t.Errorf("primary = %s, want openai", st.Primary)
	}
	if st.Ollama.Available {
		t.Error("ollama should be unavailable after failed probe")
	}

	resp, err := g.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}}, Options{})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if resp.Provider != "openai" {
		t.Errorf("provider = %s, want openai", resp.Provider)
	}
	if local.chatCalls != 0 {
		t.Errorf("local chat calls = %d, want 0", local.chatCalls)
	}
}

func TestChatFallsBackWhenLocalChatFails(t *testing.T) {
	local := &stubLocal{
		tags:    &ollama.TagList{Models: []ollama.TagModel{{Name: "qwen3-coder:latest"}}},
		chatErr: errors.New("ollama request failed: 500 Internal Server Error - out of memory"),
	}
	cloud := &stubCloud{resp: cloudOK("cloud answer")}
	g := newTestGateway(local, cloud, "sk-test")

	resp, err := g.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}}, Options{Model: "gpt-4o-mini"})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if resp.Provider != "openai" {
		t.Errorf("provider = %s, want openai", resp.Provider)
	}
	if local.chatCalls != 1 {
		t.Errorf("local chat calls = %d, want 1", local.chatCalls)
	}
	// The cloud path honors the caller-supplied model.
	if cloud.lastReq.Model != "gpt-4o-mini" {
		t.Errorf("cloud model = %s", cloud.lastReq.Model)
	}
}

func TestChatNoProviderAvailable(t *testing.T) {
	local := &stubLocal{tagsErr: errors.New("connection refused")}
	cloud := &stubCloud{}
	g := newTestGateway(local, cloud, "   ")

	_, err := g.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}}, Options{})
	if !errors.Is(err, ErrNoProviderAvailable) {
		t.Fatalf("error = %v, want ErrNoProviderAvailable", err)
	}
	if cloud.calls != 0 {
		t.Errorf("cloud calls = %d, want 0", cloud.calls)
	}
}

func TestHealthCheckCaching(t *testing.T) {
	local := &stubLocal{tags: &ollama.TagList{Models: []ollama.TagModel{{Name: "llama3:8b"}}}}
	g := newTestGateway(local, &stubCloud{}, "sk-test")

	first := g.Status(context.Background())
	second := g.Status(context.Background())

	if local.tagCalls != 1 {
		t.Errorf("probe calls = %d, want 1 (cached for 30s)", local.tagCalls)
	}
	if first.Primary != second.Primary || first.Ollama.Model != second.Ollama.Model {
		t.Errorf("status reads not idempotent: %+v vs %+v", first, second)
	}
}

func TestProbeResultTyped(t *testing.T) {
	local := &stubLocal{tagsErr: errors.New("dial tcp: connection refused")}
	g := newTestGateway(local, &stubCloud{}, "")

	res := g.checkOllama(context.Background())
	if res.Available {
		t.Error("probe should be unavailable")
	}
	if res.Err == nil {
		t.Error("probe result should carry the failure reason")
	}
}

func TestPickModel(t *testing.T) {
	tests := []struct {
		name       string
		models     []string
		configured string
		want       string
	}{
		{"preferred wins", []string{"llama3:8b", "qwen3-coder:latest"}, "llama3:8b", "qwen3-coder:latest"},
		{"preferred order respected", []string{"qwen3:8b", "qwen3:latest"}, "", "qwen3:latest"},
		{"configured when discovered", []string{"llama3:8b", "mistral:7b"}, "mistral:7b", "mistral:7b"},
		{"first as last resort", []string{"llama3:8b", "mistral:7b"}, "phi3", "llama3:8b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			models := make([]ollama.TagModel, 0, len(tt.models))
			for _, m := range tt.models {
				models = append(models, ollama.TagModel{Name: m})
			}
			if got := pickModel(models, tt.configured); got != tt.want {
				t.Errorf("pickModel() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestModelSelectionNotSticky(t *testing.T) {
	local := &stubLocal{tags: &ollama.TagList{Models: []ollama.TagModel{{Name: "qwen3:8b"}}}}
	g := newTestGateway(local, &stubCloud{}, "")

	g.checkOllama(context.Background())
	g.mu.Lock()
	first := g.ollamaStatus.Model
	g.mu.Unlock()
	if first != "qwen3:8b" {
		t.Fatalf("model = %s, want qwen3:8b", first)
	}

	// A higher-preference model appearing on the next probe replaces the pick.
	local.tags = &ollama.TagList{Models: []ollama.TagModel{{Name: "qwen3:8b"}, {Name: "qwen3-coder"}}}
	g.checkOllama(context.Background())
	g.mu.Lock()
	second := g.ollamaStatus.Model
	g.mu.Unlock()
	if second != "qwen3-coder" {
		t.Errorf("model = %s, want qwen3-coder", second)
	}
}

func TestSetCredentialForcesRecheck(t *testing.T) {
	local := &stubLocal{tagsErr: errors.New("connection refused")}
	g := newTestGateway(local, &stubCloud{resp: cloudOK("ok")}, "")

	if st := g.Status(context.Background()); st.OpenAI.Available {
		t.Fatal("openai should be unavailable without a key")
	}

	g.SetCredential("sk-new")

	st := g.Status(context.Background())
	if !st.OpenAI.Available || !st.OpenAI.Configured {
		t.Errorf("openai should be available after SetCredential: %+v", st.OpenAI)
	}
	if local.tagCalls != 2 {
		t.Errorf("probe calls = %d, want 2 (credential change resets the cache)", local.tagCalls)
	}
}

func TestUsageEstimatedWhenBackendOmitsIt(t *testing.T) {
	local := &stubLocal{
		tags: &ollama.TagList{Models: []ollama.TagModel{{Name: "qwen3-coder"}}},
		chatResp: &ollama.ChatResponse{
			Message: ollama.ChatMessage{Role: "assistant", Content: "estimated answer"},
			Done:    true,
		},
	}
	g := newTestGateway(local, &stubCloud{}, "")

	resp, err := g.Chat(context.Background(), []Message{{Role: "user", Content: "how big is this prompt?"}}, Options{})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if resp.Usage == nil || resp.Usage.TotalTokens == 0 {
		t.Errorf("usage should be estimated, got %+v", resp.Usage)
	}
}
