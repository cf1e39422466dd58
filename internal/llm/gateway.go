// Package llm routes chat requests to a local Ollama-compatible backend when
// one is healthy, falling back to an OpenAI-compatible cloud API otherwise.
package llm

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/personakit/harness/internal/api/ollama"
	"github.com/personakit/harness/internal/api/openai"
	"github.com/personakit/harness/internal/tokens"
)

const (
	healthCheckInterval = 30 * time.Second
	probeTimeout        = 2 * time.Second

	defaultTemperature = 0.7
	defaultMaxTokens   = 1000
)

// preferredModels are tried first, in order, against the local backend's
// discovered model list.
var preferredModels = []string{
	"qwen3-coder",
	"qwen3-coder:latest",
	"qwen3:latest",
	"qwen3:8b",
}

// ErrNoProviderAvailable is returned when neither backend can serve a chat
// request.
var ErrNoProviderAvailable = errors.New("no LLM provider available: configure Ollama or OpenAI")

// localClient is the slice of the Ollama API the gateway uses.
type localClient interface {
	ListTags(ctx context.Context) (*ollama.TagList, error)
	Chat(ctx context.Context, req *ollama.ChatRequest) (*ollama.ChatResponse, error)
}

// cloudClient is the slice of the OpenAI API the gateway uses.
type cloudClient interface {
	CreateChatCompletion(ctx context.Context, req *openai.ChatCompletionRequest) (*openai.ChatCompletionResponse, error)
}

// Config carries the backend settings the gateway needs.
type Config struct {
	OllamaEndpoint string
	// OllamaModel is the operator-preferred local model name.
	OllamaModel string
	OpenAIKey   string
	// OpenAIModel is the default cloud model when the caller supplies none.
	OpenAIModel string
}

// Option configures the gateway.
type Option func(*Gateway)

// WithLocalClient overrides the Ollama client, primarily for tests.
func WithLocalClient(c localClient) Option {
	return func(g *Gateway) { g.local = c }
}

// WithCloudClient overrides the OpenAI client, primarily for tests.
func WithCloudClient(c cloudClient) Option {
	return func(g *Gateway) { g.cloud = c }
}

// Gateway presents one backend-agnostic chat operation over the two backends.
type Gateway struct {
	logger    *slog.Logger
	local     localClient
	cloud     cloudClient
	estimator *tokens.Estimator

	mu              sync.Mutex
	apiKey          string
	configuredModel string
	defaultCloud    string
	ollamaStatus    providerStatus
	openaiStatus    providerStatus
	lastHealthCheck time.Time
}

// New creates a gateway for the configured backends.
func New(cfg Config, logger *slog.Logger, opts ...Option) *Gateway {
	g := &Gateway{
		logger:          logger,
		estimator:       tokens.NewEstimator(),
		apiKey:          cfg.OpenAIKey,
		configuredModel: cfg.OllamaModel,
		defaultCloud:    cfg.OpenAIModel,
		ollamaStatus: providerStatus{
			Name:     "ollama",
			Endpoint: cfg.OllamaEndpoint,
			Model:    cfg.OllamaModel,
		},
		openaiStatus: providerStatus{
			Name:  "openai",
			Model: cfg.OpenAIModel,
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.local == nil {
		g.local = ollama.NewClient(ollama.WithBaseURL(cfg.OllamaEndpoint))
	}
	return g
}

// SetCredential replaces the cloud API key and forces a health re-evaluation
// on the next call. The settings endpoint uses it after persisting a new key.
func (g *Gateway) SetCredential(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.apiKey = key
	g.lastHealthCheck = time.Time{}
}

// ensureProviders refreshes both backend statuses when the cached health
// check has gone stale. Both probes run together; neither blocks past its own
// timeout.
func (g *Gateway) ensureProviders(ctx context.Context) {
	g.mu.Lock()
	stale := g.lastHealthCheck.IsZero() || time.Since(g.lastHealthCheck) > healthCheckInterval
	g.mu.Unlock()
	if !stale {
		return
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		g.checkOllama(ctx)
	}()
	go func() {
		defer wg.Done()
		g.checkOpenAI()
	}()
	wg.Wait()

	g.mu.Lock()
	g.lastHealthCheck = time.Now()
	g.mu.Unlock()
}

// checkOllama probes the local backend's model listing. Any failure is
// reported as unavailable, never as an error to the caller. The local model
// selection is recomputed on every successful probe.
func (g *Gateway) checkOllama(ctx context.Context) probeResult {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	tags, err := g.local.ListTags(probeCtx)
	if err != nil {
		g.mu.Lock()
		g.ollamaStatus.Available = false
		g.ollamaStatus.LastChecked = time.Now()
		g.mu.Unlock()
		return probeResult{Available: false, Err: err}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.ollamaStatus.Available = len(tags.Models) > 0
	g.ollamaStatus.LastChecked = time.Now()

	if len(tags.Models) > 0 {
		g.ollamaStatus.Model = pickModel(tags.Models, g.configuredModel)
	}

	return probeResult{Available: g.ollamaStatus.Available}
}

// pickModel selects the local model: preferred allow-list first, then the
// operator-configured name if discovered, then the first discovered model.
func pickModel(models []ollama.TagModel, configured string) string {
	for _, want := range preferredModels {
		for _, m := range models {
			if m.Name == want {
				return m.Name
			}
		}
	}
	if configured != "" {
		for _, m := range models {
			if m.Name == configured {
				return configured
			}
		}
	}
	return models[0].Name
}

// checkOpenAI is purely local: the cloud backend counts as available whenever
// a credential is configured.
func (g *Gateway) checkOpenAI() probeResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.openaiStatus.Available = strings.TrimSpace(g.apiKey) != ""
	g.openaiStatus.LastChecked = time.Now()
	return probeResult{Available: g.openaiStatus.Available}
}

// Chat routes one chat request. The local backend is preferred; a failure
// there is logged and recovered by falling through to the cloud backend. Only
// the total absence of a usable backend is an error.
func (g *Gateway) Chat(ctx context.Context, messages []Message, opts Options) (*Response, error) {
	g.ensureProviders(ctx)

	g.mu.Lock()
	localAvailable := g.ollamaStatus.Available
	localModel := g.ollamaStatus.Model
	cloudAvailable := g.openaiStatus.Available
	g.mu.Unlock()

	if localAvailable {
		g.logger.Info("attempting ollama chat", slog.String("model", localModel))
		resp, err := g.chatWithOllama(ctx, localModel, messages, opts)
		if err == nil {
			return resp, nil
		}
		g.logger.Warn("ollama chat failed, falling back to openai", slog.String("error", err.Error()))
	}

	if cloudAvailable {
		return g.chatWithOpenAI(ctx, messages, opts)
	}

	return nil, ErrNoProviderAvailable
}

func (g *Gateway) chatWithOllama(ctx context.Context, model string, messages []Message, opts Options) (*Response, error) {
	temperature := opts.Temperature
	if temperature == 0 {
		temperature = defaultTemperature
	}
	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	req := &ollama.ChatRequest{
		Model:    model,
		Messages: make([]ollama.ChatMessage, 0, len(messages)),
		Options: &ollama.ChatOptions{
			Temperature: temperature,
			NumPredict:  maxTokens,
		},
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, ollama.ChatMessage{Role: m.Role, Content: m.Content})
	}

	data, err := g.local.Chat(ctx, req)
	if err != nil {
		return nil, err
	}

	content := data.Content()
	usage := &Usage{
		PromptTokens:     data.PromptEvalCount,
		CompletionTokens: data.EvalCount,
		TotalTokens:      data.PromptEvalCount + data.EvalCount,
	}
	if usage.TotalTokens == 0 {
		usage = g.estimateUsage(model, messages, content)
	}

	return &Response{
		Content:  content,
		Provider: "ollama",
		Model:    model,
		Usage:    usage,
	}, nil
}

func (g *Gateway) chatWithOpenAI(ctx context.Context, messages []Message, opts Options) (*Response, error) {
	g.mu.Lock()
	client := g.cloud
	apiKey := g.apiKey
	model := opts.Model
	if model == "" {
		model = g.defaultCloud
	}
	g.mu.Unlock()

	if client == nil {
		client = openai.NewClient(apiKey)
	}

	temperature := opts.Temperature
	if temperature == 0 {
		temperature = defaultTemperature
	}
	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	g.logger.Info("using openai chat", slog.String("model", model))

	req := &openai.ChatCompletionRequest{
		Model:       model,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(messages)),
		Temperature: &temperature,
		MaxTokens:   maxTokens,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}

	content := ""
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	usage := &Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	if usage.TotalTokens == 0 {
		usage = g.estimateUsage(model, messages, content)
	}

	return &Response{
		Content:  content,
		Provider: "openai",
		Model:    model,
		Usage:    usage,
	}, nil
}

// estimateUsage fills in token counts with the tiktoken estimator when a
// backend reported none.
func (g *Gateway) estimateUsage(model string, messages []Message, completion string) *Usage {
	prompt := 0
	for _, m := range messages {
		prompt += g.estimator.Count(model, m.Content)
	}
	out := g.estimator.Count(model, completion)
	return &Usage{
		PromptTokens:     prompt,
		CompletionTokens: out,
		TotalTokens:      prompt + out,
	}
}

// Status refreshes stale health state and returns a snapshot. Reads are
// idempotent: repeated calls without backend changes return the same report.
func (g *Gateway) Status(ctx context.Context) *StatusReport {
	g.ensureProviders(ctx)

	g.mu.Lock()
	defer g.mu.Unlock()

	primary := "openai"
	if g.ollamaStatus.Available {
		primary = "ollama"
	}

	report := &StatusReport{
		Primary: primary,
		Ollama: OllamaStatus{
			Available: g.ollamaStatus.Available,
			Endpoint:  g.ollamaStatus.Endpoint,
			Model:     g.ollamaStatus.Model,
		},
		OpenAI: OpenAIStatus{
			Available:  g.openaiStatus.Available,
			Configured: strings.TrimSpace(g.apiKey) != "",
			Model:      g.openaiStatus.Model,
		},
	}
	if !g.ollamaStatus.LastChecked.IsZero() {
		checked := g.ollamaStatus.LastChecked
		report.Ollama.LastChecked = &checked
	}
	return report
}
