package llm

import "time"

// Message is one turn of a chat exchange with either backend.
type Message struct {
	Role    string `json:"role"` // system, user or assistant
	Content string `json:"content"`
}

// Options are the caller-supplied generation options.
//
// Model is honored only on the OpenAI path. The Ollama path always uses the
// model the gateway discovered on the local backend, because a cloud-style
// model identifier would be rejected there. This asymmetry is part of the
// contract, not an oversight.
type Options struct {
	Model       string  `json:"model,omitempty"`
	Temperature float32 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

// Usage is the normalized token-count breakdown.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a completed chat call, tagged with the backend that served it.
type Response struct {
	Content  string `json:"content"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Usage    *Usage `json:"usage,omitempty"`
}

// providerStatus is the mutable per-backend health record.
type providerStatus struct {
	Name        string
	Available   bool
	Endpoint    string
	Model       string
	LastChecked time.Time
}

// probeResult is the typed outcome of a health probe. Probe failures never
// propagate; they become Available=false with the reason kept for assertion
// and logging.
type probeResult struct {
	Available bool
	Err       error
}

// OllamaStatus is the local backend part of a status snapshot.
type OllamaStatus struct {
	Available   bool       `json:"available"`
	Endpoint    string     `json:"endpoint,omitempty"`
	Model       string     `json:"model,omitempty"`
	LastChecked *time.Time `json:"lastChecked,omitempty"`
}

// OpenAIStatus is the cloud backend part of a status snapshot.
type OpenAIStatus struct {
	Available  bool   `json:"available"`
	Configured bool   `json:"configured"`
	Model      string `json:"model,omitempty"`
}

// StatusReport is the point-in-time snapshot returned by Status.
type StatusReport struct {
	Primary string       `json:"primary"`
	Ollama  OllamaStatus `json:"ollama"`
	OpenAI  OpenAIStatus `json:"openai"`
}
