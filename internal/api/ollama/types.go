// Package ollama provides shared types and HTTP client for a local
// Ollama-compatible backend. The client covers the two endpoints the gateway
// needs: model listing for health probes and non-streaming chat.
package ollama

// TagList is the response of GET /api/tags.
type TagList struct {
	Models []TagModel `json:"models"`
}

// TagModel describes one locally installed model.
type TagModel struct {
	Name       string `json:"name"`
	Model      string `json:"model,omitempty"`
	ModifiedAt string `json:"modified_at,omitempty"`
	Size       int64  `json:"size,omitempty"`
	Digest     string `json:"digest,omitempty"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *ChatOptions  `json:"options,omitempty"`
}

// ChatMessage is one turn in a chat exchange.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatOptions maps generation options onto Ollama's native names.
type ChatOptions struct {
	Temperature float32 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// ChatResponse is the non-streaming response of POST /api/chat.
type ChatResponse struct {
	Model     string      `json:"model"`
	CreatedAt string      `json:"created_at,omitempty"`
	Message   ChatMessage `json:"message"`
	// Response is set by the legacy /api/generate shape; kept so older
	// backends still yield content.
	Response        string `json:"response,omitempty"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count,omitempty"`
	EvalCount       int    `json:"eval_count,omitempty"`
}

// Content returns the assistant text regardless of which response shape the
// backend used.
func (r *ChatResponse) Content() string {
	if r.Message.Content != "" {
		return r.Message.Content
	}
	return r.Response
}
