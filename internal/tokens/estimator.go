// Package tokens estimates token usage for chat exchanges when a backend
// does not report its own counts.
package tokens

import (
	"strings"
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

// Estimator counts tokens with tiktoken, caching codecs by encoding.
type Estimator struct {
	mu    sync.Mutex
	cache map[tokenizer.Encoding]tokenizer.Codec
}

// NewEstimator creates a new estimator.
func NewEstimator() *Estimator {
	return &Estimator{cache: make(map[tokenizer.Encoding]tokenizer.Codec)}
}

// modelToEncoding maps a model name onto a tokenizer encoding. Local models
// and anything unrecognized fall back to cl100k_base, which is close enough
// for an estimate.
func modelToEncoding(model string) tokenizer.Encoding {
	model = strings.ToLower(model)
	switch {
	case strings.HasPrefix(model, "gpt-4o"), strings.HasPrefix(model, "gpt-5"),
		strings.HasPrefix(model, "o1"), strings.HasPrefix(model, "o3"), strings.HasPrefix(model, "o4"):
		return tokenizer.O200kBase
	case strings.HasPrefix(model, "gpt-4"), strings.HasPrefix(model, "gpt-3.5"):
		return tokenizer.Cl100kBase
	default:
		return tokenizer.Cl100kBase
	}
}

func (e *Estimator) codec(model string) (tokenizer.Codec, error) {
	encoding := modelToEncoding(model)

	e.mu.Lock()
	defer e.mu.Unlock()
	if codec, ok := e.cache[encoding]; ok {
		return codec, nil
	}

	codec, err := tokenizer.Get(encoding)
	if err != nil {
		return nil, err
	}
	e.cache[encoding] = codec
	return codec, nil
}

// Count returns the token count of one text for the given model. A tokenizer
// failure degrades to the rough chars/4 heuristic rather than erroring.
func (e *Estimator) Count(model, text string) int {
	if text == "" {
		return 0
	}
	codec, err := e.codec(model)
	if err != nil {
		return (len(text) + 3) / 4
	}
	n, err := codec.Count(text)
	if err != nil {
		return (len(text) + 3) / 4
	}
	return n
}

// CountAll sums the token counts of several texts.
func (e *Estimator) CountAll(model string, texts ...string) int {
	total := 0
	for _, t := range texts {
		total += e.Count(model, t)
	}
	return total
}
