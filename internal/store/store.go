// Package store persists personas, questions, questionnaires and experiment
// reports as flat JSON files on local disk. Writes are last-writer-wins; each
// store serializes its own read-modify-write cycles with a mutex but no
// cross-process coordination is attempted.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an entity id does not exist.
var ErrNotFound = errors.New("not found")

// Persona is a role description handed to the LLM as a system prompt.
type Persona struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	BehavioralProfile string `json:"behavioral_profile,omitempty"`
	CreatedAt         string `json:"createdAt,omitempty"`
	UpdatedAt         string `json:"updated_at,omitempty"`
}

// Question is one entry of the question bank. Text and LegacyText mirror each
// other: older data files used "question" as the field name.
type Question struct {
	ID         string `json:"id"`
	Text       string `json:"text,omitempty"`
	LegacyText string `json:"question,omitempty"`
	Category   string `json:"category,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
	UpdatedAt  string `json:"updated_at,omitempty"`
}

// TextValue returns the question text regardless of which field carries it.
func (q Question) TextValue() string {
	if q.Text != "" {
		return q.Text
	}
	return q.LegacyText
}

// Questionnaire is an ordered selection of question ids.
type Questionnaire struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Questions []string `json:"questions"`
	CreatedAt string   `json:"createdAt,omitempty"`
	UpdatedAt string   `json:"updated_at,omitempty"`
}

// readList loads a JSON array file. A missing file reads as an empty list.
func readList[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return items, nil
}

// writeList persists a JSON array file, creating the parent directory when
// needed. Output is pretty-printed to keep the files hand-editable.
func writeList[T any](path string, items []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// newID builds a time-based id with a short random suffix. Collisions within
// one process run are what matters here, not global uniqueness.
func newID(prefix string, randLen int) string {
	id := fmt.Sprintf("%s%d", prefix, time.Now().UnixMilli())
	if randLen > 0 {
		suffix := strings.ReplaceAll(uuid.NewString(), "-", "")
		id += "_" + suffix[:randLen]
	}
	return id
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
