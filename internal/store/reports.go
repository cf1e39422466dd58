package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ReportStore persists one JSON report file per experiment id. Files are
// append-only by name: a report is written once and never mutated.
type ReportStore struct {
	mu  sync.Mutex
	dir string
}

func NewReportStore(dir string) *ReportStore {
	return &ReportStore{dir: dir}
}

// ReportSummary is the listing view over report files.
type ReportSummary struct {
	ID                  string `json:"id"`
	Filename            string `json:"filename"`
	Timestamp           string `json:"timestamp"`
	PersonaCount        int    `json:"persona_count"`
	QuestionCount       int    `json:"question_count"`
	TotalResponses      int    `json:"total_responses"`
	SuccessfulResponses int    `json:"successful_responses"`
	Status              string `json:"status"`
}

// reportHeader is the subset of a report file the listing needs.
type reportHeader struct {
	ID                  string            `json:"id"`
	Timestamp           string            `json:"timestamp"`
	Status              string            `json:"status"`
	Personas            []json.RawMessage `json:"personas"`
	Questions           []json.RawMessage `json:"questions"`
	TotalResponses      int               `json:"total_responses"`
	SuccessfulResponses int               `json:"successful_responses"`
}

func (s *ReportStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Write persists a new report. Creating an id that already has a file is an
// error; reports are never overwritten.
func (s *ReportStore) Write(id string, report any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create results directory: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report %s: %w", id, err)
	}

	f, err := os.OpenFile(s.path(id), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create report %s: %w", id, err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write report %s: %w", id, err)
	}
	return nil
}

// Read unmarshals the report for id into v. Returns ErrNotFound when no file
// exists.
func (s *ReportStore) Read(id string, v any) error {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to read report %s: %w", id, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse report %s: %w", id, err)
	}
	return nil
}

// List returns summaries of every report file, newest first. Unreadable files
// are skipped rather than failing the whole listing.
func (s *ReportStore) List() ([]ReportSummary, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create results directory: %w", err)
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read results directory: %w", err)
	}

	summaries := []ReportSummary{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		var hdr reportHeader
		if err := json.Unmarshal(data, &hdr); err != nil {
			continue
		}
		summaries = append(summaries, ReportSummary{
			ID:                  hdr.ID,
			Filename:            entry.Name(),
			Timestamp:           hdr.Timestamp,
			PersonaCount:        len(hdr.Personas),
			QuestionCount:       len(hdr.Questions),
			TotalResponses:      hdr.TotalResponses,
			SuccessfulResponses: hdr.SuccessfulResponses,
			Status:              hdr.Status,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Timestamp > summaries[j].Timestamp
	})
	return summaries, nil
}

func (s *ReportStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete report %s: %w", id, err)
	}
	return nil
}
