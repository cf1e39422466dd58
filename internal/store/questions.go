package store

import (
	"errors"
	"path/filepath"
	"sync"
)

// ErrQuestionTextRequired rejects questions created without any text.
var ErrQuestionTextRequired = errors.New("question text is required")

// QuestionStore persists the question bank in questions.json.
type QuestionStore struct {
	mu   sync.Mutex
	path string
}

func NewQuestionStore(dataDir string) *QuestionStore {
	return &QuestionStore{path: filepath.Join(dataDir, "questions.json")}
}

func (s *QuestionStore) List() ([]Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return readList[Question](s.path)
}

func (s *QuestionStore) Get(id string) (Question, error) {
	questions, err := s.List()
	if err != nil {
		return Question{}, err
	}
	for _, q := range questions {
		if q.ID == id {
			return q, nil
		}
	}
	return Question{}, ErrNotFound
}

// Create appends a question. Text is mirrored into both the current and the
// legacy field so older data files and clients keep working.
func (s *QuestionStore) Create(q Question) (Question, error) {
	text := q.TextValue()
	if text == "" {
		return Question{}, ErrQuestionTextRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	questions, err := readList[Question](s.path)
	if err != nil {
		return Question{}, err
	}

	if q.ID == "" {
		q.ID = newID("q", 5)
	}
	q.Text = text
	q.LegacyText = text
	q.CreatedAt = nowStamp()

	questions = append(questions, q)
	if err := writeList(s.path, questions); err != nil {
		return Question{}, err
	}
	return q, nil
}

// Update merges the non-empty fields of upd into the stored question.
func (s *QuestionStore) Update(id string, upd Question) (Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	questions, err := readList[Question](s.path)
	if err != nil {
		return Question{}, err
	}

	for i := range questions {
		if questions[i].ID != id {
			continue
		}
		if text := upd.TextValue(); text != "" {
			questions[i].Text = text
			questions[i].LegacyText = text
		}
		if upd.Category != "" {
			questions[i].Category = upd.Category
		}
		questions[i].UpdatedAt = nowStamp()

		if err := writeList(s.path, questions); err != nil {
			return Question{}, err
		}
		return questions[i], nil
	}
	return Question{}, ErrNotFound
}

func (s *QuestionStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	questions, err := readList[Question](s.path)
	if err != nil {
		return err
	}

	filtered := questions[:0]
	for _, q := range questions {
		if q.ID != id {
			filtered = append(filtered, q)
		}
	}
	if len(filtered) == len(questions) {
		return ErrNotFound
	}
	return writeList(s.path, filtered)
}
