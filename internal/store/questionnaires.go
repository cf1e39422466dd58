package store

import (
	"path/filepath"
	"sync"
)

// QuestionnaireStore persists questionnaires in questionnaires.json.
type QuestionnaireStore struct {
	mu   sync.Mutex
	path string
}

func NewQuestionnaireStore(dataDir string) *QuestionnaireStore {
	return &QuestionnaireStore{path: filepath.Join(dataDir, "questionnaires.json")}
}

func (s *QuestionnaireStore) List() ([]Questionnaire, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return readList[Questionnaire](s.path)
}

func (s *QuestionnaireStore) GetByID(id string) (Questionnaire, error) {
	questionnaires, err := s.List()
	if err != nil {
		return Questionnaire{}, err
	}
	for _, q := range questionnaires {
		if q.ID == id {
			return q, nil
		}
	}
	return Questionnaire{}, ErrNotFound
}

func (s *QuestionnaireStore) Create(q Questionnaire) (Questionnaire, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	questionnaires, err := readList[Questionnaire](s.path)
	if err != nil {
		return Questionnaire{}, err
	}

	if q.ID == "" {
		q.ID = newID("q_", 0)
	}
	q.CreatedAt = nowStamp()

	questionnaires = append(questionnaires, q)
	if err := writeList(s.path, questionnaires); err != nil {
		return Questionnaire{}, err
	}
	return q, nil
}

// Update merges the non-empty fields of upd. A non-nil Questions slice
// replaces the stored question-id list wholesale.
func (s *QuestionnaireStore) Update(id string, upd Questionnaire) (Questionnaire, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	questionnaires, err := readList[Questionnaire](s.path)
	if err != nil {
		return Questionnaire{}, err
	}

	for i := range questionnaires {
		if questionnaires[i].ID != id {
			continue
		}
		if upd.Name != "" {
			questionnaires[i].Name = upd.Name
		}
		if upd.Questions != nil {
			questionnaires[i].Questions = upd.Questions
		}
		questionnaires[i].UpdatedAt = nowStamp()

		if err := writeList(s.path, questionnaires); err != nil {
			return Questionnaire{}, err
		}
		return questionnaires[i], nil
	}
	return Questionnaire{}, ErrNotFound
}

func (s *QuestionnaireStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	questionnaires, err := readList[Questionnaire](s.path)
	if err != nil {
		return err
	}

	filtered := questionnaires[:0]
	for _, q := range questionnaires {
		if q.ID != id {
			filtered = append(filtered, q)
		}
	}
	if len(filtered) == len(questionnaires) {
		return ErrNotFound
	}
	return writeList(s.path, filtered)
}
