package store

import (
	"path/filepath"
	"sync"
)

// PersonaStore persists the persona collection in personas.json.
type PersonaStore struct {
	mu   sync.Mutex
	path string
}

func NewPersonaStore(dataDir string) *PersonaStore {
	return &PersonaStore{path: filepath.Join(dataDir, "personas.json")}
}

func (s *PersonaStore) List() ([]Persona, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return readList[Persona](s.path)
}

func (s *PersonaStore) Get(id string) (Persona, error) {
	personas, err := s.List()
	if err != nil {
		return Persona{}, err
	}
	for _, p := range personas {
		if p.ID == id {
			return p, nil
		}
	}
	return Persona{}, ErrNotFound
}

// Create assigns an id and creation time, then appends the persona.
func (s *PersonaStore) Create(p Persona) (Persona, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	personas, err := readList[Persona](s.path)
	if err != nil {
		return Persona{}, err
	}

	if p.ID == "" {
		p.ID = newID("persona_", 0)
	}
	p.CreatedAt = nowStamp()

	personas = append(personas, p)
	if err := writeList(s.path, personas); err != nil {
		return Persona{}, err
	}
	return p, nil
}

// Update merges the non-empty fields of upd into the stored persona.
func (s *PersonaStore) Update(id string, upd Persona) (Persona, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	personas, err := readList[Persona](s.path)
	if err != nil {
		return Persona{}, err
	}

	for i := range personas {
		if personas[i].ID != id {
			continue
		}
		if upd.Name != "" {
			personas[i].Name = upd.Name
		}
		if upd.Description != "" {
			personas[i].Description = upd.Description
		}
		if upd.BehavioralProfile != "" {
			personas[i].BehavioralProfile = upd.BehavioralProfile
		}
		personas[i].UpdatedAt = nowStamp()

		if err := writeList(s.path, personas); err != nil {
			return Persona{}, err
		}
		return personas[i], nil
	}
	return Persona{}, ErrNotFound
}

func (s *PersonaStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	personas, err := readList[Persona](s.path)
	if err != nil {
		return err
	}

	filtered := personas[:0]
	for _, p := range personas {
		if p.ID != id {
			filtered = append(filtered, p)
		}
	}
	if len(filtered) == len(personas) {
		return ErrNotFound
	}
	return writeList(s.path, filtered)
}
