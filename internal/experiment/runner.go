// Package experiment drives batches of persona-times-question chat calls
// through the LLM gateway, tracks live progress in memory and persists one
// JSON report per finished experiment.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/personakit/harness/internal/llm"
	"github.com/personakit/harness/internal/store"
)

const (
	questionTemperature = 0.7
	questionMaxTokens   = 1000
)

// Start validation failures, reported synchronously before any background
// work begins.
var (
	ErrNoPersonaIDs          = errors.New("missing required parameters: personaIds")
	ErrMissingQuestionnaire  = errors.New("missing required parameters: questionnaireId")
	ErrQuestionnaireNotFound = errors.New("questionnaire not found")
	ErrNoValidPersonas       = errors.New("no valid personas found")
	ErrExperimentNotFound    = errors.New("experiment not found")
)

// Chatter is the slice of the gateway the runner uses.
type Chatter interface {
	Chat(ctx context.Context, messages []llm.Message, opts llm.Options) (*llm.Response, error)
}

// PersonaLister lists the full persona collection.
type PersonaLister interface {
	List() ([]store.Persona, error)
}

// QuestionLister lists the full question bank.
type QuestionLister interface {
	List() ([]store.Question, error)
}

// QuestionnaireGetter resolves a questionnaire by id.
type QuestionnaireGetter interface {
	GetByID(id string) (store.Questionnaire, error)
}

// ReportStore persists and reloads finished reports.
type ReportStore interface {
	Write(id string, report any) error
	Read(id string, v any) error
}

// Runner owns the in-memory map of experiment records. The map is created
// with the runner at process start, never persisted, and lost on restart;
// polling an id started by another process falls through to the report file.
type Runner struct {
	personas       PersonaLister
	questions      QuestionLister
	questionnaires QuestionnaireGetter
	reports        ReportStore
	gateway        Chatter
	logger         *slog.Logger
	defaultModel   string

	mu      sync.Mutex
	running map[string]*Running
	// tasks retains one handle per background run so a cancellation feature
	// has something to hook into later. Today they only signal completion.
	tasks map[string]chan struct{}
}

// New creates a runner. defaultModel is used when a start request supplies no
// model.
func New(personas PersonaLister, questions QuestionLister, questionnaires QuestionnaireGetter,
	reports ReportStore, gateway Chatter, logger *slog.Logger, defaultModel string) *Runner {
	if defaultModel == "" {
		defaultModel = "gpt-4o-mini"
	}
	return &Runner{
		personas:       personas,
		questions:      questions,
		questionnaires: questionnaires,
		reports:        reports,
		gateway:        gateway,
		logger:         logger,
		defaultModel:   defaultModel,
		running:        make(map[string]*Running),
		tasks:          make(map[string]chan struct{}),
	}
}

// Start validates the request, registers a running record and launches the
// background task. It returns as soon as the record exists; everything after
// that is observable only through Status.
func (r *Runner) Start(ctx context.Context, req StartRequest) (*StartResponse, error) {
	if len(req.PersonaIDs) == 0 {
		return nil, ErrNoPersonaIDs
	}
	if strings.TrimSpace(req.QuestionnaireID) == "" {
		return nil, ErrMissingQuestionnaire
	}

	questionnaire, err := r.questionnaires.GetByID(req.QuestionnaireID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrQuestionnaireNotFound
		}
		return nil, fmt.Errorf("failed to load questionnaire: %w", err)
	}

	allPersonas, err := r.personas.List()
	if err != nil {
		return nil, fmt.Errorf("failed to load personas: %w", err)
	}

	wanted := make(map[string]bool, len(req.PersonaIDs))
	for _, id := range req.PersonaIDs {
		wanted[id] = true
	}
	personas := make([]store.Persona, 0, len(req.PersonaIDs))
	for _, p := range allPersonas {
		if wanted[p.ID] {
			personas = append(personas, p)
		}
	}
	// Only total emptiness is rejected; a partial match runs with whatever
	// resolved.
	if len(personas) == 0 {
		return nil, ErrNoValidPersonas
	}

	questions, err := r.resolveQuestions(questionnaire)
	if err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = r.defaultModel
	}

	id := fmt.Sprintf("exp_%d_%s", time.Now().UnixMilli(), strings.ReplaceAll(uuid.NewString(), "-", "")[:9])

	rec := &Running{
		ID:             id,
		Status:         StatusRunning,
		StartTime:      time.Now().UTC().Format(time.RFC3339),
		TotalPersonas:  len(personas),
		TotalQuestions: len(questions),
		Results:        []Result{},
	}
	done := make(chan struct{})

	r.mu.Lock()
	r.running[id] = rec
	r.tasks[id] = done
	r.mu.Unlock()

	go func() {
		defer close(done)
		r.run(id, personas, questionnaire, questions, model)
	}()

	r.logger.Info("experiment started",
		slog.String("experiment_id", id),
		slog.Int("personas", len(personas)),
		slog.Int("questions", len(questions)),
	)

	return &StartResponse{
		ExperimentID:   id,
		TotalPersonas:  len(personas),
		TotalQuestions: len(questions),
	}, nil
}

// resolveQuestions maps the questionnaire's ordered id list onto the question
// bank. Ids with no match become placeholders so the resolved count always
// equals the declared count.
func (r *Runner) resolveQuestions(questionnaire store.Questionnaire) ([]store.Question, error) {
	all, err := r.questions.List()
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}

	byID := make(map[string]store.Question, len(all))
	for _, q := range all {
		byID[q.ID] = q
	}

	resolved := make([]store.Question, 0, len(questionnaire.Questions))
	for _, qid := range questionnaire.Questions {
		if q, ok := byID[qid]; ok {
			resolved = append(resolved, q)
			continue
		}
		resolved = append(resolved, store.Question{ID: qid, LegacyText: placeholderText})
	}
	return resolved, nil
}

// run is the detached background task: persona-major, question-minor,
// strictly sequential.
func (r *Runner) run(id string, personas []store.Persona, questionnaire store.Questionnaire,
	questions []store.Question, model string) {
	allResults := make([]Result, 0, len(personas)*len(questions))

	for i, persona := range personas {
		r.mu.Lock()
		if rec, ok := r.running[id]; ok {
			rec.CurrentPersona = i + 1
			rec.CurrentPersonaName = persona.Name
		}
		r.mu.Unlock()

		allResults = append(allResults, r.testPersona(persona, questions, model)...)
	}

	successful := 0
	for _, res := range allResults {
		if res.Error == "" {
			successful++
		}
	}

	personaRefs := make([]PersonaRef, 0, len(personas))
	for _, p := range personas {
		personaRefs = append(personaRefs, PersonaRef{ID: p.ID, Name: p.Name})
	}

	report := &Report{
		ID:                  id,
		Timestamp:           time.Now().UTC().Format(time.RFC3339),
		Status:              StatusCompleted,
		Personas:            personaRefs,
		Questionnaire:       QuestionnaireRef{ID: questionnaire.ID, Name: questionnaire.Name},
		Questions:           questions,
		Model:               model,
		TotalResponses:      len(allResults),
		SuccessfulResponses: successful,
		Results:             allResults,
	}

	endTime := time.Now().UTC().Format(time.RFC3339)

	if err := r.reports.Write(id, report); err != nil {
		// A run with gathered results but no durable report is marked as
		// errored rather than silently completed-in-memory-only.
		r.logger.Error("failed to persist experiment report",
			slog.String("experiment_id", id),
			slog.String("error", err.Error()),
		)
		r.mu.Lock()
		if rec, ok := r.running[id]; ok {
			rec.Status = StatusError
			rec.Error = fmt.Sprintf("failed to persist report: %v", err)
			rec.EndTime = endTime
			rec.Results = allResults
		}
		r.mu.Unlock()
		return
	}

	r.mu.Lock()
	if rec, ok := r.running[id]; ok {
		rec.Status = StatusCompleted
		rec.EndTime = endTime
		rec.Results = allResults
	}
	r.mu.Unlock()

	r.logger.Info("experiment completed",
		slog.String("experiment_id", id),
		slog.Int("total_responses", len(allResults)),
		slog.Int("successful_responses", successful),
	)
}

// testPersona asks every question in order. A gateway failure is folded into
// the result row; it never stops the remaining questions.
func (r *Runner) testPersona(persona store.Persona, questions []store.Question, model string) []Result {
	results := make([]Result, 0, len(questions))
	systemPrompt := BuildSystemPrompt(persona)

	for _, question := range questions {
		text := question.TextValue()
		if text == "" {
			text = "No question text available"
		}

		resp, err := r.gateway.Chat(context.Background(), []llm.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: text},
		}, llm.Options{
			Model:       model,
			Temperature: questionTemperature,
			MaxTokens:   questionMaxTokens,
		})

		result := Result{
			PersonaName:  persona.Name,
			PersonaID:    persona.ID,
			QuestionID:   question.ID,
			QuestionText: text,
			Timestamp:    time.Now().UTC().Format(time.RFC3339),
		}
		if err != nil {
			result.Error = err.Error()
		} else {
			result.Response = resp.Content
			result.Model = resp.Model
			result.Provider = resp.Provider
			result.Usage = resp.Usage
		}
		results = append(results, result)
	}
	return results
}

// Status returns the live record when this process still holds one, the
// persisted report otherwise. Exactly one of the two returns is non-nil on
// success. Reads are side-effect-free.
func (r *Runner) Status(id string) (*Running, *Report, error) {
	r.mu.Lock()
	rec, ok := r.running[id]
	if ok {
		snapshot := *rec
		snapshot.Results = append([]Result(nil), rec.Results...)
		r.mu.Unlock()
		return &snapshot, nil, nil
	}
	r.mu.Unlock()

	var report Report
	if err := r.reports.Read(id, &report); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrExperimentNotFound
		}
		return nil, nil, err
	}
	return nil, &report, nil
}

// List returns a snapshot of every in-memory record, running or finished.
// Experiments from prior process lifetimes are reachable only by id.
func (r *Runner) List() []*Running {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Running, 0, len(r.running))
	for _, rec := range r.running {
		snapshot := *rec
		snapshot.Results = append([]Result(nil), rec.Results...)
		out = append(out, &snapshot)
	}
	return out
}

// Wait blocks until the background task for id finishes. It returns
// immediately for unknown ids. Used by tests and graceful shutdown.
func (r *Runner) Wait(id string) {
	r.mu.Lock()
	done, ok := r.tasks[id]
	r.mu.Unlock()
	if ok {
		<-done
	}
}
