// Package httpapi exposes the admin REST surface: CRUD over personas,
// questions and questionnaires, experiment start/polling, report review and
// provider status/settings.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/personakit/harness/internal/experiment"
	"github.com/personakit/harness/internal/llm"
	"github.com/personakit/harness/internal/store"
)

// Gateway is the slice of the LLM gateway the handlers use.
type Gateway interface {
	Chat(ctx context.Context, messages []llm.Message, opts llm.Options) (*llm.Response, error)
	Status(ctx context.Context) *llm.StatusReport
	SetCredential(key string)
}

// Handler carries the collaborators of every route.
type Handler struct {
	personas       *store.PersonaStore
	questions      *store.QuestionStore
	questionnaires *store.QuestionnaireStore
	reports        *store.ReportStore
	runner         *experiment.Runner
	gateway        Gateway
	logger         *slog.Logger
	// envFile is where the settings endpoint persists the OpenAI key.
	envFile string
}

func NewHandler(personas *store.PersonaStore, questions *store.QuestionStore,
	questionnaires *store.QuestionnaireStore, reports *store.ReportStore,
	runner *experiment.Runner, gateway Gateway, logger *slog.Logger, envFile string) *Handler {
	if envFile == "" {
		envFile = ".env.local"
	}
	return &Handler{
		personas:       personas,
		questions:      questions,
		questionnaires: questionnaires,
		reports:        reports,
		runner:         runner,
		gateway:        gateway,
		logger:         logger,
		envFile:        envFile,
	}
}

// Routes registers every admin route on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/personas", h.ListPersonas)
		r.Post("/personas", h.CreatePersona)
		r.Put("/personas/{id}", h.UpdatePersona)
		r.Delete("/personas/{id}", h.DeletePersona)

		r.Get("/questions", h.ListQuestions)
		r.Post("/questions", h.CreateQuestion)
		r.Get("/questions/{id}", h.GetQuestion)
		r.Put("/questions/{id}", h.UpdateQuestion)
		r.Delete("/questions/{id}", h.DeleteQuestion)

		r.Get("/questionnaires", h.ListQuestionnaires)
		r.Post("/questionnaires", h.CreateQuestionnaire)
		r.Get("/questionnaires/{id}", h.GetQuestionnaire)
		r.Put("/questionnaires/{id}", h.UpdateQuestionnaire)
		r.Delete("/questionnaires/{id}", h.DeleteQuestionnaire)

		r.Post("/run-experiment", h.StartExperiment)
		r.Get("/run-experiment", h.ExperimentStatus)

		r.Get("/experiments", h.ListExperiments)
		r.Get("/experiments/{id}", h.GetExperiment)
		r.Delete("/experiments/{id}", h.DeleteExperiment)
		r.Get("/experiments/{id}/export", h.ExportExperiment)
		r.Get("/experiments/{id}/analysis", h.AnalyzeExperiment)

		r.Get("/llm/status", h.LLMStatus)
		r.Post("/harness", h.HarnessProbe)

		r.Get("/config/openai", h.GetOpenAIConfig)
		r.Post("/config/openai", h.SetOpenAIConfig)
	})
}

type errorPayload struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorPayload{Error: msg})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func urlParam(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}
