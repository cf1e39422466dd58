package httpapi

import (
	"net/http"
	"time"

	"github.com/personakit/harness/internal/experiment"
	"github.com/personakit/harness/internal/llm"
	"github.com/personakit/harness/internal/server"
	"github.com/personakit/harness/internal/store"
)

const probeTemperature = 0.1

func (h *Handler) LLMStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.gateway.Status(r.Context()))
}

type harnessRequest struct {
	Persona  *store.Persona  `json:"persona"`
	Question *store.Question `json:"question"`
	Model    string          `json:"model,omitempty"`
}

// HarnessProbe runs a single persona-times-question exchange synchronously.
// It is the interactive "try it" path; experiments use the runner instead.
func (h *Handler) HarnessProbe(w http.ResponseWriter, r *http.Request) {
	var req harnessRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Persona == nil || req.Question == nil {
		respondError(w, http.StatusBadRequest, "Missing persona or question")
		return
	}

	text := req.Question.TextValue()
	resp, err := h.gateway.Chat(r.Context(), []llm.Message{
		{Role: "system", Content: experiment.BuildSystemPrompt(*req.Persona)},
		{Role: "user", Content: text},
	}, llm.Options{
		Model:       req.Model,
		Temperature: probeTemperature,
	})
	if err != nil {
		server.AddError(r.Context(), err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, experiment.Result{
		PersonaName:  req.Persona.Name,
		PersonaID:    req.Persona.ID,
		QuestionID:   req.Question.ID,
		QuestionText: text,
		Response:     resp.Content,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Model:        resp.Model,
		Provider:     resp.Provider,
		Usage:        resp.Usage,
	})
}
