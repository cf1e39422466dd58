package httpapi

import (
	"errors"
	"net/http"

	"github.com/personakit/harness/internal/server"
	"github.com/personakit/harness/internal/store"
)

func (h *Handler) ListQuestionnaires(w http.ResponseWriter, r *http.Request) {
	questionnaires, err := h.questionnaires.List()
	if err != nil {
		server.AddError(r.Context(), err)
		respondError(w, http.StatusInternalServerError, "failed to load questionnaires")
		return
	}
	respondJSON(w, http.StatusOK, questionnaires)
}

func (h *Handler) CreateQuestionnaire(w http.ResponseWriter, r *http.Request) {
	var q store.Questionnaire
	if err := decodeJSON(r, &q); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	q.ID = ""

	created, err := h.questionnaires.Create(q)
	if err != nil {
		server.AddError(r.Context(), err)
		respondError(w, http.StatusInternalServerError, "failed to create questionnaire")
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *Handler) GetQuestionnaire(w http.ResponseWriter, r *http.Request) {
	q, err := h.questionnaires.GetByID(urlParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Questionnaire not found")
			return
		}
		server.AddError(r.Context(), err)
		respondError(w, http.StatusInternalServerError, "failed to fetch questionnaire")
		return
	}
	respondJSON(w, http.StatusOK, q)
}

func (h *Handler) UpdateQuestionnaire(w http.ResponseWriter, r *http.Request) {
	var q store.Questionnaire
	if err := decodeJSON(r, &q); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.questionnaires.Update(urlParam(r, "id"), q)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Questionnaire not found")
			return
		}
		server.AddError(r.Context(), err)
		respondError(w, http.StatusInternalServerError, "failed to update questionnaire")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteQuestionnaire(w http.ResponseWriter, r *http.Request) {
	if err := h.questionnaires.Delete(urlParam(r, "id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Questionnaire not found")
			return
		}
		server.AddError(r.Context(), err)
		respondError(w, http.StatusInternalServerError, "failed to delete questionnaire")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
