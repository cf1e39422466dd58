package httpapi

import (
	"errors"
	"net/http"

	"github.com/personakit/harness/internal/server"
	"github.com/personakit/harness/internal/store"
)

func (h *Handler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.questions.List()
	if err != nil {
		server.AddError(r.Context(), err)
		respondError(w, http.StatusInternalServerError, "failed to load questions")
		return
	}
	respondJSON(w, http.StatusOK, questions)
}

func (h *Handler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var q store.Question
	if err := decodeJSON(r, &q); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.questions.Create(q)
	if err != nil {
		if errors.Is(err, store.ErrQuestionTextRequired) {
			respondError(w, http.StatusBadRequest, "Question text is required")
			return
		}
		server.AddError(r.Context(), err)
		respondError(w, http.StatusInternalServerError, "Failed to create question")
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *Handler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	q, err := h.questions.Get(urlParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Question not found")
			return
		}
		server.AddError(r.Context(), err)
		respondError(w, http.StatusInternalServerError, "Failed to load question")
		return
	}
	respondJSON(w, http.StatusOK, q)
}

func (h *Handler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	var q store.Question
	if err := decodeJSON(r, &q); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.questions.Update(urlParam(r, "id"), q)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Question not found")
			return
		}
		server.AddError(r.Context(), err)
		respondError(w, http.StatusInternalServerError, "Failed to update question")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	if err := h.questions.Delete(urlParam(r, "id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Question not found")
			return
		}
		server.AddError(r.Context(), err)
		respondError(w, http.StatusInternalServerError, "Failed to delete question")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Question deleted successfully"})
}
