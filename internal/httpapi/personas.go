package httpapi

import (
	"errors"
	"net/http"

	"github.com/personakit/harness/internal/server"
	"github.com/personakit/harness/internal/store"
)

func (h *Handler) ListPersonas(w http.ResponseWriter, r *http.Request) {
	personas, err := h.personas.List()
	if err != nil {
		server.AddError(r.Context(), err)
		respondError(w, http.StatusInternalServerError, "failed to load personas")
		return
	}
	respondJSON(w, http.StatusOK, personas)
}

func (h *Handler) CreatePersona(w http.ResponseWriter, r *http.Request) {
	var p store.Persona
	if err := decodeJSON(r, &p); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	p.ID = ""

	created, err := h.personas.Create(p)
	if err != nil {
		server.AddError(r.Context(), err)
		respondError(w, http.StatusInternalServerError, "failed to create persona")
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdatePersona(w http.ResponseWriter, r *http.Request) {
	var p store.Persona
	if err := decodeJSON(r, &p); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.personas.Update(urlParam(r, "id"), p)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Persona not found")
			return
		}
		server.AddError(r.Context(), err)
		respondError(w, http.StatusInternalServerError, "failed to update persona")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeletePersona(w http.ResponseWriter, r *http.Request) {
	if err := h.personas.Delete(urlParam(r, "id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Persona not found")
			return
		}
		server.AddError(r.Context(), err)
		respondError(w, http.StatusInternalServerError, "failed to delete persona")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Deleted"})
}
