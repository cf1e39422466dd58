package httpapi

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"

	"github.com/personakit/harness/internal/analysis"
	"github.com/personakit/harness/internal/experiment"
	"github.com/personakit/harness/internal/server"
	"github.com/personakit/harness/internal/store"
)

// StartExperiment validates and launches a new experiment. Only validation
// outcomes are visible here; everything downstream is observable through
// ExperimentStatus.
func (h *Handler) StartExperiment(w http.ResponseWriter, r *http.Request) {
	var req experiment.StartRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.runner.Start(r.Context(), req)
	if err != nil {
		server.AddError(r.Context(), err)
		switch {
		case errors.Is(err, experiment.ErrNoPersonaIDs), errors.Is(err, experiment.ErrMissingQuestionnaire):
			respondError(w, http.StatusBadRequest, "Missing required parameters")
		case errors.Is(err, experiment.ErrQuestionnaireNotFound):
			respondError(w, http.StatusNotFound, "Questionnaire not found")
		case errors.Is(err, experiment.ErrNoValidPersonas):
			respondError(w, http.StatusNotFound, "No valid personas found")
		default:
			respondError(w, http.StatusInternalServerError, "Failed to start experiment")
		}
		return
	}

	server.AddLogField(r.Context(), "experiment_id", resp.ExperimentID)
	respondJSON(w, http.StatusOK, map[string]any{
		"experimentId":   resp.ExperimentID,
		"message":        "Experiment started",
		"totalPersonas":  resp.TotalPersonas,
		"totalQuestions": resp.TotalQuestions,
	})
}

// ExperimentStatus polls one experiment by ?id=, or lists every in-memory
// record when no id is given.
func (h *Handler) ExperimentStatus(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		respondJSON(w, http.StatusOK, h.runner.List())
		return
	}

	live, report, err := h.runner.Status(id)
	if err != nil {
		if errors.Is(err, experiment.ErrExperimentNotFound) {
			respondError(w, http.StatusNotFound, "Experiment not found")
			return
		}
		server.AddError(r.Context(), err)
		respondError(w, http.StatusInternalServerError, "failed to load experiment")
		return
	}
	if live != nil {
		respondJSON(w, http.StatusOK, live)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (h *Handler) ListExperiments(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.reports.List()
	if err != nil {
		server.AddError(r.Context(), err)
		respondJSON(w, http.StatusOK, []store.ReportSummary{})
		return
	}
	respondJSON(w, http.StatusOK, summaries)
}

func (h *Handler) GetExperiment(w http.ResponseWriter, r *http.Request) {
	var report experiment.Report
	if err := h.reports.Read(urlParam(r, "id"), &report); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Experiment not found")
			return
		}
		server.AddError(r.Context(), err)
		respondError(w, http.StatusInternalServerError, "failed to load experiment")
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (h *Handler) DeleteExperiment(w http.ResponseWriter, r *http.Request) {
	if err := h.reports.Delete(urlParam(r, "id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Experiment not found")
			return
		}
		server.AddError(r.Context(), err)
		respondError(w, http.StatusInternalServerError, "Failed to delete experiment")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Experiment deleted successfully"})
}

// ExportExperiment streams a report as a downloadable JSON or CSV file.
func (h *Handler) ExportExperiment(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")

	var report experiment.Report
	if err := h.reports.Read(id, &report); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Experiment not found")
			return
		}
		server.AddError(r.Context(), err)
		respondError(w, http.StatusInternalServerError, "failed to load experiment")
		return
	}

	format := r.URL.Query().Get("format")
	switch format {
	case "", "json":
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.json", id))
		respondJSON(w, http.StatusOK, report)
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", id))
		writeResultsCSV(w, report.Results)
	default:
		respondError(w, http.StatusBadRequest, "unsupported format: "+format)
	}
}

func writeResultsCSV(w http.ResponseWriter, results []experiment.Result) {
	cw := csv.NewWriter(w)
	cw.Write([]string{"persona_id", "persona_name", "question_id", "question_text",
		"response", "error", "provider", "model", "timestamp"})
	for _, res := range results {
		cw.Write([]string{res.PersonaID, res.PersonaName, res.QuestionID, res.QuestionText,
			res.Response, res.Error, res.Provider, res.Model, res.Timestamp})
	}
	cw.Flush()
}

// personaAnalysis is one row of the analysis view.
type personaAnalysis struct {
	PersonaID   string `json:"persona_id"`
	PersonaName string `json:"persona_name"`
	analysis.Profile
}

// AnalyzeExperiment scores each persona's successful answers into a
// behavioral profile.
func (h *Handler) AnalyzeExperiment(w http.ResponseWriter, r *http.Request) {
	var report experiment.Report
	if err := h.reports.Read(urlParam(r, "id"), &report); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Experiment not found")
			return
		}
		server.AddError(r.Context(), err)
		respondError(w, http.StatusInternalServerError, "failed to load experiment")
		return
	}

	byPersona := make(map[string]map[string]string)
	order := []string{}
	names := make(map[string]string)
	for _, res := range report.Results {
		if res.Error != "" {
			continue
		}
		if _, ok := byPersona[res.PersonaID]; !ok {
			byPersona[res.PersonaID] = make(map[string]string)
			order = append(order, res.PersonaID)
			names[res.PersonaID] = res.PersonaName
		}
		byPersona[res.PersonaID][res.QuestionID] = res.Response
	}

	out := make([]personaAnalysis, 0, len(order))
	for _, pid := range order {
		out = append(out, personaAnalysis{
			PersonaID:   pid,
			PersonaName: names[pid],
			Profile:     analysis.Analyze(byPersona[pid]),
		})
	}
	respondJSON(w, http.StatusOK, out)
}
