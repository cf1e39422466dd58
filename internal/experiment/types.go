package experiment

import (
	"github.com/personakit/harness/internal/llm"
	"github.com/personakit/harness/internal/store"
)

// Experiment lifecycle states.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusError     = "error"
)

// Result is the outcome of one persona answering one question. Exactly one
// of Response and Error is set.
type Result struct {
	PersonaName  string     `json:"persona_name"`
	PersonaID    string     `json:"persona_id"`
	QuestionID   string     `json:"question_id"`
	QuestionText string     `json:"question_text"`
	Response     string     `json:"response,omitempty"`
	Error        string     `json:"error,omitempty"`
	Timestamp    string     `json:"timestamp"`
	Model        string     `json:"model,omitempty"`
	Provider     string     `json:"provider,omitempty"`
	Usage        *llm.Usage `json:"usage,omitempty"`
}

// Running is the in-memory record of an experiment. It lives only for the
// lifetime of the process; the report file is the durable artifact.
type Running struct {
	ID                 string   `json:"id"`
	Status             string   `json:"status"`
	StartTime          string   `json:"startTime"`
	TotalPersonas      int      `json:"totalPersonas"`
	TotalQuestions     int      `json:"totalQuestions"`
	CurrentPersona     int      `json:"currentPersona"`
	CurrentPersonaName string   `json:"currentPersonaName,omitempty"`
	EndTime            string   `json:"endTime,omitempty"`
	Error              string   `json:"error,omitempty"`
	Results            []Result `json:"results"`
}

// PersonaRef identifies a persona inside a report.
type PersonaRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// QuestionnaireRef identifies the questionnaire inside a report.
type QuestionnaireRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Report is the on-disk artifact written once when an experiment finishes.
type Report struct {
	ID                  string           `json:"id"`
	Timestamp           string           `json:"timestamp"`
	Status              string           `json:"status"`
	Personas            []PersonaRef     `json:"personas"`
	Questionnaire       QuestionnaireRef `json:"questionnaire"`
	Questions           []store.Question `json:"questions"`
	Model               string           `json:"model"`
	TotalResponses      int              `json:"total_responses"`
	SuccessfulResponses int              `json:"successful_responses"`
	Results             []Result         `json:"results"`
}

// StartRequest are the caller-supplied parameters of a new experiment.
type StartRequest struct {
	PersonaIDs      []string `json:"personaIds"`
	QuestionnaireID string   `json:"questionnaireId"`
	Model           string   `json:"model,omitempty"`
}

// StartResponse is the synchronous contract boundary: the experiment id and
// the resolved totals, returned before any chat call is made.
type StartResponse struct {
	ExperimentID   string `json:"experimentId"`
	TotalPersonas  int    `json:"totalPersonas"`
	TotalQuestions int    `json:"totalQuestions"`
}
