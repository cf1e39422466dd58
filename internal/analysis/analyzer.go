// Package analysis derives a coarse behavioral profile from a persona's
// answers using keyword scoring. It is a heuristic, not NLP: good enough to
// compare personas side by side in the review UI.
package analysis

import "strings"

// Trait dimensions and their values.
const (
	TimeUrgent   = "urgent"
	TimeBalanced = "balanced"
	TimeThorough = "thorough"

	RiskHigh   = "high"
	RiskMedium = "medium"
	RiskLow    = "low"

	ScopeMinimal       = "minimal"
	ScopeBalanced      = "balanced"
	ScopeComprehensive = "comprehensive"

	QualityPragmatic = "pragmatic"
	QualityBalanced  = "balanced"
	QualityRigorous  = "rigorous"

	ValidationUserFeedback = "user-feedback"
	ValidationMetrics      = "metrics"
	ValidationTechnical    = "technical"
)

// Traits is the scored behavioral dimensions of one persona.
type Traits struct {
	TimeOrientation  string `json:"timeOrientation"`
	RiskTolerance    string `json:"riskTolerance"`
	ScopeFocus       string `json:"scopeFocus"`
	QualityApproach  string `json:"qualityApproach"`
	ValidationMethod string `json:"validationMethod"`
}

// Profile is the analysis outcome: traits plus a one-line summary.
type Profile struct {
	Profile string `json:"profile"`
	Traits  Traits `json:"traits"`
}

// Analyze scores a persona's answers, keyed by question id, into traits.
// Every dimension defaults to its balanced middle value.
func Analyze(responses map[string]string) Profile {
	traits := Traits{
		TimeOrientation:  TimeBalanced,
		RiskTolerance:    RiskMedium,
		ScopeFocus:       ScopeBalanced,
		QualityApproach:  QualityBalanced,
		ValidationMethod: ValidationMetrics,
	}

	all := joined(responses)

	if containsAny(all, "minimum", "quick", "2 hour") {
		traits.TimeOrientation = TimeUrgent
	} else if containsAny(all, "thorough", "complete") {
		traits.TimeOrientation = TimeThorough
	}

	if containsAny(all, "ship") || (strings.Contains(all, "success") && strings.Contains(all, "crash")) {
		traits.RiskTolerance = RiskHigh
	} else if containsAny(all, "refactor", "failure") {
		traits.RiskTolerance = RiskLow
	}

	if containsAny(all, "minimum", "simple", "not include") {
		traits.ScopeFocus = ScopeMinimal
	} else if containsAny(all, "comprehensive", "complete") {
		traits.ScopeFocus = ScopeComprehensive
	}

	if containsAny(all, "good enough", "working") {
		traits.QualityApproach = QualityPragmatic
	} else if containsAny(all, "clean", "proper") {
		traits.QualityApproach = QualityRigorous
	}

	if containsAny(all, "user", "feedback") {
		traits.ValidationMethod = ValidationUserFeedback
	} else if containsAny(all, "technical", "code") {
		traits.ValidationMethod = ValidationTechnical
	}

	return Profile{Profile: describe(traits), Traits: traits}
}

func joined(responses map[string]string) string {
	parts := make([]string, 0, len(responses))
	for _, v := range responses {
		parts = append(parts, v)
	}
	return strings.ToLower(strings.Join(parts, " "))
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// describe renders the non-balanced traits into a short profile line.
func describe(t Traits) string {
	var parts []string

	switch t.TimeOrientation {
	case TimeUrgent:
		parts = append(parts, "Extreme time pressure")
	case TimeThorough:
		parts = append(parts, "Methodical approach")
	}
	switch t.RiskTolerance {
	case RiskHigh:
		parts = append(parts, "high risk tolerance")
	case RiskLow:
		parts = append(parts, "risk-averse")
	}
	switch t.ScopeFocus {
	case ScopeMinimal:
		parts = append(parts, "scope minimalism")
	case ScopeComprehensive:
		parts = append(parts, "comprehensive coverage")
	}
	switch t.QualityApproach {
	case QualityPragmatic:
		parts = append(parts, "pragmatic quality")
	case QualityRigorous:
		parts = append(parts, "quality-focused")
	}
	switch t.ValidationMethod {
	case ValidationUserFeedback:
		parts = append(parts, "user-driven validation")
	case ValidationTechnical:
		parts = append(parts, "technical validation")
	}

	if len(parts) == 0 {
		return "Balanced approach across all dimensions"
	}
	return strings.Join(parts, ", ")
}
