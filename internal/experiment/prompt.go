package experiment

import (
	"fmt"

	"github.com/personakit/harness/internal/store"
)

// placeholderText stands in for question ids that no longer resolve, so a
// questionnaire's declared question count always matches the processed count.
const placeholderText = "Question not found"

// BuildSystemPrompt renders the role-play instruction for a persona.
func BuildSystemPrompt(p store.Persona) string {
	return fmt.Sprintf(`You are roleplaying as: %s

%s

%s

Respond to questions from this persona's perspective. Be authentic to this role.`,
		p.Name, p.Description, p.BehavioralProfile)
}
