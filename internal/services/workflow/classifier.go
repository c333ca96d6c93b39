// Package workflow infers the workflow phase of a conversation and builds
// the system prompt for the next model call.
package workflow

import (
	"regexp"
	"strings"

	"github.com/pmservice/assistant-service/internal/domain/models"
)

// recentWindow is how many trailing messages the classifier inspects.
const recentWindow = 3

var emailKeywords = []string{"draft", "email", "send", "write", "compose", "generate email"}

// ClassifyPhase derives the phase from the last few messages. Rules are
// checked in a fixed order and the first match wins: email keywords in the
// latest user message, then markers in assistant messages from newest to
// oldest, then assessment.
func ClassifyPhase(history []models.Message) models.Phase {
	if len(history) == 0 {
		return models.PhaseAssessment
	}

	recent := history
	if len(recent) > recentWindow {
		recent = recent[len(recent)-recentWindow:]
	}

	for i := len(recent) - 1; i >= 0; i-- {
		if recent[i].Role != models.RoleUser {
			continue
		}
		text := strings.ToLower(recent[i].Content)
		for _, kw := range emailKeywords {
			if strings.Contains(text, kw) {
				return models.PhaseEmail
			}
		}
		break
	}

	for i := len(recent) - 1; i >= 0; i-- {
		if recent[i].Role != models.RoleAssistant {
			continue
		}
		text := recent[i].Content
		switch {
		case strings.Contains(text, "A)") && strings.Contains(text, "B)") && strings.Contains(text, "C)"):
			return models.PhaseGathering
		case strings.Contains(text, "## Action Plan:") || strings.Contains(text, "**Checklist:**"):
			return models.PhasePlanning
		case strings.Contains(text, "Would you like me to:"):
			return models.PhaseRefining
		}
	}

	return models.PhaseAssessment
}

// BuildPrompt returns the system prompt for the next turn. The mode decides
// the prompt path; the phase only shapes the Draft path. Unknown categories
// get a general focus clause and unknown modes get the chat prompt.
func BuildPrompt(category models.Category, mode models.Mode, history []models.Message) string {
	focus, ok := categoryFocus[category]
	if !ok {
		focus = generalFocus
	}

	var b strings.Builder
	b.WriteString(systemPrompt)

	switch mode {
	case models.ModeDraft:
		b.WriteString(workflowInstructions)
		b.WriteString(focus)
		b.WriteString(phaseClauses[ClassifyPhase(history)])
		b.WriteString(emailModeInstructions)
	case models.ModePlan:
		b.WriteString(focus)
		b.WriteString(planModeInstructions)
	case models.ModeAsk:
		b.WriteString(focus)
		b.WriteString(questionsModeInstructions)
	default:
		b.WriteString(focus)
		b.WriteString(chatModeInstructions)
	}

	return b.String()
}

// PhaseHint returns an advisory when the chosen mode looks premature or
// backwards for the inferred phase. It is empty when they agree.
func PhaseHint(phase models.Phase, mode models.Mode) string {
	switch {
	case mode == models.ModeDraft && (phase == models.PhaseAssessment || phase == models.PhaseGathering):
		return "The conversation is still in the " + string(phase) + " phase. The draft may miss details an action plan would settle first."
	case mode == models.ModePlan && phase == models.PhaseEmail:
		return "You asked for an email. Switch to Draft mode to get a draft you can save."
	case mode == models.ModeAsk && (phase == models.PhasePlanning || phase == models.PhaseRefining):
		return "A plan is already in progress. Plan mode refines it, Draft mode turns it into an email."
	}
	return ""
}

var phaseTagPattern = regexp.MustCompile(`(?m)^[ \t]*\[\[phase:([a-z]+)\]\][ \t]*\r?$`)

// ExtractPhaseTag removes every phase tag line from reply and returns the
// cleaned text with the last tagged phase. ok is false when no valid tag
// was present.
func ExtractPhaseTag(reply string) (string, models.Phase, bool) {
	matches := phaseTagPattern.FindAllStringSubmatch(reply, -1)
	if len(matches) == 0 {
		return reply, "", false
	}

	cleaned := strings.TrimSpace(phaseTagPattern.ReplaceAllString(reply, ""))
	phase := models.Phase(matches[len(matches)-1][1])
	if !phase.IsValid() {
		return cleaned, "", false
	}
	return cleaned, phase, true
}

// Evaluation is the classifier's output for one turn.
type Evaluation struct {
	Phase  models.Phase
	Prompt string
	Hint   string
}

// Classifier wraps the pure functions with the phase tag setting.
type Classifier struct {
	phaseTags bool
}

// NewClassifier creates a classifier. With phaseTags set, prompts ask the
// model to report its phase in a trailing tag line.
func NewClassifier(phaseTags bool) *Classifier {
	return &Classifier{phaseTags: phaseTags}
}

// PhaseTags reports whether structured phase tags are enabled.
func (c *Classifier) PhaseTags() bool {
	return c.phaseTags
}

// Evaluate classifies history and builds the prompt for mode.
func (c *Classifier) Evaluate(category models.Category, mode models.Mode, history []models.Message) Evaluation {
	phase := ClassifyPhase(history)
	prompt := BuildPrompt(category, mode, history)
	if c.phaseTags {
		prompt += phaseTagInstructions
	}
	return Evaluation{
		Phase:  phase,
		Prompt: prompt,
		Hint:   PhaseHint(phase, mode),
	}
}

// ResolvePhase returns the reply with tag lines removed and the phase to
// store after it: the tagged phase when tags are enabled and the reply
// carried a valid one, otherwise the heuristic over history followed by the
// reply. history must not already contain the reply.
func (c *Classifier) ResolvePhase(reply string, history []models.Message) (string, models.Phase) {
	if c.phaseTags {
		cleaned, phase, ok := ExtractPhaseTag(reply)
		if ok {
			return cleaned, phase
		}
		reply = cleaned
	}

	full := make([]models.Message, 0, len(history)+1)
	full = append(full, history...)
	full = append(full, models.Message{Role: models.RoleAssistant, Content: reply})
	return reply, ClassifyPhase(full)
}
