package service

import (
	"strings"
	"time"
)

// PromptBuilder formats the accumulated context into the single structured
// instruction sent with each generation call.
type PromptBuilder struct {
	persona     string
	includeTime bool
	now         func() time.Time
}

// NewPromptBuilder creates a new PromptBuilder. persona is the system
// instruction prefix; when includeTime is set, a current-time marker is
// embedded in every prompt.
func NewPromptBuilder(persona string, includeTime bool) *PromptBuilder {
	return &PromptBuilder{
		persona:     persona,
		includeTime: includeTime,
		now:         time.Now,
	}
}

// Build assembles the generation instruction from the persona, the optional
// time marker, user preferences, the user's live facts, and the prior
// conversation context. Empty sections are omitted.
func (p *PromptBuilder) Build(preferences string, factList []string, contextTexts []string) string {
	var b strings.Builder

	b.WriteString(p.persona)

	if p.includeTime {
		b.WriteString("\n\nThe current date and time is ")
		b.WriteString(p.now().Format(time.RFC1123))
		b.WriteString(".")
	}

	if preferences != "" {
		b.WriteString("\n\nUser preferences:\n")
		b.WriteString(preferences)
	}

	if len(factList) > 0 {
		b.WriteString("\n\nKnown facts about the user:\n")
		for _, fact := range factList {
			b.WriteString("- ")
			b.WriteString(fact)
			b.WriteString("\n")
		}
	}

	if len(contextTexts) > 0 {
		b.WriteString("\n\nRelevant prior conversation:\n")
		for _, text := range contextTexts {
			b.WriteString(text)
			b.WriteString("\n")
		}
	}

	return b.String()
}
