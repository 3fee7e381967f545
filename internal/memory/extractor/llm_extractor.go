package extractor

import (
	"context"
	"fmt"
	"strings"

	"github.com/kristianfreeman/aii/internal/llm"
)

const extractionInstruction = `You are a fact extraction system. Given a piece of text, extract the distinct, durable facts it states about the user.

Rules:
- Return one fact per line, as a short standalone statement.
- Only include factual statements about the user (preferences, biography, possessions, relationships, plans).
- Do not include questions, opinions of the assistant, or transient small talk.
- If the text contains no such facts, return nothing.`

// LlmExtractor is an implementation of the Extractor interface that asks the
// generation backend to list facts, one per line.
type LlmExtractor struct {
	llm llm.LLM
}

// NewLlmExtractor creates a new LlmExtractor.
func NewLlmExtractor(llmClient llm.LLM) *LlmExtractor {
	return &LlmExtractor{llm: llmClient}
}

// Extract sends the text to the generation backend with the extraction
// instruction and parses the response as one fact per non-empty line.
func (e *LlmExtractor) Extract(ctx context.Context, text string) ([]string, error) {
	resp, err := e.llm.Generate(ctx, extractionInstruction, text)
	if err != nil {
		return nil, fmt.Errorf("fact extraction failed: %w", err)
	}

	var facts []string
	for _, line := range strings.Split(resp, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		facts = append(facts, line)
	}
	return facts, nil
}
