package extractor

import (
	"context"
	"errors"
	"testing"
)

type scriptedLLM struct {
	response string
	err      error
}

func (s *scriptedLLM) Generate(_ context.Context, _, _ string) (string, error) {
	return s.response, s.err
}

func TestExtractParsesOneFactPerLine(t *testing.T) {
	e := NewLlmExtractor(&scriptedLLM{response: "likes coffee\n\n  lives in Oslo  \n"})

	facts, err := e.Extract(context.Background(), "some conversation")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(facts) != 2 || facts[0] != "likes coffee" || facts[1] != "lives in Oslo" {
		t.Errorf("Expected trimmed non-empty lines, got %v", facts)
	}
}

func TestExtractEmptyResponse(t *testing.T) {
	e := NewLlmExtractor(&scriptedLLM{response: "\n\n"})

	facts, err := e.Extract(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(facts) != 0 {
		t.Errorf("Expected no facts, got %v", facts)
	}
}

func TestExtractPropagatesBackendError(t *testing.T) {
	e := NewLlmExtractor(&scriptedLLM{err: errors.New("model unavailable")})

	if _, err := e.Extract(context.Background(), "hello"); err == nil {
		t.Error("Expected backend error to propagate")
	}
}
