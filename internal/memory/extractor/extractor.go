package extractor

import "context"

// Extractor defines the interface for extracting short factual statements
// from free text. Each returned string is one fact.
type Extractor interface {
	Extract(ctx context.Context, text string) ([]string, error)
}
