package store

import (
	"context"
	"regexp"

	"github.com/kristianfreeman/aii/internal/models"
)

// Neighbor is one hit from a nearest-neighbor query, highest-similarity-first.
// Score is on a bounded similarity scale (cosine).
type Neighbor struct {
	ID    string
	Score float32
}

// VectorStore is namespace-scoped nearest-neighbor search over embedding
// vectors. A namespace isolates the vectors of one user and one entity kind
// (messages vs. facts). Upsert is idempotent: re-storing an id overwrites.
type VectorStore interface {
	Upsert(ctx context.Context, namespace, id string, vector []float32) error
	Query(ctx context.Context, namespace string, vector []float32, topK int) ([]Neighbor, error)
	Delete(ctx context.Context, namespace string, ids []string) error
}

// FactBlobStore is the durable small-object store holding the authoritative
// ordered fact list per user, keyed by "facts:{userId}". Get returns a nil
// slice and no error when the key is absent.
type FactBlobStore interface {
	Get(ctx context.Context, key string) ([]models.FactRecord, error)
	Put(ctx context.Context, key string, records []models.FactRecord) error
}

var namespaceSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// MessagesNamespace returns the vector namespace holding a user's message
// embeddings. Backends may not allow ':' in partition names, so the
// namespace uses '_' as separator and sanitizes the user id.
func MessagesNamespace(userID string) string {
	return "messages_" + namespaceSanitizer.ReplaceAllString(userID, "_")
}

// FactsNamespace returns the vector namespace holding a user's fact
// embeddings.
func FactsNamespace(userID string) string {
	return "facts_" + namespaceSanitizer.ReplaceAllString(userID, "_")
}

// FactKey returns the blob-store key of a user's fact list.
func FactKey(userID string) string {
	return "facts:" + userID
}
