package rag

import (
	"context"
	"strconv"

	"github.com/kristianfreeman/aii/internal/history"
	"github.com/kristianfreeman/aii/internal/memory/store"
	"github.com/kristianfreeman/aii/internal/models"
	"github.com/kristianfreeman/aii/pkg/logger"
)

// ContextBuilder turns a query embedding into relevant prior message text by
// searching the user's message namespace and resolving hits back through the
// message store. Relevance enrichment is best-effort: index failures degrade
// to an empty result, and vector ids with no backing message row are
// silently dropped.
type ContextBuilder struct {
	vectors  store.VectorStore
	messages history.Store
	logger   *logger.Logger
}

// NewContextBuilder creates a new ContextBuilder.
func NewContextBuilder(vectors store.VectorStore, messages history.Store, log *logger.Logger) *ContextBuilder {
	return &ContextBuilder{
		vectors:  vectors,
		messages: messages,
		logger:   log,
	}
}

// StoreEmbedding mirrors a message's embedding in the user's message
// namespace, keyed by the message id. Re-storing the same id overwrites.
func (b *ContextBuilder) StoreEmbedding(ctx context.Context, userID string, messageID uint, vector []float32) error {
	id := strconv.FormatUint(uint64(messageID), 10)
	return b.vectors.Upsert(ctx, store.MessagesNamespace(userID), id, vector)
}

// RetrieveRelevantTexts returns the text of up to topK messages most similar
// to the query embedding, highest-similarity-first.
func (b *ContextBuilder) RetrieveRelevantTexts(ctx context.Context, userID string, queryEmbedding []float32, topK int) []string {
	log := b.logger.WithUser(userID)

	neighbors, err := b.vectors.Query(ctx, store.MessagesNamespace(userID), queryEmbedding, topK)
	if err != nil {
		log.WithError(models.ErrorInfo{
			Message: err.Error(),
			Type:    "store_unavailable",
		}).Warn("vector query failed, continuing without relevant context")
		return nil
	}
	if len(neighbors) == 0 {
		return nil
	}

	ids := make([]uint, 0, len(neighbors))
	for _, n := range neighbors {
		id, err := strconv.ParseUint(n.ID, 10, 64)
		if err != nil {
			// Not a message id; a foreign vector in the namespace is skipped.
			continue
		}
		ids = append(ids, uint(id))
	}

	texts, err := b.messages.SelectByIDs(ctx, ids)
	if err != nil {
		log.WithError(models.ErrorInfo{
			Message: err.Error(),
			Type:    "store_unavailable",
		}).Warn("message lookup failed, continuing without relevant context")
		return nil
	}

	// Preserve similarity order; drop dangling vectors whose message row is
	// gone rather than failing the query.
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if text, ok := texts[id]; ok {
			out = append(out, text)
		}
	}
	return out
}
