package facts

import (
	"context"
	"fmt"
	"sync"

	"github.com/kristianfreeman/aii/internal/embedding"
	"github.com/kristianfreeman/aii/internal/memory/extractor"
	"github.com/kristianfreeman/aii/internal/memory/store"
	"github.com/kristianfreeman/aii/internal/models"
	"github.com/kristianfreeman/aii/pkg/logger"

	"github.com/google/uuid"
)

// Manager owns the fact-store consistency protocol: deduplication on write,
// removal by exact id, and LLM-backed extraction. The blob store holds the
// authoritative ordered fact list per user; the vector store holds a
// denormalized copy of each fact's embedding, keyed by the record id, so a
// fact is never located by re-embedding its text.
//
// A fact is never updated in place. Every change is remove-then-add.
type Manager struct {
	vectors   store.VectorStore
	blobs     store.FactBlobStore
	embedder  embedding.Embedding
	extractor extractor.Extractor
	threshold float64
	logger    *logger.Logger

	// Fact updates for one user funnel through a single writer, so two
	// concurrent near-duplicate additions cannot both observe "no neighbor".
	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
}

// NewManager creates a new Manager. threshold is the similarity score at or
// above which a new fact supersedes its nearest existing neighbor.
func NewManager(vectors store.VectorStore, blobs store.FactBlobStore, embedder embedding.Embedding, ext extractor.Extractor, threshold float64, log *logger.Logger) *Manager {
	return &Manager{
		vectors:   vectors,
		blobs:     blobs,
		embedder:  embedder,
		extractor: ext,
		threshold: threshold,
		logger:    log,
		userLocks: make(map[string]*sync.Mutex),
	}
}

func (m *Manager) userLock(userID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		m.userLocks[userID] = lock
	}
	return lock
}

// GetFacts returns the user's live facts in insertion order. Facts only
// enrich generation, so an unavailable store degrades to an empty list and
// is logged, never propagated.
func (m *Manager) GetFacts(ctx context.Context, userID string) []string {
	records, err := m.blobs.Get(ctx, store.FactKey(userID))
	if err != nil {
		m.logger.WithUser(userID).WithError(models.ErrorInfo{
			Message: err.Error(),
			Type:    "store_unavailable",
		}).Warn("failed to read facts, continuing without them")
		return nil
	}

	contents := make([]string, len(records))
	for i, r := range records {
		contents[i] = r.Content
	}
	return contents
}

// UpdateFacts adds newFact to the user's memory, superseding the nearest
// existing fact when its similarity reaches the dedup threshold. The old
// instance is deleted before the new one is inserted; fact text is never
// merged.
func (m *Manager) UpdateFacts(ctx context.Context, userID, newFact string) error {
	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	vectors, err := m.embedder.EmbedBatch(ctx, []string{newFact})
	if err != nil {
		return fmt.Errorf("failed to embed fact: %w", err)
	}
	if len(vectors) == 0 {
		return fmt.Errorf("embedder returned no vector")
	}
	vector := vectors[0]

	namespace := store.FactsNamespace(userID)
	key := store.FactKey(userID)

	records, err := m.blobs.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to read fact list: %w", err)
	}

	// Locate the single nearest neighbor among the existing facts.
	neighbors, err := m.vectors.Query(ctx, namespace, vector, 1)
	if err != nil {
		return fmt.Errorf("failed to query facts namespace: %w", err)
	}

	if len(neighbors) > 0 && float64(neighbors[0].Score) >= m.threshold {
		// Same fact: the neighbor is superseded. Delete its vector and drop
		// its record before inserting the replacement.
		duplicate := neighbors[0]
		if err := m.vectors.Delete(ctx, namespace, []string{duplicate.ID}); err != nil {
			return fmt.Errorf("failed to delete superseded fact vector: %w", err)
		}
		records = removeRecordByID(records, duplicate.ID)

		m.logger.WithUser(userID).WithPayload(map[string]interface{}{
			"superseded_id": duplicate.ID,
			"score":         duplicate.Score,
		}).Debug("superseding near-duplicate fact")
	}

	record := models.FactRecord{
		ID:      uuid.New().String(),
		Content: newFact,
	}
	records = append(records, record)

	if err := m.blobs.Put(ctx, key, records); err != nil {
		return fmt.Errorf("failed to write fact list: %w", err)
	}
	if err := m.vectors.Upsert(ctx, namespace, record.ID, vector); err != nil {
		return fmt.Errorf("failed to upsert fact vector: %w", err)
	}
	return nil
}

// RemoveFact removes a fact by content match from the durable list and
// deletes its vector by the stored record id. Removing a fact that does not
// exist is a no-op.
func (m *Manager) RemoveFact(ctx context.Context, userID, fact string) error {
	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	key := store.FactKey(userID)
	records, err := m.blobs.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to read fact list: %w", err)
	}

	idx := -1
	for i, r := range records {
		if r.Content == fact {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	removed := records[idx]
	records = append(records[:idx], records[idx+1:]...)

	if err := m.blobs.Put(ctx, key, records); err != nil {
		return fmt.Errorf("failed to write fact list: %w", err)
	}
	if err := m.vectors.Delete(ctx, store.FactsNamespace(userID), []string{removed.ID}); err != nil {
		return fmt.Errorf("failed to delete fact vector: %w", err)
	}
	return nil
}

// ExtractAndUpdateFacts extracts facts from text and adds them one at a
// time, in order, so later extracted facts can dedup against earlier ones
// added in the same call.
func (m *Manager) ExtractAndUpdateFacts(ctx context.Context, userID, text string) error {
	extracted, err := m.extractor.Extract(ctx, text)
	if err != nil {
		return err
	}

	for _, fact := range extracted {
		if err := m.UpdateFacts(ctx, userID, fact); err != nil {
			return fmt.Errorf("failed to store extracted fact: %w", err)
		}
	}
	return nil
}

func removeRecordByID(records []models.FactRecord, id string) []models.FactRecord {
	out := records[:0]
	for _, r := range records {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}
