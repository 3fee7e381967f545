package facts

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"testing"

	"github.com/kristianfreeman/aii/internal/memory/store"
	"github.com/kristianfreeman/aii/internal/models"
	"github.com/kristianfreeman/aii/pkg/logger"
)

// memVectorStore is an in-memory VectorStore ranking neighbors by cosine
// similarity, mirroring the metric the real index is configured with.
type memVectorStore struct {
	data map[string]map[string][]float32 // namespace -> id -> vector
}

func newMemVectorStore() *memVectorStore {
	return &memVectorStore{data: make(map[string]map[string][]float32)}
}

func (s *memVectorStore) Upsert(_ context.Context, namespace, id string, vector []float32) error {
	ns, ok := s.data[namespace]
	if !ok {
		ns = make(map[string][]float32)
		s.data[namespace] = ns
	}
	ns[id] = append([]float32(nil), vector...)
	return nil
}

func (s *memVectorStore) Query(_ context.Context, namespace string, vector []float32, topK int) ([]store.Neighbor, error) {
	var hits []store.Neighbor
	for id, v := range s.data[namespace] {
		hits = append(hits, store.Neighbor{ID: id, Score: float32(cosine(vector, v))})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func (s *memVectorStore) Delete(_ context.Context, namespace string, ids []string) error {
	ns := s.data[namespace]
	for _, id := range ids {
		delete(ns, id)
	}
	return nil
}

func (s *memVectorStore) count(namespace string) int {
	return len(s.data[namespace])
}

func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// memBlobStore is an in-memory FactBlobStore. Absent keys yield a nil slice.
type memBlobStore struct {
	data map[string][]models.FactRecord
	err  error
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{data: make(map[string][]models.FactRecord)}
}

func (s *memBlobStore) Get(_ context.Context, key string) ([]models.FactRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	records, ok := s.data[key]
	if !ok {
		return nil, nil
	}
	return append([]models.FactRecord(nil), records...), nil
}

func (s *memBlobStore) Put(_ context.Context, key string, records []models.FactRecord) error {
	if s.err != nil {
		return s.err
	}
	s.data[key] = append([]models.FactRecord(nil), records...)
	return nil
}

// fakeEmbedder returns a fixed vector per known text.
type fakeEmbedder struct {
	vectors map[string][]float32
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	v, ok := f.vectors[text]
	if !ok {
		return nil, fmt.Errorf("no vector for %q", text)
	}
	return v, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// emptyEmbedder succeeds but yields no vectors.
type emptyEmbedder struct{}

func (emptyEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return nil, nil
}

func (emptyEmbedder) EmbedBatch(_ context.Context, _ []string) ([][]float32, error) {
	return nil, nil
}

type fakeExtractor struct {
	facts []string
	err   error
}

func (f *fakeExtractor) Extract(_ context.Context, _ string) ([]string, error) {
	return f.facts, f.err
}

func newTestManager(vectors store.VectorStore, blobs store.FactBlobStore, embedder *fakeEmbedder, ext *fakeExtractor) *Manager {
	return NewManager(vectors, blobs, embedder, ext, 0.9, logger.New("test", "", ""))
}

func TestGetFactsNewUserIsEmpty(t *testing.T) {
	m := newTestManager(newMemVectorStore(), newMemBlobStore(), &fakeEmbedder{}, &fakeExtractor{})

	facts := m.GetFacts(context.Background(), "alice")
	if len(facts) != 0 {
		t.Errorf("Expected no facts for a new user, got %v", facts)
	}
}

func TestGetFactsStoreUnavailable(t *testing.T) {
	blobs := newMemBlobStore()
	blobs.err = errors.New("store down")
	m := newTestManager(newMemVectorStore(), blobs, &fakeEmbedder{}, &fakeExtractor{})

	facts := m.GetFacts(context.Background(), "alice")
	if facts != nil {
		t.Errorf("Expected nil facts when the store is unavailable, got %v", facts)
	}
}

func TestUpdateFactsAddsNewFact(t *testing.T) {
	vectors := newMemVectorStore()
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"likes coffee": {1, 0, 0},
	}}
	m := newTestManager(vectors, newMemBlobStore(), embedder, &fakeExtractor{})
	ctx := context.Background()

	if err := m.UpdateFacts(ctx, "alice", "likes coffee"); err != nil {
		t.Fatalf("UpdateFacts() error = %v", err)
	}

	facts := m.GetFacts(ctx, "alice")
	if len(facts) != 1 || facts[0] != "likes coffee" {
		t.Errorf("Expected facts to be [likes coffee], got %v", facts)
	}
	if n := vectors.count(store.FactsNamespace("alice")); n != 1 {
		t.Errorf("Expected 1 fact vector, got %d", n)
	}
}

func TestUpdateFactsSupersedesNearDuplicate(t *testing.T) {
	vectors := newMemVectorStore()
	// cosine("likes coffee", "loves coffee") ~= 0.96, above the 0.9 threshold.
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"likes coffee": {1, 0, 0},
		"loves coffee": {0.96, 0.28, 0},
	}}
	m := newTestManager(vectors, newMemBlobStore(), embedder, &fakeExtractor{})
	ctx := context.Background()

	if err := m.UpdateFacts(ctx, "alice", "likes coffee"); err != nil {
		t.Fatalf("UpdateFacts() error = %v", err)
	}
	if err := m.UpdateFacts(ctx, "alice", "loves coffee"); err != nil {
		t.Fatalf("UpdateFacts() error = %v", err)
	}

	facts := m.GetFacts(ctx, "alice")
	if len(facts) != 1 {
		t.Fatalf("Expected exactly one surviving fact, got %v", facts)
	}
	if facts[0] != "loves coffee" {
		t.Errorf("Expected the newer fact to survive, got %q", facts[0])
	}
	if n := vectors.count(store.FactsNamespace("alice")); n != 1 {
		t.Errorf("Expected 1 fact vector after dedup, got %d", n)
	}
}

func TestUpdateFactsKeepsDistinctFacts(t *testing.T) {
	vectors := newMemVectorStore()
	// Orthogonal vectors, well below the threshold.
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"likes coffee":  {1, 0, 0},
		"lives in Oslo": {0, 1, 0},
	}}
	m := newTestManager(vectors, newMemBlobStore(), embedder, &fakeExtractor{})
	ctx := context.Background()

	if err := m.UpdateFacts(ctx, "alice", "likes coffee"); err != nil {
		t.Fatalf("UpdateFacts() error = %v", err)
	}
	if err := m.UpdateFacts(ctx, "alice", "lives in Oslo"); err != nil {
		t.Fatalf("UpdateFacts() error = %v", err)
	}

	facts := m.GetFacts(ctx, "alice")
	if len(facts) != 2 {
		t.Fatalf("Expected both facts to survive, got %v", facts)
	}
	if facts[0] != "likes coffee" || facts[1] != "lives in Oslo" {
		t.Errorf("Expected insertion order to be preserved, got %v", facts)
	}
	if n := vectors.count(store.FactsNamespace("alice")); n != 2 {
		t.Errorf("Expected 2 fact vectors, got %d", n)
	}
}

func TestUpdateFactsIsolatesUsers(t *testing.T) {
	vectors := newMemVectorStore()
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"likes coffee": {1, 0, 0},
	}}
	m := newTestManager(vectors, newMemBlobStore(), embedder, &fakeExtractor{})
	ctx := context.Background()

	if err := m.UpdateFacts(ctx, "alice", "likes coffee"); err != nil {
		t.Fatalf("UpdateFacts() error = %v", err)
	}
	if err := m.UpdateFacts(ctx, "bob", "likes coffee"); err != nil {
		t.Fatalf("UpdateFacts() error = %v", err)
	}

	if facts := m.GetFacts(ctx, "alice"); len(facts) != 1 {
		t.Errorf("Expected alice to have 1 fact, got %v", facts)
	}
	if facts := m.GetFacts(ctx, "bob"); len(facts) != 1 {
		t.Errorf("Expected bob to have 1 fact, got %v", facts)
	}
	if n := vectors.count(store.FactsNamespace("bob")); n != 1 {
		t.Errorf("Expected bob's namespace to hold 1 vector, got %d", n)
	}
}

func TestUpdateFactsEmbedderReturnsNoVector(t *testing.T) {
	m := NewManager(newMemVectorStore(), newMemBlobStore(), emptyEmbedder{}, &fakeExtractor{}, 0.9, logger.New("test", "", ""))

	err := m.UpdateFacts(context.Background(), "alice", "likes coffee")
	if err == nil {
		t.Fatal("Expected an error when the embedder yields no vector")
	}
	if strings.Contains(err.Error(), "%!w") {
		t.Errorf("Expected a clean error message, got %q", err.Error())
	}
}

func TestRemoveFact(t *testing.T) {
	vectors := newMemVectorStore()
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"likes coffee":  {1, 0, 0},
		"lives in Oslo": {0, 1, 0},
	}}
	m := newTestManager(vectors, newMemBlobStore(), embedder, &fakeExtractor{})
	ctx := context.Background()

	if err := m.UpdateFacts(ctx, "alice", "likes coffee"); err != nil {
		t.Fatalf("UpdateFacts() error = %v", err)
	}
	if err := m.UpdateFacts(ctx, "alice", "lives in Oslo"); err != nil {
		t.Fatalf("UpdateFacts() error = %v", err)
	}

	if err := m.RemoveFact(ctx, "alice", "likes coffee"); err != nil {
		t.Fatalf("RemoveFact() error = %v", err)
	}

	facts := m.GetFacts(ctx, "alice")
	if len(facts) != 1 || facts[0] != "lives in Oslo" {
		t.Errorf("Expected only [lives in Oslo] to remain, got %v", facts)
	}
	if n := vectors.count(store.FactsNamespace("alice")); n != 1 {
		t.Errorf("Expected 1 fact vector after removal, got %d", n)
	}
}

func TestRemoveFactAbsentIsNoop(t *testing.T) {
	m := newTestManager(newMemVectorStore(), newMemBlobStore(), &fakeEmbedder{}, &fakeExtractor{})

	if err := m.RemoveFact(context.Background(), "alice", "never stored"); err != nil {
		t.Errorf("Expected removing an absent fact to be a no-op, got error %v", err)
	}
}

func TestExtractAndUpdateFacts(t *testing.T) {
	vectors := newMemVectorStore()
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"likes coffee":  {1, 0, 0},
		"lives in Oslo": {0, 1, 0},
	}}
	ext := &fakeExtractor{facts: []string{"likes coffee", "lives in Oslo"}}
	m := newTestManager(vectors, newMemBlobStore(), embedder, ext)
	ctx := context.Background()

	if err := m.ExtractAndUpdateFacts(ctx, "alice", "I like coffee and live in Oslo"); err != nil {
		t.Fatalf("ExtractAndUpdateFacts() error = %v", err)
	}

	facts := m.GetFacts(ctx, "alice")
	if len(facts) != 2 {
		t.Fatalf("Expected 2 extracted facts, got %v", facts)
	}
}

func TestExtractAndUpdateFactsDedupsWithinCall(t *testing.T) {
	vectors := newMemVectorStore()
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"likes coffee": {1, 0, 0},
		"loves coffee": {0.96, 0.28, 0},
	}}
	ext := &fakeExtractor{facts: []string{"likes coffee", "loves coffee"}}
	m := newTestManager(vectors, newMemBlobStore(), embedder, ext)
	ctx := context.Background()

	if err := m.ExtractAndUpdateFacts(ctx, "alice", "I really like coffee"); err != nil {
		t.Fatalf("ExtractAndUpdateFacts() error = %v", err)
	}

	facts := m.GetFacts(ctx, "alice")
	if len(facts) != 1 || facts[0] != "loves coffee" {
		t.Errorf("Expected the later near-duplicate to supersede, got %v", facts)
	}
}

func TestExtractAndUpdateFactsPropagatesExtractionError(t *testing.T) {
	ext := &fakeExtractor{err: errors.New("model unavailable")}
	m := newTestManager(newMemVectorStore(), newMemBlobStore(), &fakeEmbedder{}, ext)

	if err := m.ExtractAndUpdateFacts(context.Background(), "alice", "text"); err == nil {
		t.Error("Expected extraction error to propagate")
	}
}
