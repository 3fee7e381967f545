package store

import (
	"context"

	"github.com/kristianfreeman/aii/internal/database/milvus"
)

// MilvusVectorStore is an implementation of the VectorStore interface backed
// by a single Milvus collection, with one partition per namespace.
type MilvusVectorStore struct {
	client *milvus.MilvusClient
}

// NewMilvusVectorStore creates a new MilvusVectorStore.
func NewMilvusVectorStore(client *milvus.MilvusClient) *MilvusVectorStore {
	return &MilvusVectorStore{client: client}
}

// Upsert stores a vector keyed by id in the namespace's partition,
// overwriting any existing vector with the same id.
func (s *MilvusVectorStore) Upsert(ctx context.Context, namespace, id string, vector []float32) error {
	return s.client.Upsert(ctx, namespace, id, vector)
}

// Query returns the topK nearest neighbors in the namespace's partition.
func (s *MilvusVectorStore) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]Neighbor, error) {
	hits, err := s.client.Search(ctx, namespace, topK, vector)
	if err != nil {
		return nil, err
	}

	neighbors := make([]Neighbor, len(hits))
	for i, h := range hits {
		neighbors[i] = Neighbor{ID: h.ID, Score: h.Score}
	}
	return neighbors, nil
}

// Delete removes the given ids from the namespace's partition.
func (s *MilvusVectorStore) Delete(ctx context.Context, namespace string, ids []string) error {
	return s.client.Delete(ctx, namespace, ids)
}
