package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kristianfreeman/aii/internal/models"

	"github.com/go-redis/redis/v8"
)

// RedisFactStore is a FactBlobStore persisting each user's fact list as one
// JSON value under a Redis key.
type RedisFactStore struct {
	client *redis.Client
}

// NewRedisFactStore creates a new RedisFactStore.
func NewRedisFactStore(client *redis.Client) *RedisFactStore {
	return &RedisFactStore{client: client}
}

// Get reads and decodes the fact list stored under key. A missing key is not
// an error: it returns a nil slice.
func (s *RedisFactStore) Get(ctx context.Context, key string) ([]models.FactRecord, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get fact key %q: %w", key, err)
	}

	var records []models.FactRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode fact key %q: %w", key, err)
	}
	return records, nil
}

// Put overwrites the fact list stored under key. Facts are long-term memory,
// so no TTL is set.
func (s *RedisFactStore) Put(ctx context.Context, key string, records []models.FactRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode fact list: %w", err)
	}
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to put fact key %q: %w", key, err)
	}
	return nil
}
