package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/kristianfreeman/aii/internal/models"

	"github.com/minio/minio-go/v7"
)

// MinioFactStore is a FactBlobStore persisting each user's fact list as one
// JSON object in a MinIO bucket.
type MinioFactStore struct {
	client *minio.Client
	bucket string
}

// NewMinioFactStore creates a new MinioFactStore.
func NewMinioFactStore(client *minio.Client, bucket string) *MinioFactStore {
	return &MinioFactStore{client: client, bucket: bucket}
}

// Get reads and decodes the fact list stored under key. A missing object is
// not an error: it returns a nil slice.
func (s *MinioFactStore) Get(ctx context.Context, key string) ([]models.FactRecord, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get fact object %q: %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		// GetObject is lazy, so a missing key surfaces here.
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read fact object %q: %w", key, err)
	}

	var records []models.FactRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode fact object %q: %w", key, err)
	}
	return records, nil
}

// Put overwrites the fact list stored under key.
func (s *MinioFactStore) Put(ctx context.Context, key string, records []models.FactRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode fact list: %w", err)
	}

	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("failed to put fact object %q: %w", key, err)
	}
	return nil
}
