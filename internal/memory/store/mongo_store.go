package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/kristianfreeman/aii/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// factDocument is the MongoDB representation of one user's fact list.
type factDocument struct {
	Key     string              `bson:"_id"`
	Records []models.FactRecord `bson:"records"`
}

// MongoFactStore is a FactBlobStore persisting each user's fact list as one
// document in a MongoDB collection.
type MongoFactStore struct {
	collection *mongo.Collection
}

// NewMongoFactStore creates a new MongoFactStore.
func NewMongoFactStore(db *mongo.Database, collectionName string) *MongoFactStore {
	return &MongoFactStore{collection: db.Collection(collectionName)}
}

// Get reads the fact list stored under key. A missing document is not an
// error: it returns a nil slice.
func (s *MongoFactStore) Get(ctx context.Context, key string) ([]models.FactRecord, error) {
	var doc factDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get fact document %q: %w", key, err)
	}
	return doc.Records, nil
}

// Put overwrites the fact list stored under key.
func (s *MongoFactStore) Put(ctx context.Context, key string, records []models.FactRecord) error {
	doc := factDocument{Key: key, Records: records}
	_, err := s.collection.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to put fact document %q: %w", key, err)
	}
	return nil
}
