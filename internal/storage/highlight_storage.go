// Path: internal/storage/highlight_storage.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bookshelf/internal/domain"
)

const highlightDocumentID = "highlights"

// MongoHighlightStorage is the MongoDB implementation of the HighlightStorage
// interface. It keeps a single document with the latest snapshot.
type MongoHighlightStorage struct {
	collection *mongo.Collection
}

// NewMongoHighlightStorage creates a new storage adapter for highlights.
func NewMongoHighlightStorage(db *mongo.Database, collectionName string) *MongoHighlightStorage {
	return &MongoHighlightStorage{
		collection: db.Collection(collectionName),
	}
}

// LoadHighlights implements the HighlightStorage interface.
func (s *MongoHighlightStorage) LoadHighlights(ctx context.Context) (*domain.HighlightSnapshot, error) {
	var doc domain.HighlightSnapshot
	filter := bson.M{"_id": highlightDocumentID}
	err := s.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		// Nothing stored yet; the service computes a fresh set.
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("load highlights: %w", err)
	}
	return &doc, nil
}

// SaveHighlights implements the HighlightStorage interface.
func (s *MongoHighlightStorage) SaveHighlights(ctx context.Context, items []domain.Highlight) error {
	doc := domain.HighlightSnapshot{
		ID:         highlightDocumentID,
		Highlights: items,
		UpdatedAt:  time.Now().UTC(),
	}
	opts := options.Replace().SetUpsert(true)
	filter := bson.M{"_id": highlightDocumentID}
	if _, err := s.collection.ReplaceOne(ctx, filter, doc, opts); err != nil {
		return fmt.Errorf("save highlights: %w", err)
	}
	return nil
}
