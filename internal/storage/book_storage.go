// Path: internal/storage/book_storage.go
package storage

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bookshelf/internal/domain"
)

// MongoBookStorage is the MongoDB implementation of the BookStorage interface.
// It mirrors every book a session has displayed, keyed by work key.
type MongoBookStorage struct {
	collection *mongo.Collection
}

// NewMongoBookStorage creates a new storage adapter for book records.
func NewMongoBookStorage(db *mongo.Database, collectionName string) *MongoBookStorage {
	return &MongoBookStorage{
		collection: db.Collection(collectionName),
	}
}

// BulkUpsert implements the BookStorage interface.
func (s *MongoBookStorage) BulkUpsert(ctx context.Context, books []domain.BookRecord) error {
	if len(books) == 0 {
		return nil
	}

	writeModels := make([]mongo.WriteModel, len(books))
	for i, book := range books {
		filter := bson.M{"_id": book.Key}
		writeModels[i] = mongo.NewReplaceOneModel().SetFilter(filter).SetReplacement(book).SetUpsert(true)
	}

	// Unordered lets the server apply the replacements independently.
	opts := options.BulkWrite().SetOrdered(false)
	if _, err := s.collection.BulkWrite(ctx, writeModels, opts); err != nil {
		return fmt.Errorf("bulk upsert %d books: %w", len(books), err)
	}
	return nil
}

// FindByKey implements the BookStorage interface.
func (s *MongoBookStorage) FindByKey(ctx context.Context, key string) (*domain.BookRecord, error) {
	var book domain.BookRecord
	filter := bson.M{"_id": key}
	err := s.collection.FindOne(ctx, filter).Decode(&book)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil // Return nil, nil if not found
		}
		return nil, fmt.Errorf("find book %s: %w", key, err)
	}
	if book.IA == nil {
		book.IA = []string{}
	}
	return &book, nil
}
