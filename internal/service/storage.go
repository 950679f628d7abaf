// Path: internal/service/storage.go
package service

import (
	"context"

	"bookshelf/internal/catalog"
	"bookshelf/internal/domain"
)

// Catalog defines the interface for the upstream book catalog.
// This allows for faking the network in tests.
type Catalog interface {
	FetchBooks(ctx context.Context, category, searchTerm string, limit, offset int) catalog.Result
	FetchWork(ctx context.Context, key string) (*domain.WorkDetail, error)
	CoverURL(coverID int, size catalog.CoverSize) string
	DefaultCategory() string
}

// BookStorage defines the interface for mirroring displayed BookRecords.
type BookStorage interface {
	// BulkUpsert inserts or replaces many books, identified by their key.
	BulkUpsert(ctx context.Context, books []domain.BookRecord) error

	// FindByKey retrieves a single book. It returns nil, nil when the key is unknown.
	FindByKey(ctx context.Context, key string) (*domain.BookRecord, error)
}

// HighlightStorage defines the interface for persisting the latest highlights.
type HighlightStorage interface {
	// LoadHighlights returns nil, nil when nothing was saved yet.
	LoadHighlights(ctx context.Context) (*domain.HighlightSnapshot, error)
	SaveHighlights(ctx context.Context, items []domain.Highlight) error
}
