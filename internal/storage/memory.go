package storage

import (
	"context"
	"slices"
	"sync"
	"time"

	"bookshelf/internal/domain"
)

// MemoryBookStorage keeps mirrored books in process memory. It is used when
// no database is configured.
type MemoryBookStorage struct {
	mu    sync.RWMutex
	books map[string]domain.BookRecord
}

// NewMemoryBookStorage creates an empty in-memory book store.
func NewMemoryBookStorage() *MemoryBookStorage {
	return &MemoryBookStorage{books: make(map[string]domain.BookRecord)}
}

// BulkUpsert implements the BookStorage interface.
func (s *MemoryBookStorage) BulkUpsert(_ context.Context, books []domain.BookRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range books {
		b.IA = slices.Clone(b.IA)
		s.books[b.Key] = b
	}
	return nil
}

// FindByKey implements the BookStorage interface.
func (s *MemoryBookStorage) FindByKey(_ context.Context, key string) (*domain.BookRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.books[key]
	if !ok {
		return nil, nil
	}
	b.IA = slices.Clone(b.IA)
	return &b, nil
}

// Len is the number of books held.
func (s *MemoryBookStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.books)
}

// MemoryHighlightStorage keeps the highlight snapshot in process memory.
type MemoryHighlightStorage struct {
	mu       sync.RWMutex
	snapshot *domain.HighlightSnapshot
}

// NewMemoryHighlightStorage creates an empty in-memory highlight store.
func NewMemoryHighlightStorage() *MemoryHighlightStorage {
	return &MemoryHighlightStorage{}
}

// LoadHighlights implements the HighlightStorage interface.
func (s *MemoryHighlightStorage) LoadHighlights(context.Context) (*domain.HighlightSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return nil, nil
	}
	snap := *s.snapshot
	snap.Highlights = slices.Clone(snap.Highlights)
	return &snap, nil
}

// SaveHighlights implements the HighlightStorage interface.
func (s *MemoryHighlightStorage) SaveHighlights(_ context.Context, items []domain.Highlight) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = &domain.HighlightSnapshot{
		ID:         highlightDocumentID,
		Highlights: slices.Clone(items),
		UpdatedAt:  time.Now().UTC(),
	}
	return nil
}
