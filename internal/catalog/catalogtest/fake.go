// Package catalogtest provides an in-memory catalog for tests.
package catalogtest

import (
	"context"
	"fmt"
	"sync"

	"bookshelf/internal/catalog"
	"bookshelf/internal/domain"
)

// Placeholder is the cover URL the fake returns for books without a cover.
const Placeholder = "/static/placeholder-cover.svg"

// Call records one FetchBooks call.
type Call struct {
	Category, Term string
	Limit, Offset  int
}

// Fake answers FetchBooks with generated books and FetchWork from Works.
// Listings hold up to Total books (20 when zero), keyed
// "/works/OL{n}{label}W" where label is the search term, or the category.
type Fake struct {
	Total   int
	Works   map[string]*domain.WorkDetail
	WorkErr error

	mu    sync.Mutex
	calls []Call
}

// New creates a fake with no works.
func New() *Fake {
	return &Fake{Works: map[string]*domain.WorkDetail{}}
}

// FetchBooks implements the catalog fetcher.
func (f *Fake) FetchBooks(_ context.Context, category, term string, limit, offset int) catalog.Result {
	f.mu.Lock()
	f.calls = append(f.calls, Call{category, term, limit, offset})
	total := f.Total
	f.mu.Unlock()

	if total == 0 {
		total = 20
	}
	if limit <= 0 {
		limit = 20
	}
	label := category
	if term != "" {
		label = term
	}

	n := max(min(limit, total-offset), 0)
	books := make([]domain.BookRecord, n)
	for i := range books {
		books[i] = Book(label, offset+i)
	}
	return catalog.Result{Books: books, TotalFound: n}
}

// Book is the record the fake generates at position n of a listing.
func Book(label string, n int) domain.BookRecord {
	return domain.BookRecord{
		Key:        fmt.Sprintf("/works/OL%d%sW", n, label),
		Title:      fmt.Sprintf("%s %d", label, n),
		AuthorName: "Ann Author",
		IA:         []string{},
	}
}

// FetchWork implements the catalog detail lookup.
func (f *Fake) FetchWork(_ context.Context, key string) (*domain.WorkDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WorkErr != nil {
		return nil, f.WorkErr
	}
	if w, ok := f.Works[key]; ok {
		return w, nil
	}
	return nil, fmt.Errorf("%w: %s", catalog.ErrNotFound, key)
}

// CoverURL implements the catalog cover lookup.
func (f *Fake) CoverURL(coverID int, size catalog.CoverSize) string {
	if coverID <= 0 {
		return Placeholder
	}
	return fmt.Sprintf("https://covers.test/b/id/%d-%s.jpg", coverID, size)
}

// DefaultCategory implements the catalog default.
func (f *Fake) DefaultCategory() string { return "science" }

// Calls returns the FetchBooks calls so far.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallCount is the number of FetchBooks calls so far.
func (f *Fake) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}
