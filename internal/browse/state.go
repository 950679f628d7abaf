// Path: internal/browse/state.go
package browse

import (
	"slices"

	"bookshelf/internal/catalog"
	"bookshelf/internal/domain"
)

// Status is the lifecycle of one query context.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusLoaded
	StatusEmpty
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// MarshalText renders the status by name in JSON.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// State is the view state of one browsing session.
//
// CurrentBooks is always a contiguous run of AllBooks no longer than a page.
// Offset is a non-negative multiple of the page size, and Offset < TotalFound
// whenever CurrentBooks is non-empty.
type State struct {
	AllBooks     []domain.BookRecord `json:"-"`
	CurrentBooks []domain.BookRecord `json:"currentBooks"`
	Offset       int                 `json:"offset"`
	Category     string              `json:"category"`
	SearchTerm   string              `json:"searchTerm"`
	Status       Status              `json:"status"`
	TotalFound   int                 `json:"totalFound"`
	StatItems    []domain.Highlight  `json:"statItems"`
}

// Searching reports whether the state holds free-text search results.
func (s State) Searching() bool { return s.SearchTerm != "" }

// Page is the zero-based index of the current page.
func (s State) Page(pageSize int) int { return s.Offset / pageSize }

// PageCount is the number of pages TotalFound spans.
func (s State) PageCount(pageSize int) int {
	return (s.TotalFound + pageSize - 1) / pageSize
}

// Clone returns a copy that shares no slices with s.
func (s State) Clone() State {
	s.AllBooks = slices.Clone(s.AllBooks)
	s.CurrentBooks = slices.Clone(s.CurrentBooks)
	s.StatItems = slices.Clone(s.StatItems)
	return s
}

// BeginLoad marks the state as loading. The previous results stay visible
// until CommitLoad replaces them.
func BeginLoad(s State) State {
	s.Status = StatusLoading
	return s
}

// CommitLoad installs a finished load for a query context and shows its first
// page. For a category the result is the whole prefetched set; for a search it
// is the first page only.
func CommitLoad(s State, category, term string, res catalog.Result, pageSize int) State {
	s.Category = category
	s.SearchTerm = term
	s.AllBooks = res.Books
	s.TotalFound = max(res.TotalFound, len(res.Books))
	s.Offset = 0
	s.CurrentBooks = SliceAll(res.Books, 0, pageSize)
	s.Status = statusFor(s.CurrentBooks)
	return s
}

// NextOffset returns the offset of the following page. ok is false while
// loading or when the current page is the last one.
func NextOffset(s State, pageSize int) (offset int, ok bool) {
	if !navigable(s) || s.Offset+pageSize >= s.TotalFound {
		return s.Offset, false
	}
	return s.Offset + pageSize, true
}

// PreviousOffset returns the offset of the preceding page. ok is false while
// loading or on the first page.
func PreviousOffset(s State, pageSize int) (offset int, ok bool) {
	if !navigable(s) || s.Offset == 0 {
		return s.Offset, false
	}
	return max(0, s.Offset-pageSize), true
}

// PageOffset returns the offset of a zero-based page index. ok is false for
// pages outside the result set and for the page already shown.
func PageOffset(s State, pageSize, page int) (offset int, ok bool) {
	if !navigable(s) || page < 0 {
		return s.Offset, false
	}
	offset = page * pageSize
	if offset >= s.TotalFound || offset == s.Offset {
		return s.Offset, false
	}
	return offset, true
}

// SliceAll returns the page of books starting at offset. The last page may be
// shorter than pageSize.
func SliceAll(books []domain.BookRecord, offset, pageSize int) []domain.BookRecord {
	if offset < 0 || offset >= len(books) {
		return []domain.BookRecord{}
	}
	end := min(offset+pageSize, len(books))
	return books[offset:end:end]
}

// ApplyPage shows a page that was served from memory or from the cache.
func ApplyPage(s State, offset int, page []domain.BookRecord) State {
	s.Offset = offset
	s.CurrentBooks = page
	s.Status = statusFor(page)
	return s
}

// ApplySearchPage shows a freshly fetched page of search results. An empty
// page keeps the known total, since a failed fetch also comes back empty.
func ApplySearchPage(s State, offset int, res catalog.Result, pageSize int) State {
	page := SliceAll(res.Books, 0, pageSize)
	if len(page) > 0 {
		s.AllBooks = res.Books
		s.TotalFound = max(res.TotalFound, offset+len(page))
	}
	return ApplyPage(s, offset, page)
}

func navigable(s State) bool {
	return s.Status == StatusLoaded || s.Status == StatusEmpty
}

func statusFor(page []domain.BookRecord) Status {
	if len(page) == 0 {
		return StatusEmpty
	}
	return StatusLoaded
}
