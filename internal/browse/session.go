// Path: internal/browse/session.go
package browse

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"bookshelf/internal/catalog"
	"bookshelf/internal/domain"
)

// Fetcher is the part of the catalog client a session needs.
type Fetcher interface {
	FetchBooks(ctx context.Context, category, searchTerm string, limit, offset int) catalog.Result
}

// LoadListener is told about every committed load or page fetch.
type LoadListener func(category, searchTerm string, books []domain.BookRecord)

// Options sizes a session.
type Options struct {
	PageSize        int
	MaxFetch        int
	CachePages      int
	DefaultCategory string
	OnLoad          LoadListener
}

// Session is the paginated list view-model for one browser session.
// It is safe for concurrent use.
//
// Every load and every page fetch takes a new sequence number. When a fetch
// returns, its result is committed only if no newer request has been issued
// since, so a slow stale response never overwrites a newer one.
type Session struct {
	mu      sync.Mutex
	fetcher Fetcher
	opts    Options
	cache   *PageCache
	state   State
	seq     uint64
	logger  *zap.Logger
	metrics *sessionMetrics
}

// NewSession creates an idle session positioned on the default category.
func NewSession(fetcher Fetcher, opts Options, logger *zap.Logger) *Session {
	if opts.PageSize <= 0 {
		opts.PageSize = 8
	}
	if opts.MaxFetch < opts.PageSize {
		opts.MaxFetch = opts.PageSize
	}
	opts.DefaultCategory = normalizeCategory(opts.DefaultCategory)
	if opts.DefaultCategory == "" {
		opts.DefaultCategory = "science"
	}

	return &Session{
		fetcher: fetcher,
		opts:    opts,
		cache:   NewPageCache(opts.CachePages),
		state: State{
			Category:     opts.DefaultCategory,
			Status:       StatusIdle,
			AllBooks:     []domain.BookRecord{},
			CurrentBooks: []domain.BookRecord{},
		},
		logger:  logger,
		metrics: defaultSessionMetrics(),
	}
}

// PageSize is the fixed page size of the session.
func (s *Session) PageSize() int { return s.opts.PageSize }

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Status is the current lifecycle status.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Status
}

// SetStatItems attaches highlight cards to the state.
func (s *Session) SetStatItems(items []domain.Highlight) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.StatItems = items
}

// Load replaces the result set with a fresh load of a query context. The
// page cache is purged. A blank category keeps the active one.
func (s *Session) Load(ctx context.Context, category, searchTerm string) State {
	category = normalizeCategory(category)
	term := strings.TrimSpace(searchTerm)

	s.mu.Lock()
	if category == "" {
		category = s.state.Category
	}
	s.seq++
	seq := s.seq
	prev := s.state
	s.state = BeginLoad(s.state)
	s.cache.Purge()
	s.mu.Unlock()

	limit := s.opts.MaxFetch
	if term != "" {
		// Search results are fetched one page at a time.
		limit = s.opts.PageSize
	}
	res := s.fetcher.FetchBooks(ctx, category, term, limit, 0)

	s.mu.Lock()
	if !s.current(ctx, seq, prev) {
		defer s.mu.Unlock()
		return s.state.Clone()
	}
	s.state = CommitLoad(s.state, category, term, res, s.opts.PageSize)
	s.cache.Put(0, s.state.CurrentBooks)
	committed := s.state.Clone()
	s.mu.Unlock()

	s.metrics.load(ctx, term != "", committed.Status)
	s.logger.Debug("session load",
		zap.String("category", category),
		zap.String("q", term),
		zap.Int("total", committed.TotalFound),
		zap.Stringer("status", committed.Status),
	)
	s.notify(committed.Category, committed.SearchTerm, committed.AllBooks)
	return committed
}

// NextPage advances one page. It does nothing while loading or on the last
// page.
func (s *Session) NextPage(ctx context.Context) State {
	s.mu.Lock()
	offset, ok := NextOffset(s.state, s.opts.PageSize)
	return s.moveLocked(ctx, offset, ok)
}

// PreviousPage goes back one page. It does nothing while loading or on the
// first page.
func (s *Session) PreviousPage(ctx context.Context) State {
	s.mu.Lock()
	offset, ok := PreviousOffset(s.state, s.opts.PageSize)
	return s.moveLocked(ctx, offset, ok)
}

// JumpTo shows a zero-based page index. Pages outside the result set are
// ignored.
func (s *Session) JumpTo(ctx context.Context, page int) State {
	s.mu.Lock()
	offset, ok := PageOffset(s.state, s.opts.PageSize, page)
	return s.moveLocked(ctx, offset, ok)
}

// Search loads results for a free-text term. A blank term reloads the active
// category instead.
func (s *Session) Search(ctx context.Context, term string) State {
	return s.Load(ctx, "", term)
}

// ChangeCategory always reloads, with the search term cleared.
func (s *Session) ChangeCategory(ctx context.Context, category string) State {
	if normalizeCategory(category) == "" {
		category = s.opts.DefaultCategory
	}
	return s.Load(ctx, category, "")
}

// moveLocked shows the page at offset. It must be called with s.mu held and
// releases it.
func (s *Session) moveLocked(ctx context.Context, offset int, ok bool) State {
	if !ok {
		defer s.mu.Unlock()
		return s.state.Clone()
	}

	if page, hit := s.cache.Get(offset); hit {
		defer s.mu.Unlock()
		s.state = ApplyPage(s.state, offset, page)
		return s.state.Clone()
	}

	if !s.state.Searching() {
		defer s.mu.Unlock()
		page := SliceAll(s.state.AllBooks, offset, s.opts.PageSize)
		s.cache.Put(offset, page)
		s.state = ApplyPage(s.state, offset, page)
		return s.state.Clone()
	}

	s.seq++
	seq := s.seq
	prev := s.state
	category, term := s.state.Category, s.state.SearchTerm
	s.state = BeginLoad(s.state)
	s.mu.Unlock()

	res := s.fetcher.FetchBooks(ctx, category, term, s.opts.PageSize, offset)

	s.mu.Lock()
	if !s.current(ctx, seq, prev) {
		defer s.mu.Unlock()
		return s.state.Clone()
	}
	s.state = ApplySearchPage(s.state, offset, res, s.opts.PageSize)
	if len(s.state.CurrentBooks) > 0 {
		s.cache.Put(offset, s.state.CurrentBooks)
	}
	committed := s.state.Clone()
	s.mu.Unlock()

	s.notify(category, term, committed.CurrentBooks)
	return committed
}

// current reports whether a fetch issued under seq may commit. It must be
// called with s.mu held. A cancelled caller restores the state it replaced.
func (s *Session) current(ctx context.Context, seq uint64, prev State) bool {
	if seq != s.seq {
		s.logger.Debug("discarding stale response", zap.Uint64("seq", seq), zap.Uint64("latest", s.seq))
		return false
	}
	if ctx.Err() != nil {
		s.state = prev
		return false
	}
	return true
}

func (s *Session) notify(category, term string, books []domain.BookRecord) {
	if s.opts.OnLoad != nil && len(books) > 0 {
		s.opts.OnLoad(category, term, books)
	}
}

func normalizeCategory(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}
