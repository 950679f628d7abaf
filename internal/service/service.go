// Path: internal/service/service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"bookshelf/internal/browse"
	"bookshelf/internal/catalog"
	"bookshelf/internal/config"
	"bookshelf/internal/domain"
	"bookshelf/internal/events"
	"bookshelf/internal/highlights"
)

var (
	// ErrInvalidKey is returned for book ids that are not catalog work keys.
	ErrInvalidKey = catalog.ErrInvalidKey
	// ErrUnknownHighlight is returned for highlight ids that do not exist.
	ErrUnknownHighlight = errors.New("unknown highlight")
)

// Service is the central orchestrator of the application's logic.
type Service struct {
	cfg              config.HighlightsConfig
	catalog          Catalog
	sessions         *browse.SessionStore
	aggregator       *highlights.Aggregator
	bookStorage      BookStorage
	highlightStorage HighlightStorage
	broker           *events.Broker
	mirror           <-chan events.Event
	logger           *zap.Logger

	mu         sync.RWMutex
	highlights []domain.Highlight

	stopChan chan struct{} // Used for graceful shutdown
	stopOnce sync.Once
}

// NewService creates a new core application service.
func NewService(
	cfg config.Config,
	cat Catalog,
	bookStorage BookStorage,
	highlightStorage HighlightStorage,
	broker *events.Broker,
	logger *zap.Logger,
) *Service {
	s := &Service{
		cfg:              cfg.Highlights,
		catalog:          cat,
		aggregator:       highlights.NewAggregator(cat, logger),
		bookStorage:      bookStorage,
		highlightStorage: highlightStorage,
		broker:           broker,
		logger:           logger.Named("service"),
		stopChan:         make(chan struct{}),
	}

	s.sessions = browse.NewSessionStore(cat, browse.Options{
		PageSize:        cfg.Browse.PageSize,
		MaxFetch:        cfg.Browse.MaxFetch,
		CachePages:      cfg.Browse.CachePages,
		DefaultCategory: cat.DefaultCategory(),
		OnLoad:          s.publishLoaded,
	}, cfg.Browse.MaxSessions, logger)

	// Subscribe before any session can publish.
	s.mirror = broker.Subscribe(events.TopicBooksLoaded)
	return s
}

// Start begins the main operational loop of the service.
// It is a long-running, blocking method.
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info("Service starting...")

	snapshot, err := s.highlightStorage.LoadHighlights(ctx)
	if err != nil {
		return fmt.Errorf("could not load stored highlights: %w", err)
	}
	if snapshot != nil && len(snapshot.Highlights) > 0 {
		s.setHighlights(snapshot.Highlights)
		s.logger.Info("restored highlights", zap.Time("updatedAt", snapshot.UpdatedAt))
	} else {
		s.RefreshHighlights(ctx)
	}

	interval := time.Duration(s.cfg.RefreshMinutes) * time.Minute
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	s.logger.Info("highlight refresh scheduled", zap.Duration("interval", interval))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-s.mirror:
			if !ok {
				s.logger.Info("mirror subscription closed")
				return nil
			}
			s.mirrorBooks(ctx, ev)
		case <-ticker.C:
			s.RefreshHighlights(ctx)
		case <-s.stopChan:
			s.logger.Info("Service stopped.")
			return nil
		case <-ctx.Done():
			s.logger.Info("Service context cancelled.")
			return nil
		}
	}
}

// Stop gracefully shuts down the service's background processes.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Service stopping...")
		close(s.stopChan)
	})
}

// RefreshHighlights recomputes the highlight cards, stores them and
// announces them.
func (s *Service) RefreshHighlights(ctx context.Context) []domain.Highlight {
	items := s.aggregator.Compute(ctx)
	s.setHighlights(items)

	if err := s.highlightStorage.SaveHighlights(ctx, items); err != nil {
		s.logger.Warn("failed to store highlights", zap.Error(err))
	}
	s.broker.Publish(events.TopicHighlightsRefreshed, items)
	s.logger.Info("highlights refreshed", zap.Int("cards", len(items)))
	return slices.Clone(items)
}

// Highlights returns the current highlight cards.
func (s *Service) Highlights() []domain.Highlight {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.highlights)
}

func (s *Service) setHighlights(items []domain.Highlight) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.highlights = slices.Clone(items)
}

// Session returns the browsing session for id, creating one when id is
// unknown. A session that has never completed a load, including one whose
// first load was cancelled, loads the default category before it is returned.
// The returned id is the one the caller must use from now on.
func (s *Service) Session(ctx context.Context, id string) (*browse.Session, string) {
	sess, id := s.OpenSession(id)
	if sess.Status() == browse.StatusIdle {
		sess.Load(ctx, s.catalog.DefaultCategory(), "")
	}
	return sess, id
}

// OpenSession is Session without the default load. Callers that are about to
// load a category or search themselves use it to skip a wasted fetch.
func (s *Service) OpenSession(id string) (*browse.Session, string) {
	sess, id, created := s.sessions.GetOrCreate(id)
	if created {
		s.logger.Debug("session created", zap.String("session", id))
	}
	sess.SetStatItems(s.Highlights())
	return sess, id
}

// ExistingSession returns the session for id without creating one.
func (s *Service) ExistingSession(id string) (*browse.Session, bool) {
	return s.sessions.Get(id)
}

// SessionCount is the number of browsing sessions held.
func (s *Service) SessionCount() int {
	return s.sessions.Len()
}

// Books queries the catalog directly, outside any session.
func (s *Service) Books(ctx context.Context, category, searchTerm string, limit, offset int) catalog.Result {
	return s.catalog.FetchBooks(ctx, category, searchTerm, limit, offset)
}

// CoverURL builds a cover image URL, or the placeholder.
func (s *Service) CoverURL(coverID int, size catalog.CoverSize) string {
	return s.catalog.CoverURL(coverID, size)
}

// GetBook loads the detail view for a work. seed is the summary record the
// user navigated from; without one the mirrored copy is used if present.
// Detail fetch failures are returned to the caller.
func (s *Service) GetBook(ctx context.Context, key string, seed *domain.BookRecord) (*domain.BookView, error) {
	if !catalog.ValidWorkKey(key) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	if seed == nil {
		stored, err := s.bookStorage.FindByKey(ctx, key)
		if err != nil {
			s.logger.Warn("mirror lookup failed", zap.String("key", key), zap.Error(err))
		}
		seed = stored
	}

	work, err := s.catalog.FetchWork(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load book %s: %w", key, err)
	}

	view := mergeDetail(key, work, seed)
	view.CoverURL = s.catalog.CoverURL(view.CoverID, catalog.CoverLarge)
	return &view, nil
}

// mergeDetail prefers the detail document and falls back to the seed for
// the fields the work document does not carry.
func mergeDetail(key string, work *domain.WorkDetail, seed *domain.BookRecord) domain.BookView {
	var base domain.BookRecord
	if seed != nil {
		base = *seed
	}
	base.Key = key

	switch {
	case work.Title != "":
		base.Title = work.Title
	case base.Title == "":
		base.Title = domain.UnknownTitle
	}
	if len(work.Covers) > 0 && work.Covers[0] > 0 {
		base.CoverID = work.Covers[0]
	}
	if y := domain.ParseYear(work.FirstPublishDate); y.Known() {
		base.FirstPublishYear = y
	}
	if base.AuthorName == "" {
		base.AuthorName = domain.UnknownText
	}
	if base.IA == nil {
		base.IA = []string{}
	}

	subjects := work.Subjects
	if subjects == nil {
		subjects = []string{}
	}
	return domain.BookView{
		BookRecord:  base,
		Description: string(work.Description),
		Subjects:    subjects,
	}
}

// HighlightBooks re-runs a highlight's fetch params to list its books.
func (s *Service) HighlightBooks(ctx context.Context, id string) (domain.Highlight, []domain.BookRecord, error) {
	h, ok := highlights.Find(s.Highlights(), id)
	if !ok {
		return domain.Highlight{}, nil, fmt.Errorf("%w: %q", ErrUnknownHighlight, id)
	}
	fp := h.FetchParams
	res := s.catalog.FetchBooks(ctx, fp.Category, fp.SearchTerm, fp.Limit, 0)
	if len(res.Books) > 0 {
		s.publishLoaded(fp.Category, fp.SearchTerm, res.Books)
	}
	return h, res.Books, nil
}

func (s *Service) publishLoaded(category, searchTerm string, books []domain.BookRecord) {
	s.broker.Publish(events.TopicBooksLoaded, events.BooksLoaded{
		Category:   category,
		SearchTerm: searchTerm,
		Books:      books,
	})
}

// mirrorBooks stores the books of a committed listing so detail pages can be
// seeded without the list that linked to them.
func (s *Service) mirrorBooks(ctx context.Context, ev events.Event) {
	loaded, ok := ev.Data.(events.BooksLoaded)
	if !ok {
		s.logger.Warn("unexpected mirror event", zap.String("topic", string(ev.Topic)))
		return
	}
	if err := s.bookStorage.BulkUpsert(ctx, loaded.Books); err != nil {
		s.logger.Warn("failed to mirror books",
			zap.String("category", loaded.Category),
			zap.String("q", loaded.SearchTerm),
			zap.Error(err),
		)
		return
	}
	s.logger.Debug("mirrored books", zap.Int("books", len(loaded.Books)))
}
