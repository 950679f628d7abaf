// Path: internal/highlights/aggregator.go
package highlights

import (
	"context"
	"fmt"
	"strings"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"bookshelf/internal/catalog"
	"bookshelf/internal/domain"
)

// Highlight ids, in display order.
const (
	IDBestSellers = "best-sellers"
	IDStaffPicks  = "staff-picks"
	IDTopAuthor   = "top-author"
	IDDiscover    = "discover"
)

const (
	// UnknownTitle is the title of a card whose probe failed.
	UnknownTitle = domain.UnknownText

	bestSellerTerm     = "bestseller"
	staffPickCategory  = "classics"
	authorSampleSource = "literature"
	discoverCategory   = "fantasy"

	drillDownLimit    = 10
	defaultSampleSize = 50
)

// Fetcher is the part of the catalog client the probes use.
type Fetcher interface {
	FetchBooks(ctx context.Context, category, searchTerm string, limit, offset int) catalog.Result
}

// Aggregator derives the promotional highlight cards from probe queries.
type Aggregator struct {
	fetcher    Fetcher
	sampleSize int
	logger     *zap.Logger
}

// NewAggregator creates an aggregator over a catalog fetcher.
func NewAggregator(fetcher Fetcher, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		fetcher:    fetcher,
		sampleSize: defaultSampleSize,
		logger:     logger.Named("highlights"),
	}
}

type probe func(ctx context.Context) domain.Highlight

// Compute runs every probe and returns the cards in a fixed order. A probe
// that fails degrades to an "Unknown" card; it never aborts the others.
func (a *Aggregator) Compute(ctx context.Context) []domain.Highlight {
	probes := []probe{a.bestSellers, a.staffPicks, a.topAuthor, a.discover}
	out := make([]domain.Highlight, len(probes))

	p := pool.New().WithMaxGoroutines(len(probes))
	for i, run := range probes {
		p.Go(func() {
			out[i] = run(ctx)
		})
	}
	p.Wait()

	a.logger.Debug("highlights computed", zap.Int("cards", len(out)))
	return out
}

func (a *Aggregator) bestSellers(ctx context.Context) domain.Highlight {
	h := domain.Highlight{
		ID:          IDBestSellers,
		Title:       "Best Sellers",
		Gradient:    "gradient-gold",
		FetchParams: domain.FetchParams{SearchTerm: bestSellerTerm, Limit: drillDownLimit},
	}
	return a.firstTitleProbe(ctx, h)
}

func (a *Aggregator) staffPicks(ctx context.Context) domain.Highlight {
	// There is no curated picks endpoint; classics stand in for one.
	h := domain.Highlight{
		ID:          IDStaffPicks,
		Title:       "Staff Picks",
		Gradient:    "gradient-blue",
		FetchParams: domain.FetchParams{Category: staffPickCategory, Limit: drillDownLimit},
	}
	return a.firstTitleProbe(ctx, h)
}

func (a *Aggregator) discover(ctx context.Context) domain.Highlight {
	h := domain.Highlight{
		ID:          IDDiscover,
		Title:       "Discover",
		Gradient:    "gradient-green",
		FetchParams: domain.FetchParams{Category: discoverCategory, Limit: drillDownLimit},
	}
	return a.firstTitleProbe(ctx, h)
}

func (a *Aggregator) topAuthor(ctx context.Context) domain.Highlight {
	h := domain.Highlight{
		ID:          IDTopAuthor,
		Title:       "Top Author",
		Gradient:    "gradient-purple",
		FetchParams: domain.FetchParams{Category: authorSampleSource, Limit: drillDownLimit},
	}

	res := a.fetcher.FetchBooks(ctx, authorSampleSource, "", a.sampleSize, 0)
	name, count := TopAuthor(res.Books)
	if name == "" {
		return a.unknown(h)
	}

	h.Description = name
	h.FetchParams = domain.FetchParams{SearchTerm: name, Limit: drillDownLimit}
	a.logger.Debug("top author", zap.String("author", name), zap.Int("books", count))
	return h
}

// firstTitleProbe runs the highlight's own fetch params and describes the
// card by the first title returned.
func (a *Aggregator) firstTitleProbe(ctx context.Context, h domain.Highlight) domain.Highlight {
	fp := h.FetchParams
	res := a.fetcher.FetchBooks(ctx, fp.Category, fp.SearchTerm, fp.Limit, 0)
	if len(res.Books) == 0 {
		return a.unknown(h)
	}
	h.Description = res.Books[0].Title
	return h
}

func (a *Aggregator) unknown(h domain.Highlight) domain.Highlight {
	a.logger.Warn("highlight probe returned nothing", zap.String("highlight", h.ID))
	h.Title = UnknownTitle
	h.Description = "No data available right now"
	return h
}

// TopAuthor tallies author names across books, splitting joined author
// strings, and returns the most frequent one with its count. Ties go to the
// name encountered first. Unknown authors are not counted.
func TopAuthor(books []domain.BookRecord) (string, int) {
	counts := make(map[string]int)
	var order []string
	for _, b := range books {
		for _, name := range b.Authors() {
			if _, seen := counts[name]; !seen {
				order = append(order, name)
			}
			counts[name]++
		}
	}

	best, bestCount := "", 0
	for _, name := range order {
		if counts[name] > bestCount {
			best, bestCount = name, counts[name]
		}
	}
	return best, bestCount
}

// Find returns the highlight with the given id.
func Find(items []domain.Highlight, id string) (domain.Highlight, bool) {
	for _, h := range items {
		if h.ID == id {
			return h, true
		}
	}
	return domain.Highlight{}, false
}

// MeaningfulDescription is the long text shown on a highlight's detail page,
// explaining how its books were selected.
func MeaningfulDescription(h domain.Highlight) string {
	switch {
	case h.ID == IDStaffPicks && h.Title != UnknownTitle:
		return fmt.Sprintf("Our featured selection, highlighting timeless classics and highly-regarded works from the '%s' category.", staffPickCategory)
	case h.ID == IDBestSellers && h.Title != UnknownTitle:
		return fmt.Sprintf("Popular titles currently topping the charts, found with the '%s' keyword.", bestSellerTerm)
	case h.ID == IDTopAuthor && h.FetchParams.SearchTerm != "":
		return fmt.Sprintf("Popular and notable works by %s, the most frequent author in recent '%s' results.", h.FetchParams.SearchTerm, authorSampleSource)
	case h.ID == IDDiscover && h.FetchParams.Category != "":
		return fmt.Sprintf("Books from the %s genre, selected as an example discovery category.", strings.ReplaceAll(h.FetchParams.Category, "_", " "))
	default:
		return "A collection of notable books."
	}
}
