package highlights

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"bookshelf/internal/catalog"
	"bookshelf/internal/domain"
)

type fetchFunc func(category, term string, limit int) catalog.Result

func (f fetchFunc) FetchBooks(_ context.Context, category, term string, limit, _ int) catalog.Result {
	return f(category, term, limit)
}

func book(title, author string) domain.BookRecord {
	return domain.BookRecord{Key: "/works/" + title, Title: title, AuthorName: author}
}

func TestTopAuthor(t *testing.T) {
	tests := []struct {
		name      string
		books     []domain.BookRecord
		want      string
		wantCount int
	}{
		{"empty", nil, "", 0},
		{"only unknown", []domain.BookRecord{book("a", domain.UnknownText)}, "", 0},
		{
			"multi-author strings are split",
			[]domain.BookRecord{
				book("a", "Le Guin, Butler"),
				book("b", "Butler"),
				book("c", "Le Guin"),
				book("d", "Butler, Delany"),
			},
			"Butler", 3,
		},
		{
			"ties go to the first encountered",
			[]domain.BookRecord{
				book("a", "Delany"),
				book("b", "Butler"),
				book("c", "Butler"),
				book("d", "Delany"),
			},
			"Delany", 2,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, n := TopAuthor(tc.books)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.wantCount, n)
		})
	}
}

func TestCompute(t *testing.T) {
	defer goleak.VerifyNone(t)

	var sampleLimit int
	f := fetchFunc(func(category, term string, limit int) catalog.Result {
		switch {
		case term == "bestseller":
			return catalog.Result{Books: []domain.BookRecord{book("Atomic Habits", "James Clear")}, TotalFound: 1}
		case category == "classics":
			return catalog.Result{Books: []domain.BookRecord{book("Middlemarch", "George Eliot")}, TotalFound: 1}
		case category == "literature":
			sampleLimit = limit
			return catalog.Result{Books: []domain.BookRecord{
				book("a", "Toni Morrison"), book("b", "Toni Morrison, Zadie Smith"), book("c", "Zadie Smith"), book("d", "Toni Morrison"),
			}}
		case category == "fantasy":
			return catalog.Result{Books: []domain.BookRecord{book("Earthsea", "Ursula K. Le Guin")}}
		}
		return catalog.Result{Books: []domain.BookRecord{}}
	})

	got := NewAggregator(f, zap.NewNop()).Compute(context.Background())
	require.Len(t, got, 4)

	assert.Equal(t, IDBestSellers, got[0].ID)
	assert.Equal(t, "Best Sellers", got[0].Title)
	assert.Equal(t, "Atomic Habits", got[0].Description)
	assert.Equal(t, domain.FetchParams{SearchTerm: "bestseller", Limit: 10}, got[0].FetchParams)

	assert.Equal(t, IDStaffPicks, got[1].ID)
	assert.Equal(t, "Middlemarch", got[1].Description)
	assert.Equal(t, domain.FetchParams{Category: "classics", Limit: 10}, got[1].FetchParams)

	assert.Equal(t, IDTopAuthor, got[2].ID)
	assert.Equal(t, "Top Author", got[2].Title)
	assert.Equal(t, "Toni Morrison", got[2].Description)
	assert.Equal(t, domain.FetchParams{SearchTerm: "Toni Morrison", Limit: 10}, got[2].FetchParams)
	assert.Equal(t, 50, sampleLimit)

	assert.Equal(t, IDDiscover, got[3].ID)
	assert.Equal(t, "Earthsea", got[3].Description)
}

func TestComputeDegradesFailedProbes(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := fetchFunc(func(category, term string, limit int) catalog.Result {
		if category == "classics" {
			return catalog.Result{Books: []domain.BookRecord{book("Emma", "Jane Austen")}}
		}
		return catalog.Result{Books: []domain.BookRecord{}}
	})

	got := NewAggregator(f, zap.NewNop()).Compute(context.Background())
	require.Len(t, got, 4)

	assert.Equal(t, UnknownTitle, got[0].Title)
	assert.Equal(t, IDBestSellers, got[0].ID, "degraded cards keep their id")
	assert.Equal(t, "Staff Picks", got[1].Title)
	assert.Equal(t, UnknownTitle, got[2].Title)
	assert.Equal(t, domain.FetchParams{Category: "literature", Limit: 10}, got[2].FetchParams)
	assert.Equal(t, UnknownTitle, got[3].Title)
}

func TestFindAndDescriptions(t *testing.T) {
	items := []domain.Highlight{
		{ID: IDStaffPicks, Title: "Staff Picks"},
		{ID: IDTopAuthor, Title: "Top Author", FetchParams: domain.FetchParams{SearchTerm: "Toni Morrison"}},
		{ID: IDDiscover, Title: "Discover", FetchParams: domain.FetchParams{Category: "science_fiction"}},
	}

	h, ok := Find(items, IDTopAuthor)
	require.True(t, ok)
	assert.Contains(t, MeaningfulDescription(h), "Toni Morrison")

	h, _ = Find(items, IDDiscover)
	assert.Contains(t, MeaningfulDescription(h), "science fiction genre")

	h, _ = Find(items, IDStaffPicks)
	assert.Contains(t, MeaningfulDescription(h), "classics")

	_, ok = Find(items, "nope")
	assert.False(t, ok)
	assert.Equal(t, "A collection of notable books.", MeaningfulDescription(domain.Highlight{ID: "x"}))
}
