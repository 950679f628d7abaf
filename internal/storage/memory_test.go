package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/domain"
)

func TestMemoryBookStorage(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryBookStorage()

	got, err := s.FindByKey(ctx, "/works/OL1W")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.BulkUpsert(ctx, []domain.BookRecord{
		{Key: "/works/OL1W", Title: "First", IA: []string{"a"}},
		{Key: "/works/OL2W", Title: "Second"},
	}))
	require.NoError(t, s.BulkUpsert(ctx, []domain.BookRecord{{Key: "/works/OL1W", Title: "First, revised"}}))
	assert.Equal(t, 2, s.Len())

	got, err = s.FindByKey(ctx, "/works/OL1W")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "First, revised", got.Title)
}

func TestMemoryHighlightStorage(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryHighlightStorage()

	snap, err := s.LoadHighlights(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap)

	items := []domain.Highlight{{ID: "staff-picks", Title: "Staff Picks"}}
	require.NoError(t, s.SaveHighlights(ctx, items))
	items[0].Title = "mutated"

	snap, err = s.LoadHighlights(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, "Staff Picks", snap.Highlights[0].Title)
	assert.False(t, snap.UpdatedAt.IsZero())
}
