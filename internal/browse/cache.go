package browse

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"bookshelf/internal/domain"
)

// PageCache maps offsets to pages for a single query context. It holds at
// most a fixed number of pages and evicts the least recently used one.
// Sessions purge it whenever the category or search term changes.
type PageCache struct {
	pages *lru.Cache[int, []domain.BookRecord]
}

// NewPageCache creates a cache holding up to size pages.
func NewPageCache(size int) *PageCache {
	pages, err := lru.New[int, []domain.BookRecord](max(size, 1))
	if err != nil {
		// lru.New only fails for non-positive sizes.
		panic(err)
	}
	return &PageCache{pages: pages}
}

// Get returns the cached page at offset.
func (c *PageCache) Get(offset int) ([]domain.BookRecord, bool) {
	return c.pages.Get(offset)
}

// Put stores a page.
func (c *PageCache) Put(offset int, page []domain.BookRecord) {
	c.pages.Add(offset, page)
}

// Purge drops every page.
func (c *PageCache) Purge() {
	c.pages.Purge()
}

// Len is the number of cached pages.
func (c *PageCache) Len() int {
	return c.pages.Len()
}
