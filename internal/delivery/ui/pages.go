package ui

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"bookshelf/internal/browse"
	"bookshelf/internal/catalog"
	"bookshelf/internal/domain"
)

// categories offered in the sidebar, in display order.
var categories = []string{
	"science", "fiction", "biography", "history", "mystery",
	"fantasy", "romance", "horror", "travel",
}

// detailSubjects is how many subjects the detail page lists.
const detailSubjects = 5

type categoryLink struct {
	Value  string
	Label  string
	Active bool
}

type statCard struct {
	ID          string
	Title       string
	Description string
	Gradient    string
}

type bookCard struct {
	Title    string
	Author   string
	CoverURL string
	// Link is empty for books that have no detail page.
	Link string
}

type shelfPage struct {
	Categories    []categoryLink
	CategoryLabel string
	Query         string
	Loading       bool
	Empty         bool
	Stats         []statCard
	Books         []bookCard
	Page          int
	PageCount     int
	HasPrev       bool
	HasNext       bool
}

type bookPage struct {
	*domain.BookView
	Subjects   []string
	Paragraphs []string
}

type awardPage struct {
	Highlight domain.Highlight
	Summary   string
	Books     []bookCard
}

type errorPage struct {
	Message string
}

// ShelfItems lays out a session state as shelf cards: the highlights first,
// then the books of the current page.
func ShelfItems(st browse.State, cover func(coverID int) string) []domain.ShelfItem {
	items := make([]domain.ShelfItem, 0, len(st.StatItems)+len(st.CurrentBooks))
	for _, hl := range st.StatItems {
		items = append(items, domain.StatItem{Highlight: hl})
	}
	for _, b := range st.CurrentBooks {
		items = append(items, domain.BookItem{Book: b, CoverURL: cover(b.CoverID)})
	}
	return items
}

func (h *Handlers) buildShelfPage(st browse.State, pageSize int) (shelfPage, error) {
	page := shelfPage{
		Categories:    categoryLinks(st),
		CategoryLabel: label(st.Category),
		Query:         st.SearchTerm,
		Loading:       st.Status == browse.StatusLoading || st.Status == browse.StatusIdle,
		Empty:         st.Status == browse.StatusEmpty,
		Page:          st.Page(pageSize) + 1,
		PageCount:     st.PageCount(pageSize),
	}
	page.HasPrev = st.Offset > 0
	page.HasNext = st.Offset+pageSize < st.TotalFound

	items := ShelfItems(st, func(id int) string { return h.service.CoverURL(id, catalog.CoverMedium) })
	for _, item := range items {
		switch it := item.(type) {
		case domain.StatItem:
			page.Stats = append(page.Stats, statCard{
				ID:          it.Highlight.ID,
				Title:       it.Highlight.Title,
				Description: it.Highlight.Description,
				Gradient:    it.Highlight.Gradient,
			})
		case domain.BookItem:
			card := h.newBookCard(it.Book, catalog.CoverMedium, true)
			card.CoverURL = it.CoverURL
			page.Books = append(page.Books, card)
		default:
			return shelfPage{}, fmt.Errorf("unhandled shelf item %T", item)
		}
	}
	return page, nil
}

func (h *Handlers) newBookCard(b domain.BookRecord, size catalog.CoverSize, seed bool) bookCard {
	card := bookCard{
		Title:    b.Title,
		Author:   b.AuthorName,
		CoverURL: h.service.CoverURL(b.CoverID, size),
	}
	if catalog.ValidWorkKey(b.Key) {
		card.Link = "/book/" + strings.TrimPrefix(b.Key, "/works/")
		if seed {
			card.Link += "?seed=1"
		}
	}
	return card
}

func newBookPage(view *domain.BookView) bookPage {
	subjects := view.Subjects
	if len(subjects) > detailSubjects {
		subjects = subjects[:detailSubjects]
	}
	return bookPage{
		BookView:   view,
		Subjects:   subjects,
		Paragraphs: paragraphs(view.Description),
	}
}

// paragraphs splits a description on blank lines.
func paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func categoryLinks(st browse.State) []categoryLink {
	links := make([]categoryLink, len(categories))
	for i, c := range categories {
		links[i] = categoryLink{
			Value:  c,
			Label:  label(c),
			Active: !st.Searching() && c == st.Category,
		}
	}
	return links
}

// label turns a category value such as "science_fiction" into a heading.
func label(category string) string {
	// A Caser is stateful, so each call gets its own.
	return cases.Title(language.English).String(strings.ReplaceAll(category, "_", " "))
}
