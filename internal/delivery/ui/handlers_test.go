package ui

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bookshelf/internal/browse"
	"bookshelf/internal/catalog/catalogtest"
	"bookshelf/internal/config"
	"bookshelf/internal/delivery"
	"bookshelf/internal/domain"
	"bookshelf/internal/events"
	"bookshelf/internal/service"
	"bookshelf/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type uiFixture struct {
	catalog *catalogtest.Fake
	svc     *service.Service
	router  *gin.Engine
	cookie  *http.Cookie
}

func newUI(t *testing.T) *uiFixture {
	t.Helper()
	fake := catalogtest.New()
	broker := events.NewBroker(64)
	t.Cleanup(broker.Close)

	cfg := config.Config{Browse: config.BrowseConfig{PageSize: 8, MaxFetch: 100, CachePages: 8, MaxSessions: 8}}
	svc := service.NewService(cfg, fake, storage.NewMemoryBookStorage(), storage.NewMemoryHighlightStorage(), broker, zap.NewNop())

	router := gin.New()
	NewHandlers(svc, zap.NewNop()).RegisterRoutes(router)
	return &uiFixture{catalog: fake, svc: svc, router: router}
}

func (u *uiFixture) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if u.cookie != nil {
		req.AddCookie(u.cookie)
	}
	rec := httptest.NewRecorder()
	u.router.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == delivery.SessionCookie {
			u.cookie = c
		}
	}
	return rec
}

func TestShelfRendersFirstPage(t *testing.T) {
	u := newUI(t)

	rec := u.get(t, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, u.cookie)

	body := rec.Body.String()
	for i := range 8 {
		assert.Contains(t, body, fmt.Sprintf("science %d", i))
	}
	assert.NotContains(t, body, "science 8")
	assert.Contains(t, body, "Page 1 of 3")
	assert.Contains(t, body, `href="/book/OL0scienceW?seed=1"`)
	assert.Contains(t, body, catalogtest.Placeholder)
	assert.Contains(t, body, `href="/?category=travel"`)
	assert.NotContains(t, body, "Previous")
}

func TestShelfActionsRedirect(t *testing.T) {
	u := newUI(t)
	u.get(t, "/")

	rec := u.get(t, "/?page=next")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	body := u.get(t, "/").Body.String()
	assert.Contains(t, body, "science 8")
	assert.Contains(t, body, "Page 2 of 3")
	assert.Contains(t, body, "Previous")

	u.get(t, "/?page=3")
	body = u.get(t, "/").Body.String()
	assert.Contains(t, body, "science 19")
	assert.NotContains(t, body, "Next")

	u.get(t, "/?q=dune")
	body = u.get(t, "/").Body.String()
	assert.Contains(t, body, "Results for")
	assert.Contains(t, body, "dune 0")

	u.get(t, "/?category=history")
	body = u.get(t, "/").Body.String()
	assert.Contains(t, body, "history 0")
	assert.Contains(t, body, `class="category-link active">History`)

	rec = u.get(t, "/?page=zero")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFirstActionSkipsDefaultLoad(t *testing.T) {
	u := newUI(t)

	rec := u.get(t, "/?category=history")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	require.NotNil(t, u.cookie)
	require.Equal(t, 1, u.catalog.CallCount())
	assert.Equal(t, "history", u.catalog.Calls()[0].Category)

	body := u.get(t, "/").Body.String()
	assert.Contains(t, body, "history 0")
	assert.Equal(t, 1, u.catalog.CallCount())
}

func TestPageActionOnNewSessionLoadsDefault(t *testing.T) {
	u := newUI(t)

	rec := u.get(t, "/?page=next")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Zero(t, u.catalog.CallCount())

	body := u.get(t, "/").Body.String()
	assert.Contains(t, body, "science 0")
	assert.Contains(t, body, "Page 1 of 3")
}

func TestBookDetailUsesSeed(t *testing.T) {
	u := newUI(t)
	u.get(t, "/")
	u.catalog.Works["/works/OL0scienceW"] = &domain.WorkDetail{
		Key:         "/works/OL0scienceW",
		Title:       "The Detailed Title",
		Description: "First paragraph.\n\nSecond paragraph.",
		Subjects:    []string{"s1", "s2", "s3", "s4", "s5", "s6", "s7"},
	}

	rec := u.get(t, "/book/OL0scienceW?seed=1")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "The Detailed Title")
	assert.Contains(t, body, "Ann Author")
	assert.Contains(t, body, "<p>First paragraph.</p>")
	assert.Contains(t, body, "<p>Second paragraph.</p>")
	assert.Contains(t, body, "s1, s2, s3, s4, s5")
	assert.NotContains(t, body, "s6")
	assert.Contains(t, body, "Check Availability")
	assert.Contains(t, body, "Unknown")
}

func TestBookDetailErrors(t *testing.T) {
	u := newUI(t)

	rec := u.get(t, "/book/OL999W")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Go back to bookshelf")

	rec = u.get(t, "/book/not-a-work")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid book key provided.")
}

func TestAwardPage(t *testing.T) {
	u := newUI(t)

	rec := u.get(t, "/awards/discover")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	u.svc.RefreshHighlights(t.Context())
	rec = u.get(t, "/awards/discover")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Books from the fantasy genre, selected as an example discovery category.")
	assert.Contains(t, body, "fantasy 9")
	assert.Contains(t, body, `href="/book/OL0fantasyW"`)
}

func TestStaticPlaceholder(t *testing.T) {
	u := newUI(t)
	rec := u.get(t, "/static/placeholder-cover.svg")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No Cover")
}

func TestShelfItemsOrder(t *testing.T) {
	st := browse.State{
		StatItems:    []domain.Highlight{{ID: "best-sellers"}},
		CurrentBooks: []domain.BookRecord{{Key: "/works/OL1W", CoverID: 3}, {Key: "/works/OL2W"}},
	}
	got := ShelfItems(st, func(id int) string { return fmt.Sprintf("cover-%d", id) })

	want := []domain.ShelfItem{
		domain.StatItem{Highlight: domain.Highlight{ID: "best-sellers"}},
		domain.BookItem{Book: domain.BookRecord{Key: "/works/OL1W", CoverID: 3}, CoverURL: "cover-3"},
		domain.BookItem{Book: domain.BookRecord{Key: "/works/OL2W"}, CoverURL: "cover-0"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ShelfItems mismatch (-want +got):\n%s", diff)
	}
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Science Fiction", label("science_fiction"))
	assert.Equal(t, "History", label("history"))
	assert.Equal(t, "", label(""))
}
