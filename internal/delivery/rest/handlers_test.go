package rest

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bookshelf/internal/catalog"
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

type apiFixture struct {
	catalog *catalogtest.Fake
	svc     *service.Service
	handler http.Handler
	cookie  *http.Cookie
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	fake := catalogtest.New()
	broker := events.NewBroker(64)
	t.Cleanup(broker.Close)

	cfg := config.Config{Browse: config.BrowseConfig{PageSize: 8, MaxFetch: 100, CachePages: 8, MaxSessions: 8}}
	svc := service.NewService(cfg, fake, storage.NewMemoryBookStorage(), storage.NewMemoryHighlightStorage(), broker, zap.NewNop())
	return &apiFixture{
		catalog: fake,
		svc:     svc,
		handler: NewServer("0", svc, zap.NewNop()).Handler(),
	}
}

// do sends a request, carrying the session cookie from earlier responses.
func (a *apiFixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if a.cookie != nil {
		req.AddCookie(a.cookie)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == delivery.SessionCookie {
			a.cookie = c
		}
	}
	return rec
}

type sessionBody struct {
	State struct {
		CurrentBooks []domain.BookRecord `json:"currentBooks"`
		Offset       int                 `json:"offset"`
		Category     string              `json:"category"`
		SearchTerm   string              `json:"searchTerm"`
		Status       string              `json:"status"`
		TotalFound   int                 `json:"totalFound"`
	} `json:"state"`
	Page      int `json:"page"`
	PageCount int `json:"pageCount"`
	PageSize  int `json:"pageSize"`
}

func decodeSession(t *testing.T, rec *httptest.ResponseRecorder) sessionBody {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body sessionBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthz(t *testing.T) {
	a := newAPI(t)
	rec := a.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSessionPaging(t *testing.T) {
	a := newAPI(t)

	body := decodeSession(t, a.do(t, http.MethodGet, "/api/session", ""))
	require.NotNil(t, a.cookie)
	assert.Equal(t, "loaded", body.State.Status)
	assert.Equal(t, "science", body.State.Category)
	assert.Equal(t, 1, body.Page)
	assert.Equal(t, 3, body.PageCount)
	assert.Equal(t, 8, body.PageSize)
	require.Len(t, body.State.CurrentBooks, 8)

	body = decodeSession(t, a.do(t, http.MethodPost, "/api/session/next", ""))
	assert.Equal(t, 8, body.State.Offset)
	assert.Equal(t, "science 8", body.State.CurrentBooks[0].Title)

	body = decodeSession(t, a.do(t, http.MethodPost, "/api/session/page", `{"page":3}`))
	assert.Equal(t, 16, body.State.Offset)
	assert.Len(t, body.State.CurrentBooks, 4)

	body = decodeSession(t, a.do(t, http.MethodPost, "/api/session/next", ""))
	assert.Equal(t, 16, body.State.Offset, "next on the last page is ignored")

	body = decodeSession(t, a.do(t, http.MethodPost, "/api/session/previous", ""))
	assert.Equal(t, 8, body.State.Offset)

	// Only the first request created a session and loaded the category.
	assert.Equal(t, 1, a.catalog.CallCount())
}

func TestSessionSearchAndCategory(t *testing.T) {
	a := newAPI(t)

	body := decodeSession(t, a.do(t, http.MethodPost, "/api/session/search", `{"q":"dune"}`))
	assert.Equal(t, "dune", body.State.SearchTerm)
	assert.Equal(t, "dune 0", body.State.CurrentBooks[0].Title)
	assert.Equal(t, 1, a.catalog.CallCount(), "a new session searching skips the default load")

	body = decodeSession(t, a.do(t, http.MethodPost, "/api/session/category", `{"category":"History"}`))
	assert.Equal(t, "history", body.State.Category)
	assert.Empty(t, body.State.SearchTerm)
	assert.Equal(t, 0, body.State.Offset)
}

func TestSessionBadRequests(t *testing.T) {
	a := newAPI(t)

	rec := a.do(t, http.MethodPost, "/api/session/search", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/session/page", `{"page":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListBooks(t *testing.T) {
	a := newAPI(t)

	rec := a.do(t, http.MethodGet, "/api/books?category=fantasy&limit=5&offset=2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Books      []domain.BookRecord `json:"books"`
		TotalFound int                 `json:"totalFound"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Books, 5)
	assert.Equal(t, "fantasy 2", body.Books[0].Title)
	assert.Equal(t, catalogtest.Call{Category: "fantasy", Limit: 5, Offset: 2}, a.catalog.Calls()[0])

	for _, q := range []string{"limit=abc", "limit=500", "offset=-1"} {
		rec = a.do(t, http.MethodGet, "/api/books?"+q, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestGetWork(t *testing.T) {
	a := newAPI(t)
	a.catalog.Works["/works/OL1W"] = &domain.WorkDetail{
		Key:         "/works/OL1W",
		Title:       "Dune",
		Description: "Spice.",
		Covers:      []int{7},
	}

	rec := a.do(t, http.MethodGet, "/api/works/OL1W", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var view domain.BookView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "Dune", view.Title)
	assert.Equal(t, "Spice.", view.Description)
	assert.Equal(t, "https://covers.test/b/id/7-L.jpg", view.CoverURL)

	rec = a.do(t, http.MethodGet, "/api/works/OL404W", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/works/not-a-work", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	a.catalog.WorkErr = catalog.ErrUpstream
	rec = a.do(t, http.MethodGet, "/api/works/OL1W", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHighlights(t *testing.T) {
	a := newAPI(t)

	rec := a.do(t, http.MethodGet, "/api/highlights/discover/books", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	a.svc.RefreshHighlights(t.Context())

	rec = a.do(t, http.MethodGet, "/api/highlights", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Highlights []domain.Highlight `json:"highlights"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Highlights, 4)

	rec = a.do(t, http.MethodGet, "/api/highlights/discover/books", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var drill struct {
		Highlight domain.Highlight    `json:"highlight"`
		Books     []domain.BookRecord `json:"books"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &drill))
	assert.Equal(t, "discover", drill.Highlight.ID)
	assert.Len(t, drill.Books, 10)
}
