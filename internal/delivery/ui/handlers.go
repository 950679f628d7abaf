// path: internal/delivery/ui/handlers.go
package ui

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bookshelf/internal/browse"
	"bookshelf/internal/catalog"
	"bookshelf/internal/delivery"
	"bookshelf/internal/domain"
	"bookshelf/internal/highlights"
	"bookshelf/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// dataService defines the interface required by the UI handlers.
type dataService interface {
	Session(ctx context.Context, id string) (*browse.Session, string)
	OpenSession(id string) (*browse.Session, string)
	ExistingSession(id string) (*browse.Session, bool)
	GetBook(ctx context.Context, key string, seed *domain.BookRecord) (*domain.BookView, error)
	HighlightBooks(ctx context.Context, id string) (domain.Highlight, []domain.BookRecord, error)
	CoverURL(coverID int, size catalog.CoverSize) string
}

// Handlers holds dependencies for UI handlers.
type Handlers struct {
	service   dataService
	templates *template.Template
	logger    *zap.Logger
}

// NewHandlers creates a new UI handler struct.
func NewHandlers(s dataService, logger *zap.Logger) *Handlers {
	tpl := template.Must(template.New("").Funcs(template.FuncMap{
		"join": strings.Join,
	}).ParseFS(templateFS, "templates/*.html"))

	logger = logger.Named("ui")
	for _, t := range tpl.Templates() {
		logger.Debug("loaded template", zap.String("name", t.Name()))
	}

	return &Handlers{
		service:   s,
		templates: tpl,
		logger:    logger,
	}
}

// RegisterRoutes registers all UI routes on the given router.
func (h *Handlers) RegisterRoutes(r gin.IRouter) {
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	r.StaticFS("/static", http.FS(static))

	r.GET("/", h.handleShowShelf)
	r.GET("/book/:id", h.handleShowBook)
	r.GET("/awards/:id", h.handleShowAward)
}

// handleShowShelf serves the bookshelf. Query parameters act on the session
// and are answered with a redirect back to the plain page, so reloading never
// repeats them:
//
//	category=NAME   switch category
//	q=TERM          search; a blank term reloads the category
//	page=next|prev  move one page
//	page=N          jump to the one-based page N
func (h *Handlers) handleShowShelf(c *gin.Context) {
	ctx := c.Request.Context()
	category, hasCategory := c.GetQuery("category")
	term, hasTerm := c.GetQuery("q")
	pageParam, hasPage := c.GetQuery("page")

	jump := 0
	if hasPage && pageParam != "next" && pageParam != "prev" {
		n, err := strconv.Atoi(pageParam)
		if err != nil || n < 1 {
			c.String(http.StatusBadRequest, "invalid page")
			return
		}
		jump = n - 1
	}

	if !hasCategory && !hasTerm && !hasPage {
		sess, id := h.service.Session(ctx, delivery.SessionID(c))
		delivery.RememberSession(c, id)
		h.showShelf(c, sess)
		return
	}

	// The action loads the session itself, so a new one skips the default load.
	sess, id := h.service.OpenSession(delivery.SessionID(c))
	delivery.RememberSession(c, id)

	if hasCategory {
		sess.ChangeCategory(ctx, category)
	} else if hasTerm {
		sess.Search(ctx, term)
	}

	if hasPage {
		switch pageParam {
		case "next":
			sess.NextPage(ctx)
		case "prev":
			sess.PreviousPage(ctx)
		default:
			sess.JumpTo(ctx, jump)
		}
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handlers) showShelf(c *gin.Context, sess *browse.Session) {
	page, err := h.buildShelfPage(sess.Snapshot(), sess.PageSize())
	if err != nil {
		h.logger.Error("failed to build shelf", zap.Error(err))
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}
	h.render(c, http.StatusOK, "shelf.html", page)
}

// handleShowBook serves the book details page. With seed=1 the summary from
// the session's current listing fills the fields the work document lacks.
func (h *Handlers) handleShowBook(c *gin.Context) {
	key := "/works/" + c.Param("id")

	var seed *domain.BookRecord
	if c.Query("seed") == "1" {
		seed = h.seedFromSession(c, key)
	}

	view, err := h.service.GetBook(c.Request.Context(), key, seed)
	if err != nil {
		h.showBookError(c, err)
		return
	}
	h.render(c, http.StatusOK, "book.html", newBookPage(view))
}

func (h *Handlers) seedFromSession(c *gin.Context, key string) *domain.BookRecord {
	sess, ok := h.service.ExistingSession(delivery.SessionID(c))
	if !ok {
		return nil
	}
	st := sess.Snapshot()
	for _, books := range [][]domain.BookRecord{st.CurrentBooks, st.AllBooks} {
		for i := range books {
			if books[i].Key == key {
				b := books[i]
				return &b
			}
		}
	}
	return nil
}

func (h *Handlers) showBookError(c *gin.Context, err error) {
	status, message := http.StatusBadGateway, "Failed to load book details. Please try again later."
	switch {
	case errors.Is(err, service.ErrInvalidKey):
		status, message = http.StatusBadRequest, "Invalid book key provided."
	case errors.Is(err, catalog.ErrNotFound):
		status = http.StatusNotFound
	default:
		h.logger.Warn("book detail failed", zap.Error(err))
	}
	h.render(c, status, "error.html", errorPage{Message: message})
}

// handleShowAward serves a highlight's page with the books behind it.
func (h *Handlers) handleShowAward(c *gin.Context) {
	hl, books, err := h.service.HighlightBooks(c.Request.Context(), c.Param("id"))
	if errors.Is(err, service.ErrUnknownHighlight) {
		c.String(http.StatusNotFound, "award not found")
		return
	}
	if err != nil {
		h.logger.Error("award lookup failed", zap.Error(err))
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}

	page := awardPage{
		Highlight: hl,
		Summary:   highlights.MeaningfulDescription(hl),
		Books:     make([]bookCard, 0, len(books)),
	}
	for _, b := range books {
		page.Books = append(page.Books, h.newBookCard(b, catalog.CoverSmall, false))
	}
	h.render(c, http.StatusOK, "award.html", page)
}

// render executes a template into a buffer so a failing template never
// leaves a half-written page.
func (h *Handlers) render(c *gin.Context, status int, name string, data any) {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.Error("template execution failed", zap.String("template", name), zap.Error(err))
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}
