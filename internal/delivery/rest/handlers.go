// Path: internal/delivery/rest/handlers.go
package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bookshelf/internal/browse"
	"bookshelf/internal/catalog"
	"bookshelf/internal/delivery"
	"bookshelf/internal/domain"
	"bookshelf/internal/service"
)

// bookService defines the interface required by the handlers from the core service.
// This keeps the delivery layer decoupled from the full service implementation.
type bookService interface {
	Session(ctx context.Context, id string) (*browse.Session, string)
	OpenSession(id string) (*browse.Session, string)
	Books(ctx context.Context, category, searchTerm string, limit, offset int) catalog.Result
	GetBook(ctx context.Context, key string, seed *domain.BookRecord) (*domain.BookView, error)
	Highlights() []domain.Highlight
	HighlightBooks(ctx context.Context, id string) (domain.Highlight, []domain.BookRecord, error)
}

const maxLimit = 100

// Handlers holds dependencies for the JSON API handlers.
type Handlers struct {
	service bookService
	logger  *zap.Logger
}

// NewHandlers creates a new handler struct.
func NewHandlers(s bookService, logger *zap.Logger) *Handlers {
	return &Handlers{service: s, logger: logger.Named("rest")}
}

// RegisterRoutes registers the API routes on rg.
func (h *Handlers) RegisterRoutes(rg gin.IRouter) {
	rg.GET("/books", h.listBooks)
	rg.GET("/works/:id", h.getWork)
	rg.GET("/highlights", h.listHighlights)
	rg.GET("/highlights/:id/books", h.highlightBooks)

	s := rg.Group("/session")
	s.GET("", h.getSession)
	s.POST("/next", h.nextPage)
	s.POST("/previous", h.previousPage)
	s.POST("/search", h.search)
	s.POST("/category", h.changeCategory)
	s.POST("/page", h.jumpTo)
}

type booksResponse struct {
	Books      []domain.BookRecord `json:"books"`
	TotalFound int                 `json:"totalFound"`
}

// listBooks queries the catalog without touching any session.
// Path: /api/books?category=&q=&limit=&offset=
func (h *Handlers) listBooks(c *gin.Context) {
	limit, err := intQuery(c, "limit", 0)
	if err != nil || limit < 0 || limit > maxLimit {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 0 and 100"})
		return
	}
	offset, err := intQuery(c, "offset", 0)
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be a non-negative integer"})
		return
	}

	res := h.service.Books(c.Request.Context(), c.Query("category"), c.Query("q"), limit, offset)
	c.JSON(http.StatusOK, booksResponse{Books: res.Books, TotalFound: res.TotalFound})
}

// getWork returns the detail view of one work.
// Path: /api/works/{OLid}
func (h *Handlers) getWork(c *gin.Context) {
	key := "/works/" + c.Param("id")
	view, err := h.service.GetBook(c.Request.Context(), key, nil)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handlers) listHighlights(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"highlights": h.service.Highlights()})
}

func (h *Handlers) highlightBooks(c *gin.Context) {
	hl, books, err := h.service.HighlightBooks(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"highlight": hl, "books": books})
}

type sessionResponse struct {
	State     browse.State `json:"state"`
	Page      int          `json:"page"`
	PageCount int          `json:"pageCount"`
	PageSize  int          `json:"pageSize"`
}

func (h *Handlers) getSession(c *gin.Context) {
	sess := h.session(c)
	h.writeState(c, sess, sess.Snapshot())
}

func (h *Handlers) nextPage(c *gin.Context) {
	sess := h.session(c)
	h.writeState(c, sess, sess.NextPage(c.Request.Context()))
}

func (h *Handlers) previousPage(c *gin.Context) {
	sess := h.session(c)
	h.writeState(c, sess, sess.PreviousPage(c.Request.Context()))
}

type searchRequest struct {
	Query string `json:"q"`
}

func (h *Handlers) search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	sess := h.openSession(c)
	h.writeState(c, sess, sess.Search(c.Request.Context(), req.Query))
}

type categoryRequest struct {
	Category string `json:"category"`
}

func (h *Handlers) changeCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	sess := h.openSession(c)
	h.writeState(c, sess, sess.ChangeCategory(c.Request.Context(), req.Category))
}

type pageRequest struct {
	// Page is one-based.
	Page int `json:"page" binding:"required,min=1"`
}

func (h *Handlers) jumpTo(c *gin.Context) {
	var req pageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page must be a positive integer"})
		return
	}
	sess := h.session(c)
	h.writeState(c, sess, sess.JumpTo(c.Request.Context(), req.Page-1))
}

func (h *Handlers) session(c *gin.Context) *browse.Session {
	sess, id := h.service.Session(c.Request.Context(), delivery.SessionID(c))
	delivery.RememberSession(c, id)
	return sess
}

// openSession is used by actions that load the session themselves.
func (h *Handlers) openSession(c *gin.Context) *browse.Session {
	sess, id := h.service.OpenSession(delivery.SessionID(c))
	delivery.RememberSession(c, id)
	return sess
}

func (h *Handlers) writeState(c *gin.Context, sess *browse.Session, st browse.State) {
	size := sess.PageSize()
	c.JSON(http.StatusOK, sessionResponse{
		State:     st,
		Page:      st.Page(size) + 1,
		PageCount: st.PageCount(size),
		PageSize:  size,
	})
}

// writeError maps service errors to HTTP status codes.
func (h *Handlers) writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, service.ErrInvalidKey):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid work id"})
	case errors.Is(err, service.ErrUnknownHighlight), errors.Is(err, catalog.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "request cancelled"})
	default:
		h.logger.Warn("catalog request failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "catalog unavailable"})
	}
}

func intQuery(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
