// Path: internal/delivery/rest/server.go
package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bookshelf/internal/delivery"
)

// RouteRegistrar adds routes to the server's router.
type RouteRegistrar interface {
	RegisterRoutes(r gin.IRouter)
}

// Server is the HTTP server for the JSON API and any extra routes, such as
// the HTML pages.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
}

// NewServer creates and configures a new API server.
func NewServer(port string, service bookService, logger *zap.Logger, extra ...RouteRegistrar) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), delivery.RequestLogger(logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	NewHandlers(service, logger).RegisterRoutes(router.Group("/api"))
	for _, r := range extra {
		r.RegisterRoutes(router)
	}

	return &Server{
		router: router,
		httpServer: &http.Server{
			Addr:         ":" + port,
			Handler:      router,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
