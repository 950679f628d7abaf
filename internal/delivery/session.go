// Package delivery holds what the REST and UI layers share.
package delivery

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionCookie names the cookie carrying the browsing session id.
const SessionCookie = "bookshelf_session"

const sessionMaxAge = 7 * 24 * time.Hour

// SessionID returns the session id sent by the client, or "".
func SessionID(c *gin.Context) string {
	id, err := c.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return id
}

// RememberSession sets the session cookie when id differs from the one the
// client sent.
func RememberSession(c *gin.Context, id string) {
	if id == SessionID(c) {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, id, int(sessionMaxAge.Seconds()), "/", "", false, true)
}

// RequestLogger logs one line per request at debug level, and failures at
// warn level.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	logger = logger.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("elapsed", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		if status >= http.StatusInternalServerError {
			logger.Warn("request failed", fields...)
			return
		}
		logger.Debug("request", fields...)
	}
}
