package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"ops-insights-go/internal/logger"
)

// RequireToken rejects requests whose Authorization header does not
// carry the configured static bearer token.
func RequireToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if token == "" || got != token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Envelope{
				Success: false,
				Message: "request failed",
				Error:   "invalid or missing token",
			})
			return
		}
		c.Next()
	}
}

// RequestLog logs each request with its id once the handler returns.
func RequestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		entry := logger.New().WithRequest(c.Request)
		c.Next()
		entry.WithFields(map[string]any{
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Info("request served")
	}
}
