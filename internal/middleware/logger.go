package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"beacon/pkg/logger"
)

// setupLogger -
func setupLogger(engine *gin.Engine, log *logger.Logger) {
	engine.Use(RequestLogger(log, "/health", "/healthcheck", "/metrics"))
}

// RequestLogger logs one line per request with timing and status. The board
// refreshes itself continuously, so health and scrape endpoints are skipped
// to keep the log readable.
func RequestLogger(log *logger.Logger, skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]bool, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = true
	}

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)
		status := c.Writer.Status()

		fields := map[string]interface{}{
			"component":  "http",
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"query":      c.Request.URL.RawQuery,
			"status":     status,
			"duration":   duration.String(),
			"client_ip":  c.ClientIP(),
			"request_id": GetRequestID(c),
		}

		switch {
		case status >= 500:
			log.Warn("HTTP server error", fields)
		case status >= 400:
			log.Info("HTTP client error", fields)
		default:
			log.Info("HTTP request", fields)
		}
	}
}
