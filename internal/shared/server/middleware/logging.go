package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"research-agent/internal/shared/telemetry"
)

// ErrorCodeKey is set by handlers that fail a request so the access log can
// report the classified error.
const ErrorCodeKey = "errorCode"

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		telemetry.Info("request.complete", map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       route,
			"status":      c.Writer.Status(),
			"error_code":  c.GetString(ErrorCodeKey),
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"bytes_out":   c.Writer.Size(),
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		})
	}
}
