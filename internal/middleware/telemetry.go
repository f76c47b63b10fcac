// Package middleware provides HTTP middleware for the scanner API.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"

	"github.com/irfndi/dss-scanner/internal/logging"
)

var quietPaths = map[string]struct{}{
	"/health":  {},
	"/live":    {},
	"/metrics": {},
}

// RequestLogger logs each request with its status and latency.
// Health and scrape endpoints are only logged when they fail. Failed requests
// carry the trace id when a tracing middleware ran first.
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		if _, quiet := quietPaths[c.Request.URL.Path]; quiet && status < 400 {
			return
		}

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		elapsed := time.Since(start)

		if status < 400 {
			logging.LogAPIRequest(logger, c.Request.Method, route, status, elapsed.Milliseconds())
			return
		}

		entry := logger.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        route,
			"status":      status,
			"duration_ms": elapsed.Milliseconds(),
			"client_ip":   c.ClientIP(),
			"event":       "api",
		})
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
			entry = entry.WithField("trace_id", sc.TraceID().String())
		}
		if status >= 500 {
			entry.Error("API request failed")
			return
		}
		entry.Warn("API request rejected")
	}
}
