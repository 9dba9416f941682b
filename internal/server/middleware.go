package server

import (
	"fmt"
	"time"

	"github.com/Aleph-Alpha/bookrag/pkg/metrics"
	"github.com/Aleph-Alpha/bookrag/pkg/tracer"
	"github.com/gin-gonic/gin"
)

const unmatchedRoute = "unmatched"

// Tracing starts a server span per request, continuing any trace context
// sent by the caller.
func Tracing(tr *tracer.Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		carrier := make(map[string]string)
		for k := range c.Request.Header {
			carrier[k] = c.Request.Header.Get(k)
		}
		ctx := tr.SetCarrierOnContext(c.Request.Context(), carrier)

		ctx, span := tr.StartSpan(ctx, fmt.Sprintf("%s %s", c.Request.Method, route(c)))
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		tr.SetAttributes(span, map[string]interface{}{
			"http.method":      c.Request.Method,
			"http.route":       route(c),
			"http.status_code": c.Writer.Status(),
		})
		if err := lastError(c); err != nil {
			tr.RecordErrorOnSpan(span, err)
		}
	}
}

// AccessLog writes one entry per request and records the request metrics.
func AccessLog(logger Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		status := c.Writer.Status()
		m.ObserveHTTPRequest(c.Request.Method, route(c), status, elapsed)

		fields := map[string]interface{}{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       route(c),
			"status":      status,
			"duration_ms": elapsed.Milliseconds(),
			"client_ip":   c.ClientIP(),
		}
		if status >= 500 {
			logger.WarnWithContext(c.Request.Context(), "request failed", lastError(c), fields)
			return
		}
		logger.InfoWithContext(c.Request.Context(), "request handled", nil, fields)
	}
}

func route(c *gin.Context) string {
	if r := c.FullPath(); r != "" {
		return r
	}
	return unmatchedRoute
}

func lastError(c *gin.Context) error {
	if len(c.Errors) == 0 {
		return nil
	}
	return c.Errors.Last()
}
