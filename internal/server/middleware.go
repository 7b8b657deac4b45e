package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rsudds/bludpay/internal/observability/metrics"
	"github.com/rsudds/bludpay/internal/reqcontext"
)

// actorMiddleware lifts the identity headers set by the upstream gateway
// into the request context. Requests without them act as "system".
func actorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader("X-User-Id"))
		if userID != "" {
			ctx := reqcontext.WithActor(c.Request.Context(), reqcontext.Actor{
				UserID:   userID,
				UserName: strings.TrimSpace(c.GetHeader("X-User-Name")),
			})
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

func metricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		m.RecordHTTPRequest(route, statusClass(c.Writer.Status()))
	}
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
