package middlewares

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"jan-server/services/chat-api/internal/infrastructure/metrics"
)

// ModeKey is the gin context key handlers use to label the response mode.
const ModeKey = "mode"

// MetricsMiddleware records HTTP request metrics, aborted streams included.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		defer recordRequest(c, start)
		c.Next()
	}
}

func recordRequest(c *gin.Context, start time.Time) {
	endpoint := c.FullPath()
	if endpoint == "" {
		endpoint = "unmatched"
	}
	mode := c.GetString(ModeKey)
	if mode == "" {
		mode = "none"
	}

	metrics.RecordRequest(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status()), mode, time.Since(start).Seconds())
}
