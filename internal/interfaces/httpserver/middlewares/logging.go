package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// LoggingMiddleware logs HTTP requests with OpenTelemetry trace context.
// The entry is written from a defer so streams broken with AbortStream are logged too.
func LoggingMiddleware(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		defer logRequest(logger, c, path, start)
		c.Next()
	}
}

func logRequest(logger zerolog.Logger, c *gin.Context, path string, start time.Time) {
	statusCode := c.Writer.Status()
	errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String()

	logEvent := logger.Info()
	if statusCode >= 500 {
		logEvent = logger.Error()
	} else if statusCode >= 400 {
		logEvent = logger.Warn()
	}

	span := trace.SpanFromContext(c.Request.Context())
	if span.SpanContext().IsValid() {
		logEvent = logEvent.
			Str("trace_id", span.SpanContext().TraceID().String()).
			Str("span_id", span.SpanContext().SpanID().String())
	}

	if requestID := RequestIDFromContext(c); requestID != "" {
		logEvent = logEvent.Str("request_id", requestID)
	}
	if mode := c.GetString(ModeKey); mode != "" {
		logEvent = logEvent.Str("mode", mode)
	}
	if c.GetBool(StreamAbortedKey) {
		logEvent = logEvent.Bool("aborted", true)
	}

	logEvent.
		Str("client_ip", c.ClientIP()).
		Str("method", c.Request.Method).
		Str("path", path).
		Int("status", statusCode).
		Int("bytes", c.Writer.Size()).
		Dur("latency", time.Since(start)).
		Str("user_agent", c.Request.UserAgent()).
		Msg(errorMessage)
}
