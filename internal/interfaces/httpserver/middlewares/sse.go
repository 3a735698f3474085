package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// StreamAbortedKey is set on the gin context when AbortStream breaks a response.
const StreamAbortedKey = "stream_aborted"

// PrepareSSE configures the HTTP response for Server Sent Events responses.
func PrepareSSE(c *gin.Context) (http.Flusher, bool) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	flusher, ok := c.Writer.(http.Flusher)
	return flusher, ok
}

// AbortStream breaks a response whose headers are already sent so the client
// sees a failed transfer rather than a clean end of stream. net/http closes
// the connection without writing the terminating chunk.
func AbortStream(c *gin.Context) {
	c.Set(StreamAbortedKey, true)
	c.Abort()
	panic(http.ErrAbortHandler)
}
