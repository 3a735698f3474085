package middlewares

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"jan-server/services/chat-api/internal/utils/platformerrors"
)

// Recovery converts panics into 500 responses. http.ErrAbortHandler is
// re-raised so net/http tears the connection down instead of answering.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			if err, ok := recovered.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(recovered)
			}

			log.Error().
				Interface("panic", recovered).
				Str("request_id", RequestIDFromContext(c)).
				Str("path", c.Request.URL.Path).
				Msg("recovered from panic")

			if c.Writer.Written() {
				c.Abort()
				return
			}
			platformerrors.WriteInternalError(c, "internal server error")
		}()
		c.Next()
	}
}
