package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/careprep/ai-service/pkg/httputil"
)

// Recovery turns a handler panic into a 500 with the standard error body.
// http.ErrAbortHandler is re-raised so net/http can drop the connection.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			RequestLogger(c).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Str("method", c.Request.Method).
				Str("route", c.FullPath()).
				Msg("Request panic recovered")

			httputil.RespondWithError(c, fmt.Errorf("panic: %v", rec))
		}()
		c.Next()
	}
}
