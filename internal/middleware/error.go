package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/careprep/ai-service/pkg/httputil"
)

// ErrorHandler renders the last error attached with c.Error unless a
// response was already written. Client errors log at warn, the rest at error.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		l := RequestLogger(c)
		for _, e := range c.Errors {
			status, _ := httputil.StatusAndMessage(e.Err)
			level := zerolog.ErrorLevel
			if status < http.StatusInternalServerError {
				level = zerolog.WarnLevel
			}
			l.WithLevel(level).
				Err(e.Err).
				Int("status", status).
				Str("method", c.Request.Method).
				Str("route", c.FullPath()).
				Msg("Request error")
		}

		if c.Writer.Written() {
			return
		}
		httputil.RespondWithError(c, c.Errors.Last().Err)
	}
}
