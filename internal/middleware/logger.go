package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Logger logs one line per request. Bodies are never logged since they carry
// patient data.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		l := RequestLogger(c)

		var event *zerolog.Event
		msg := "Request processed"
		switch {
		case status >= 500:
			event, msg = l.Error(), "Server error"
		case status >= 400:
			event, msg = l.Warn(), "Client error"
		default:
			event = l.Info()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Str("ip", c.ClientIP()).
			Int("status", status).
			Int("size", c.Writer.Size()).
			Dur("duration", time.Since(start)).
			Str("user_agent", c.Request.UserAgent()).
			Msg(msg)
	}
}
