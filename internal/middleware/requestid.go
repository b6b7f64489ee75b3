package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/careprep/ai-service/pkg/httputil"
)

const (
	HeaderXRequestID = "X-Request-ID"
	ContextRequestID = httputil.ContextRequestID

	maxRequestIDLength = 128
)

// RequestID propagates the caller's X-Request-ID or assigns a new one, and
// attaches a logger carrying the ID to the request context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderXRequestID)
		if !validRequestID(rid) {
			rid = uuid.New().String()
		}

		c.Set(ContextRequestID, rid)
		c.Header(HeaderXRequestID, rid)

		l := log.Logger.With().Str("request_id", rid).Logger()
		c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))
		c.Next()
	}
}

// RequestLogger returns the logger bound to the request, or the global
// logger when RequestID did not run.
func RequestLogger(c *gin.Context) *zerolog.Logger {
	l := zerolog.Ctx(c.Request.Context())
	if l.GetLevel() == zerolog.Disabled {
		return &log.Logger
	}
	return l
}

// validRequestID accepts short IDs made of URL-safe characters only, so a
// caller cannot inject control characters into log lines.
func validRequestID(rid string) bool {
	if rid == "" || len(rid) > maxRequestIDLength {
		return false
	}
	for _, r := range rid {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.', r == ':':
		default:
			return false
		}
	}
	return true
}
