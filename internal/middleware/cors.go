package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type CORSConfig struct {
	AllowOrigins []string
	MaxAge       time.Duration
}

func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins: []string{"*"},
		MaxAge:       12 * time.Hour,
	}
}

// CORS allows browser clients from the configured origins. An empty list or
// a "*" entry allows any origin.
func CORS(config CORSConfig) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", HeaderXRequestID},
		ExposeHeaders: []string{"Content-Length", HeaderXRequestID},
		MaxAge:        config.MaxAge,
	}

	cfg.AllowAllOrigins = len(config.AllowOrigins) == 0
	for _, o := range config.AllowOrigins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			break
		}
	}
	if !cfg.AllowAllOrigins {
		cfg.AllowOrigins = config.AllowOrigins
	}

	return cors.New(cfg)
}
