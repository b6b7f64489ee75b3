package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/careprep/ai-service/pkg/errors"
	"github.com/careprep/ai-service/pkg/httputil"
)

type RateLimiterConfig struct {
	RPS   float64
	Burst int
	// IdleExpiry drops the limiter of a client not seen for this long.
	IdleExpiry      time.Duration
	CleanupInterval time.Duration
	SkipPaths       []string
}

func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RPS:             5,
		Burst:           10,
		IdleExpiry:      10 * time.Minute,
		CleanupInterval: time.Minute,
		SkipPaths:       []string{"/health", "/metrics"},
	}
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	config   RateLimiterConfig
	limiters *cache.Cache
}

func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	return &RateLimiter{
		config:   config,
		limiters: cache.New(config.IdleExpiry, config.CleanupInterval),
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	if l, ok := rl.limiters.Get(key); ok {
		rl.limiters.SetDefault(key, l)
		return l.(*rate.Limiter)
	}
	l := rate.NewLimiter(rate.Limit(rl.config.RPS), rl.config.Burst)
	// Add fails when a concurrent request created the limiter first.
	if err := rl.limiters.Add(key, l, cache.DefaultExpiration); err != nil {
		if existing, ok := rl.limiters.Get(key); ok {
			return existing.(*rate.Limiter)
		}
	}
	return l
}

// Allow reports whether a request from key may proceed now.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.limiter(key).Allow()
}

// skipped matches a skip path and everything nested under it.
func (rl *RateLimiter) skipped(path string) bool {
	for _, p := range rl.config.SkipPaths {
		if path == p || strings.HasPrefix(path, strings.TrimSuffix(p, "/")+"/") {
			return true
		}
	}
	return false
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.skipped(c.Request.URL.Path) {
			c.Next()
			return
		}

		if !rl.Allow(c.ClientIP()) {
			c.Header("Retry-After", "1")
			httputil.RespondWithError(c, errors.RateLimited())
			return
		}
		c.Next()
	}
}
