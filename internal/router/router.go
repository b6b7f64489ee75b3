package router

import (
	"github.com/gin-gonic/gin"

	"github.com/careprep/ai-service/internal/handler"
	"github.com/careprep/ai-service/internal/handler/prometheus"
	"github.com/careprep/ai-service/internal/middleware"
)

type Router struct {
	engine   *gin.Engine
	metrics  *prometheus.Handler
	handlers []handler.Handler
}

type RouterConfig struct {
	RateLimitEnabled bool
	RateLimit        middleware.RateLimiterConfig
	CORS             middleware.CORSConfig
	SizeLimit        middleware.SizeLimitConfig
	Security         middleware.SecurityConfig
	Validation       middleware.ValidationConfig
}

func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		RateLimitEnabled: true,
		RateLimit:        middleware.DefaultRateLimiterConfig(),
		CORS:             middleware.DefaultCORSConfig(),
		SizeLimit:        middleware.DefaultSizeLimitConfig(),
		Security:         middleware.DefaultSecurityConfig(),
		Validation:       middleware.DefaultValidationConfig(),
	}
}

// NewRouter builds the engine with the core middleware chain. Routes are
// added by Setup.
func NewRouter(config RouterConfig, metrics *prometheus.Handler, handlers ...handler.Handler) (*Router, error) {
	if err := middleware.RegisterValidators(config.Validation); err != nil {
		return nil, err
	}

	engine := gin.New()

	r := &Router{
		engine:   engine,
		metrics:  metrics,
		handlers: handlers,
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
		metrics.Middleware(),
		middleware.CORS(config.CORS),
		middleware.SecurityHeaders(config.Security),
	)

	if config.RateLimitEnabled {
		engine.Use(middleware.NewRateLimiter(config.RateLimit).RateLimit())
	}

	engine.Use(
		middleware.SizeLimit(config.SizeLimit),
		middleware.ErrorHandler(),
		middleware.Validation(config.Validation),
	)

	return r, nil
}

func (r *Router) Setup() {
	root := r.engine.Group("")

	r.metrics.RegisterRoutes(root)
	for _, h := range r.handlers {
		h.RegisterRoutes(root)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
