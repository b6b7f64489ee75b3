package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/careprep/ai-service/internal/config"
	"github.com/careprep/ai-service/internal/handler/chat"
	"github.com/careprep/ai-service/internal/handler/health"
	"github.com/careprep/ai-service/internal/handler/process"
	"github.com/careprep/ai-service/internal/handler/prometheus"
	"github.com/careprep/ai-service/internal/handler/summarize"
	"github.com/careprep/ai-service/internal/middleware"
	"github.com/careprep/ai-service/internal/router"
	"github.com/careprep/ai-service/internal/service/assistant"
	"github.com/careprep/ai-service/pkg/completion"
	"github.com/careprep/ai-service/pkg/logger"
	"github.com/careprep/ai-service/pkg/messaging"
	"github.com/careprep/ai-service/pkg/messaging/redis"
	"github.com/careprep/ai-service/pkg/metrics"
	"github.com/careprep/ai-service/pkg/worker"
)

const metricsNamespace = "careprep"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLog := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		Console:    cfg.Log.Console,
	})
	log.Logger = *appLog.Zerolog()

	// Metrics
	registry := prom.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.NewMetrics(metricsNamespace, "ai", registry)

	// Completion client
	client := completion.NewClient(cfg.AI.ToCompletionConfig(),
		completion.WithLogger(appLog.With("completion")),
		completion.WithMetrics(appMetrics),
	)
	if !client.Available() {
		log.Warn().Msg("OPENROUTER_API_KEY not set, every response will use the fallback templates")
	}

	// Optional event publishing
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	var (
		publisher      messaging.Publisher
		dispatcherDone = make(chan struct{})
	)
	close(dispatcherDone)
	if cfg.Redis.URL != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		broker, err := redis.NewRedisBroker(connectCtx, cfg.Redis.ToBrokerConfig(), appLog.Zerolog())
		cancel()
		if err != nil {
			log.Warn().Err(err).Msg("event publishing disabled")
		} else {
			defer broker.Close()
			dispatcher := worker.NewEventDispatcher(broker, worker.DefaultEventDispatcherConfig(), appLog.With("events"), appMetrics)
			publisher = dispatcher

			done := make(chan struct{})
			dispatcherDone = done
			go func() {
				defer close(done)
				dispatcher.Start(ctx)
			}()
		}
	}

	svc := assistant.NewService(client, publisher, appMetrics, appLog)

	// Router
	gin.SetMode(gin.ReleaseMode)
	routerCfg := router.DefaultRouterConfig()
	routerCfg.RateLimitEnabled = cfg.RateLimit.Enabled
	routerCfg.RateLimit.RPS = cfg.RateLimit.RequestsPerSecond
	routerCfg.RateLimit.Burst = cfg.RateLimit.Burst
	routerCfg.CORS = middleware.CORSConfig{AllowOrigins: cfg.CORS.AllowedOrigins, MaxAge: 12 * time.Hour}
	routerCfg.SizeLimit.MaxBodySize = cfg.Server.MaxBodyBytes

	r, err := router.NewRouter(routerCfg, prometheus.New(metricsNamespace, registry),
		health.NewHandler(health.Status{AIConfigured: client.Available(), EventsEnabled: publisher != nil}),
		summarize.NewHandler(svc),
		chat.NewHandler(svc),
		process.NewHandler(svc),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build router")
	}
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("model", client.Model()).Msg("CarePrep AI service starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	stop()
	<-dispatcherDone

	log.Info().Msg("server exited properly")
}
