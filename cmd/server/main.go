package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/newsfeed/internal/config"
	"github.com/benvon/newsfeed/internal/database"
	"github.com/benvon/newsfeed/internal/handlers"
	"github.com/benvon/newsfeed/internal/logger"
	"github.com/benvon/newsfeed/internal/metrics"
	"github.com/benvon/newsfeed/internal/middleware"
	"github.com/benvon/newsfeed/internal/services/ai"
	"github.com/benvon/newsfeed/internal/services/authentik"
	"github.com/benvon/newsfeed/internal/services/news"
	"github.com/benvon/newsfeed/internal/services/token"
	"github.com/benvon/newsfeed/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.New(cfg.Environment, cfg.LogLevel, debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("environment", cfg.Environment),
		zap.String("server_port", cfg.ServerPort),
		zap.String("authentik_url", cfg.AuthentikURL),
		zap.Bool("news_configured", cfg.NewsAPIKey != ""),
		zap.Bool("summarization_enabled", cfg.SummarizationEnabled()),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	if cfg.UsesClientIDSigning() {
		zapLogger.Warn("session_tokens_signed_with_client_id",
			zap.String("hint", "set TOKEN_SIGNING_SECRET"),
		)
	}

	tracing := false
	if cfg.OTELEnabled {
		tp, err := telemetry.InitTracer(context.Background(), telemetry.ServiceName, cfg.Environment, cfg.OTELEndpoint)
		if err != nil {
			zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		} else {
			tracing = true
			zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
					zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
				}
			}()
		}
	}

	if cfg.AutoMigrate {
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			zapLogger.Fatal("failed_to_run_migrations", zap.Error(err))
		}
		zapLogger.Info("migrations_applied")
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	// Redis is optional; without it rate limits are kept per process.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = middleware.NewRedisClient(context.Background(), cfg.RedisURL)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
		zapLogger.Info("connected_to_redis")
	} else {
		zapLogger.Info("rate_limits_in_memory")
	}

	authStore, err := middleware.NewLimiterStore(redisClient, "newsfeed_auth")
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limit_store", zap.Error(err))
	}
	apiStore, err := middleware.NewLimiterStore(redisClient, "newsfeed_api")
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limit_store", zap.Error(err))
	}

	var (
		recorder metrics.Recorder = metrics.Nop{}
		gatherer prometheus.Gatherer
	)
	if cfg.MetricsEnabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		recorder = metrics.NewCollector(registry)
		gatherer = registry
	}

	authentikCfg := authentik.Config{
		BaseURL:        cfg.AuthentikURL,
		ClientID:       cfg.AuthentikClientID,
		AuthFlow:       cfg.AuthentikAuthFlow,
		EnrollmentFlow: cfg.AuthentikEnrollmentFlow,
	}
	codec := token.NewCodec(cfg.SigningSecret())
	flows := authentik.NewFlowDriver(authentikCfg, zapLogger, recorder)
	validator := authentik.NewValidator(codec, authentikCfg, zapLogger, recorder)

	newsClient := news.NewClient(news.Config{
		APIKey:            cfg.NewsAPIKey,
		BaseURL:           cfg.NewsAPIBaseURL,
		RequestsPerSecond: cfg.NewsAPIRate,
	}, zapLogger, recorder)
	if !newsClient.Configured() {
		zapLogger.Warn("news_api_key_not_configured")
	}

	summarizer := ai.NewSummarizer(ai.Config{
		APIKey:  cfg.OpenAIKey,
		BaseURL: cfg.AIBaseURL,
		Model:   cfg.AIModel,
	}, zapLogger, recorder)

	authFlow, _ := flows.FlowSlugs()
	checks := map[string]handlers.Check{
		"database": db.HealthCheck,
		"authentik": func(ctx context.Context) error {
			return flows.ProbeFlow(ctx, authFlow)
		},
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}

	router, err := newRouter(routerDeps{
		Logger:         zapLogger,
		CORSOrigins:    cfg.CORSOriginList(),
		EnableHSTS:     cfg.EnableHSTS,
		Tracing:        tracing,
		SkipHealthLogs: cfg.IsProduction(),
		AuthRate:       cfg.AuthRateLimit,
		APIRate:        cfg.APIRateLimit,
		AuthLimiter:    authStore,
		APILimiter:     apiStore,
		RequestLimit:   middleware.DefaultRequestTimeout,
		Metrics:        recorder,
		Gatherer:       gatherer,
		Flows:          flows,
		Tokens:         codec,
		Resolver:       validator,
		Keywords:       database.NewKeywordRepository(db),
		Searcher:       newsClient,
		Summarizer:     summarizer,
		Checks:         checks,
	})
	if err != nil {
		zapLogger.Fatal("failed_to_build_router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      middleware.DefaultRequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
		return
	}

	zapLogger.Info("server_exited")
}
