package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/benvon/newsfeed/api/openapi"
	"github.com/benvon/newsfeed/internal/database"
	"github.com/benvon/newsfeed/internal/handlers"
	"github.com/benvon/newsfeed/internal/metrics"
	"github.com/benvon/newsfeed/internal/middleware"
	"github.com/benvon/newsfeed/internal/telemetry"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/ulule/limiter/v3"
	"go.uber.org/zap"
)

// routerDeps carries everything the HTTP surface needs.
type routerDeps struct {
	Logger         *zap.Logger
	CORSOrigins    []string
	EnableHSTS     bool
	Tracing        bool
	SkipHealthLogs bool

	AuthRate     string
	APIRate      string
	AuthLimiter  limiter.Store
	APILimiter   limiter.Store
	RequestLimit time.Duration

	Metrics  metrics.Recorder
	Gatherer prometheus.Gatherer

	Flows      handlers.FlowRunner
	Tokens     handlers.TokenIssuer
	Resolver   middleware.IdentityResolver
	Keywords   database.KeywordStore
	Searcher   handlers.ArticleSearcher
	Summarizer handlers.ArticleSummarizer
	Checks     map[string]handlers.Check
}

func newRouter(d routerDeps) (*mux.Router, error) {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}

	authRateLimit, err := middleware.RateLimit(d.AuthLimiter, d.AuthRate, log)
	if err != nil {
		return nil, fmt.Errorf("auth rate limit: %w", err)
	}
	apiRateLimit, err := middleware.RateLimit(d.APILimiter, d.APIRate, log)
	if err != nil {
		return nil, fmt.Errorf("api rate limit: %w", err)
	}

	openAPIHandler, err := handlers.NewOpenAPIHandler(openapi.Spec)
	if err != nil {
		return nil, err
	}

	r := mux.NewRouter()

	// Middleware registered first is outermost.
	if d.Tracing {
		r.Use(telemetry.Middleware(telemetry.ServiceName))
	}
	r.Use(middleware.SecurityHeaders(d.EnableHSTS))
	r.Use(middleware.CORS(d.CORSOrigins))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(d.RequestLimit))
	r.Use(middleware.ErrorHandler(log))
	r.Use(middleware.Audit(log))
	r.Use(middleware.Metrics(d.Metrics))
	r.Use(middleware.Logging(log, d.SkipHealthLogs))

	// Public routes
	r.HandleFunc("/", handlers.Root).Methods(http.MethodGet)
	handlers.NewHealthChecker(d.Checks, log).RegisterRoutes(r)
	openAPIHandler.RegisterRoutes(r)
	if d.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(d.Gatherer)).Methods(http.MethodGet)
	}

	summarizeHandler := handlers.NewSummarizeHandler(d.Summarizer, log)
	summarizePublic := r.PathPrefix("/api/summarize").Subrouter()
	summarizeHandler.RegisterPublicRoutes(summarizePublic)

	authRouter := r.PathPrefix("/api/auth").Subrouter()
	authRouter.Use(authRateLimit)
	handlers.NewAuthHandler(d.Flows, d.Tokens, log).RegisterRoutes(authRouter)

	requireAuth := middleware.Auth(d.Resolver, log)

	keywordsRouter := r.PathPrefix("/api/keywords").Subrouter()
	keywordsRouter.Use(requireAuth, apiRateLimit)
	handlers.NewKeywordHandler(d.Keywords, log).RegisterRoutes(keywordsRouter)

	articlesRouter := r.PathPrefix("/api/articles").Subrouter()
	articlesRouter.Use(requireAuth, apiRateLimit)
	handlers.NewArticleHandler(d.Keywords, d.Searcher, log).RegisterRoutes(articlesRouter)

	summarizeRouter := r.PathPrefix("/api/summarize").Subrouter()
	summarizeRouter.Use(requireAuth, apiRateLimit)
	summarizeHandler.RegisterRoutes(summarizeRouter)

	// Preflight requests are answered by the CORS middleware; this keeps
	// unmatched OPTIONS from turning into 405s.
	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return r, nil
}
