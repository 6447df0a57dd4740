package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/benvon/newsfeed/internal/logger"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// ServiceName identifies this API in health responses.
const ServiceName = "newsfeed-api"

const checkTimeout = 5 * time.Second

// Check probes one dependency. A nil error means healthy.
type Check func(ctx context.Context) error

// HealthChecker handles health check requests
type HealthChecker struct {
	checks map[string]Check
	logger *zap.Logger
}

// NewHealthChecker creates a new health checker. checks are only run in extended mode.
func NewHealthChecker(checks map[string]Check, log *zap.Logger) *HealthChecker {
	return &HealthChecker{checks: checks, logger: logger.OrNop(log)}
}

// RegisterRoutes registers /health and /healthz
func (h *HealthChecker) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Service   string            `json:"service,omitempty"`
	Timestamp string            `json:"timestamp,omitempty"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Health is the liveness endpoint
func (h *HealthChecker) Health(w http.ResponseWriter, r *http.Request) {
	writeHealth(w, http.StatusOK, HealthResponse{Status: "healthy", Service: ServiceName})
}

// HealthCheck handles the /healthz endpoint. With mode=extended every
// dependency check runs and any failure turns the response into a 503.
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Service:   ServiceName,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if r.URL.Query().Get("mode") != "extended" {
		writeHealth(w, http.StatusOK, response)
		return
	}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	response.Checks = make(map[string]string, len(names))
	for _, name := range names {
		if err := h.run(r.Context(), h.checks[name]); err != nil {
			response.Status = "unhealthy"
			response.Checks[name] = "unhealthy"
			h.logger.Warn("health_check_failed",
				zap.String("check", name),
				zap.String("error", logger.SanitizeError(err)),
			)
			continue
		}
		response.Checks[name] = "healthy"
	}

	status := http.StatusOK
	if response.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	writeHealth(w, status, response)
}

func (h *HealthChecker) run(ctx context.Context, check Check) error {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	return check(ctx)
}

func writeHealth(w http.ResponseWriter, status int, response HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}
