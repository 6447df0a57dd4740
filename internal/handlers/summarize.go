package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/benvon/newsfeed/internal/logger"
	"github.com/benvon/newsfeed/internal/models"
	"github.com/benvon/newsfeed/internal/request"
	"github.com/benvon/newsfeed/internal/services/ai"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// ArticleSummarizer produces summaries. Implemented by *ai.Summarizer.
type ArticleSummarizer interface {
	Status() models.SummaryStatus
	Summarize(ctx context.Context, articles []models.ArticleForSummary) (string, error)
}

// SummarizeHandler handles AI summarization
type SummarizeHandler struct {
	summarizer ArticleSummarizer
	logger     *zap.Logger
}

// NewSummarizeHandler creates a new summarize handler
func NewSummarizeHandler(summarizer ArticleSummarizer, log *zap.Logger) *SummarizeHandler {
	return &SummarizeHandler{summarizer: summarizer, logger: logger.OrNop(log)}
}

// RegisterPublicRoutes registers routes that need no authentication
// The router should already have the /api/summarize prefix
func (h *SummarizeHandler) RegisterPublicRoutes(r *mux.Router) {
	r.HandleFunc("/status", h.GetStatus).Methods(http.MethodGet)
}

// RegisterRoutes registers authenticated summarize routes
// The router should already have the /api/summarize prefix
func (h *SummarizeHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.Summarize).Methods(http.MethodPost)
}

// GetStatus reports whether summarization is configured
func (h *SummarizeHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.summarizer.Status())
}

// Summarize summarizes the posted articles
func (h *SummarizeHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	identity := request.IdentityFromContext(r)
	if identity == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}
	userID := logger.SanitizeUserID(identity.Subject)

	if !h.summarizer.Status().Enabled {
		h.logger.Warn("summarize_not_configured", zap.String("user_id", userID))
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", ai.NotConfiguredMessage)
		return
	}

	var req models.SummarizeRequest
	if !decodeAndValidate(w, r, &req, nil) {
		return
	}

	h.logger.Info("summarize_requested",
		zap.String("user_id", userID),
		zap.Int("articles", len(req.Articles)),
	)

	summary, err := h.summarizer.Summarize(r.Context(), req.Articles)
	if err != nil {
		var serr *ai.SummarizeError
		switch {
		case errors.Is(err, ai.ErrNotConfigured):
			respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", ai.NotConfiguredMessage)
		case errors.As(err, &serr):
			status := serr.StatusCode()
			respondJSONError(w, status, http.StatusText(status), serr.Message)
		default:
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Unable to connect to AI service. Please try again.")
		}
		return
	}

	h.logger.Info("summary_generated",
		zap.String("user_id", userID),
		zap.Int("length", len(summary)),
	)
	respondJSON(w, http.StatusOK, models.SummaryResponse{Summary: summary})
}
