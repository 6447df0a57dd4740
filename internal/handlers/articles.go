package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/benvon/newsfeed/internal/database"
	"github.com/benvon/newsfeed/internal/logger"
	"github.com/benvon/newsfeed/internal/models"
	"github.com/benvon/newsfeed/internal/request"
	"github.com/benvon/newsfeed/internal/services/news"
	"github.com/benvon/newsfeed/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// ArticleSearcher searches the news API. Implemented by *news.Client.
type ArticleSearcher interface {
	Search(ctx context.Context, q models.ArticleQuery) (*models.ArticleList, error)
}

// ArticleHandler serves articles matching the user's keywords
type ArticleHandler struct {
	keywords database.KeywordStore
	news     ArticleSearcher
	logger   *zap.Logger
}

// NewArticleHandler creates a new article handler
func NewArticleHandler(keywords database.KeywordStore, searcher ArticleSearcher, log *zap.Logger) *ArticleHandler {
	return &ArticleHandler{keywords: keywords, news: searcher, logger: logger.OrNop(log)}
}

// RegisterRoutes registers article routes on the given router
// The router should already have the /api/articles prefix
func (h *ArticleHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListArticles).Methods(http.MethodGet)
}

// parseArticleParams reads query parameters, filling defaults for absent ones.
// A present but non-numeric page or page_size is reported as a field error.
func parseArticleParams(r *http.Request) (models.ArticleListParams, map[string][]string) {
	q := r.URL.Query()
	params := models.ArticleListParams{
		Page:      1,
		PageSize:  news.DefaultPageSize,
		SortBy:    string(models.SortByPublishedAt),
		Language:  "en",
		MatchMode: string(models.MatchAny),
	}
	fields := map[string][]string{}

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			fields["page"] = []string{"must be an integer"}
		}
		params.Page = n
	}
	if v := q.Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			fields["page_size"] = []string{"must be an integer"}
		}
		params.PageSize = n
	}
	if v := q.Get("sort_by"); v != "" {
		params.SortBy = v
	}
	if v := q.Get("language"); v != "" {
		params.Language = v
	}
	if v := q.Get("match_mode"); v != "" {
		params.MatchMode = v
	}

	if len(fields) > 0 {
		return params, fields
	}
	if err := validation.Validate.Struct(params); err != nil {
		return params, validation.FieldErrors(err)
	}
	return params, nil
}

// ListArticles returns one page of articles for the user's keywords. A user
// without keywords gets an empty list and the news API is not called.
func (h *ArticleHandler) ListArticles(w http.ResponseWriter, r *http.Request) {
	identity := request.IdentityFromContext(r)
	if identity == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	params, fields := parseArticleParams(r)
	if len(fields) > 0 {
		respondValidationError(w, "", fields)
		return
	}

	userID := logger.SanitizeUserID(identity.Subject)
	keywords, err := h.keywords.List(r.Context(), identity.Subject)
	if err != nil {
		h.logger.Error("keyword_list_failed",
			zap.String("user_id", userID),
			zap.String("error", logger.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve keywords")
		return
	}
	if len(keywords) == 0 {
		h.logger.Debug("articles_no_keywords", zap.String("user_id", userID))
		respondJSON(w, http.StatusOK, models.EmptyArticleList())
		return
	}

	terms := (&models.KeywordList{Keywords: keywords}).Strings()
	list, err := h.news.Search(r.Context(), models.ArticleQuery{
		Keywords:  terms,
		Page:      params.Page,
		PageSize:  params.PageSize,
		SortBy:    models.SortBy(params.SortBy),
		Language:  params.Language,
		MatchMode: models.MatchMode(params.MatchMode),
	})
	if err != nil {
		h.respondSearchError(w, userID, err)
		return
	}

	h.logger.Info("articles_fetched",
		zap.String("user_id", userID),
		zap.Int("count", len(list.Articles)),
		zap.Int("total", list.TotalResults),
	)
	respondJSON(w, http.StatusOK, list)
}

func (h *ArticleHandler) respondSearchError(w http.ResponseWriter, userID string, err error) {
	var upstream *news.UpstreamError
	switch {
	case errors.Is(err, news.ErrNotConfigured):
		h.logger.Error("news_not_configured", zap.String("user_id", userID))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", err.Error())
	case errors.Is(err, news.ErrTimeout):
		h.logger.Error("news_timeout", zap.String("user_id", userID))
		respondJSONError(w, http.StatusGatewayTimeout, "Gateway Timeout", err.Error())
	case errors.As(err, &upstream):
		h.logger.Error("news_fetch_failed",
			zap.String("user_id", userID),
			zap.Int("status", upstream.StatusCode),
			zap.String("error", logger.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusBadGateway, "Bad Gateway", "Failed to fetch articles: "+err.Error())
	default:
		h.logger.Error("news_fetch_failed",
			zap.String("user_id", userID),
			zap.String("error", logger.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusBadGateway, "Bad Gateway", "Failed to fetch articles")
	}
}
