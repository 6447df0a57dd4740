package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/benvon/newsfeed/internal/database"
	"github.com/benvon/newsfeed/internal/logger"
	"github.com/benvon/newsfeed/internal/models"
	"github.com/benvon/newsfeed/internal/request"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// KeywordHandler handles the authenticated user's saved keywords
type KeywordHandler struct {
	store  database.KeywordStore
	logger *zap.Logger
}

// NewKeywordHandler creates a new keyword handler
func NewKeywordHandler(store database.KeywordStore, log *zap.Logger) *KeywordHandler {
	return &KeywordHandler{store: store, logger: logger.OrNop(log)}
}

// RegisterRoutes registers keyword routes on the given router
// The router should already have the /api/keywords prefix
func (h *KeywordHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListKeywords).Methods(http.MethodGet)
	r.HandleFunc("", h.CreateKeyword).Methods(http.MethodPost)
	r.HandleFunc("/{keyword}", h.DeleteKeyword).Methods(http.MethodDelete)
}

// ListKeywords returns the user's keywords, newest first
func (h *KeywordHandler) ListKeywords(w http.ResponseWriter, r *http.Request) {
	identity := request.IdentityFromContext(r)
	if identity == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	keywords, err := h.store.List(r.Context(), identity.Subject)
	if err != nil {
		h.logger.Error("keyword_list_failed",
			zap.String("user_id", logger.SanitizeUserID(identity.Subject)),
			zap.String("error", logger.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve keywords")
		return
	}
	if keywords == nil {
		keywords = []*models.Keyword{}
	}

	respondJSON(w, http.StatusOK, models.KeywordList{Keywords: keywords, Total: len(keywords)})
}

// CreateKeyword saves a normalized keyword. Saving the same keyword twice is a conflict.
func (h *KeywordHandler) CreateKeyword(w http.ResponseWriter, r *http.Request) {
	identity := request.IdentityFromContext(r)
	if identity == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req models.CreateKeywordRequest
	if !decodeAndValidate(w, r, &req, func(req *models.CreateKeywordRequest) {
		req.Keyword = models.NormalizeKeyword(req.Keyword)
	}) {
		return
	}

	userID := logger.SanitizeUserID(identity.Subject)
	keyword, err := h.store.Create(r.Context(), identity.Subject, req.Keyword)
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			h.logger.Warn("keyword_duplicate",
				zap.String("user_id", userID),
				zap.String("keyword", logger.SanitizeString(req.Keyword, models.MaxKeywordLength)),
			)
			respondJSONError(w, http.StatusConflict, "Conflict", fmt.Sprintf("Keyword '%s' already exists", req.Keyword))
			return
		}
		h.logger.Error("keyword_create_failed",
			zap.String("user_id", userID),
			zap.String("error", logger.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create keyword")
		return
	}

	h.logger.Info("keyword_created",
		zap.String("user_id", userID),
		zap.String("keyword", logger.SanitizeString(keyword.Keyword, models.MaxKeywordLength)),
	)
	respondJSON(w, http.StatusCreated, keyword)
}

// DeleteKeyword removes a keyword. The path value is normalized before lookup.
func (h *KeywordHandler) DeleteKeyword(w http.ResponseWriter, r *http.Request) {
	identity := request.IdentityFromContext(r)
	if identity == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	raw := mux.Vars(r)["keyword"]
	normalized := models.NormalizeKeyword(raw)
	userID := logger.SanitizeUserID(identity.Subject)

	if err := h.store.Delete(r.Context(), identity.Subject, normalized); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			h.logger.Warn("keyword_not_found",
				zap.String("user_id", userID),
				zap.String("keyword", logger.SanitizeString(normalized, models.MaxKeywordLength)),
			)
			respondJSONError(w, http.StatusNotFound, "Not Found", fmt.Sprintf("Keyword '%s' not found", raw))
			return
		}
		h.logger.Error("keyword_delete_failed",
			zap.String("user_id", userID),
			zap.String("error", logger.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete keyword")
		return
	}

	h.logger.Info("keyword_deleted",
		zap.String("user_id", userID),
		zap.String("keyword", logger.SanitizeString(normalized, models.MaxKeywordLength)),
	)
	respondJSON(w, http.StatusOK, models.MessageResponse{Message: fmt.Sprintf("Keyword '%s' deleted successfully", raw)})
}
