package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/benvon/newsfeed/internal/logger"
	"github.com/benvon/newsfeed/internal/models"
	"github.com/benvon/newsfeed/internal/request"
	"github.com/benvon/newsfeed/internal/services/authentik"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// FlowRunner runs identity provider flows. Implemented by *authentik.FlowDriver.
type FlowRunner interface {
	Login(ctx context.Context, username, password string) authentik.Outcome
	Signup(ctx context.Context, username, email, password string) authentik.Outcome
	Logout(ctx context.Context, token string) authentik.RevocationAttempted
}

// TokenIssuer mints session tokens. Implemented by *token.Codec.
type TokenIssuer interface {
	Issue(identity models.Identity) (string, error)
}

// AuthHandler handles login, signup and logout
type AuthHandler struct {
	flows  FlowRunner
	tokens TokenIssuer
	logger *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(flows FlowRunner, tokens TokenIssuer, log *zap.Logger) *AuthHandler {
	return &AuthHandler{flows: flows, tokens: tokens, logger: logger.OrNop(log)}
}

// RegisterRoutes registers auth routes on the given router
// The router should already have the /api/auth prefix
func (h *AuthHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/signup", h.Signup).Methods(http.MethodPost)
	r.HandleFunc("/logout", h.Logout).Methods(http.MethodPost)
}

// Login authenticates against the identity provider and returns a session token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeAndValidate(w, r, &req, func(req *models.LoginRequest) {
		req.Username = strings.TrimSpace(req.Username)
	}) {
		return
	}

	username := logger.SanitizeString(req.Username, logger.MaxUserIDLength)
	h.logger.Info("login_attempt", zap.String("username", username))

	outcome := h.flows.Login(r.Context(), req.Username, req.Password)
	if !outcome.OK() {
		h.logger.Warn("login_failed",
			zap.String("username", username),
			zap.String("outcome", outcome.Kind.String()),
		)
		respondOutcome(w, outcome)
		return
	}
	if outcome.User == nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "An unexpected error occurred during login")
		return
	}

	identity := outcome.User.Identity()
	accessToken, err := h.tokens.Issue(identity)
	if err != nil {
		h.logger.Error("token_issue_failed",
			zap.String("user_id", logger.SanitizeUserID(identity.Subject)),
			zap.String("error", logger.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "An unexpected error occurred during login")
		return
	}

	h.logger.Info("login_succeeded", zap.String("user_id", logger.SanitizeUserID(identity.Subject)))
	respondJSON(w, http.StatusOK, models.AuthResponse{
		AccessToken: accessToken,
		TokenType:   "bearer",
		User:        identity,
	})
}

// Signup creates an account through the enrollment flow
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if !decodeAndValidate(w, r, &req, func(req *models.SignupRequest) {
		req.Username = strings.TrimSpace(req.Username)
		req.Email = strings.TrimSpace(req.Email)
	}) {
		return
	}

	username := logger.SanitizeString(req.Username, logger.MaxUserIDLength)
	h.logger.Info("signup_attempt", zap.String("username", username))

	outcome := h.flows.Signup(r.Context(), req.Username, req.Email, req.Password)
	if !outcome.OK() {
		h.logger.Warn("signup_failed",
			zap.String("username", username),
			zap.String("outcome", outcome.Kind.String()),
		)
		respondOutcome(w, outcome)
		return
	}

	respondJSON(w, http.StatusCreated, models.SignupResponse{
		Message:  outcome.Message,
		Username: req.Username,
	})
}

// Logout revokes the bearer token at the provider when one is sent. It always succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	res := h.flows.Logout(r.Context(), request.BearerToken(r))
	h.logger.Info("logout",
		zap.Bool("revocation_attempted", res.Attempted),
		zap.Bool("revoked", res.OK),
	)
	respondJSON(w, http.StatusOK, models.MessageResponse{Message: "Logged out successfully"})
}

// respondOutcome renders a failed flow outcome.
func respondOutcome(w http.ResponseWriter, outcome authentik.Outcome) {
	status := outcome.Kind.HTTPStatus()
	if outcome.Kind == authentik.OutcomeValidationErrors && len(outcome.FieldErrors) > 0 {
		respondValidationError(w, outcome.Message, outcome.FieldErrors)
		return
	}
	respondJSONError(w, status, http.StatusText(status), outcome.Message)
}
