package middleware

import (
	"context"
	"net/http"

	logpkg "github.com/benvon/newsfeed/internal/logger"
	"github.com/benvon/newsfeed/internal/models"
	"github.com/benvon/newsfeed/internal/request"
	"go.uber.org/zap"
)

// IdentityResolver turns a bearer token into an identity.
type IdentityResolver interface {
	Resolve(ctx context.Context, bearer string) (*models.Identity, error)
}

// Auth creates authentication middleware that resolves the bearer token and
// stores the identity in the request context.
func Auth(resolver IdentityResolver, logger *zap.Logger) func(http.Handler) http.Handler {
	logger = logpkg.OrNop(logger)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bearer := request.BearerToken(r)
			if bearer == "" {
				unauthorized(w, r, "Missing or invalid Authorization header", logger)
				return
			}

			identity, err := resolver.Resolve(r.Context(), bearer)
			if err != nil {
				logger.Debug("token_rejected",
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
					zap.String("token", logpkg.RedactToken(bearer)),
				)
				unauthorized(w, r, "Invalid or expired token", logger)
				return
			}

			next.ServeHTTP(w, r.WithContext(request.WithIdentity(r.Context(), identity)))
		})
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request, message string, logger *zap.Logger) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	respondErrorJSON(w, r, http.StatusUnauthorized, "Unauthorized", message, logger)
}
