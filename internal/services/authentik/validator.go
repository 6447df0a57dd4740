package authentik

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/benvon/newsfeed/internal/logger"
	"github.com/benvon/newsfeed/internal/metrics"
	"github.com/benvon/newsfeed/internal/models"
	"github.com/benvon/newsfeed/internal/services/token"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// ErrUnauthenticated is the only error Resolve returns.
var ErrUnauthenticated = errors.New("unauthenticated")

// jwtPrefix is the base64 encoding of `{"` that starts every JWT header.
const jwtPrefix = "eyJ"

// TokenVerifier verifies locally issued session tokens.
type TokenVerifier interface {
	Verify(tokenString string) (*token.Claims, error)
}

// Validator resolves bearer tokens to identities. Tokens this service issued
// are verified locally; anything else is checked with Authentik.
type Validator struct {
	verifier  TokenVerifier
	baseURL   string
	timeout   time.Duration
	transport http.RoundTripper
	logger    *zap.Logger
	metrics   metrics.Recorder
}

// NewValidator creates a Validator. cfg supplies the Authentik base URL, the
// transport and the upstream timeout (RevokeTimeout, 10s by default).
func NewValidator(verifier TokenVerifier, cfg Config, log *zap.Logger, rec metrics.Recorder) *Validator {
	cfg = cfg.withDefaults()
	rec = metrics.OrNop(rec)
	return &Validator{
		verifier:  verifier,
		baseURL:   cfg.BaseURL,
		timeout:   cfg.RevokeTimeout,
		transport: metrics.InstrumentTransport(metrics.UpstreamAuthentik, rec, cfg.Transport),
		logger:    logger.OrNop(log),
		metrics:   rec,
	}
}

// Resolve returns the identity for bearer or ErrUnauthenticated.
func (v *Validator) Resolve(ctx context.Context, bearer string) (*models.Identity, error) {
	bearer = strings.TrimSpace(bearer)
	if bearer == "" {
		v.metrics.RecordTokenResolution(metrics.ResolutionRejected)
		return nil, ErrUnauthenticated
	}

	claims, err := v.verifier.Verify(bearer)
	if err == nil {
		v.metrics.RecordTokenResolution(metrics.ResolutionLocal)
		identity := claims.Identity
		return &identity, nil
	}
	if token.IsExpired(err) {
		v.logger.Debug("session_token_expired")
	}

	identity, err := v.resolveUpstream(ctx, bearer)
	if err != nil {
		v.metrics.RecordTokenResolution(metrics.ResolutionRejected)
		v.logger.Debug("token_rejected",
			zap.String("token", logger.RedactToken(bearer)),
			zap.String("error", logger.SanitizeError(err)),
		)
		return nil, ErrUnauthenticated
	}
	v.metrics.RecordTokenResolution(metrics.ResolutionUpstream)
	return identity, nil
}

func (v *Validator) resolveUpstream(ctx context.Context, bearer string) (*models.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	base := &http.Client{Transport: v.transport, Timeout: v.timeout}
	client := oauth2.NewClient(
		context.WithValue(ctx, oauth2.HTTPClient, base),
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: bearer, TokenType: "Bearer"}),
	)
	client.Timeout = v.timeout

	jwtLike := strings.HasPrefix(bearer, jwtPrefix)
	target := v.baseURL + currentUserPath
	if jwtLike {
		target = v.baseURL + userInfoPath
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("identity provider returned " + http.StatusText(resp.StatusCode))
	}

	var identity models.Identity
	if jwtLike {
		err = json.Unmarshal(body, &identity)
	} else {
		identity, err = decodeAPIUser(body)
	}
	if err != nil {
		return nil, err
	}
	if identity.Subject == "" {
		return nil, errors.New("identity provider returned no subject")
	}
	return &identity, nil
}

// decodeAPIUser accepts both the wrapped {"user": {...}} form and a bare user.
func decodeAPIUser(body []byte) (models.Identity, error) {
	var wrapped struct {
		User *models.ProviderUser `json:"user"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return models.Identity{}, err
	}
	if wrapped.User != nil {
		return wrapped.User.Identity(), nil
	}

	var user models.ProviderUser
	if err := json.Unmarshal(body, &user); err != nil {
		return models.Identity{}, err
	}
	return user.Identity(), nil
}
