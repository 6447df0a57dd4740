// Package token issues and verifies the service's own session tokens.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/benvon/newsfeed/internal/models"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	// DefaultTTL is how long an issued session token stays valid.
	DefaultTTL = 24 * time.Hour
	// Issuer is written to and required in every session token.
	Issuer = "newsfeed-api"

	claimEmail             = "email"
	claimName              = "name"
	claimPreferredUsername = "preferred_username"
)

// Reason classifies why a token failed verification. Callers treat every
// reason as unauthenticated; the distinction exists for logging.
type Reason string

const (
	ReasonExpired   Reason = "expired"
	ReasonMalformed Reason = "malformed"
)

// InvalidError is the only error Verify returns.
type InvalidError struct {
	Reason Reason
	Err    error
}

func (e *InvalidError) Error() string {
	if e.Err == nil {
		return "invalid token: " + string(e.Reason)
	}
	return fmt.Sprintf("invalid token: %s: %v", e.Reason, e.Err)
}

func (e *InvalidError) Unwrap() error { return e.Err }

// IsExpired reports whether err is an InvalidError caused by expiry.
func IsExpired(err error) bool {
	var inv *InvalidError
	return errors.As(err, &inv) && inv.Reason == ReasonExpired
}

// Claims are the identity claims carried by a session token.
type Claims struct {
	models.Identity
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Codec signs session tokens with a symmetric HS256 key.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Codec) { c.ttl = ttl }
}

// NewCodec creates a codec signing with secret.
func NewCodec(secret []byte, opts ...Option) *Codec {
	c := &Codec{
		secret: secret,
		ttl:    DefaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Issue mints a signed token for identity, valid for the codec TTL from now.
func (c *Codec) Issue(identity models.Identity) (string, error) {
	if identity.Subject == "" {
		return "", errors.New("cannot issue token without subject")
	}

	now := c.now().UTC().Truncate(time.Second)
	tok, err := jwt.NewBuilder().
		Issuer(Issuer).
		Subject(identity.Subject).
		IssuedAt(now).
		Expiration(now.Add(c.ttl)).
		Claim(claimEmail, identity.Email).
		Claim(claimName, identity.Name).
		Claim(claimPreferredUsername, identity.PreferredUsername).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build token: %w", err)
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, c.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return string(signed), nil
}

// Verify checks signature, issuer and expiry. It never panics; any failure is
// returned as *InvalidError.
func (c *Codec) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, &InvalidError{Reason: ReasonMalformed, Err: errors.New("empty token")}
	}

	tok, err := jwt.Parse([]byte(tokenString),
		jwt.WithKey(jwa.HS256, c.secret),
		jwt.WithValidate(true),
		jwt.WithIssuer(Issuer),
		jwt.WithClock(jwt.ClockFunc(c.now)),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired()) {
			return nil, &InvalidError{Reason: ReasonExpired, Err: err}
		}
		return nil, &InvalidError{Reason: ReasonMalformed, Err: err}
	}

	if tok.Subject() == "" {
		return nil, &InvalidError{Reason: ReasonMalformed, Err: errors.New("missing subject")}
	}

	return &Claims{
		Identity: models.Identity{
			Subject:           tok.Subject(),
			Email:             stringClaim(tok, claimEmail),
			Name:              stringClaim(tok, claimName),
			PreferredUsername: stringClaim(tok, claimPreferredUsername),
		},
		IssuedAt:  tok.IssuedAt(),
		ExpiresAt: tok.Expiration(),
	}, nil
}

func stringClaim(tok jwt.Token, name string) string {
	v, ok := tok.Get(name)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
