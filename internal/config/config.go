package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// minSigningSecretLength is the minimum accepted length for TOKEN_SIGNING_SECRET.
const minSigningSecretLength = 32

// Config holds application configuration
type Config struct {
	DatabaseURL     string `env:"DATABASE_URL,required"`
	ServerPort      string `env:"SERVER_PORT" envDefault:"8080"`
	Environment     string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel        string `env:"LOG_LEVEL" envDefault:"info"`
	ServerDebugMode bool   `env:"SERVER_DEBUG_MODE" envDefault:"false"`
	EnableHSTS      bool   `env:"ENABLE_HSTS" envDefault:"false"`
	CORSOrigins     string `env:"CORS_ORIGINS" envDefault:"http://localhost:3000"`
	AutoMigrate     bool   `env:"AUTO_MIGRATE" envDefault:"true"`

	// Authentik identity provider
	AuthentikURL            string `env:"AUTHENTIK_URL" envDefault:"http://localhost:9000"`
	AuthentikClientID       string `env:"AUTHENTIK_CLIENT_ID" envDefault:"newsfeed-app"`
	AuthentikAuthFlow       string `env:"AUTHENTIK_AUTH_FLOW" envDefault:"default-authentication-flow"`
	AuthentikEnrollmentFlow string `env:"AUTHENTIK_ENROLLMENT_FLOW" envDefault:"newsfeed-enrollment"`

	// Session token signing
	TokenSigningSecret   string `env:"TOKEN_SIGNING_SECRET"`
	AllowClientIDSigning bool   `env:"ALLOW_CLIENT_ID_SIGNING" envDefault:"false"`

	// News API
	NewsAPIKey     string  `env:"NEWS_API_KEY"`
	NewsAPIBaseURL string  `env:"NEWS_API_BASE_URL" envDefault:"https://newsapi.org/v2"`
	NewsAPIRate    float64 `env:"NEWS_API_RATE" envDefault:"5"`

	// Summarization
	OpenAIKey string `env:"OPENAI_API_KEY"`
	AIModel   string `env:"AI_MODEL" envDefault:"gpt-4o-mini"`
	AIBaseURL string `env:"AI_BASE_URL"`

	// Rate limiting (ulule/limiter formatted rates). Redis is optional.
	RedisURL      string `env:"REDIS_URL"`
	AuthRateLimit string `env:"AUTH_RATE_LIMIT" envDefault:"10-M"`
	APIRateLimit  string `env:"API_RATE_LIMIT" envDefault:"120-M"`

	// Observability
	OTELEnabled    bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom loads configuration from the given variables instead of the process environment.
func LoadFrom(environ map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	if cfg.TokenSigningSecret != "" && len(cfg.TokenSigningSecret) < minSigningSecretLength {
		return nil, fmt.Errorf("TOKEN_SIGNING_SECRET must be at least %d bytes", minSigningSecretLength)
	}

	if cfg.TokenSigningSecret == "" && !cfg.AllowClientIDSigning {
		return nil, errors.New("TOKEN_SIGNING_SECRET is required (set ALLOW_CLIENT_ID_SIGNING=true to sign with the client id)")
	}

	cfg.AuthentikURL = strings.TrimRight(cfg.AuthentikURL, "/")
	cfg.NewsAPIBaseURL = strings.TrimRight(cfg.NewsAPIBaseURL, "/")

	return cfg, nil
}

// SigningSecret returns the key used to sign session tokens.
// The client id is only used when no dedicated secret is configured and
// ALLOW_CLIENT_ID_SIGNING is set.
func (c *Config) SigningSecret() []byte {
	if c.TokenSigningSecret != "" {
		return []byte(c.TokenSigningSecret)
	}
	return []byte(c.AuthentikClientID)
}

// UsesClientIDSigning reports whether tokens are signed with the public client id.
func (c *Config) UsesClientIDSigning() bool {
	return c.TokenSigningSecret == ""
}

// SummarizationEnabled reports whether an OpenAI key is configured.
func (c *Config) SummarizationEnabled() bool {
	return c.OpenAIKey != ""
}

// CORSOriginList splits CORS_ORIGINS into trimmed, de-duplicated origins.
func (c *Config) CORSOriginList() []string {
	var origins []string
	seen := make(map[string]bool)
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		o = strings.TrimSpace(o)
		if o == "" || seen[o] {
			continue
		}
		seen[o] = true
		origins = append(origins, o)
	}
	return origins
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
