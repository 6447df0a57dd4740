// Package ai summarizes news articles with an OpenAI chat model.
package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/benvon/newsfeed/internal/logger"
	"github.com/benvon/newsfeed/internal/metrics"
	"github.com/benvon/newsfeed/internal/models"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

const (
	// DefaultModel is the model used when none is configured.
	DefaultModel = "gpt-4o-mini"
	// DefaultBaseURL is the OpenAI API base URL.
	DefaultBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout bounds a single summarization call.
	DefaultTimeout = 30 * time.Second

	noArticlesSummary = "No articles to summarize."
)

// Config configures a Summarizer.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	Timeout   time.Duration
	Transport http.RoundTripper
}

// Summarizer produces a short prose summary of a set of articles.
type Summarizer struct {
	client  openai.Client
	model   string
	enabled bool
	timeout time.Duration
	logger  *zap.Logger
}

// NewSummarizer creates a Summarizer. It is disabled when cfg.APIKey is empty.
func NewSummarizer(cfg Config, log *zap.Logger, rec metrics.Recorder) *Summarizer {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	httpClient := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: metrics.InstrumentTransport(metrics.UpstreamOpenAI, rec, cfg.Transport),
	}

	s := &Summarizer{
		client: openai.NewClient(
			option.WithAPIKey(cfg.APIKey),
			option.WithBaseURL(cfg.BaseURL),
			option.WithHTTPClient(httpClient),
			option.WithMaxRetries(0),
		),
		model:   cfg.Model,
		enabled: cfg.APIKey != "",
		timeout: cfg.Timeout,
		logger:  logger.OrNop(log),
	}

	s.logger.Info("summarizer_configured",
		zap.Bool("enabled", s.enabled),
		zap.String("model", s.model),
		zap.String("api_key", SanitizeAPIKey(cfg.APIKey)),
	)
	return s
}

// Enabled reports whether an API key is configured.
func (s *Summarizer) Enabled() bool { return s.enabled }

// Status describes whether summarization is available.
func (s *Summarizer) Status() models.SummaryStatus {
	if s.enabled {
		return models.SummaryStatus{Enabled: true}
	}
	msg := NotConfiguredMessage
	return models.SummaryStatus{Enabled: false, Message: &msg}
}

// Summarize asks the model for a summary of articles. Errors are ErrNotConfigured
// or *SummarizeError.
func (s *Summarizer) Summarize(ctx context.Context, articles []models.ArticleForSummary) (string, error) {
	if !s.enabled {
		return "", ErrNotConfigured
	}
	if len(articles) == 0 {
		return noArticlesSummary, nil
	}

	prompt := BuildPrompt(articles)
	s.logger.Debug("llm_api_request",
		zap.String("operation", "summarize_articles"),
		zap.String("model", s.model),
		zap.Int("articles", len(articles)),
		zap.Int("prompt_length", len(prompt)),
		zap.String("prompt_preview", Preview(prompt)),
	)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	latency := time.Since(start)
	if err != nil {
		serr := classifyError(err)
		s.logger.Error("llm_api_error",
			zap.String("operation", "summarize_articles"),
			zap.Int("status", serr.StatusCode()),
			zap.String("error", logger.SanitizeError(err)),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
		return "", serr
	}

	if len(resp.Choices) == 0 {
		return "", &SummarizeError{Kind: KindAPI, Message: "OpenAI service error: no choices in response", Err: errors.New("no choices in response")}
	}

	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	s.logger.Debug("llm_api_response",
		zap.String("operation", "summarize_articles"),
		zap.Int("response_length", len(summary)),
		zap.String("response_preview", Preview(summary)),
		zap.Int64("latency_ms", latency.Milliseconds()),
	)
	return summary, nil
}
