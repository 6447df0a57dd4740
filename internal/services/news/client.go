// Package news searches NewsAPI for articles matching a user's keywords.
package news

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/benvon/newsfeed/internal/logger"
	"github.com/benvon/newsfeed/internal/metrics"
	"github.com/benvon/newsfeed/internal/models"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL  = "https://newsapi.org/v2"
	DefaultTimeout  = 15 * time.Second
	DefaultPageSize = 20
	MaxPageSize     = 100
	// DefaultRate is the outbound request budget per second.
	DefaultRate = 5.0

	// lookback bounds searches to the window the free NewsAPI tier serves.
	lookback = 30 * 24 * time.Hour

	maxResponseBytes = 8 << 20
)

var (
	// ErrNotConfigured is returned when no API key is set.
	ErrNotConfigured = errors.New("NEWS_API_KEY is not configured")
	// ErrTimeout is returned when NewsAPI does not answer in time.
	ErrTimeout = errors.New("News API request timed out")
)

// UpstreamError reports a NewsAPI failure: a non-200 answer or a connection error.
type UpstreamError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return "Failed to connect to News API: " + e.Err.Error()
	}
	return "News API error: " + e.Message
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Config configures a Client.
type Config struct {
	APIKey            string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Transport         http.RoundTripper
}

// Client calls the NewsAPI /everything endpoint.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	now     func() time.Time
	logger  *zap.Logger
}

// NewClient creates a Client. log and rec may be nil.
func NewClient(cfg Config, log *zap.Logger, rec metrics.Recorder) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRate
	}

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: metrics.InstrumentTransport(metrics.UpstreamNewsAPI, rec, cfg.Transport),
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), int(cfg.RequestsPerSecond)+1),
		now:     time.Now,
		logger:  logger.OrNop(log),
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool { return c.apiKey != "" }

// BuildQuery joins keywords with the operator for mode.
func BuildQuery(keywords []string, mode models.MatchMode) string {
	return strings.Join(keywords, " "+mode.Operator()+" ")
}

// Search fetches one page of articles matching q.Keywords. With no keywords it
// returns an empty list without calling NewsAPI.
func (c *Client) Search(ctx context.Context, q models.ArticleQuery) (*models.ArticleList, error) {
	if len(q.Keywords) == 0 {
		return models.EmptyArticleList(), nil
	}
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, ErrTimeout
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/everything?"+c.params(q).Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build news request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, ErrTimeout
		}
		return nil, &UpstreamError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body := io.LimitReader(resp.Body, maxResponseBytes)
	if resp.StatusCode != http.StatusOK {
		return nil, decodeUpstreamError(resp.StatusCode, body)
	}

	var raw rawResponse
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		if isTimeout(err) {
			return nil, ErrTimeout
		}
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Message: "invalid response body"}
	}

	list := raw.toArticleList()
	c.logger.Debug("news_search_completed",
		zap.Int("keywords", len(q.Keywords)),
		zap.Int("page", q.Page),
		zap.Int("returned", len(list.Articles)),
		zap.Int("dropped", len(raw.Articles)-len(list.Articles)),
		zap.Int("total", list.TotalResults),
	)
	return list, nil
}

func (c *Client) params(q models.ArticleQuery) url.Values {
	page := q.Page
	if page < 1 {
		page = 1
	}
	size := q.PageSize
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	sortBy := q.SortBy
	if sortBy == "" {
		sortBy = models.SortByPublishedAt
	}
	lang := q.Language
	if lang == "" {
		lang = "en"
	}
	mode := q.MatchMode
	if mode == "" {
		mode = models.MatchAny
	}

	v := url.Values{}
	v.Set("q", BuildQuery(q.Keywords, mode))
	v.Set("from", c.now().UTC().Add(-lookback).Format("2006-01-02"))
	v.Set("sortBy", string(sortBy))
	v.Set("page", strconv.Itoa(page))
	v.Set("pageSize", strconv.Itoa(size))
	v.Set("apiKey", c.apiKey)
	v.Set("language", lang)
	return v
}

func decodeUpstreamError(status int, body io.Reader) error {
	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	ue := &UpstreamError{StatusCode: status, Message: "Unknown error"}
	if err := json.NewDecoder(body).Decode(&payload); err == nil {
		ue.Code = payload.Code
		if payload.Message != "" {
			ue.Message = payload.Message
		}
	}
	return ue
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
