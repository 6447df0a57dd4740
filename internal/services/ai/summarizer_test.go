package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benvon/newsfeed/internal/models"
)

func strPtr(s string) *string { return &s }

const completionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-4o-mini",
  "choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "  Markets rallied on chip news.  "}}]
}`

func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	prompt := BuildPrompt([]models.ArticleForSummary{
		{Title: "Chips surge", Source: strPtr("Wire"), Description: strPtr("Stocks up")},
		{Title: "Rates hold"},
	})

	want := "You are a news analyst. Summarize the following 2 news articles into a concise, informative summary. \n" +
		"Highlight the main themes, key events, and important takeaways. Keep the summary to 2-3 paragraphs.\n\n" +
		"Articles:\n" +
		"**Chips surge**\nSource: Wire\nDescription: Stocks up\n\n" +
		"**Rates hold**\nSource: Unknown\nDescription: No description\n\n" +
		"Summary:"
	assert.Equal(t, want, prompt)
}

func TestSummarizer_Disabled(t *testing.T) {
	t.Parallel()

	s := NewSummarizer(Config{}, nil, nil)
	assert.False(t, s.Enabled())

	status := s.Status()
	assert.False(t, status.Enabled)
	require.NotNil(t, status.Message)
	assert.Equal(t, NotConfiguredMessage, *status.Message)

	_, err := s.Summarize(context.Background(), []models.ArticleForSummary{{Title: "x"}})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSummarizer_Success(t *testing.T) {
	t.Parallel()

	var gotModel, gotPrompt, gotAuth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		gotAuth.Store(r.Header.Get("Authorization"))
		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotModel.Store(body.Model)
		if len(body.Messages) > 0 {
			gotPrompt.Store(body.Messages[len(body.Messages)-1].Content)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody))
	}))
	t.Cleanup(srv.Close)

	s := NewSummarizer(Config{APIKey: "sk-test-1234567890", BaseURL: srv.URL}, nil, nil)
	require.True(t, s.Enabled())
	assert.True(t, s.Status().Enabled)
	assert.Nil(t, s.Status().Message)

	articles := []models.ArticleForSummary{{Title: "Chips surge", Source: strPtr("Wire")}}
	summary, err := s.Summarize(context.Background(), articles)
	require.NoError(t, err)

	assert.Equal(t, "Markets rallied on chip news.", summary)
	assert.Equal(t, DefaultModel, gotModel.Load())
	assert.Equal(t, BuildPrompt(articles), gotPrompt.Load())
	assert.Equal(t, "Bearer sk-test-1234567890", gotAuth.Load())
}

func TestSummarizer_NoArticles(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	t.Cleanup(srv.Close)

	s := NewSummarizer(Config{APIKey: "sk-test", BaseURL: srv.URL}, nil, nil)
	summary, err := s.Summarize(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "No articles to summarize.", summary)
	assert.Zero(t, calls.Load())
}

func TestSummarizer_ErrorClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		status     int
		wantKind   ErrorKind
		wantStatus int
	}{
		{name: "bad key", status: http.StatusUnauthorized, wantKind: KindAuth, wantStatus: http.StatusUnauthorized},
		{name: "rate limited", status: http.StatusTooManyRequests, wantKind: KindRateLimit, wantStatus: http.StatusTooManyRequests},
		{name: "server error", status: http.StatusInternalServerError, wantKind: KindAPI, wantStatus: http.StatusBadGateway},
		{name: "bad request", status: http.StatusBadRequest, wantKind: KindAPI, wantStatus: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":{"message":"nope","type":"invalid_request_error","code":null}}`))
			}))
			t.Cleanup(srv.Close)

			s := NewSummarizer(Config{APIKey: "sk-test", BaseURL: srv.URL}, nil, nil)
			_, err := s.Summarize(context.Background(), []models.ArticleForSummary{{Title: "x"}})

			var serr *SummarizeError
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, tt.wantKind, serr.Kind)
			assert.Equal(t, tt.wantStatus, serr.StatusCode())
			assert.Equal(t, int32(1), calls.Load(), "no retries")
		})
	}
}

func TestSummarizer_Timeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)

	s := NewSummarizer(Config{APIKey: "sk-test", BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, nil, nil)
	_, err := s.Summarize(context.Background(), []models.ArticleForSummary{{Title: "x"}})

	var serr *SummarizeError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, KindTimeout, serr.Kind)
	assert.Equal(t, http.StatusGatewayTimeout, serr.StatusCode())
}

func TestSummarizer_Unreachable(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	s := NewSummarizer(Config{APIKey: "sk-test", BaseURL: "http://" + addr}, nil, nil)
	_, err = s.Summarize(context.Background(), []models.ArticleForSummary{{Title: "x"}})

	var serr *SummarizeError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, KindUnavailable, serr.Kind)
	assert.Equal(t, http.StatusInternalServerError, serr.StatusCode())
}

func TestClassifyError_Deadline(t *testing.T) {
	t.Parallel()

	serr := classifyError(errors.Join(errors.New("request failed"), context.DeadlineExceeded))
	assert.Equal(t, KindTimeout, serr.Kind)
}

func TestSanitizeAPIKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", SanitizeAPIKey(""))
	assert.Equal(t, RedactedValue, SanitizeAPIKey("short"))
	assert.Equal(t, "sk-t[REDACTED]7890", SanitizeAPIKey("sk-test-1234567890"))
}
