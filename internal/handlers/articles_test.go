package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benvon/newsfeed/internal/models"
	"github.com/benvon/newsfeed/internal/services/news"
)

type fakeSearcher struct {
	calls int
	last  models.ArticleQuery
	list  *models.ArticleList
	err   error
}

func (f *fakeSearcher) Search(_ context.Context, q models.ArticleQuery) (*models.ArticleList, error) {
	f.calls++
	f.last = q
	return f.list, f.err
}

func TestListArticles_NoKeywordsSkipsNewsAPI(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{}
	h := NewArticleHandler(newMemoryKeywordStore(), searcher, nil)

	w := httptest.NewRecorder()
	h.ListArticles(w, newRequest(t, http.MethodGet, "/api/articles", nil, testIdentity))

	require.Equal(t, http.StatusOK, w.Code)
	list := decodeData[models.ArticleList](t, decodeEnvelope(t, w))
	assert.Empty(t, list.Articles)
	assert.NotNil(t, list.Articles)
	assert.Zero(t, list.TotalResults)
	assert.Zero(t, searcher.calls)
}

func TestListArticles_PassesParams(t *testing.T) {
	t.Parallel()

	store := newMemoryKeywordStore()
	for _, kw := range []string{"go", "rust"} {
		_, err := store.Create(t.Context(), testIdentity.Subject, kw)
		require.NoError(t, err)
	}
	searcher := &fakeSearcher{list: &models.ArticleList{
		Articles:     []models.Article{{Title: "Go news", URL: "https://example.com/go"}},
		TotalResults: 1,
		Status:       "ok",
	}}
	h := NewArticleHandler(store, searcher, nil)

	w := httptest.NewRecorder()
	h.ListArticles(w, newRequest(t, http.MethodGet, "/api/articles?page=2&page_size=50&sort_by=relevancy&language=de&match_mode=all", nil, testIdentity))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ArticleQuery{
		Keywords:  []string{"rust", "go"},
		Page:      2,
		PageSize:  50,
		SortBy:    models.SortByRelevancy,
		Language:  "de",
		MatchMode: models.MatchAll,
	}, searcher.last)
	list := decodeData[models.ArticleList](t, decodeEnvelope(t, w))
	assert.Len(t, list.Articles, 1)
}

func TestListArticles_Defaults(t *testing.T) {
	t.Parallel()

	store := newMemoryKeywordStore()
	_, err := store.Create(t.Context(), testIdentity.Subject, "go")
	require.NoError(t, err)
	searcher := &fakeSearcher{list: models.EmptyArticleList()}

	w := httptest.NewRecorder()
	NewArticleHandler(store, searcher, nil).ListArticles(w, newRequest(t, http.MethodGet, "/api/articles", nil, testIdentity))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, searcher.last.Page)
	assert.Equal(t, news.DefaultPageSize, searcher.last.PageSize)
	assert.Equal(t, models.SortByPublishedAt, searcher.last.SortBy)
	assert.Equal(t, "en", searcher.last.Language)
	assert.Equal(t, models.MatchAny, searcher.last.MatchMode)
}

func TestListArticles_InvalidParams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		query     string
		wantField string
	}{
		{query: "page=0", wantField: "page"},
		{query: "page=abc", wantField: "page"},
		{query: "page_size=101", wantField: "page_size"},
		{query: "sort_by=newest", wantField: "sort_by"},
		{query: "language=xx", wantField: "language"},
		{query: "match_mode=some", wantField: "match_mode"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			t.Parallel()

			searcher := &fakeSearcher{}
			w := httptest.NewRecorder()
			NewArticleHandler(newMemoryKeywordStore(), searcher, nil).
				ListArticles(w, newRequest(t, http.MethodGet, "/api/articles?"+tt.query, nil, testIdentity))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decodeEnvelope(t, w).Fields, tt.wantField)
			assert.Zero(t, searcher.calls)
		})
	}
}

func TestListArticles_UpstreamErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "not configured", err: news.ErrNotConfigured, wantStatus: http.StatusInternalServerError},
		{name: "upstream", err: &news.UpstreamError{StatusCode: 401, Message: "bad key"}, wantStatus: http.StatusBadGateway},
		{name: "timeout", err: news.ErrTimeout, wantStatus: http.StatusGatewayTimeout},
		{name: "other", err: errors.New("boom"), wantStatus: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := newMemoryKeywordStore()
			_, err := store.Create(t.Context(), testIdentity.Subject, "go")
			require.NoError(t, err)

			w := httptest.NewRecorder()
			NewArticleHandler(store, &fakeSearcher{err: tt.err}, nil).
				ListArticles(w, newRequest(t, http.MethodGet, "/api/articles", nil, testIdentity))

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
