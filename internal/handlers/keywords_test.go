package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benvon/newsfeed/internal/models"
)

func newKeywordRouter(store *memoryKeywordStore) *mux.Router {
	r := mux.NewRouter()
	NewKeywordHandler(store, nil).RegisterRoutes(r.PathPrefix("/api/keywords").Subrouter())
	return r
}

func TestCreateKeyword_NormalizesAndRejectsDuplicates(t *testing.T) {
	t.Parallel()

	store := newMemoryKeywordStore()
	router := newKeywordRouter(store)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, newRequest(t, http.MethodPost, "/api/keywords", map[string]string{"keyword": "  REACT  "}, testIdentity))
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeData[models.Keyword](t, decodeEnvelope(t, w))
	assert.Equal(t, "react", created.Keyword)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, newRequest(t, http.MethodPost, "/api/keywords", map[string]string{"keyword": "react"}, testIdentity))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Keyword 'react' already exists", decodeEnvelope(t, w).Message)

	other := &models.Identity{Subject: "user-2"}
	w = httptest.NewRecorder()
	router.ServeHTTP(w, newRequest(t, http.MethodPost, "/api/keywords", map[string]string{"keyword": "react"}, other))
	assert.Equal(t, http.StatusCreated, w.Code, "keywords are scoped per user")
}

func TestCreateKeyword_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body any
	}{
		{name: "blank", body: map[string]string{"keyword": "   "}},
		{name: "missing", body: map[string]string{}},
		{name: "too long", body: map[string]string{"keyword": strings.Repeat("a", 101)}},
		{name: "not json", body: "keyword=go"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := newMemoryKeywordStore()
			w := httptest.NewRecorder()
			newKeywordRouter(store).ServeHTTP(w, newRequest(t, http.MethodPost, "/api/keywords", tt.body, testIdentity))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Empty(t, store.rows[testIdentity.Subject])
		})
	}
}

func TestListKeywords(t *testing.T) {
	t.Parallel()

	store := newMemoryKeywordStore()
	router := newKeywordRouter(store)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, newRequest(t, http.MethodGet, "/api/keywords", nil, testIdentity))
	require.Equal(t, http.StatusOK, w.Code)
	empty := decodeData[models.KeywordList](t, decodeEnvelope(t, w))
	assert.NotNil(t, empty.Keywords)
	assert.Zero(t, empty.Total)

	for _, kw := range []string{"go", "rust", "zig"} {
		_, err := store.Create(t.Context(), testIdentity.Subject, kw)
		require.NoError(t, err)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, newRequest(t, http.MethodGet, "/api/keywords", nil, testIdentity))
	list := decodeData[models.KeywordList](t, decodeEnvelope(t, w))
	assert.Equal(t, 3, list.Total)
	assert.Equal(t, []string{"zig", "rust", "go"}, list.Strings())
}

func TestDeleteKeyword(t *testing.T) {
	t.Parallel()

	store := newMemoryKeywordStore()
	_, err := store.Create(t.Context(), testIdentity.Subject, "golang")
	require.NoError(t, err)
	router := newKeywordRouter(store)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, newRequest(t, http.MethodDelete, "/api/keywords/GoLang", nil, testIdentity))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Keyword 'GoLang' deleted successfully", decodeData[models.MessageResponse](t, decodeEnvelope(t, w)).Message)
	assert.Empty(t, store.rows[testIdentity.Subject])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, newRequest(t, http.MethodDelete, "/api/keywords/golang", nil, testIdentity))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Keyword 'golang' not found", decodeEnvelope(t, w).Message)
}

func TestKeywords_StoreFailure(t *testing.T) {
	t.Parallel()

	store := newMemoryKeywordStore()
	store.err = errors.New("connection reset")
	router := newKeywordRouter(store)

	for _, req := range []*http.Request{
		newRequest(t, http.MethodGet, "/api/keywords", nil, testIdentity),
		newRequest(t, http.MethodPost, "/api/keywords", map[string]string{"keyword": "go"}, testIdentity),
		newRequest(t, http.MethodDelete, "/api/keywords/go", nil, testIdentity),
	} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusInternalServerError, w.Code, req.Method)
		assert.NotContains(t, w.Body.String(), "connection reset")
	}
}

func TestKeywords_NoIdentity(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	newKeywordRouter(newMemoryKeywordStore()).ServeHTTP(w, newRequest(t, http.MethodGet, "/api/keywords", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
