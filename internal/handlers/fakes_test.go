package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/benvon/newsfeed/internal/database"
	"github.com/benvon/newsfeed/internal/models"
	"github.com/benvon/newsfeed/internal/request"
)

// memoryKeywordStore is an in-memory database.KeywordStore.
type memoryKeywordStore struct {
	mu    sync.Mutex
	rows  map[string][]*models.Keyword
	clock time.Time
	err   error
}

func newMemoryKeywordStore() *memoryKeywordStore {
	return &memoryKeywordStore{
		rows:  map[string][]*models.Keyword{},
		clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *memoryKeywordStore) List(_ context.Context, userID string) ([]*models.Keyword, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := append([]*models.Keyword(nil), s.rows[userID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memoryKeywordStore) Create(_ context.Context, userID, keyword string) (*models.Keyword, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	for _, k := range s.rows[userID] {
		if k.Keyword == keyword {
			return nil, database.ErrDuplicate
		}
	}
	s.clock = s.clock.Add(time.Minute)
	k := &models.Keyword{ID: uuid.New(), UserID: userID, Keyword: keyword, CreatedAt: s.clock}
	s.rows[userID] = append(s.rows[userID], k)
	return k, nil
}

func (s *memoryKeywordStore) Delete(_ context.Context, userID, keyword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	rows := s.rows[userID]
	for i, k := range rows {
		if k.Keyword == keyword {
			s.rows[userID] = append(rows[:i], rows[i+1:]...)
			return nil
		}
	}
	return database.ErrNotFound
}

var _ database.KeywordStore = (*memoryKeywordStore)(nil)

var testIdentity = &models.Identity{Subject: "user-1", Email: "u@example.com", PreferredUsername: "user1"}

// newRequest builds a request with an optional JSON body and the test identity attached.
func newRequest(t *testing.T, method, target string, body any, identity *models.Identity) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if identity != nil {
		req = req.WithContext(request.WithIdentity(req.Context(), identity))
	}
	return req
}

type envelope struct {
	Success   bool                `json:"success"`
	Data      json.RawMessage     `json:"data"`
	Error     string              `json:"error"`
	Message   string              `json:"message"`
	Fields    map[string][]string `json:"fields"`
	Timestamp string              `json:"timestamp"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&env))
	return env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}
