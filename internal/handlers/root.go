package handlers

import (
	"net/http"
)

// Root describes the API entry points
func Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"message":"Welcome to NewsFeed API","docs":"/api/openapi.json","health":"/health"}` + "\n"))
}
