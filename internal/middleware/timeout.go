package middleware

import (
	"net/http"
	"time"
)

const (
	// DefaultRequestTimeout bounds a whole request. It exceeds the longest
	// upstream call (summarization, 30s) only by the handler's own work.
	DefaultRequestTimeout = 35 * time.Second

	timeoutBody = `{"success":false,"error":"Request Timeout","message":"The request took too long to process"}`
)

// Timeout creates a middleware that enforces a timeout on request handlers.
// The handler's context is cancelled when the timeout fires.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, timeoutBody)
	}
}
