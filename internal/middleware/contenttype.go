package middleware

import (
	"mime"
	"net/http"
)

// ContentType rejects body-bearing POST, PUT and PATCH requests that are not
// JSON. A POST without a body (logout) passes through.
func ContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !expectsJSON(r) {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Content-Type")
		if header == "" {
			respondErrorJSON(w, r, http.StatusBadRequest, "Bad Request", "Content-Type header is required", nopLogger)
			return
		}
		mediaType, _, err := mime.ParseMediaType(header)
		if err != nil || mediaType != "application/json" {
			respondErrorJSON(w, r, http.StatusUnsupportedMediaType, "Unsupported Media Type", "Content-Type must be application/json", nopLogger)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func expectsJSON(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return r.ContentLength != 0 || len(r.TransferEncoding) > 0
	default:
		return false
	}
}
