package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/benvon/newsfeed/internal/validation"
)

// maxErrorMessageLength bounds messages echoed back to clients.
const maxErrorMessageLength = 200

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// sanitizeErrorMessage truncates messages so upstream error bodies are never echoed in full
func sanitizeErrorMessage(message string) string {
	runes := []rune(message)
	if len(runes) > maxErrorMessageLength {
		return string(runes[:maxErrorMessageLength]) + "..."
	}
	return message
}

// respondJSONError sends an error JSON response with sanitized error messages
func respondJSONError(w http.ResponseWriter, status int, errorType, message string) {
	respondErrorBody(w, status, map[string]any{
		"success":   false,
		"error":     errorType,
		"message":   sanitizeErrorMessage(message),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// respondValidationError sends a 400 with per-field messages.
func respondValidationError(w http.ResponseWriter, message string, fields map[string][]string) {
	if message == "" {
		message = validation.Summary(fields)
	}
	respondErrorBody(w, http.StatusBadRequest, map[string]any{
		"success":   false,
		"error":     "Validation Error",
		"message":   sanitizeErrorMessage(message),
		"fields":    fields,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func respondErrorBody(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// decodeAndValidate decodes the JSON body into dst, applies normalize (may be
// nil) and runs struct validation. It writes the error response and returns
// false on failure.
func decodeAndValidate[T any](w http.ResponseWriter, r *http.Request, dst *T, normalize func(*T)) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", "Request body is too large")
		case errors.Is(err, io.EOF):
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Request body is required")
		default:
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		}
		return false
	}

	if normalize != nil {
		normalize(dst)
	}

	if err := validation.Validate.Struct(dst); err != nil {
		fields := validation.FieldErrors(err)
		if fields == nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
			return false
		}
		respondValidationError(w, "", fields)
		return false
	}
	return true
}
