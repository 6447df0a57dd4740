package ai

import "github.com/benvon/newsfeed/internal/logger"

const (
	// MaxPreviewLength bounds prompt and response previews in logs.
	MaxPreviewLength = 200
	// RedactedValue replaces secrets in logs.
	RedactedValue = "[REDACTED]"
)

// SanitizeAPIKey keeps the first and last four characters of an API key.
func SanitizeAPIKey(apiKey string) string {
	if apiKey == "" {
		return ""
	}
	if len(apiKey) <= 8 {
		return RedactedValue
	}
	return apiKey[:4] + RedactedValue + apiKey[len(apiKey)-4:]
}

// Preview returns a log-safe, truncated copy of model input or output.
func Preview(s string) string {
	return logger.SanitizeString(s, MaxPreviewLength)
}
