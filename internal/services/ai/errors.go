package ai

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/openai/openai-go/v3"
)

// NotConfiguredMessage is shown to clients when no OpenAI key is set.
const NotConfiguredMessage = "AI summarization requires an OpenAI API key. Add OPENAI_API_KEY to your .env file."

// ErrNotConfigured is returned by Summarize when no API key is set.
var ErrNotConfigured = errors.New(NotConfiguredMessage)

// ErrorKind classifies a failed summarization.
type ErrorKind int

const (
	KindUnavailable ErrorKind = iota
	KindTimeout
	KindAuth
	KindRateLimit
	KindAPI
)

// SummarizeError is returned for every failed call to the model.
type SummarizeError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *SummarizeError) Error() string { return e.Message }

func (e *SummarizeError) Unwrap() error { return e.Err }

// StatusCode returns the HTTP status clients receive for this failure.
func (e *SummarizeError) StatusCode() int {
	switch e.Kind {
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindAuth:
		return http.StatusUnauthorized
	case KindRateLimit:
		return http.StatusTooManyRequests
	case KindAPI:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// classifyError maps an SDK or transport error onto a SummarizeError.
func classifyError(err error) *SummarizeError {
	if isTimeout(err) {
		return &SummarizeError{Kind: KindTimeout, Message: "AI summarization request timed out. Please try again.", Err: err}
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized:
			return &SummarizeError{Kind: KindAuth, Message: "Invalid OpenAI API key. Please check your configuration.", Err: err}
		case http.StatusTooManyRequests:
			return &SummarizeError{Kind: KindRateLimit, Message: "OpenAI rate limit exceeded. Please try again later.", Err: err}
		}
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(apiErr.StatusCode)
		}
		return &SummarizeError{Kind: KindAPI, Message: "OpenAI service error: " + msg, Err: err}
	}

	return &SummarizeError{Kind: KindUnavailable, Message: "Unable to connect to AI service. Please try again.", Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
