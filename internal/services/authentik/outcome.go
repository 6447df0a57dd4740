package authentik

import (
	"net/http"

	"github.com/benvon/newsfeed/internal/models"
)

// OutcomeKind enumerates the terminal results of a login or signup flow.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeInvalidCredentials
	OutcomeMFARequired
	OutcomeValidationErrors
	OutcomeConflict
	OutcomeAccessDenied
	OutcomeServiceUnavailable
	OutcomeIncomplete
	OutcomeInternal
)

var outcomeNames = map[OutcomeKind]string{
	OutcomeSuccess:            "success",
	OutcomeInvalidCredentials: "invalid_credentials",
	OutcomeMFARequired:        "mfa_required",
	OutcomeValidationErrors:   "validation_errors",
	OutcomeConflict:           "conflict",
	OutcomeAccessDenied:       "access_denied",
	OutcomeServiceUnavailable: "service_unavailable",
	OutcomeIncomplete:         "incomplete",
	OutcomeInternal:           "internal",
}

func (k OutcomeKind) String() string {
	if s, ok := outcomeNames[k]; ok {
		return s
	}
	return "unknown"
}

// HTTPStatus maps the outcome onto the status returned to API clients.
func (k OutcomeKind) HTTPStatus() int {
	switch k {
	case OutcomeSuccess:
		return http.StatusOK
	case OutcomeInvalidCredentials:
		return http.StatusUnauthorized
	case OutcomeMFARequired, OutcomeValidationErrors:
		return http.StatusBadRequest
	case OutcomeConflict:
		return http.StatusConflict
	case OutcomeAccessDenied:
		return http.StatusForbidden
	case OutcomeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Outcome is the tagged result of a flow. Only the fields relevant to Kind are set:
// User on a successful login, FieldErrors on ValidationErrors.
type Outcome struct {
	Kind        OutcomeKind
	Message     string
	FieldErrors map[string][]string
	User        *models.ProviderUser
}

// OK reports whether the flow succeeded.
func (o Outcome) OK() bool { return o.Kind == OutcomeSuccess }

// Err returns nil on success and a *FlowError otherwise.
func (o Outcome) Err() error {
	if o.OK() {
		return nil
	}
	return &FlowError{Outcome: o}
}

// FlowError carries a failed Outcome through error-returning call sites.
type FlowError struct {
	Outcome Outcome
}

func (e *FlowError) Error() string {
	return e.Outcome.Kind.String() + ": " + e.Outcome.Message
}

// StatusCode returns the HTTP status for the failed outcome.
func (e *FlowError) StatusCode() int { return e.Outcome.Kind.HTTPStatus() }

func success(user *models.ProviderUser, message string) Outcome {
	return Outcome{Kind: OutcomeSuccess, User: user, Message: message}
}

func invalidCredentials(message string) Outcome {
	if message == "" {
		message = "Invalid username or password"
	}
	return Outcome{Kind: OutcomeInvalidCredentials, Message: message}
}

func mfaRequired() Outcome {
	return Outcome{Kind: OutcomeMFARequired, Message: "Multi-factor authentication is required but not supported"}
}

func validationErrors(message string, fields map[string][]string) Outcome {
	if message == "" {
		message = "Invalid registration data"
	}
	return Outcome{Kind: OutcomeValidationErrors, Message: message, FieldErrors: fields}
}

func conflict(message string) Outcome {
	if message == "" {
		message = "Username or email already exists"
	}
	return Outcome{Kind: OutcomeConflict, Message: message}
}

func accessDenied(message string) Outcome {
	return Outcome{Kind: OutcomeAccessDenied, Message: message}
}

func serviceUnavailable(message string) Outcome {
	if message == "" {
		message = "Authentication service unavailable"
	}
	return Outcome{Kind: OutcomeServiceUnavailable, Message: message}
}

func incomplete() Outcome {
	return Outcome{Kind: OutcomeIncomplete, Message: "Registration process incomplete"}
}

func internal(message string) Outcome {
	return Outcome{Kind: OutcomeInternal, Message: message}
}
