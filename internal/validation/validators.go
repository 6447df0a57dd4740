package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/benvon/newsfeed/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate

	usernamePattern = regexp.MustCompile(`^[a-z0-9]+$`)
)

func init() {
	Validate = validator.New()

	// Report JSON field names rather than Go field names
	Validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	for tag, fn := range map[string]validator.Func{
		"newsfeed_username": validateUsername,
		"sort_by":           validateSortBy,
		"news_language":     validateLanguage,
		"match_mode":        validateMatchMode,
	} {
		if err := Validate.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("failed to register %s validator: %v", tag, err))
		}
	}
}

// validateUsername allows only lowercase ASCII letters and digits
func validateUsername(fl validator.FieldLevel) bool {
	return usernamePattern.MatchString(fl.Field().String())
}

func validateSortBy(fl validator.FieldLevel) bool {
	return models.SortBy(fl.Field().String()).Valid()
}

func validateLanguage(fl validator.FieldLevel) bool {
	return models.ValidLanguage(fl.Field().String())
}

func validateMatchMode(fl validator.FieldLevel) bool {
	return models.MatchMode(fl.Field().String()).Valid()
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// FieldErrors converts a validation failure into messages keyed by field name.
// It returns nil when err is not a validator.ValidationErrors.
func FieldErrors(err error) map[string][]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		field := fieldPath(fe)
		out[field] = append(out[field], message(fe))
	}
	return out
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s items", fe.Param())
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at most %s items", fe.Param())
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "newsfeed_username":
		return "must contain only lowercase letters and numbers"
	case "sort_by":
		return "must be one of relevancy, popularity, publishedAt"
	case "news_language":
		return "must be one of " + strings.Join(models.Languages, ", ")
	case "match_mode":
		return "must be one of any, all"
	default:
		return "is invalid"
	}
}

// Summary joins field errors into one line, sorted by field, for error messages.
func Summary(fields map[string][]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+strings.Join(fields[k], ", "))
	}
	return strings.Join(parts, "; ")
}
