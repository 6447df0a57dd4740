package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// MaxKeywordLength is the maximum length of a normalized keyword, in characters.
const MaxKeywordLength = 100

// Keyword is a saved search term belonging to one user.
type Keyword struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"-"`
	Keyword   string    `json:"keyword"`
	CreatedAt time.Time `json:"created_at"`
}

// KeywordList is the response body for a user's keyword listing.
type KeywordList struct {
	Keywords []*Keyword `json:"keywords"`
	Total    int        `json:"total"`
}

// NormalizeKeyword trims surrounding whitespace, composes the string to NFC and
// lowercases it. Stored and looked-up keywords always go through this.
func NormalizeKeyword(raw string) string {
	s := norm.NFC.String(strings.TrimSpace(raw))
	// Casers carry state and are not safe for concurrent use.
	return cases.Lower(language.Und).String(s)
}

// Strings returns the keyword strings of the list, in order.
func (l *KeywordList) Strings() []string {
	out := make([]string, 0, len(l.Keywords))
	for _, k := range l.Keywords {
		out = append(out, k.Keyword)
	}
	return out
}
