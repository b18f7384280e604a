package domain

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Injection patterns — SQL/template fragments that should never appear in a
// user question about a politician.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(DROP|DELETE|INSERT|UPDATE|ALTER|EXEC|UNION)\b.*\b(TABLE|FROM|INTO|SELECT|SET)\b`),
	regexp.MustCompile(`(?i)(--|;)\s*(DROP|DELETE|SELECT)`),
	regexp.MustCompile(`(?i)\$\{.*\}`),
}

const maxQueryLength = 512

// ValidateQuery checks a user query before any retrieval work is done.
// An empty (or whitespace-only) query is the one user-input soft outcome;
// the rest are validation failures.
func ValidateQuery(query string) error {
	text := strings.TrimSpace(query)
	if text == "" {
		return ErrEmptyQuery
	}
	if utf8.RuneCountInString(text) > maxQueryLength {
		return NewValidationError("query", text[:32], ErrQueryTooLong)
	}
	for _, pat := range injectionPatterns {
		if pat.MatchString(text) {
			return NewValidationError("query", text, ErrQueryInjection)
		}
	}
	return nil
}
