package domain

import (
	"errors"
	"fmt"
)

// Soft outcomes. These are normal results of a query, not failures: the
// HTTP layer maps each to a fixed user-facing message. Anything not in this
// set that escapes the pipeline is an infrastructure failure and must reach
// the request boundary as a hard error.
var (
	ErrEmptyQuery    = errors.New("empty query")
	ErrNoCandidates  = errors.New("no candidates found")
	ErrLowSimilarity = errors.New("best candidate below similarity threshold")
)

// IsSoftOutcome reports whether err is one of the handled query outcomes
// rather than an infrastructure failure.
func IsSoftOutcome(err error) bool {
	return errors.Is(err, ErrEmptyQuery) ||
		errors.Is(err, ErrNoCandidates) ||
		errors.Is(err, ErrLowSimilarity)
}

// Validation sentinels.
var (
	ErrQueryTooLong   = errors.New("query too long")
	ErrQueryInjection = errors.New("query contains suspicious content")
)

// ValidationError wraps a sentinel with the offending value.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}
