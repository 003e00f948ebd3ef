package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an operation references an unknown song id
	ErrNotFound = errors.New("song not found")

	// ErrConflict is returned when a write collides with a unique field
	ErrConflict = errors.New("song already exists")

	// ErrForbidden is returned when the caller does not own the song
	ErrForbidden = errors.New("song belongs to another user")
)

// ValidationError reports malformed caller input such as a bad cursor,
// an unsupported sort key or an unknown facet value.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// UpstreamError wraps a failure of the blob store
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("blob store %s failed: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err carries a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
