package errors

import (
	"errors"
	"fmt"
)

// Custom error types for the redirect service.
// Callers match them with errors.Is / errors.As; the repository layer wraps
// driver errors so these are the only values that leave it.

// ErrNotFound covers unknown slugs, reserved paths and links owned by someone else.
// The caller never learns which one it was.
var ErrNotFound = errors.New("link not found")

// ErrConflict is returned when a create collides with an existing identifier.
var ErrConflict = errors.New("identifier already taken")

// ErrSchemaMissing is returned when the backing tables have not been created yet.
var ErrSchemaMissing = errors.New("database schema missing")

// ErrStorage wraps any other storage failure.
var ErrStorage = errors.New("storage unavailable")

// ErrInvalidURL is returned when the destination is not an absolute http(s) URL.
var ErrInvalidURL = errors.New("invalid URL format")

// ErrInvalidSlug is returned when a custom identifier is malformed or reserved.
var ErrInvalidSlug = errors.New("invalid identifier format")

// ErrShortCodeGenerationFailed is returned when we can't generate a unique identifier
var ErrShortCodeGenerationFailed = errors.New("failed to generate unique short code")

// ErrUnauthorized is returned when the caller carries neither an owner id nor admin rights.
var ErrUnauthorized = errors.New("unauthorized")

// ErrClickRecordingFailed is returned when the counter update or the event insert fails
type ErrClickRecordingFailed struct {
	LinkID string
	Step   string
	Err    error
}

func (e ErrClickRecordingFailed) Error() string {
	return fmt.Sprintf("failed to record click for link %s (%s): %v", e.LinkID, e.Step, e.Err)
}

func (e ErrClickRecordingFailed) Unwrap() error {
	return e.Err
}

// ErrURLCheckFailed is returned when a destination health check fails
type ErrURLCheckFailed struct {
	URL    string
	Reason string
}

func (e ErrURLCheckFailed) Error() string {
	return fmt.Sprintf("failed to check URL %s: %s", e.URL, e.Reason)
}

// ErrConfigLoad is returned when configuration loading fails
type ErrConfigLoad struct {
	Path   string
	Reason string
}

func (e ErrConfigLoad) Error() string {
	return fmt.Sprintf("failed to load config from %s: %s", e.Path, e.Reason)
}
