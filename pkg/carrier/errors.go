package carrier

import (
	"errors"
	"fmt"
)

// Error represents a failure talking to a rate backend.
type Error struct {
	Source     string
	Endpoint   string
	Message    string
	StatusCode int
	Retryable  bool
	Cause      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Source, e.Endpoint, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s %s: %s", e.Source, e.Endpoint, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new backend Error.
func NewError(source, endpoint, message string) *Error {
	return &Error{
		Source:   source,
		Endpoint: endpoint,
		Message:  message,
	}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

// WithStatusCode adds the upstream HTTP status code to the error.
func (e *Error) WithStatusCode(code int) *Error {
	e.StatusCode = code
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// Sentinel errors for common quote-pipeline scenarios.
var (
	// ErrUnauthorized indicates the carrier rejected the bearer token.
	ErrUnauthorized = errors.New("carrier rejected token")

	// ErrNoToken indicates the login response carried no recognizable token.
	ErrNoToken = errors.New("login response contained no token")

	// ErrMissingCredentials indicates login credentials are not configured.
	ErrMissingCredentials = errors.New("carrier credentials not configured")

	// ErrMissingFields indicates the inbound request lacked required fields.
	ErrMissingFields = errors.New("missing required fields")

	// ErrUpstreamUnavailable indicates a transient carrier failure.
	ErrUpstreamUnavailable = errors.New("carrier unavailable")
)

// StatusCode extracts the upstream HTTP status from an error chain,
// returning 0 when none is recorded.
func StatusCode(err error) int {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.StatusCode
	}
	return 0
}

// IsUnauthorized reports whether the error chain carries a carrier 401.
func IsUnauthorized(err error) bool {
	if errors.Is(err, ErrUnauthorized) {
		return true
	}
	return StatusCode(err) == 401
}
