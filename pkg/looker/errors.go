package looker

import (
	"fmt"
	"time"
)

// APIError represents a non-2xx response from the Looker API.
type APIError struct {
	// Operation is the client method that failed (e.g. "create_query").
	Operation string

	// StatusCode is the HTTP status code.
	StatusCode int

	// Message is the error message returned by Looker, or the raw body.
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("looker %s failed (status %d): %s", e.Operation, e.StatusCode, e.Message)
}

// AuthError represents an authentication or authorization failure, either
// while logging in or on a 401/403 response.
type AuthError struct {
	Operation string
	Message   string
	Cause     error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("looker %s authentication failed: %v", e.Operation, e.Cause)
	}
	return fmt.Sprintf("looker %s authentication failed: %s", e.Operation, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *AuthError) Unwrap() error {
	return e.Cause
}

// NotFoundError is returned when the addressed object does not exist.
type NotFoundError struct {
	Operation string
	Resource  string
	ID        string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("looker %s: %s %q not found", e.Operation, e.Resource, e.ID)
}

// ParseError represents a response that could not be decoded.
type ParseError struct {
	Operation   string
	RawResponse string
	Cause       error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("looker %s response parse error: %v", e.Operation, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// TimeoutError represents a request that exceeded its deadline.
type TimeoutError struct {
	Operation string
	Timeout   time.Duration
	Cause     error
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("looker %s timed out after %s", e.Operation, e.Timeout)
}

// Unwrap returns the underlying error for error chain support.
func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

// apiErrorBody is the JSON error document Looker returns on failures.
type apiErrorBody struct {
	Message          string `json:"message"`
	DocumentationURL string `json:"documentation_url"`
}
