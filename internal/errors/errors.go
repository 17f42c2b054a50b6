// Package errors defines custom error types for better error handling and debugging.
// MediaError provides context-aware error reporting with type classification.
package errors

import (
	"errors"
	"fmt"
)

// MediaError represents errors that occur while talking to metadata
// providers or the favorites store.
type MediaError struct {
	Type    string
	Message string
	Cause   error
}

func (e *MediaError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *MediaError) Unwrap() error {
	return e.Cause
}

// Error type constants
const (
	ErrorTypeProviderUnavailable = "PROVIDER_UNAVAILABLE"
	ErrorTypeProviderRateLimited = "PROVIDER_RATE_LIMITED"
	ErrorTypeMalformedResponse   = "MALFORMED_RESPONSE"
	ErrorTypeAuthRequired        = "AUTH_REQUIRED"
	ErrorTypeStoreUnavailable    = "STORE_UNAVAILABLE"
)

// NewMediaError creates a new MediaError
func NewMediaError(errorType, message string, cause error) *MediaError {
	return &MediaError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

// NewProviderUnavailableError signals a network failure or non-2xx response
// from a metadata provider.
func NewProviderUnavailableError(provider string, cause error) *MediaError {
	return NewMediaError(ErrorTypeProviderUnavailable, fmt.Sprintf("provider %s unavailable", provider), cause)
}

// NewProviderRateLimitedError signals an HTTP 429 equivalent from a provider.
func NewProviderRateLimitedError(provider string) *MediaError {
	return NewMediaError(ErrorTypeProviderRateLimited, fmt.Sprintf("provider %s rate limited the request", provider), nil)
}

// NewMalformedResponseError signals a provider response missing expected fields.
func NewMalformedResponseError(provider string, cause error) *MediaError {
	return NewMediaError(ErrorTypeMalformedResponse, fmt.Sprintf("provider %s returned a malformed response", provider), cause)
}

// NewAuthRequiredError signals an action that needs a signed-in user.
func NewAuthRequiredError(action string) *MediaError {
	return NewMediaError(ErrorTypeAuthRequired, fmt.Sprintf("%s requires a signed-in user", action), nil)
}

// NewStoreUnavailableError signals that the favorites backend is unreachable.
func NewStoreUnavailableError(cause error) *MediaError {
	return NewMediaError(ErrorTypeStoreUnavailable, "favorites store unreachable", cause)
}

// TypeOf returns the MediaError type string for err, or empty when err is
// not a MediaError.
func TypeOf(err error) string {
	var me *MediaError
	if errors.As(err, &me) {
		return me.Type
	}
	return ""
}

// IsType reports whether err is a MediaError of the given type.
func IsType(err error, errorType string) bool {
	return TypeOf(err) == errorType
}
