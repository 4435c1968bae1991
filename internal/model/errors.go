package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure taxonomy.
// Use errors.Is() to check against these.
var (
	// ErrConfigurationMissing: a required checkout field is absent. The
	// dispatcher must never attempt a network call for these.
	ErrConfigurationMissing = errors.New("configuration missing")

	// ErrMetadataEncoding: metadata could not be byte-encoded. Terminal;
	// blocks submission entirely.
	ErrMetadataEncoding = errors.New("metadata encoding failed")

	// ErrProviderRejected: the provider declined the order (business
	// error, e.g. out of stock). Client-correctable, surfaced as 400.
	ErrProviderRejected = errors.New("provider rejected")

	// ErrUpstreamUnavailable: we could not talk to the provider at all.
	// System fault, surfaced as 500.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrUnsupported: unknown provider name, path, or method.
	ErrUnsupported = errors.New("unsupported")
)

// APIError is a structured error carrying the envelope code and HTTP status
// to render at the proxy boundary. Implements error and supports unwrapping.
type APIError struct {
	Code       int // envelope code (provider codes pass through here)
	Message    string
	StatusCode int   // HTTP status to respond with
	Err        error // wrapped cause, not serialized
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewConfigurationError reports a missing required checkout field.
func NewConfigurationError(field string) *APIError {
	return &APIError{
		Code:       400,
		Message:    fmt.Sprintf("%s is not configured", field),
		StatusCode: 400,
		Err:        ErrConfigurationMissing,
	}
}

// NewUnsupportedProviderError reports an unknown provider name.
func NewUnsupportedProviderError(name string) *APIError {
	return &APIError{
		Code:       400,
		Message:    "Unsupported provider",
		StatusCode: 400,
		Err:        fmt.Errorf("%w: provider %q", ErrUnsupported, name),
	}
}

// NewRejectionError carries a provider's own error code and message through
// the envelope unchanged. Rendered as 400: the shopper (or page) can
// correct and retry, unlike a transport fault.
func NewRejectionError(code int, msg string) *APIError {
	if code == 0 {
		code = -1
	}
	return &APIError{
		Code:       code,
		Message:    msg,
		StatusCode: 400,
		Err:        ErrProviderRejected,
	}
}

// NewUpstreamError reports a failure to reach or understand the provider.
func NewUpstreamError(service string, err error) *APIError {
	return &APIError{
		Code:       500,
		Message:    fmt.Sprintf("%s request failed", service),
		StatusCode: 500,
		Err:        fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err),
	}
}
