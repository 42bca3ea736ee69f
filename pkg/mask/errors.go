package mask

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	// ErrBadMaskSize is returned when the service response does not
	// contain exactly one byte per frame pixel.
	ErrBadMaskSize = errors.New("mask: response size does not match frame dimensions")

	// ErrEmptyFrame is returned when asked to segment an empty Mat.
	ErrEmptyFrame = errors.New("mask: empty frame")

	// ErrRetriesExhausted is returned when a bounded retry policy runs
	// out of attempts.
	ErrRetriesExhausted = errors.New("mask: retries exhausted")
)

// ServiceError represents a non-2xx response from the mask service.
type ServiceError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Message is the (truncated) response body, if any.
	Message string
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("mask: service error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("mask: service error %d", e.StatusCode)
}

// IsServerError returns true for server-side errors (HTTP 5xx), the
// usual shape of "the model is still warming up".
func (e *ServiceError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// IsRetryable returns true if the request should be retried. The
// default pipeline policy retries everything regardless; this exists
// for callers that want to distinguish error classes.
func (e *ServiceError) IsRetryable() bool {
	return e.IsServerError() || e.StatusCode == 429
}
