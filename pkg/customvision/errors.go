package customvision

import (
	"errors"
	"fmt"
)

var (
	// ErrNoEndpoint is returned when a call is made without an endpoint.
	ErrNoEndpoint = errors.New("customvision: endpoint required")

	// ErrNoKey is returned when a call is made without a key.
	ErrNoKey = errors.New("customvision: key required")

	// ErrEmptyImage is returned when ClassifyImage is given no bytes.
	ErrEmptyImage = errors.New("customvision: empty image")
)

// APIError represents an error response from the Custom Vision API.
type APIError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Code is the service error code, e.g. "BadRequestImageFormat".
	Code string

	// Message is the error message from the API.
	Message string

	// API is "training" or "prediction".
	API string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("customvision [%s]: API error %d (%s): %s",
			e.API, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("customvision [%s]: API error %d: %s",
		e.API, e.StatusCode, e.Message)
}

// IsUnauthorized returns true for HTTP 401.
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == 401
}

// IsNotFound returns true for HTTP 404.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == 404
}

// IsRetryable returns true for rate limiting and server errors.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode == 429 || (e.StatusCode >= 500 && e.StatusCode < 600)
}
