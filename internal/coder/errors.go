package coder

import (
	"errors"
	"fmt"
)

// ErrUnauthorized indicates the configured API key was rejected.
var ErrUnauthorized = errors.New("coder: unauthorized")

// APIError is a non-2xx response from the Coder API.
type APIError struct {
	StatusCode int
	Operation  string
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("coder: %s failed with status %d: %s", e.Operation, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("coder: %s failed with status %d", e.Operation, e.StatusCode)
}

// IsNotFound reports whether err is a 404 from the Coder API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}
