package store

import (
	"errors"
	"fmt"
)

// NotFoundError represents a missing resource with contextual
// information, so handlers can map it to a 404 without string matching.
type NotFoundError struct {
	// ResourceType categorizes the resource ("user", "pad", "template").
	ResourceType string

	// ResourceName is the identifier that was looked up.
	ResourceName string
}

// Error implements the error interface for NotFoundError.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.ResourceType, e.ResourceName)
}

// IsNotFound checks if an error is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

// NewNotFoundError creates a NotFoundError for the given resource.
func NewNotFoundError(resourceType, resourceName string) *NotFoundError {
	return &NotFoundError{ResourceType: resourceType, ResourceName: resourceName}
}
