// Package stack contains pure functions for parsing and planning the
// service stack. All functions here take values in and return values out;
// nothing in this package performs I/O.
package stack

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// Input validation errors
	ErrEmptyInput = errors.New("stack manifest is empty")

	// YAML parsing errors
	ErrInvalidYAML = errors.New("invalid YAML syntax")

	// Manifest structure errors
	ErrNoServices = errors.New("stack manifest must define at least one service")

	// Service validation errors
	ErrServiceNoImage     = errors.New("service must have image or build")
	ErrServiceInvalidPort = errors.New("invalid port configuration")
	ErrCircularDependency = errors.New("circular dependency detected")
	ErrUnknownDependency  = errors.New("depends_on references unknown service")

	// Unsupported feature errors
	ErrUnsupportedFeature = errors.New("unsupported manifest feature")
)

// ManifestError wraps errors with context about where parsing failed.
type ManifestError struct {
	Field   string // e.g., "services.indextts.ports[0]"
	Message string
	Err     error
}

func (e *ManifestError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *ManifestError) Unwrap() error {
	return e.Err
}

// NewManifestError creates a new ManifestError.
func NewManifestError(field, message string, err error) *ManifestError {
	return &ManifestError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}
