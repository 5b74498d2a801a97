package gateway

import (
	"fmt"
	"net/http"
)

// RouteErrorType defines the type of routing error.
type RouteErrorType int

const (
	ErrorNotFound RouteErrorType = iota
	ErrorUnavailable
	ErrorOverloaded
)

// RouteError represents an error while routing a request.
type RouteError struct {
	Type       RouteErrorType
	Path       string
	Message    string
	StatusCode int
}

// Error implements the error interface.
func (e RouteError) Error() string {
	return e.Message
}

// NewNotFoundError creates an error for a path no rule matches.
func NewNotFoundError(path string) RouteError {
	return RouteError{
		Type:       ErrorNotFound,
		Path:       path,
		Message:    fmt.Sprintf("no route for path: %s", path),
		StatusCode: http.StatusNotFound,
	}
}

// NewUnavailableError creates an error for an unreachable upstream.
func NewUnavailableError(path string) RouteError {
	return RouteError{
		Type:       ErrorUnavailable,
		Path:       path,
		Message:    fmt.Sprintf("upstream unavailable: %s", path),
		StatusCode: http.StatusServiceUnavailable,
	}
}

// NewOverloadedError creates an error for an upstream at generation capacity.
func NewOverloadedError(upstream string) RouteError {
	return RouteError{
		Type:       ErrorOverloaded,
		Path:       "",
		Message:    fmt.Sprintf("upstream %s is at capacity", upstream),
		StatusCode: http.StatusServiceUnavailable,
	}
}
