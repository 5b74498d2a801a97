// Package registry provides pure types and functions for container image
// references. This package has no I/O dependencies.
package registry

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	ErrEmptyUsername = errors.New("registry username is empty")
	ErrEmptyName     = errors.New("image name is empty")
	ErrInvalidRef    = errors.New("invalid image reference")
)

// =============================================================================
// Image References
// =============================================================================

// DockerHubHost is the host used for Docker Hub references. Docker Hub
// references omit the host entirely.
const DockerHubHost = "docker.io"

// refComponentRegex matches a single valid reference path component.
var refComponentRegex = regexp.MustCompile(`^[a-z0-9]+(?:[._-][a-z0-9]+)*$`)

// tagRegex matches a valid image tag.
var tagRegex = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9._-]{0,127}$`)

// ImageRef identifies an image in a registry.
type ImageRef struct {
	Host     string // "" or "docker.io" for Docker Hub
	Username string // registry namespace, e.g. "acme"
	Name     string // repository name, e.g. "indextts-service"
	Tag      string // defaults to "latest" when empty
}

// String renders the reference in the form accepted by the Docker Engine:
// [host/]username/name:tag. Docker Hub references omit the host.
func (r ImageRef) String() string {
	tag := r.Tag
	if tag == "" {
		tag = "latest"
	}
	if r.Host == "" || r.Host == DockerHubHost {
		return fmt.Sprintf("%s/%s:%s", r.Username, r.Name, tag)
	}
	return fmt.Sprintf("%s/%s/%s:%s", r.Host, r.Username, r.Name, tag)
}

// Validate checks the reference components.
func (r ImageRef) Validate() error {
	if r.Username == "" {
		return ErrEmptyUsername
	}
	if r.Name == "" {
		return ErrEmptyName
	}
	if !refComponentRegex.MatchString(r.Username) {
		return fmt.Errorf("username %q: %w", r.Username, ErrInvalidRef)
	}
	if !refComponentRegex.MatchString(r.Name) {
		return fmt.Errorf("name %q: %w", r.Name, ErrInvalidRef)
	}
	if r.Tag != "" && !tagRegex.MatchString(r.Tag) {
		return fmt.Errorf("tag %q: %w", r.Tag, ErrInvalidRef)
	}
	return nil
}

// NormalizeHost maps user-supplied registry hosts to the canonical form.
// Schemes are stripped, empty strings and Docker Hub aliases collapse to
// DockerHubHost.
func NormalizeHost(host string) string {
	host = strings.TrimSuffix(strings.TrimSpace(host), "/")
	host = strings.TrimPrefix(host, "https://")
	host = strings.TrimPrefix(host, "http://")
	switch host {
	case "", "docker.io", "index.docker.io", "registry-1.docker.io", "index.docker.io/v1":
		return DockerHubHost
	}
	return host
}

// ServiceImageName derives the image repository name for a stack service.
// Pattern: {service}-service.
//
// Example:
//
//	ServiceImageName("indextts") // returns "indextts-service"
func ServiceImageName(service string) string {
	return service + "-service"
}
