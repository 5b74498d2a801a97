// Package gateway provides pure types and functions for request routing in
// front of the stack's AI services. This package has no I/O dependencies and
// is tested with values in/out.
package gateway

// Target represents the destination for a proxied request.
// This is a pure data type with no I/O.
type Target struct {
	// Upstream is the name of the upstream service (e.g. "tts", "comfy")
	Upstream string

	// URL is the upstream base URL (e.g. "http://127.0.0.1:8000")
	URL string

	// Path is the rewritten request path to send upstream
	Path string

	// Limited marks requests that consume a generation slot and are
	// subject to admission control
	Limited bool
}

// CanRoute returns true if the target has a usable upstream URL.
func (t Target) CanRoute() bool {
	return t.URL != ""
}
