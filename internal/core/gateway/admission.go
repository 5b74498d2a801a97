package gateway

import "sync"

// =============================================================================
// Admission Control
// =============================================================================

// Limiter caps the number of in-flight generation requests for one
// upstream. The AI services hold a GPU for the duration of each generation,
// so requests beyond the cap are rejected rather than queued.
type Limiter struct {
	mu       sync.Mutex
	max      int
	inflight int
}

// NewLimiter creates a limiter allowing max concurrent acquisitions.
// max <= 0 means unlimited.
func NewLimiter(max int) *Limiter {
	return &Limiter{max: max}
}

// Acquire takes a generation slot. Returns false when the upstream is at
// capacity; the caller rejects the request with 503.
func (l *Limiter) Acquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.max > 0 && l.inflight >= l.max {
		return false
	}
	l.inflight++
	return true
}

// Release returns a slot taken by Acquire.
func (l *Limiter) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.inflight > 0 {
		l.inflight--
	}
}

// InFlight returns the current number of held slots.
func (l *Limiter) InFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inflight
}
