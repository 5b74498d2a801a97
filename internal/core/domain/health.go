package domain

import "time"

// =============================================================================
// Upstream Health
// =============================================================================

// HealthStatus represents aggregated or per-upstream health.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
	HealthStatusUnknown   HealthStatus = "unknown"
)

// UpstreamStatus is the observed state of one upstream service.
type UpstreamStatus struct {
	Name      string       `json:"name"`
	Health    HealthStatus `json:"health"`
	LatencyMS int64        `json:"latency_ms,omitempty"`
	Error     string       `json:"error,omitempty"`
	CheckedAt time.Time    `json:"checked_at"`
}
