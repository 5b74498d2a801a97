// Package monitoring provides pure functions for upstream health logic.
// This package contains no I/O.
package monitoring

import "github.com/artfold/aistack/internal/core/domain"

// =============================================================================
// Health Aggregation (Pure Functions)
// =============================================================================

// AggregateHealth determines overall stack health from upstream states.
func AggregateHealth(upstreams []domain.UpstreamStatus) domain.HealthStatus {
	if len(upstreams) == 0 {
		return domain.HealthStatusUnknown
	}

	unhealthy := 0
	degraded := 0

	for _, u := range upstreams {
		switch u.Health {
		case domain.HealthStatusUnhealthy:
			unhealthy++
		case domain.HealthStatusDegraded:
			degraded++
		case domain.HealthStatusUnknown:
			// Unknown upstreams count as degraded
			degraded++
		}
	}

	if unhealthy == len(upstreams) {
		return domain.HealthStatusUnhealthy
	}
	if unhealthy > 0 || degraded > 0 {
		return domain.HealthStatusDegraded
	}
	return domain.HealthStatusHealthy
}

// DetermineUpstreamHealth maps a probe result to a health status.
// statusCode is the HTTP status of the health probe; reachable is false
// when the probe could not connect at all.
func DetermineUpstreamHealth(reachable bool, statusCode int) domain.HealthStatus {
	if !reachable {
		return domain.HealthStatusUnhealthy
	}
	switch {
	case statusCode >= 200 && statusCode < 300:
		return domain.HealthStatusHealthy
	case statusCode >= 500:
		return domain.HealthStatusUnhealthy
	default:
		// Up but redirecting or refusing: not fully serving
		return domain.HealthStatusDegraded
	}
}
