package monitoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/artfold/aistack/internal/core/domain"
)

func statuses(healths ...domain.HealthStatus) []domain.UpstreamStatus {
	out := make([]domain.UpstreamStatus, len(healths))
	for i, h := range healths {
		out[i] = domain.UpstreamStatus{Name: "u", Health: h}
	}
	return out
}

func TestAggregateHealth_Empty(t *testing.T) {
	assert.Equal(t, domain.HealthStatusUnknown, AggregateHealth(nil))
}

func TestAggregateHealth_AllHealthy(t *testing.T) {
	got := AggregateHealth(statuses(domain.HealthStatusHealthy, domain.HealthStatusHealthy))
	assert.Equal(t, domain.HealthStatusHealthy, got)
}

func TestAggregateHealth_AllUnhealthy(t *testing.T) {
	got := AggregateHealth(statuses(domain.HealthStatusUnhealthy, domain.HealthStatusUnhealthy))
	assert.Equal(t, domain.HealthStatusUnhealthy, got)
}

func TestAggregateHealth_Mixed(t *testing.T) {
	got := AggregateHealth(statuses(domain.HealthStatusHealthy, domain.HealthStatusUnhealthy))
	assert.Equal(t, domain.HealthStatusDegraded, got)
}

func TestAggregateHealth_UnknownCountsAsDegraded(t *testing.T) {
	got := AggregateHealth(statuses(domain.HealthStatusHealthy, domain.HealthStatusUnknown))
	assert.Equal(t, domain.HealthStatusDegraded, got)
}

func TestDetermineUpstreamHealth_Unreachable(t *testing.T) {
	assert.Equal(t, domain.HealthStatusUnhealthy, DetermineUpstreamHealth(false, 0))
}

func TestDetermineUpstreamHealth_OK(t *testing.T) {
	assert.Equal(t, domain.HealthStatusHealthy, DetermineUpstreamHealth(true, 200))
	assert.Equal(t, domain.HealthStatusHealthy, DetermineUpstreamHealth(true, 204))
}

func TestDetermineUpstreamHealth_ServerError(t *testing.T) {
	assert.Equal(t, domain.HealthStatusUnhealthy, DetermineUpstreamHealth(true, 500))
	assert.Equal(t, domain.HealthStatusUnhealthy, DetermineUpstreamHealth(true, 503))
}

func TestDetermineUpstreamHealth_ClientError(t *testing.T) {
	assert.Equal(t, domain.HealthStatusDegraded, DetermineUpstreamHealth(true, 404))
	assert.Equal(t, domain.HealthStatusDegraded, DetermineUpstreamHealth(true, 302))
}
