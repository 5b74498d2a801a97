package workers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artfold/aistack/internal/core/domain"
)

func TestHealthChecker_InitialStatusesUnknown(t *testing.T) {
	checker := NewHealthChecker([]UpstreamProbe{
		{Name: "tts", URL: "http://127.0.0.1:8000/health"},
		{Name: "comfy", URL: "http://127.0.0.1:8001/system_stats"},
	}, DefaultHealthCheckerConfig(), nil)

	statuses := checker.Statuses()
	require.Len(t, statuses, 2)
	for _, s := range statuses {
		assert.Equal(t, domain.HealthStatusUnknown, s.Health)
	}
	assert.Equal(t, domain.HealthStatusDegraded, checker.Aggregate())
}

func TestHealthChecker_HealthyUpstream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	checker := NewHealthChecker([]UpstreamProbe{
		{Name: "tts", URL: upstream.URL + "/health"},
	}, DefaultHealthCheckerConfig(), nil)
	checker.RunCycle(context.Background())

	statuses := checker.Statuses()
	require.Len(t, statuses, 1)
	assert.Equal(t, domain.HealthStatusHealthy, statuses[0].Health)
	assert.Empty(t, statuses[0].Error)
	assert.False(t, statuses[0].CheckedAt.IsZero())
	assert.Equal(t, domain.HealthStatusHealthy, checker.Aggregate())
}

func TestHealthChecker_FailingUpstream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer upstream.Close()

	checker := NewHealthChecker([]UpstreamProbe{
		{Name: "comfy", URL: upstream.URL + "/system_stats"},
	}, DefaultHealthCheckerConfig(), nil)
	checker.RunCycle(context.Background())

	statuses := checker.Statuses()
	require.Len(t, statuses, 1)
	assert.Equal(t, domain.HealthStatusUnhealthy, statuses[0].Health)
	assert.NotEmpty(t, statuses[0].Error)
}

func TestHealthChecker_UnreachableUpstream(t *testing.T) {
	checker := NewHealthChecker([]UpstreamProbe{
		{Name: "tts", URL: "http://127.0.0.1:1/health"},
	}, HealthCheckerConfig{Interval: time.Second, Timeout: time.Second}, nil)
	checker.RunCycle(context.Background())

	statuses := checker.Statuses()
	require.Len(t, statuses, 1)
	assert.Equal(t, domain.HealthStatusUnhealthy, statuses[0].Health)
}

func TestHealthChecker_StatusesSortedByName(t *testing.T) {
	checker := NewHealthChecker([]UpstreamProbe{
		{Name: "tts", URL: "http://127.0.0.1:8000/health"},
		{Name: "comfy", URL: "http://127.0.0.1:8001/system_stats"},
	}, DefaultHealthCheckerConfig(), nil)

	statuses := checker.Statuses()
	require.Len(t, statuses, 2)
	assert.Equal(t, "comfy", statuses[0].Name)
	assert.Equal(t, "tts", statuses[1].Name)
}

func TestHealthChecker_StartStop(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	checker := NewHealthChecker([]UpstreamProbe{
		{Name: "tts", URL: upstream.URL + "/health"},
	}, HealthCheckerConfig{Interval: 50 * time.Millisecond, Timeout: time.Second}, nil)

	checker.Start()
	defer checker.Stop()

	require.Eventually(t, func() bool {
		statuses := checker.Statuses()
		return len(statuses) == 1 && statuses[0].Health == domain.HealthStatusHealthy
	}, 3*time.Second, 20*time.Millisecond)
}
