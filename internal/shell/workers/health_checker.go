// Package workers contains background workers for aistack.
package workers

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/artfold/aistack/internal/core/domain"
	"github.com/artfold/aistack/internal/core/monitoring"
)

// UpstreamProbe describes one upstream health endpoint to poll.
type UpstreamProbe struct {
	// Name identifies the upstream ("tts", "comfy")
	Name string

	// URL is the full health endpoint, e.g. "http://127.0.0.1:8000/health"
	URL string
}

// HealthCheckerConfig configures the health checker worker.
type HealthCheckerConfig struct {
	// Interval is the time between health check cycles.
	// Default: 15 seconds.
	Interval time.Duration

	// Timeout is the timeout for probing a single upstream.
	// Default: 5 seconds.
	Timeout time.Duration
}

// DefaultHealthCheckerConfig returns the default configuration.
func DefaultHealthCheckerConfig() HealthCheckerConfig {
	return HealthCheckerConfig{
		Interval: 15 * time.Second,
		Timeout:  5 * time.Second,
	}
}

// HealthChecker periodically probes upstream health endpoints and keeps the
// most recent status for each. The gateway reads statuses to answer its own
// health endpoint.
type HealthChecker struct {
	probes []UpstreamProbe
	client *http.Client
	config HealthCheckerConfig
	logger *slog.Logger

	mu       sync.RWMutex
	statuses map[string]domain.UpstreamStatus

	// Lifecycle management
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewHealthChecker creates a new health checker worker.
func NewHealthChecker(probes []UpstreamProbe, config HealthCheckerConfig, logger *slog.Logger) *HealthChecker {
	if config.Interval == 0 {
		config.Interval = 15 * time.Second
	}
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	statuses := make(map[string]domain.UpstreamStatus, len(probes))
	for _, p := range probes {
		statuses[p.Name] = domain.UpstreamStatus{
			Name:   p.Name,
			Health: domain.HealthStatusUnknown,
		}
	}

	return &HealthChecker{
		probes:   probes,
		client:   &http.Client{Timeout: config.Timeout},
		config:   config,
		logger:   logger.With("component", "health_checker"),
		statuses: statuses,
	}
}

// Start begins the health checker background goroutine.
func (h *HealthChecker) Start() {
	h.ctx, h.cancel = context.WithCancel(context.Background())

	h.wg.Add(1)
	go h.run()

	h.logger.Info("health checker started",
		"interval", h.config.Interval,
		"upstreams", len(h.probes),
	)
}

// Stop gracefully stops the health checker.
func (h *HealthChecker) Stop() {
	if h.cancel != nil {
		h.cancel()
	}
	h.wg.Wait()
	h.logger.Info("health checker stopped")
}

// Statuses returns the latest observed status for each upstream, sorted by
// name.
func (h *HealthChecker) Statuses() []domain.UpstreamStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]domain.UpstreamStatus, 0, len(h.statuses))
	for _, s := range h.statuses {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Aggregate returns the combined health of all upstreams.
func (h *HealthChecker) Aggregate() domain.HealthStatus {
	return monitoring.AggregateHealth(h.Statuses())
}

// run is the main loop that probes upstreams periodically.
func (h *HealthChecker) run() {
	defer h.wg.Done()

	// Probe immediately on start
	h.RunCycle(h.ctx)

	ticker := time.NewTicker(h.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-ticker.C:
			h.RunCycle(h.ctx)
		}
	}
}

// RunCycle probes every upstream once and records the results.
func (h *HealthChecker) RunCycle(ctx context.Context) {
	for _, probe := range h.probes {
		status := h.checkUpstream(ctx, probe)

		h.mu.Lock()
		h.statuses[probe.Name] = status
		h.mu.Unlock()

		if status.Health != domain.HealthStatusHealthy {
			h.logger.Warn("upstream not healthy",
				"upstream", probe.Name,
				"health", status.Health,
				"error", status.Error,
			)
		} else {
			h.logger.Debug("upstream healthy",
				"upstream", probe.Name,
				"latency_ms", status.LatencyMS,
			)
		}
	}
}

// checkUpstream probes a single upstream health endpoint.
func (h *HealthChecker) checkUpstream(ctx context.Context, probe UpstreamProbe) domain.UpstreamStatus {
	status := domain.UpstreamStatus{
		Name:      probe.Name,
		CheckedAt: time.Now().UTC(),
	}

	reqCtx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, probe.URL, nil)
	if err != nil {
		status.Health = domain.HealthStatusUnhealthy
		status.Error = err.Error()
		return status
	}

	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		status.Health = monitoring.DetermineUpstreamHealth(false, 0)
		status.Error = err.Error()
		return status
	}
	defer resp.Body.Close()

	status.LatencyMS = time.Since(start).Milliseconds()
	status.Health = monitoring.DetermineUpstreamHealth(true, resp.StatusCode)
	if status.Health != domain.HealthStatusHealthy {
		status.Error = resp.Status
	}
	return status
}
