package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	coregateway "github.com/artfold/aistack/internal/core/gateway"
	"github.com/artfold/aistack/internal/shell/gateway"
	"github.com/artfold/aistack/internal/shell/workers"
)

// =============================================================================
// Exit Codes
// =============================================================================

const (
	ExitSuccess     = 0
	ExitConfigError = 1
	ExitServerError = 2
)

// =============================================================================
// Server
// =============================================================================

// Server wires the route table, health checker and HTTP server together.
type Server struct {
	config        *Config
	gatewayServer *gateway.Server
	healthChecker *workers.HealthChecker
	logger        *slog.Logger
}

// NewServer creates a new gateway server from the config.
func NewServer(cfg *Config, logger *slog.Logger) *Server {
	rules := []coregateway.Rule{
		{Prefix: "/api/tts/", Upstream: "tts"},
		// ComfyUI serves from the root, so its prefix is stripped
		{Prefix: "/api/comfy/", Upstream: "comfy", StripPrefix: true},
	}
	upstreams := []coregateway.Upstream{
		{Name: "tts", URL: cfg.Upstreams.TTS.URL, MaxInFlight: cfg.Upstreams.TTS.MaxInflight},
		{Name: "comfy", URL: cfg.Upstreams.Comfy.URL, MaxInFlight: cfg.Upstreams.Comfy.MaxInflight},
	}
	table := coregateway.NewTable(rules, upstreams)

	probes := []workers.UpstreamProbe{
		{Name: "tts", URL: healthURL(cfg.Upstreams.TTS.URL, "/health")},
		{Name: "comfy", URL: healthURL(cfg.Upstreams.Comfy.URL, "/system_stats")},
	}
	checker := workers.NewHealthChecker(probes, workers.HealthCheckerConfig{
		Interval: cfg.Health.Interval,
		Timeout:  cfg.Health.Timeout,
	}, logger)

	gwServer := gateway.NewServer(gateway.Config{
		Address:      cfg.Server.Address(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}, table, checker, Version, logger)

	return &Server{
		config:        cfg,
		gatewayServer: gwServer,
		healthChecker: checker,
		logger:        logger,
	}
}

// Start starts the server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	s.healthChecker.Start()
	httpServer := s.gatewayServer.Start()

	// Wait for shutdown signal
	select {
	case sig := <-sigCh:
		s.logger.Info("received shutdown signal", "signal", sig)
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.shutdown(httpServer)
}

// shutdown drains the HTTP server and stops the health checker.
func (s *Server) shutdown(httpServer *http.Server) error {
	s.logger.Info("initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	s.healthChecker.Stop()

	s.logger.Info("shutdown complete")
	return nil
}

// healthURL joins an upstream base URL and a probe path.
func healthURL(base, path string) string {
	return strings.TrimSuffix(base, "/") + path
}
