// Package gateway implements the HTTP server that fronts the AI services,
// routing requests by path prefix and applying admission control to GPU
// generation requests.
package gateway

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/artfold/aistack/internal/core/domain"
	"github.com/artfold/aistack/internal/core/gateway"
	"github.com/artfold/aistack/internal/shell/workers"
)

// Config holds gateway server configuration.
type Config struct {
	Address      string        // Listen address, e.g., "0.0.0.0:8080"
	ReadTimeout  time.Duration // HTTP read timeout
	WriteTimeout time.Duration // HTTP write timeout
	IdleTimeout  time.Duration // HTTP idle timeout
}

// DefaultConfig returns sensible default configuration. Generation requests
// can take minutes on a busy GPU, so the write timeout is generous.
func DefaultConfig() Config {
	return Config{
		Address:      "0.0.0.0:8080",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}
}

// Server is the HTTP server that routes requests to the AI services.
type Server struct {
	table    *gateway.Table
	limiters map[string]*gateway.Limiter
	checker  *workers.HealthChecker
	logger   *slog.Logger
	config   Config
	router   chi.Router
	version  string
}

// NewServer creates a new gateway server. One limiter is created per
// upstream from its MaxInFlight setting.
func NewServer(cfg Config, table *gateway.Table, checker *workers.HealthChecker, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	limiters := make(map[string]*gateway.Limiter)
	for _, u := range table.Upstreams() {
		limiters[u.Name] = gateway.NewLimiter(u.MaxInFlight)
	}

	s := &Server{
		table:    table,
		limiters: limiters,
		checker:  checker,
		logger:   logger,
		config:   cfg,
		version:  version,
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.serveHealth)
	r.Get("/openapi.json", s.serveOpenAPI)
	r.NotFound(s.serveProxy)
	r.MethodNotAllowed(s.serveProxy)

	return r
}

// Start starts the gateway server (non-blocking).
func (s *Server) Start() *http.Server {
	srv := &http.Server{
		Addr:         s.config.Address,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	go func() {
		s.logger.Info("starting gateway server", "address", s.config.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("gateway server error", "error", err)
		}
	}()

	return srv
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// serveProxy resolves the request path against the route table and forwards
// it to the matched upstream.
func (s *Server) serveProxy(w http.ResponseWriter, r *http.Request) {
	target, err := s.table.Resolve(r.Method, r.URL.Path)
	if err != nil {
		var routeErr gateway.RouteError
		if errors.As(err, &routeErr) {
			s.serveError(w, routeErr)
			return
		}
		s.logger.Error("failed to resolve route", "path", r.URL.Path, "error", err)
		s.serveError(w, gateway.NewUnavailableError(r.URL.Path))
		return
	}

	if !target.CanRoute() {
		s.serveError(w, gateway.NewUnavailableError(r.URL.Path))
		return
	}

	// Generation requests take a slot before forwarding. Slots held for
	// the full round trip keep the GPU from being oversubscribed.
	if target.Limited {
		limiter := s.limiters[target.Upstream]
		if limiter != nil {
			if !limiter.Acquire() {
				s.logger.Warn("rejecting request, upstream at capacity",
					"upstream", target.Upstream,
					"path", r.URL.Path,
					"in_flight", limiter.InFlight(),
				)
				s.serveError(w, gateway.NewOverloadedError(target.Upstream))
				return
			}
			defer limiter.Release()
		}
	}

	s.proxyRequest(w, r, target)
}

func (s *Server) proxyRequest(w http.ResponseWriter, r *http.Request, target gateway.Target) {
	upstream, err := url.Parse(target.URL)
	if err != nil {
		s.logger.Error("invalid upstream URL", "upstream", target.Upstream, "url", target.URL, "error", err)
		s.serveError(w, gateway.NewUnavailableError(r.URL.Path))
		return
	}

	reverseProxy := httputil.NewSingleHostReverseProxy(upstream)

	originalDirector := reverseProxy.Director
	reverseProxy.Director = func(req *http.Request) {
		originalDirector(req)
		req.URL.Path = joinPath(upstream.Path, target.Path)
		req.Header.Set("X-Forwarded-Host", r.Host)
		req.Header.Set("X-Real-IP", r.RemoteAddr)
	}

	reverseProxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		s.logger.Error("proxy error",
			"upstream", target.Upstream,
			"path", r.URL.Path,
			"error", err,
		)
		s.serveError(w, gateway.NewUnavailableError(r.URL.Path))
	}

	s.logger.Debug("proxying request",
		"method", r.Method,
		"path", r.URL.Path,
		"upstream", target.Upstream,
		"forward_path", target.Path,
	)

	reverseProxy.ServeHTTP(w, r)
}

// joinPath joins an upstream base path with a forwarded path without
// doubling slashes.
func joinPath(base, path string) string {
	if base == "" || base == "/" {
		return path
	}
	return strings.TrimSuffix(base, "/") + path
}

// ErrorResponse is the JSON body for gateway errors.
type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

func (s *Server) serveError(w http.ResponseWriter, err gateway.RouteError) {
	w.Header().Set("Content-Type", "application/json")
	if err.Type == gateway.ErrorOverloaded {
		w.Header().Set("Retry-After", "5")
	}
	w.WriteHeader(err.StatusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:  err.Message,
		Status: err.StatusCode,
	})
}

// HealthResponse is the JSON response for the health endpoint.
type HealthResponse struct {
	Status    domain.HealthStatus     `json:"status"`
	Version   string                  `json:"version"`
	Upstreams []domain.UpstreamStatus `json:"upstreams"`
	InFlight  map[string]int          `json:"in_flight"`
}

// serveHealth reports aggregated upstream health. The gateway itself answers
// 200 as long as it is running; the status field carries the aggregate.
func (s *Server) serveHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:   domain.HealthStatusUnknown,
		Version:  s.version,
		InFlight: make(map[string]int, len(s.limiters)),
	}
	if s.checker != nil {
		resp.Upstreams = s.checker.Statuses()
		resp.Status = s.checker.Aggregate()
	}
	for name, limiter := range s.limiters {
		resp.InFlight[name] = limiter.InFlight()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// serveOpenAPI serves the OpenAPI document describing the proxied API surface.
func (s *Server) serveOpenAPI(w http.ResponseWriter, r *http.Request) {
	spec := BuildSpec(s.version)

	data, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		s.logger.Error("failed to marshal openapi spec", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
