package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/artfold/aistack/internal/core/domain"
	"github.com/artfold/aistack/internal/core/registry"
	"github.com/artfold/aistack/internal/core/stack"
	"github.com/artfold/aistack/internal/shell/docker"
	"github.com/artfold/aistack/internal/shell/store"
)

// =============================================================================
// Command Error
// =============================================================================

// CommandError carries the exit code for a failed command.
type CommandError struct {
	Op       string
	Err      error
	ExitCode int
}

func (e *CommandError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// =============================================================================
// App
// =============================================================================

// App bundles the external connections a command needs.
type App struct {
	config       *Config
	logger       *slog.Logger
	docker       docker.Client
	journal      store.Store
	orchestrator *docker.Orchestrator

	// removeVolumes widens stop to named volumes (-volumes flag).
	removeVolumes bool
}

// newApp connects to the Docker engine and opens the operation journal.
func newApp(cfg *Config, logger *slog.Logger) (*App, error) {
	d, err := docker.NewEngineClient(cfg.Docker.Host)
	if err != nil {
		return nil, &CommandError{Op: "newApp", Err: err, ExitCode: ExitDockerError}
	}
	if err := d.Ping(); err != nil {
		d.Close()
		return nil, &CommandError{Op: "newApp", Err: err, ExitCode: ExitDockerError}
	}

	j, err := store.NewSQLiteStore(cfg.Journal.DSN)
	if err != nil {
		d.Close()
		return nil, &CommandError{Op: "newApp", Err: err, ExitCode: ExitJournalError}
	}

	return &App{
		config:       cfg,
		logger:       logger,
		docker:       d,
		journal:      j,
		orchestrator: docker.NewOrchestrator(d, logger),
	}, nil
}

// Close releases the app's connections.
func (a *App) Close() {
	if err := a.docker.Close(); err != nil {
		a.logger.Error("docker client close error", "error", err)
	}
	if err := a.journal.Close(); err != nil {
		a.logger.Error("journal close error", "error", err)
	}
}

// loadManifest reads and parses the stack manifest.
func (a *App) loadManifest() (*stack.Manifest, error) {
	data, err := os.ReadFile(a.config.Stack.ComposeFile)
	if err != nil {
		return nil, &CommandError{Op: "loadManifest", Err: err, ExitCode: ExitConfigError}
	}

	manifest, err := stack.ParseManifestWithEnv(string(data), a.environment())
	if err != nil {
		return nil, &CommandError{Op: "loadManifest", Err: err, ExitCode: ExitConfigError}
	}

	baseDir, err := filepath.Abs(filepath.Dir(a.config.Stack.ComposeFile))
	if err != nil {
		return nil, &CommandError{Op: "loadManifest", Err: err, ExitCode: ExitConfigError}
	}
	stack.ResolveRelativePaths(manifest, baseDir)

	return manifest, nil
}

// imageRefs maps every buildable service to its registry image reference.
func (a *App) imageRefs(manifest *stack.Manifest) (map[string]string, error) {
	refs := make(map[string]string)
	for _, svc := range manifest.Buildable() {
		ref := registry.ImageRef{
			Host:     registry.NormalizeHost(a.config.Registry.Host),
			Username: a.config.Registry.Username,
			Name:     registry.ServiceImageName(svc.Name),
			Tag:      a.config.Registry.Tag,
		}
		if err := ref.Validate(); err != nil {
			return nil, &CommandError{Op: "imageRefs", Err: err, ExitCode: ExitConfigError}
		}
		refs[svc.Name] = ref.String()
	}
	return refs, nil
}

// environment returns the process environment as a map, for manifest
// variable substitution.
func (a *App) environment() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if idx := strings.Index(kv, "="); idx > 0 {
			env[kv[:idx]] = kv[idx+1:]
		}
	}
	return env
}

// record journals the operation around fn. Journal failures are logged but
// never fail the command itself.
func (a *App) record(ctx context.Context, opType domain.OperationType, targets []string, fn func() error) error {
	op := &domain.Operation{
		ID:        uuid.New().String(),
		Type:      opType,
		Targets:   targets,
		Status:    domain.OpStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := a.journal.CreateOperation(ctx, op); err != nil {
		a.logger.Warn("failed to journal operation", "type", opType, "error", err)
	}

	err := fn()

	status := domain.OpStatusSucceeded
	errText := ""
	if err != nil {
		status = domain.OpStatusFailed
		errText = err.Error()
	}
	if jErr := a.journal.FinishOperation(context.WithoutCancel(ctx), op.ID, status, errText); jErr != nil {
		a.logger.Warn("failed to finish journaled operation", "id", op.ID, "error", jErr)
	}

	return err
}
