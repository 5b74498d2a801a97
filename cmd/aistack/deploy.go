package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/artfold/aistack/internal/core/domain"
	"github.com/artfold/aistack/internal/core/stack"
)

// runDeploy creates the stack's data directories, starts the stack and
// streams container logs until interrupted.
func runDeploy(ctx context.Context, app *App, _ []string) error {
	manifest, err := app.loadManifest()
	if err != nil {
		return err
	}

	refs, err := app.imageRefs(manifest)
	if err != nil {
		return err
	}

	variables := app.environment()

	// Directories must exist before containers bind-mount them, or the
	// engine creates them root-owned.
	if err := createDataDirs(app, manifest, variables); err != nil {
		return err
	}

	project := app.config.Stack.Project

	services := make([]string, 0, len(manifest.Services))
	for _, svc := range manifest.Services {
		services = append(services, svc.Name)
	}

	err = app.record(ctx, domain.OpDeploy, services, func() error {
		containers, err := app.orchestrator.Up(ctx, project, manifest, refs, variables)
		if err != nil {
			return &CommandError{Op: "runDeploy", Err: err, ExitCode: ExitDockerError}
		}
		app.logger.Info("stack started", "project", project, "containers", len(containers))
		return nil
	})
	if err != nil {
		return err
	}

	printServiceURLs(manifest)

	fmt.Println("Streaming logs, press Ctrl-C to detach (containers keep running)")
	if err := app.orchestrator.StreamLogs(ctx, project, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return &CommandError{Op: "runDeploy", Err: err, ExitCode: ExitDockerError}
	}
	return nil
}

// createDataDirs ensures the host directories the stack bind-mounts exist.
// MkdirAll makes the operation idempotent.
func createDataDirs(app *App, manifest *stack.Manifest, variables map[string]string) error {
	dirs := map[string]struct{}{
		app.config.Stack.DataDir: {},
	}
	for _, svc := range manifest.Services {
		for _, mount := range svc.Volumes {
			if mount.Type != stack.VolumeMountTypeBind {
				continue
			}
			src := stack.SubstituteVariables(mount.Source, variables)
			if src == "" || looksLikeFile(src) {
				continue
			}
			dirs[src] = struct{}{}
		}
	}

	sorted := make([]string, 0, len(dirs))
	for dir := range dirs {
		sorted = append(sorted, dir)
	}
	sort.Strings(sorted)

	for _, dir := range sorted {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &CommandError{Op: "createDataDirs", Err: err, ExitCode: ExitConfigError}
		}
		app.logger.Debug("ensured directory", "path", dir)
	}
	return nil
}

// looksLikeFile reports whether a bind source is a single file mount
// (config files and the like) rather than a directory.
func looksLikeFile(path string) bool {
	base := filepath.Base(path)
	return strings.Contains(base, ".") && !strings.HasPrefix(base, ".")
}

// printServiceURLs prints the published endpoint of each service.
func printServiceURLs(manifest *stack.Manifest) {
	for _, svc := range manifest.Services {
		for _, port := range svc.Ports {
			if port.Published == 0 {
				continue
			}
			fmt.Printf("%s: http://localhost:%d\n", svc.Name, port.Published)
		}
	}
}
