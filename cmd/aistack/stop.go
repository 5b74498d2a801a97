package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/artfold/aistack/internal/core/domain"
	"github.com/artfold/aistack/internal/core/stack"
)

// runStop tears the stack down: containers stopped and removed, the network
// removed. Named volumes are kept so model data survives, unless the
// -volumes flag was given.
func runStop(ctx context.Context, app *App, _ []string) error {
	project := app.config.Stack.Project

	err := app.record(ctx, domain.OpStop, []string{project}, func() error {
		if err := app.orchestrator.Down(ctx, project); err != nil {
			return &CommandError{Op: "runStop", Err: err, ExitCode: ExitDockerError}
		}
		fmt.Printf("Stack %s stopped\n", project)
		return nil
	})
	if err != nil || !app.removeVolumes {
		return err
	}

	manifest, err := app.loadManifest()
	if err != nil {
		return err
	}
	for _, name := range stackVolumeNames(project, manifest) {
		if err := app.docker.RemoveVolume(name, false); err != nil {
			return &CommandError{Op: "runStop", Err: err, ExitCode: ExitDockerError}
		}
		fmt.Printf("Removed volume %s\n", name)
	}
	return nil
}

// stackVolumeNames collects the project-scoped names of the stack's named
// volumes. External volumes are not ours to remove.
func stackVolumeNames(project string, manifest *stack.Manifest) []string {
	external := map[string]bool{}
	declared := map[string]struct{}{}
	for _, vol := range manifest.Volumes {
		if vol.External {
			external[vol.Name] = true
			continue
		}
		declared[vol.Name] = struct{}{}
	}

	for _, svc := range manifest.Services {
		for _, m := range svc.Volumes {
			if m.Type == stack.VolumeMountTypeVolume && !external[m.Source] {
				declared[m.Source] = struct{}{}
			}
		}
	}

	names := make([]string, 0, len(declared))
	for name := range declared {
		names = append(names, stack.VolumeName(project, name))
	}
	sort.Strings(names)
	return names
}
