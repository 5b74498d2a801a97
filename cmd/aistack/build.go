package main

import (
	"context"
	"fmt"
	"os"

	"github.com/artfold/aistack/internal/core/domain"
	"github.com/artfold/aistack/internal/shell/docker"
)

// runBuild builds every buildable service image in manifest order. The first
// failure aborts the command.
func runBuild(ctx context.Context, app *App, _ []string) error {
	manifest, err := app.loadManifest()
	if err != nil {
		return err
	}

	buildable := manifest.Buildable()
	if len(buildable) == 0 {
		return &CommandError{
			Op:       "runBuild",
			Err:      fmt.Errorf("no buildable services in %s", app.config.Stack.ComposeFile),
			ExitCode: ExitConfigError,
		}
	}

	refs, err := app.imageRefs(manifest)
	if err != nil {
		return err
	}

	targets := make([]string, 0, len(buildable))
	for _, svc := range buildable {
		targets = append(targets, refs[svc.Name])
	}

	return app.record(ctx, domain.OpBuild, targets, func() error {
		for _, svc := range buildable {
			ref := refs[svc.Name]
			fmt.Printf("Building %s from %s\n", ref, svc.Build.Context)

			spec := docker.BuildSpec{
				ContextDir: svc.Build.Context,
				Dockerfile: svc.Build.Dockerfile,
				Tags:       []string{ref},
			}
			if err := app.docker.BuildImage(ctx, spec, os.Stdout); err != nil {
				return &CommandError{Op: "runBuild", Err: err, ExitCode: ExitDockerError}
			}

			app.logger.Info("image built", "service", svc.Name, "image", ref)
		}
		return nil
	})
}
