package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/artfold/aistack/internal/core/domain"
	coreregistry "github.com/artfold/aistack/internal/core/registry"
	"github.com/artfold/aistack/internal/shell/docker"
	"github.com/artfold/aistack/internal/shell/registry"
)

// runPush pushes every buildable service image to the configured registry.
// When the local Docker config carries no credentials for the registry, the
// user is prompted and the login is verified against the registry before
// pushing.
func runPush(ctx context.Context, app *App, _ []string) error {
	manifest, err := app.loadManifest()
	if err != nil {
		return err
	}

	refs, err := app.imageRefs(manifest)
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		return &CommandError{
			Op:       "runPush",
			Err:      fmt.Errorf("no buildable services in %s", app.config.Stack.ComposeFile),
			ExitCode: ExitConfigError,
		}
	}

	creds, err := ensureLogin(ctx, app)
	if err != nil {
		return err
	}

	targets := make([]string, 0, len(refs))
	for _, ref := range refs {
		targets = append(targets, ref)
	}
	sort.Strings(targets)

	return app.record(ctx, domain.OpPush, targets, func() error {
		for _, ref := range targets {
			fmt.Printf("Pushing %s\n", ref)
			if err := app.docker.PushImage(ctx, ref, creds, os.Stdout); err != nil {
				return &CommandError{Op: "runPush", Err: err, ExitCode: ExitRegistryError}
			}
			app.logger.Info("image pushed", "image", ref)
		}
		return nil
	})
}

// ensureLogin returns usable registry credentials, prompting and verifying a
// login when the local Docker config has none.
func ensureLogin(ctx context.Context, app *App) (docker.Credentials, error) {
	host := coreregistry.NormalizeHost(app.config.Registry.Host)

	session, err := registry.LoadSession(registry.DefaultConfigPath(), host)
	if err == nil {
		app.logger.Debug("using existing registry session", "host", session.Host, "username", session.Username)
		return docker.Credentials{
			Host:     host,
			Username: session.Username,
			Password: session.Password,
		}, nil
	}
	if !errors.Is(err, registry.ErrNoCredentials) {
		return docker.Credentials{}, &CommandError{Op: "ensureLogin", Err: err, ExitCode: ExitRegistryError}
	}

	fmt.Printf("Not logged in to %s\n", host)
	creds, err := registry.NewPrompter().Credentials(host, app.config.Registry.Username)
	if err != nil {
		return docker.Credentials{}, &CommandError{Op: "ensureLogin", Err: err, ExitCode: ExitRegistryError}
	}

	if err := app.docker.Login(ctx, creds); err != nil {
		return docker.Credentials{}, &CommandError{Op: "ensureLogin", Err: err, ExitCode: ExitRegistryError}
	}
	app.logger.Info("registry login succeeded", "host", host, "username", creds.Username)

	return creds, nil
}
