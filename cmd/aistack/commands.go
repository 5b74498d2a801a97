package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"
)

// dispatch routes the command to the appropriate handler. Each handler runs
// with an app wired to Docker and the journal, under a signal-cancelled
// context.
func dispatch(cmd string, args []string, removeVolumes bool, cfg *Config, logger *slog.Logger) int {
	var fn func(context.Context, *App, []string) error

	switch cmd {
	case "build":
		fn = runBuild
	case "push":
		fn = runPush
	case "deploy":
		fn = runDeploy
	case "stop":
		fn = runStop
	case "all":
		fn = runAll
	case "status":
		fn = runStatus
	case "history":
		fn = runHistory
	default:
		printUsage()
		return ExitUsage
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app, err := newApp(cfg, logger)
	if err != nil {
		return reportError(logger, cmd, err)
	}
	defer app.Close()
	app.removeVolumes = removeVolumes

	if err := fn(ctx, app, args); err != nil {
		return reportError(logger, cmd, err)
	}
	return ExitSuccess
}

// reportError logs the failure and maps it to an exit code.
func reportError(logger *slog.Logger, cmd string, err error) int {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		logger.Error("command failed",
			"command", cmd,
			"operation", cmdErr.Op,
			"error", cmdErr.Err,
		)
		return cmdErr.ExitCode
	}

	logger.Error("command failed", "command", cmd, "error", err)
	return ExitDockerError
}

// runAll chains build, push and deploy; the first failure aborts.
func runAll(ctx context.Context, app *App, args []string) error {
	if err := runBuild(ctx, app, args); err != nil {
		return err
	}
	if err := runPush(ctx, app, args); err != nil {
		return err
	}
	return runDeploy(ctx, app, args)
}
