package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/artfold/aistack/internal/shell/docker"
)

// runStatus lists the stack's containers with state and published ports.
func runStatus(ctx context.Context, app *App, _ []string) error {
	containers, err := app.orchestrator.Status(ctx, app.config.Stack.Project)
	if err != nil {
		return &CommandError{Op: "runStatus", Err: err, ExitCode: ExitDockerError}
	}

	if len(containers) == 0 {
		fmt.Printf("No containers for stack %s\n", app.config.Stack.Project)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SERVICE\tCONTAINER\tSTATE\tHEALTH\tPORTS")
	for _, c := range containers {
		service := c.Labels[docker.LabelService]
		health := c.Health
		if health == "" {
			health = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			service, c.Name, c.State, health, formatPorts(c.Ports))
	}
	return w.Flush()
}

func formatPorts(bindings []docker.PortBinding) string {
	if len(bindings) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		parts = append(parts, fmt.Sprintf("%d->%d/%s", b.HostPort, b.ContainerPort, b.Protocol))
	}
	return strings.Join(parts, ", ")
}
