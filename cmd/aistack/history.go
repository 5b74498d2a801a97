package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/artfold/aistack/internal/core/domain"
	"github.com/artfold/aistack/internal/shell/store"
)

const historyLimit = 20

// runHistory lists the most recent journaled operations, or prints one
// operation in detail when an id is given.
func runHistory(ctx context.Context, app *App, args []string) error {
	if len(args) == 1 {
		op, err := app.journal.GetOperation(ctx, args[0])
		if err != nil {
			return &CommandError{Op: "runHistory", Err: err, ExitCode: ExitJournalError}
		}
		return printOperationDetail(os.Stdout, *op)
	}

	ops, err := app.journal.ListOperations(ctx, store.ListOptions{Limit: historyLimit})
	if err != nil {
		return &CommandError{Op: "runHistory", Err: err, ExitCode: ExitJournalError}
	}

	if len(ops) == 0 {
		fmt.Println("No recorded operations")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tOPERATION\tSTATUS\tDURATION\tTARGETS")
	for _, op := range ops {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			op.ID,
			op.StartedAt.Local().Format("2006-01-02 15:04:05"),
			op.Type,
			formatStatus(op),
			op.Duration().Round(10*time.Millisecond),
			strings.Join(op.Targets, ", "),
		)
	}
	return w.Flush()
}

// printOperationDetail renders a single journal entry, one field per line.
func printOperationDetail(out io.Writer, op domain.Operation) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "ID\t%s\n", op.ID)
	fmt.Fprintf(w, "Operation\t%s\n", op.Type)
	fmt.Fprintf(w, "Status\t%s\n", op.Status)
	fmt.Fprintf(w, "Started\t%s\n", op.StartedAt.Local().Format("2006-01-02 15:04:05"))
	if op.FinishedAt != nil {
		fmt.Fprintf(w, "Finished\t%s\n", op.FinishedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(w, "Duration\t%s\n", op.Duration().Round(10*time.Millisecond))
	}
	fmt.Fprintf(w, "Targets\t%s\n", strings.Join(op.Targets, ", "))
	if op.Error != "" {
		fmt.Fprintf(w, "Error\t%s\n", op.Error)
	}
	return w.Flush()
}

func formatStatus(op domain.Operation) string {
	if op.Status == domain.OpStatusFailed && op.Error != "" {
		return fmt.Sprintf("%s (%s)", op.Status, truncate(op.Error, 40))
	}
	return string(op.Status)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}