// Package domain defines the entity types shared across aistack.
package domain

import "time"

// =============================================================================
// Operation Journal
// =============================================================================

// OperationType identifies a CLI operation.
type OperationType string

const (
	OpBuild  OperationType = "build"
	OpPush   OperationType = "push"
	OpDeploy OperationType = "deploy"
	OpStop   OperationType = "stop"
)

// OperationStatus is the terminal state of a recorded operation.
type OperationStatus string

const (
	OpStatusRunning   OperationStatus = "running"
	OpStatusSucceeded OperationStatus = "succeeded"
	OpStatusFailed    OperationStatus = "failed"
)

// Operation is one journal entry: a single CLI invocation against the stack.
type Operation struct {
	ID         string          `json:"id"`
	Type       OperationType   `json:"type"`
	Targets    []string        `json:"targets"` // image refs or service names touched
	Status     OperationStatus `json:"status"`
	Error      string          `json:"error,omitempty"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
}

// Duration returns the operation runtime, or 0 while still running.
func (o Operation) Duration() time.Duration {
	if o.FinishedAt == nil {
		return 0
	}
	return o.FinishedAt.Sub(o.StartedAt)
}
