// Package store persists the operation journal.
package store

import (
	"context"

	"github.com/artfold/aistack/internal/core/domain"
)

// =============================================================================
// Store Interface
// =============================================================================

// Store defines the persistence interface for the operation journal.
type Store interface {
	// CreateOperation records the start of a CLI operation.
	CreateOperation(ctx context.Context, op *domain.Operation) error

	// FinishOperation marks an operation as succeeded or failed.
	FinishOperation(ctx context.Context, id string, status domain.OperationStatus, errText string) error

	// GetOperation returns a single journal entry.
	GetOperation(ctx context.Context, id string) (*domain.Operation, error)

	// ListOperations returns journal entries, most recent first.
	ListOperations(ctx context.Context, opts ListOptions) ([]domain.Operation, error)

	Close() error
}

// ListOptions controls journal listing.
type ListOptions struct {
	Limit  int
	Offset int
}
