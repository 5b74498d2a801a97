package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artfold/aistack/internal/core/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestOperation(opType domain.OperationType) *domain.Operation {
	return &domain.Operation{
		ID:        uuid.New().String(),
		Type:      opType,
		Targets:   []string{"acme/indextts-service:latest", "acme/comfyui-service:latest"},
		Status:    domain.OpStatusRunning,
		StartedAt: time.Now().UTC(),
	}
}

func TestSQLiteStore_CreateAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	op := newTestOperation(domain.OpBuild)
	require.NoError(t, s.CreateOperation(ctx, op))

	got, err := s.GetOperation(ctx, op.ID)
	require.NoError(t, err)
	assert.Equal(t, op.ID, got.ID)
	assert.Equal(t, domain.OpBuild, got.Type)
	assert.Equal(t, op.Targets, got.Targets)
	assert.Equal(t, domain.OpStatusRunning, got.Status)
	assert.Nil(t, got.FinishedAt)
}

func TestSQLiteStore_GetNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetOperation(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_FinishSucceeded(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	op := newTestOperation(domain.OpDeploy)
	require.NoError(t, s.CreateOperation(ctx, op))
	require.NoError(t, s.FinishOperation(ctx, op.ID, domain.OpStatusSucceeded, ""))

	got, err := s.GetOperation(ctx, op.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OpStatusSucceeded, got.Status)
	assert.Empty(t, got.Error)
	require.NotNil(t, got.FinishedAt)
	assert.False(t, got.FinishedAt.Before(got.StartedAt))
}

func TestSQLiteStore_FinishFailed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	op := newTestOperation(domain.OpPush)
	require.NoError(t, s.CreateOperation(ctx, op))
	require.NoError(t, s.FinishOperation(ctx, op.ID, domain.OpStatusFailed, "denied: requested access to the resource is denied"))

	got, err := s.GetOperation(ctx, op.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OpStatusFailed, got.Status)
	assert.Contains(t, got.Error, "denied")
}

func TestSQLiteStore_FinishNotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.FinishOperation(context.Background(), "missing", domain.OpStatusSucceeded, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_ListNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	older := newTestOperation(domain.OpBuild)
	older.StartedAt = time.Now().UTC().Add(-time.Hour)
	newer := newTestOperation(domain.OpDeploy)

	require.NoError(t, s.CreateOperation(ctx, older))
	require.NoError(t, s.CreateOperation(ctx, newer))

	ops, err := s.ListOperations(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, newer.ID, ops[0].ID)
	assert.Equal(t, older.ID, ops[1].ID)
}

func TestSQLiteStore_ListLimitOffset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		op := newTestOperation(domain.OpStop)
		op.StartedAt = time.Now().UTC().Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.CreateOperation(ctx, op))
	}

	ops, err := s.ListOperations(ctx, ListOptions{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, ops, 2)

	rest, err := s.ListOperations(ctx, ListOptions{Limit: 10, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, rest, 3)
}

func TestSQLiteStore_Empty(t *testing.T) {
	s := newTestStore(t)

	ops, err := s.ListOperations(context.Background(), ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, ops)
}
