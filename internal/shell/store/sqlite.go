package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/artfold/aistack/internal/core/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// =============================================================================
// SQLiteStore
// =============================================================================

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore creates a new SQLite store and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite3", dsn+"?_foreign_keys=on")
	if err != nil {
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to open database", ErrConnectionFailed)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to ping database", ErrConnectionFailed)
	}

	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", err.Error(), ErrMigrationFailed)
	}

	return &SQLiteStore{db: db}, nil
}

// runMigrations runs database migrations using embedded SQL files.
func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// Operation Journal
// =============================================================================

// operationRow is the database representation of a journal entry.
type operationRow struct {
	ID         string  `db:"id"`
	Type       string  `db:"type"`
	Targets    *string `db:"targets"`
	Status     string  `db:"status"`
	Error      string  `db:"error"`
	StartedAt  string  `db:"started_at"`
	FinishedAt *string `db:"finished_at"`
}

func (r operationRow) toDomain() (domain.Operation, error) {
	op := domain.Operation{
		ID:     r.ID,
		Type:   domain.OperationType(r.Type),
		Status: domain.OperationStatus(r.Status),
		Error:  r.Error,
	}

	if r.Targets != nil && *r.Targets != "" {
		if err := json.Unmarshal([]byte(*r.Targets), &op.Targets); err != nil {
			return domain.Operation{}, fmt.Errorf("invalid targets json: %w", err)
		}
	}

	startedAt, err := time.Parse(time.RFC3339Nano, r.StartedAt)
	if err != nil {
		return domain.Operation{}, fmt.Errorf("invalid started_at: %w", err)
	}
	op.StartedAt = startedAt

	if r.FinishedAt != nil && *r.FinishedAt != "" {
		finishedAt, err := time.Parse(time.RFC3339Nano, *r.FinishedAt)
		if err != nil {
			return domain.Operation{}, fmt.Errorf("invalid finished_at: %w", err)
		}
		op.FinishedAt = &finishedAt
	}

	return op, nil
}

// CreateOperation records the start of a CLI operation.
func (s *SQLiteStore) CreateOperation(ctx context.Context, op *domain.Operation) error {
	targets, err := json.Marshal(op.Targets)
	if err != nil {
		return NewStoreError("CreateOperation", "operation", op.ID, err.Error(), err)
	}
	targetsStr := string(targets)

	row := operationRow{
		ID:        op.ID,
		Type:      string(op.Type),
		Targets:   &targetsStr,
		Status:    string(op.Status),
		Error:     op.Error,
		StartedAt: op.StartedAt.UTC().Format(time.RFC3339Nano),
	}

	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO operations (id, type, targets, status, error, started_at, finished_at)
		VALUES (:id, :type, :targets, :status, :error, :started_at, :finished_at)
	`, row)
	if err != nil {
		return NewStoreError("CreateOperation", "operation", op.ID, err.Error(), err)
	}
	return nil
}

// FinishOperation marks an operation as succeeded or failed.
func (s *SQLiteStore) FinishOperation(ctx context.Context, id string, status domain.OperationStatus, errText string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE operations
		SET status = ?, error = ?, finished_at = ?
		WHERE id = ?
	`, string(status), errText, time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return NewStoreError("FinishOperation", "operation", id, err.Error(), err)
	}

	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return NewStoreError("FinishOperation", "operation", id, "operation not found", ErrNotFound)
	}
	return nil
}

// GetOperation returns a single journal entry.
func (s *SQLiteStore) GetOperation(ctx context.Context, id string) (*domain.Operation, error) {
	var row operationRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM operations WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetOperation", "operation", id, "operation not found", ErrNotFound)
		}
		return nil, NewStoreError("GetOperation", "operation", id, err.Error(), err)
	}

	op, err := row.toDomain()
	if err != nil {
		return nil, NewStoreError("GetOperation", "operation", id, err.Error(), err)
	}
	return &op, nil
}

// ListOperations returns journal entries, most recent first.
func (s *SQLiteStore) ListOperations(ctx context.Context, opts ListOptions) ([]domain.Operation, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	var rows []operationRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT * FROM operations
		ORDER BY started_at DESC
		LIMIT ? OFFSET ?
	`, limit, opts.Offset)
	if err != nil {
		return nil, NewStoreError("ListOperations", "operation", "", err.Error(), err)
	}

	ops := make([]domain.Operation, 0, len(rows))
	for _, row := range rows {
		op, err := row.toDomain()
		if err != nil {
			return nil, NewStoreError("ListOperations", "operation", row.ID, err.Error(), err)
		}
		ops = append(ops, op)
	}
	return ops, nil
}
