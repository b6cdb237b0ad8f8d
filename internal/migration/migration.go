package migration

import (
	"context"

	"patientcluster/internal/errors"
	"patientcluster/internal/logger"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createClusterRunsTable(ctx, db); err != nil {
		return errors.DatabaseError("failed to create cluster_runs table", err)
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createClusterRunsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS cluster_runs (
			id UUID PRIMARY KEY,
			filename TEXT NOT NULL,
			row_count INTEGER NOT NULL,
			column_count INTEGER NOT NULL,
			feature_count INTEGER NOT NULL,
			method VARCHAR(32) NOT NULL,
			score DOUBLE PRECISION NOT NULL,
			scores JSONB,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_cluster_runs_created_at ON cluster_runs(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_cluster_runs_method ON cluster_runs(method)",
	}

	for _, idxSQL := range indexes {
		if _, err := db.ExecContext(ctx, idxSQL); err != nil {
			// Log but don't fail on index creation errors
			logger.FromContext(ctx).Warnw("failed to create index", logger.FieldError, err)
		}
	}

	return nil
}
