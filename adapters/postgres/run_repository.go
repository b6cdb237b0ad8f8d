package postgres

import (
	"context"

	"patientcluster/internal/errors"
	"patientcluster/models"
	"patientcluster/ports"

	"github.com/jmoiron/sqlx"
)

// DefaultListLimit caps ListRecent when no positive limit is given.
const DefaultListLimit = 50

// RunRepositoryImpl implements RunRepository for PostgreSQL
type RunRepositoryImpl struct {
	db *sqlx.DB
}

// NewRunRepository creates a new PostgreSQL run repository
func NewRunRepository(db *sqlx.DB) ports.RunRepository {
	return &RunRepositoryImpl{db: db}
}

// Record inserts a completed run
func (r *RunRepositoryImpl) Record(ctx context.Context, run *models.ClusterRun) error {
	// MethodScores implements driver.Valuer, so it is stored as JSONB directly
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cluster_runs (id, filename, row_count, column_count, feature_count, method, score, scores, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, run.ID, run.Filename, run.Rows, run.Columns, run.Features, run.Method, run.Score, run.Scores, run.CreatedAt)
	if err != nil {
		return errors.DatabaseError("failed to record cluster run", err)
	}
	return nil
}

// ListRecent returns runs ordered by creation time, newest first
func (r *RunRepositoryImpl) ListRecent(ctx context.Context, limit int) ([]*models.ClusterRun, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var runs []*models.ClusterRun
	err := r.db.SelectContext(ctx, &runs, `
		SELECT id, filename, row_count, column_count, feature_count, method, score, scores, created_at
		FROM cluster_runs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, errors.DatabaseError("failed to list cluster runs", err)
	}
	if runs == nil {
		runs = []*models.ClusterRun{}
	}
	return runs, nil
}
