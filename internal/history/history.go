// Package history records completed pipeline runs in the run repository.
package history

import (
	"context"
	"time"

	"patientcluster/internal/logger"
	"patientcluster/internal/pipeline"
	"patientcluster/models"
	"patientcluster/ports"

	"github.com/google/uuid"
)

// FromResult summarises a pipeline result as a run record.
func FromResult(filename string, result *pipeline.Result) *models.ClusterRun {
	id, err := uuid.Parse(result.RunID)
	if err != nil {
		id = uuid.New()
	}
	return &models.ClusterRun{
		ID:        id,
		Filename:  filename,
		Rows:      result.Input.NumRows(),
		Columns:   result.Input.NumCols(),
		Features:  len(result.Features),
		Method:    string(result.Best.Method),
		Score:     result.Best.Score,
		Scores:    models.MethodScores(result.Scores()),
		CreatedAt: time.Now().UTC(),
	}
}

// Recorder writes run records when a repository is configured. A nil
// repository turns every call into a no-op.
type Recorder struct {
	repo ports.RunRepository
}

// NewRecorder creates a recorder backed by repo, which may be nil.
func NewRecorder(repo ports.RunRepository) *Recorder {
	return &Recorder{repo: repo}
}

// Enabled reports whether runs are persisted.
func (r *Recorder) Enabled() bool {
	return r != nil && r.repo != nil
}

// Record stores the run. Failures are logged and never returned.
func (r *Recorder) Record(ctx context.Context, filename string, result *pipeline.Result) {
	if !r.Enabled() {
		return
	}
	run := FromResult(filename, result)
	if err := r.repo.Record(ctx, run); err != nil {
		logger.FromContext(ctx).Warnw("failed to record cluster run",
			logger.FieldRunID, result.RunID,
			logger.FieldError, err)
	}
}

// Recent lists the newest runs. It returns an empty list when history is
// disabled.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]*models.ClusterRun, error) {
	if !r.Enabled() {
		return []*models.ClusterRun{}, nil
	}
	return r.repo.ListRecent(ctx, limit)
}
