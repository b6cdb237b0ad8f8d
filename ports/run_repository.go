package ports

import (
	"context"

	"patientcluster/models"
)

// RunRepository defines the interface for run history operations
type RunRepository interface {
	// Record stores a completed run
	Record(ctx context.Context, run *models.ClusterRun) error

	// ListRecent returns the newest runs first, at most limit of them
	ListRecent(ctx context.Context, limit int) ([]*models.ClusterRun, error)
}
