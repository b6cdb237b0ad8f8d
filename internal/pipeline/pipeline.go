// Package pipeline runs one uploaded table through preprocessing, the
// three clustering methods, selection, rendering and export.
package pipeline

import (
	"bytes"
	"context"
	"time"

	"patientcluster/adapters/excel"
	"patientcluster/domain/dataset"
	"patientcluster/internal/clustering"
	prep "patientcluster/internal/dataset"
	"patientcluster/internal/errors"
	"patientcluster/internal/export"
	"patientcluster/internal/logger"
	"patientcluster/internal/render"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	// PreviewRows is the number of rows shown in table previews.
	PreviewRows = 5
	// DendrogramLevels is how many merge levels below the root are drawn.
	DendrogramLevels = 5
)

// Upload is one uploaded file plus where its snapshot should go.
// An empty SnapshotPath skips the snapshot.
type Upload struct {
	Filename     string
	Data         []byte
	SnapshotPath string
}

// Result is everything a run produces.
type Result struct {
	RunID    string
	Input    *dataset.Table
	Output   *dataset.Table
	Features []prep.Feature
	Dropped  []string

	// Methods holds every method's result in priority order.
	Methods []clustering.Result
	Best    clustering.Result

	Projection     *clustering.Projection
	ScatterHTML    []byte
	Dendrogram     *clustering.DendrogramNode
	DendrogramHTML []byte

	// Report is a Markdown summary of the run.
	Report []byte

	CSV []byte
	// SnapshotErr is set when the snapshot could not be written. The rest
	// of the result is still valid.
	SnapshotErr error
	Duration    time.Duration
}

// Scores returns each method's score keyed by method name.
func (r *Result) Scores() map[string]float64 {
	scores := make(map[string]float64, len(r.Methods))
	for _, m := range r.Methods {
		scores[string(m.Method)] = m.Score
	}
	return scores
}

// Run executes the whole pipeline for one upload.
func Run(ctx context.Context, upload Upload) (*Result, error) {
	start := time.Now()
	runID := uuid.New().String()
	ctx = logger.WithComponent(logger.WithRunID(ctx, runID), "pipeline")
	log := logger.FromContext(ctx)

	table, err := excel.ReadTable(upload.Filename, bytes.NewReader(upload.Data))
	if err != nil {
		return nil, err
	}
	log.Infow("dataset loaded",
		logger.FieldFile, upload.Filename,
		logger.FieldRows, table.NumRows(),
		logger.FieldColumns, table.NumCols())

	encoded, err := prep.NewPreprocessor(nil).Encode(table)
	if err != nil {
		return nil, err
	}
	if len(encoded.Dropped) > 0 {
		log.Infow("columns dropped during encoding", "dropped", encoded.Dropped)
	}
	log.Infow("dataset encoded", logger.FieldFeatures, len(encoded.Features))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	methods, err := evaluateAll(ctx, clustering.DefaultClusterers(), encoded)
	if err != nil {
		return nil, err
	}
	best, err := clustering.Select(methods)
	if err != nil {
		return nil, errors.Wrap(err, "failed to select clustering method")
	}
	log.Infow("clustering method selected",
		logger.FieldMethod, best.Method,
		logger.FieldScore, best.Score)

	result := &Result{
		RunID:    runID,
		Input:    table,
		Features: encoded.Features,
		Dropped:  encoded.Dropped,
		Methods:  methods,
		Best:     best,
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := visualize(ctx, result, encoded); err != nil {
		return nil, err
	}

	output, err := table.WithLabels(best.Labels)
	if err != nil {
		return nil, errors.Wrap(err, "failed to attach cluster labels")
	}
	result.Output = output

	result.Report = render.Report(render.ReportInput{
		Filename: table.Name,
		Rows:     table.NumRows(),
		Columns:  table.NumCols(),
		Features: len(encoded.Features),
		Dropped:  encoded.Dropped,
		Methods:  methods,
		Best:     best,
	})

	result.CSV, err = export.CSVBytes(output)
	if err != nil {
		return nil, err
	}

	if upload.SnapshotPath != "" {
		if err := export.SaveSnapshot(upload.SnapshotPath, output); err != nil {
			result.SnapshotErr = err
			log.Warnw("snapshot write failed",
				logger.FieldPath, upload.SnapshotPath,
				logger.FieldError, err)
		}
	}

	result.Duration = time.Since(start)
	log.Infow("pipeline complete", logger.FieldDurationMS, result.Duration.Milliseconds())
	return result, nil
}

// evaluateAll fits every clusterer concurrently. Each goroutine writes its
// own slot, so the returned slice keeps the clusterers' order.
func evaluateAll(ctx context.Context, clusterers []clustering.Clusterer, encoded *prep.Encoded) ([]clustering.Result, error) {
	results := make([]clustering.Result, len(clusterers))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range clusterers {
		i, c := i, c
		g.Go(func() error {
			started := time.Now()
			r, err := clustering.Evaluate(gctx, c, encoded.Matrix)
			if err != nil {
				return errors.Wrapf(err, "%s clustering failed", c.Method())
			}
			logger.FromContext(gctx).Infow("clustering method scored",
				logger.FieldMethod, r.Method,
				logger.FieldScore, r.Score,
				"clusters", r.Clusters,
				"noise", r.Noise,
				logger.FieldDurationMS, time.Since(started).Milliseconds())
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// visualize projects the encoded matrix and renders the charts for the
// selected method. The dendrogram is only drawn for Hierarchical.
func visualize(ctx context.Context, result *Result, encoded *prep.Encoded) error {
	proj, err := clustering.Project2D(encoded.Matrix)
	if err != nil {
		return errors.Wrap(err, "failed to project dataset")
	}
	result.Projection = proj

	result.ScatterHTML, err = render.Scatter(result.Best.Method, proj, result.Best.Labels)
	if err != nil {
		return errors.Wrap(err, "failed to render scatter plot")
	}

	if result.Best.Method != clustering.MethodHierarchical {
		return nil
	}
	merges, err := clustering.Linkage(ctx, encoded.Matrix)
	if err != nil {
		return errors.Wrap(err, "failed to compute linkage")
	}
	result.Dendrogram = clustering.TruncateLevels(encoded.Rows(), merges, DendrogramLevels)
	if result.Dendrogram == nil {
		return nil
	}
	result.DendrogramHTML, err = render.Dendrogram(result.Dendrogram)
	if err != nil {
		return errors.Wrap(err, "failed to render dendrogram")
	}
	return nil
}
