package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"patientcluster/adapters/excel"
	"patientcluster/domain/dataset"
	"patientcluster/internal/clustering"
	prep "patientcluster/internal/dataset"
	"patientcluster/internal/errors"
	"patientcluster/internal/export"
	"patientcluster/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blobsUpload(t *testing.T) (Upload, []int) {
	t.Helper()
	data, truth, err := testkit.NewPatientDataGenerator(testkit.DefaultPatientConfig()).CSV()
	require.NoError(t, err)
	return Upload{Filename: "blobs.csv", Data: data}, truth
}

func methodResult(t *testing.T, r *Result, m clustering.Method) clustering.Result {
	t.Helper()
	for _, mr := range r.Methods {
		if mr.Method == m {
			return mr
		}
	}
	t.Fatalf("no result for %s", m)
	return clustering.Result{}
}

func TestRunBlobs(t *testing.T) {
	upload, truth := blobsUpload(t)

	result, err := Run(context.Background(), upload)
	require.NoError(t, err)

	require.Len(t, result.Methods, 3)
	for i, m := range clustering.Priority {
		assert.Equal(t, m, result.Methods[i].Method)
	}

	for _, m := range []clustering.Method{clustering.MethodKMeans, clustering.MethodHierarchical} {
		mr := methodResult(t, result, m)
		assert.Greater(t, mr.Score, 0.5, m)
		assert.Equal(t, 3, mr.Clusters, m)
		assert.True(t, samePartition(truth, mr.Labels), m)
	}
	assert.Contains(t, []clustering.Method{clustering.MethodKMeans, clustering.MethodHierarchical}, result.Best.Method)

	assert.Equal(t, result.Input.NumCols()+1, result.Output.NumCols())
	assert.Equal(t, dataset.ClusterColumn, result.Output.Headers[result.Output.NumCols()-1])
	assert.Equal(t, result.Input.NumRows(), result.Output.NumRows())
	assert.NotEmpty(t, result.ScatterHTML)
	assert.NotEmpty(t, result.CSV)
	assert.NotEmpty(t, result.RunID)
	assert.Contains(t, string(result.Report), "Best clustering method selected: **"+string(result.Best.Method)+"**")
}

func TestRunIsDeterministic(t *testing.T) {
	upload, _ := blobsUpload(t)

	first, err := Run(context.Background(), upload)
	require.NoError(t, err)
	second, err := Run(context.Background(), upload)
	require.NoError(t, err)

	assert.Equal(t, first.Best.Method, second.Best.Method)
	assert.Equal(t, first.Best.Labels, second.Best.Labels)
	assert.Equal(t, first.Scores(), second.Scores())
	assert.Equal(t, first.CSV, second.CSV)
}

func TestRunSingleCategoricalColumn(t *testing.T) {
	result, err := Run(context.Background(), Upload{Filename: "smokers.csv", Data: testkit.CategoricalCSV()})
	require.NoError(t, err)

	require.Len(t, result.Features, 1)
	assert.Equal(t, "smoker_yes", result.Features[0].Name)
	assert.Len(t, result.Best.Labels, 10)
	assert.Equal(t, 2, result.Output.NumCols())
}

func TestRunIdenticalRows(t *testing.T) {
	result, err := Run(context.Background(), Upload{Filename: "same.csv", Data: testkit.IdenticalCSV(6)})
	require.NoError(t, err)

	for _, mr := range result.Methods {
		assert.Equal(t, clustering.SentinelScore, mr.Score, mr.Method)
	}
	assert.Equal(t, clustering.MethodKMeans, result.Best.Method)
	assert.Nil(t, result.DendrogramHTML)
}

func TestRunXLSX(t *testing.T) {
	rows, _ := testkit.NewPatientDataGenerator(testkit.DefaultPatientConfig()).Generate()
	data, err := testkit.EncodeXLSX(testkit.Headers, rows)
	require.NoError(t, err)

	result, err := Run(context.Background(), Upload{Filename: "blobs.xlsx", Data: data})
	require.NoError(t, err)
	assert.Equal(t, 30, result.Output.NumRows())
}

func TestRunWritesSnapshot(t *testing.T) {
	upload, _ := blobsUpload(t)
	upload.SnapshotPath = filepath.Join(t.TempDir(), export.DefaultSnapshotPath)

	result, err := Run(context.Background(), upload)
	require.NoError(t, err)
	require.NoError(t, result.SnapshotErr)

	loaded, err := export.LoadSnapshot(upload.SnapshotPath)
	require.NoError(t, err)
	assert.Equal(t, result.Output.Headers, loaded.Headers)
	assert.Equal(t, result.Output.Rows, loaded.Rows)
}

func TestRunSnapshotFailureIsAWarning(t *testing.T) {
	upload, _ := blobsUpload(t)
	upload.SnapshotPath = filepath.Join(t.TempDir(), "missing", "out.gob")

	result, err := Run(context.Background(), upload)
	require.NoError(t, err)
	require.Error(t, result.SnapshotErr)
	assert.Equal(t, errors.CodeExport, errors.GetCode(result.SnapshotErr))
	assert.NotEmpty(t, result.CSV)
}

func TestRunRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		data string
		code string
	}{
		{"header only", "a,b\n", errors.CodeDataLoad},
		{"no usable columns", "site\nnorth\nnorth\n", errors.CodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(context.Background(), Upload{Filename: "bad.csv", Data: []byte(tt.data)})
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))
		})
	}
}

func TestRunHonoursCancellation(t *testing.T) {
	upload, _ := blobsUpload(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, upload)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVisualizeHierarchicalDrawsDendrogram(t *testing.T) {
	upload, _ := blobsUpload(t)
	table, err := excel.ReadBytes(upload.Filename, upload.Data)
	require.NoError(t, err)
	encoded, err := prep.NewPreprocessor(nil).Encode(table)
	require.NoError(t, err)

	best, err := clustering.Evaluate(context.Background(), clustering.NewAgglomerative(3), encoded.Matrix)
	require.NoError(t, err)

	result := &Result{Best: best}
	require.NoError(t, visualize(context.Background(), result, encoded))

	require.NotNil(t, result.Dendrogram)
	assert.LessOrEqual(t, result.Dendrogram.Depth(), DendrogramLevels+1)
	assert.Contains(t, string(result.DendrogramHTML), "Hierarchical Clustering Dendrogram (Truncated)")
}

func TestVisualizeOtherMethodsSkipDendrogram(t *testing.T) {
	upload, _ := blobsUpload(t)
	table, err := excel.ReadBytes(upload.Filename, upload.Data)
	require.NoError(t, err)
	encoded, err := prep.NewPreprocessor(nil).Encode(table)
	require.NoError(t, err)

	best, err := clustering.Evaluate(context.Background(), clustering.NewKMeans(clustering.DefaultKMeansConfig()), encoded.Matrix)
	require.NoError(t, err)

	result := &Result{Best: best}
	require.NoError(t, visualize(context.Background(), result, encoded))
	assert.Nil(t, result.Dendrogram)
	assert.Nil(t, result.DendrogramHTML)
	assert.NotEmpty(t, result.ScatterHTML)
}

// samePartition reports whether two labellings group rows identically
func samePartition(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	ab := map[int]int{}
	ba := map[int]int{}
	for i := range a {
		if v, ok := ab[a[i]]; ok && v != b[i] {
			return false
		}
		if v, ok := ba[b[i]]; ok && v != a[i] {
			return false
		}
		ab[a[i]], ba[b[i]] = b[i], a[i]
	}
	return true
}
