package render

import (
	"context"
	"testing"

	"patientcluster/internal/clustering"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func sample() *mat.Dense {
	return mat.NewDense(6, 2, []float64{
		0, 0,
		0.2, 0.1,
		0.1, 0.3,
		5, 5,
		5.2, 5.1,
		9, -3,
	})
}

func TestScatter(t *testing.T) {
	x := sample()
	proj, err := clustering.Project2D(x)
	require.NoError(t, err)

	page, err := Scatter(clustering.MethodKMeans, proj, []int{0, 0, 0, 1, 1, clustering.NoiseLabel})
	require.NoError(t, err)

	html := string(page)
	assert.Contains(t, html, "KMeans Clustering (PCA Projection)")
	assert.Contains(t, html, "Cluster 0")
	assert.Contains(t, html, "Cluster 1")
	assert.Contains(t, html, "Noise")
}

func TestScatterLabelMismatch(t *testing.T) {
	proj, err := clustering.Project2D(sample())
	require.NoError(t, err)

	_, err = Scatter(clustering.MethodKMeans, proj, []int{0})
	assert.Error(t, err)
}

func TestDendrogram(t *testing.T) {
	merges, err := clustering.Linkage(context.Background(), sample())
	require.NoError(t, err)

	page, err := Dendrogram(clustering.TruncateLevels(6, merges, 5))
	require.NoError(t, err)
	assert.Contains(t, string(page), DendrogramTitle)

	_, err = Dendrogram(nil)
	assert.Error(t, err)
}

func TestSeriesName(t *testing.T) {
	assert.Equal(t, "Noise", SeriesName(-1))
	assert.Equal(t, "Cluster 2", SeriesName(2))
}
