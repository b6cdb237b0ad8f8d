// Package clustering holds the three fixed clustering procedures, the
// silhouette score that compares them, and the selection of the winner.
package clustering

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Method names a clustering procedure
type Method string

const (
	MethodKMeans       Method = "KMeans"
	MethodHierarchical Method = "Hierarchical"
	MethodDBSCAN       Method = "DBSCAN"
)

// Priority is the fixed order used to break score ties: the first method
// in this list wins among equal scores.
var Priority = []Method{MethodKMeans, MethodHierarchical, MethodDBSCAN}

const (
	// NoiseLabel marks a DBSCAN point that belongs to no dense region.
	NoiseLabel = -1
	// SentinelScore is the score of a degenerate partition.
	SentinelScore = -1.0
)

// Clusterer assigns one integer label per row of a matrix.
type Clusterer interface {
	Method() Method
	Fit(ctx context.Context, x *mat.Dense) ([]int, error)
}

// Result is one method's labelling and score
type Result struct {
	Method   Method  `json:"method"`
	Labels   []int   `json:"labels"`
	Score    float64 `json:"score"`
	Clusters int     `json:"clusters"`
	Noise    int     `json:"noise"`
}

// DefaultClusterers returns the fixed method set in priority order:
// k-means (k=3, seed 42), Ward agglomerative (k=3) and DBSCAN
// (eps=0.5, min_samples=5).
func DefaultClusterers() []Clusterer {
	return []Clusterer{
		NewKMeans(DefaultKMeansConfig()),
		NewAgglomerative(3),
		NewDBSCAN(0.5, 5),
	}
}

// Evaluate fits a clusterer and scores its labels.
func Evaluate(ctx context.Context, c Clusterer, x *mat.Dense) (Result, error) {
	labels, err := c.Fit(ctx, x)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", c.Method(), err)
	}
	rows, _ := x.Dims()
	if len(labels) != rows {
		return Result{}, fmt.Errorf("%s: produced %d labels for %d rows", c.Method(), len(labels), rows)
	}

	clusters, noise := countClusters(labels)
	return Result{
		Method:   c.Method(),
		Labels:   labels,
		Score:    Score(c.Method(), x, labels),
		Clusters: clusters,
		Noise:    noise,
	}, nil
}

// Score returns the silhouette coefficient of labels over x, or
// SentinelScore when there are fewer than two distinct labels or when a
// DBSCAN labelling contains any noise point.
func Score(method Method, x *mat.Dense, labels []int) float64 {
	if distinctLabels(labels) < 2 {
		return SentinelScore
	}
	if method == MethodDBSCAN {
		for _, l := range labels {
			if l == NoiseLabel {
				return SentinelScore
			}
		}
	}
	s, err := Silhouette(x, labels)
	if err != nil {
		return SentinelScore
	}
	return s
}

// Select returns the result with the strictly highest score. Results are
// visited in Priority order, so ties go to the earlier method.
func Select(results []Result) (Result, error) {
	if len(results) == 0 {
		return Result{}, fmt.Errorf("no clustering results to select from")
	}

	ordered := make([]Result, 0, len(results))
	for _, m := range Priority {
		for _, r := range results {
			if r.Method == m {
				ordered = append(ordered, r)
			}
		}
	}
	for _, r := range results {
		if priorityIndex(r.Method) < 0 {
			ordered = append(ordered, r)
		}
	}

	best := ordered[0]
	for _, r := range ordered[1:] {
		if r.Score > best.Score {
			best = r
		}
	}
	return best, nil
}

func priorityIndex(m Method) int {
	for i, p := range Priority {
		if p == m {
			return i
		}
	}
	return -1
}

func distinctLabels(labels []int) int {
	seen := make(map[int]struct{})
	for _, l := range labels {
		seen[l] = struct{}{}
	}
	return len(seen)
}

// countClusters returns the number of distinct non-noise labels and the
// number of noise points.
func countClusters(labels []int) (clusters, noise int) {
	seen := make(map[int]struct{})
	for _, l := range labels {
		if l == NoiseLabel {
			noise++
			continue
		}
		seen[l] = struct{}{}
	}
	return len(seen), noise
}

// renumber relabels clusters 0, 1, 2, ... in order of first appearance.
// Negative labels are kept as they are.
func renumber(labels []int) []int {
	mapping := make(map[int]int)
	out := make([]int, len(labels))
	for i, l := range labels {
		if l < 0 {
			out[i] = l
			continue
		}
		id, ok := mapping[l]
		if !ok {
			id = len(mapping)
			mapping[l] = id
		}
		out[i] = id
	}
	return out
}
