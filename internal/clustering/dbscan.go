package clustering

import (
	"context"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DBSCAN is density-based clustering with Euclidean neighbourhoods.
// A row is a core point when at least MinSamples rows, itself included,
// lie within Eps. Rows reachable from no core point get NoiseLabel.
type DBSCAN struct {
	Eps        float64
	MinSamples int
}

// NewDBSCAN creates a density-based clusterer
func NewDBSCAN(eps float64, minSamples int) *DBSCAN {
	return &DBSCAN{Eps: eps, MinSamples: minSamples}
}

// Method implements Clusterer
func (db *DBSCAN) Method() Method { return MethodDBSCAN }

// Fit implements Clusterer. Clusters are numbered in the order their first
// core point appears; a border row joins the first cluster that reaches it.
func (db *DBSCAN) Fit(ctx context.Context, x *mat.Dense) ([]int, error) {
	n, _ := x.Dims()

	neighbors := make([][]int, n)
	core := make([]bool, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		xi := x.RawRowView(i)
		for j := 0; j < n; j++ {
			if floats.Distance(xi, x.RawRowView(j), 2) <= db.Eps {
				neighbors[i] = append(neighbors[i], j)
			}
		}
		core[i] = len(neighbors[i]) >= db.MinSamples
	}

	labels := make([]int, n)
	for i := range labels {
		labels[i] = NoiseLabel
	}

	cluster := 0
	stack := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if labels[i] != NoiseLabel || !core[i] {
			continue
		}
		labels[i] = cluster
		stack = append(stack[:0], i)
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !core[p] {
				continue
			}
			for _, q := range neighbors[p] {
				if labels[q] == NoiseLabel {
					labels[q] = cluster
					stack = append(stack, q)
				}
			}
		}
		cluster++
	}
	return labels, nil
}
