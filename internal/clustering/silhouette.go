package clustering

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Silhouette returns the mean silhouette coefficient of all rows.
// For row i with mean intra-cluster distance a and smallest mean distance
// to another cluster b, s(i) = (b-a)/max(a,b). Rows alone in their cluster
// score 0, as does 0/0. Every label, including NoiseLabel, is a cluster.
func Silhouette(x *mat.Dense, labels []int) (float64, error) {
	n, _ := x.Dims()
	if len(labels) != n {
		return 0, fmt.Errorf("label count %d does not match row count %d", len(labels), n)
	}

	index := make(map[int]int)
	for _, l := range labels {
		if _, ok := index[l]; !ok {
			index[l] = len(index)
		}
	}
	k := len(index)
	if k < 2 {
		return 0, fmt.Errorf("silhouette needs at least 2 clusters, got %d", k)
	}

	sizes := make([]int, k)
	for _, l := range labels {
		sizes[index[l]]++
	}

	sums := make([]float64, k)
	total := 0.0
	for i := 0; i < n; i++ {
		for c := range sums {
			sums[c] = 0
		}
		xi := x.RawRowView(i)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			sums[index[labels[j]]] += floats.Distance(xi, x.RawRowView(j), 2)
		}

		own := index[labels[i]]
		if sizes[own] == 1 {
			continue
		}
		a := sums[own] / float64(sizes[own]-1)
		b := -1.0
		for c := 0; c < k; c++ {
			if c == own {
				continue
			}
			mean := sums[c] / float64(sizes[c])
			if b < 0 || mean < b {
				b = mean
			}
		}

		denom := a
		if b > denom {
			denom = b
		}
		if denom > 0 {
			total += (b - a) / denom
		}
	}

	return total / float64(n), nil
}
