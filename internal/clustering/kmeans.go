package clustering

import (
	"context"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// KMeansConfig configures the partition-based method
type KMeansConfig struct {
	K        int
	Seed     int64
	Restarts int
	MaxIter  int
	// Tol is relative to the mean column variance of the data.
	Tol float64
}

// DefaultKMeansConfig returns k=3 with seed 42, 10 k-means++ restarts,
// at most 300 Lloyd iterations and a relative tolerance of 1e-4.
func DefaultKMeansConfig() KMeansConfig {
	return KMeansConfig{K: 3, Seed: 42, Restarts: 10, MaxIter: 300, Tol: 1e-4}
}

// KMeans is Lloyd's algorithm with k-means++ seeding. The best of
// Restarts runs by inertia is kept; all randomness comes from Seed.
type KMeans struct {
	config KMeansConfig
}

// NewKMeans creates a k-means clusterer
func NewKMeans(config KMeansConfig) *KMeans {
	if config.Restarts <= 0 {
		config.Restarts = 1
	}
	if config.MaxIter <= 0 {
		config.MaxIter = 300
	}
	return &KMeans{config: config}
}

// Method implements Clusterer
func (km *KMeans) Method() Method { return MethodKMeans }

// Fit implements Clusterer. k is capped at the row count. Points equidistant
// from several centres go to the lowest-index centre, so coincident
// centres never split a group of identical rows.
func (km *KMeans) Fit(ctx context.Context, x *mat.Dense) ([]int, error) {
	n, d := x.Dims()
	k := km.config.K
	if k > n {
		k = n
	}
	if k < 1 {
		k = 1
	}

	tolerance := km.config.Tol * meanVariance(x)
	rng := rand.New(rand.NewSource(km.config.Seed))

	var best []int
	bestInertia := math.Inf(1)
	for run := 0; run < km.config.Restarts; run++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		centers := km.seed(x, k, rng)
		labels, inertia, err := km.lloyd(ctx, x, centers, d, tolerance)
		if err != nil {
			return nil, err
		}
		if inertia < bestInertia {
			best, bestInertia = labels, inertia
		}
	}
	return renumber(best), nil
}

// seed picks k initial centres with k-means++ D² sampling
func (km *KMeans) seed(x *mat.Dense, k int, rng *rand.Rand) [][]float64 {
	n, _ := x.Dims()
	centers := make([][]float64, 0, k)
	centers = append(centers, append([]float64(nil), x.RawRowView(rng.Intn(n))...))

	closest := make([]float64, n)
	for i := range closest {
		closest[i] = sqDist(x.RawRowView(i), centers[0])
	}

	for len(centers) < k {
		total := floats.Sum(closest)
		next := rng.Intn(n)
		if total > 0 {
			target := rng.Float64() * total
			acc := 0.0
			for i, w := range closest {
				if w == 0 {
					continue
				}
				next = i
				acc += w
				if acc >= target {
					break
				}
			}
		}
		c := append([]float64(nil), x.RawRowView(next)...)
		centers = append(centers, c)
		for i := range closest {
			if dist := sqDist(x.RawRowView(i), c); dist < closest[i] {
				closest[i] = dist
			}
		}
	}
	return centers
}

// lloyd alternates assignment and update steps until the total squared
// centre shift falls to tolerance or MaxIter is reached.
func (km *KMeans) lloyd(ctx context.Context, x *mat.Dense, centers [][]float64, d int, tolerance float64) ([]int, float64, error) {
	n, _ := x.Dims()
	k := len(centers)
	labels := make([]int, n)
	sums := make([][]float64, k)
	for c := range sums {
		sums[c] = make([]float64, d)
	}
	counts := make([]int, k)

	for iter := 0; iter < km.config.MaxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		assign(x, centers, labels)

		for c := range sums {
			for j := range sums[c] {
				sums[c][j] = 0
			}
			counts[c] = 0
		}
		for i := 0; i < n; i++ {
			floats.Add(sums[labels[i]], x.RawRowView(i))
			counts[labels[i]]++
		}

		shift := 0.0
		for c := range centers {
			if counts[c] == 0 {
				// an empty cluster keeps its centre
				continue
			}
			floats.Scale(1/float64(counts[c]), sums[c])
			shift += sqDist(centers[c], sums[c])
			copy(centers[c], sums[c])
		}
		if shift <= tolerance {
			break
		}
	}

	inertia := assign(x, centers, labels)
	return labels, inertia, nil
}

// assign labels every row with its nearest centre and returns the inertia.
func assign(x *mat.Dense, centers [][]float64, labels []int) float64 {
	inertia := 0.0
	for i := range labels {
		row := x.RawRowView(i)
		bestC, bestD := 0, math.Inf(1)
		for c, center := range centers {
			if dist := sqDist(row, center); dist < bestD {
				bestC, bestD = c, dist
			}
		}
		labels[i] = bestC
		inertia += bestD
	}
	return inertia
}

func sqDist(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		diff := a[i] - b[i]
		s += diff * diff
	}
	return s
}

// meanVariance is the mean population variance of the columns of x.
func meanVariance(x *mat.Dense) float64 {
	n, d := x.Dims()
	if n == 0 || d == 0 {
		return 0
	}
	col := make([]float64, n)
	total := 0.0
	for j := 0; j < d; j++ {
		mat.Col(col, j, x)
		mean := stat.Mean(col, nil)
		sum := 0.0
		for _, v := range col {
			sum += (v - mean) * (v - mean)
		}
		total += sum / float64(n)
	}
	return total / float64(d)
}
