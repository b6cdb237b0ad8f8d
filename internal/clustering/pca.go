package clustering

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Projection is a 2-D principal component projection of the rows.
type Projection struct {
	Points *mat.Dense
	// Explained is the fraction of variance carried by each axis; zero for
	// an axis the data cannot fill.
	Explained [2]float64
}

// Project2D projects x onto its first two principal components. When the
// data has fewer than two components the missing axis is all zeros.
func Project2D(x *mat.Dense) (*Projection, error) {
	n, d := x.Dims()
	out := &Projection{Points: mat.NewDense(n, 2, nil)}
	if n < 2 {
		return out, nil
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(x, nil); !ok {
		return nil, fmt.Errorf("principal component analysis failed for %dx%d matrix", n, d)
	}

	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	_, components := vecs.Dims()
	k := components
	if k > 2 {
		k = 2
	}
	if k == 0 {
		return out, nil
	}

	var proj mat.Dense
	proj.Mul(x, vecs.Slice(0, d, 0, k))
	for i := 0; i < n; i++ {
		for j := 0; j < k; j++ {
			out.Points.Set(i, j, proj.At(i, j))
		}
	}

	vars := pc.VarsTo(nil)
	total := 0.0
	for _, v := range vars {
		total += v
	}
	if total > 0 {
		for j := 0; j < k; j++ {
			out.Explained[j] = vars[j] / total
		}
	}
	return out, nil
}
