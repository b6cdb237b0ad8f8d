// Package dataset turns a raw uploaded table into the standardized numeric
// matrix the clustering methods consume.
package dataset

import (
	"math"
	"sort"

	"patientcluster/adapters/datareadiness/coercer"
	domain "patientcluster/domain/dataset"
	"patientcluster/internal/errors"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"
)

// Feature describes one column of the encoded matrix.
type Feature struct {
	Name   string
	Source string
	Kind   domain.ColumnKind
	// Level is the category an indicator column encodes.
	Level string
	Mean  float64
	Scale float64
}

// Encoded is the standardized matrix plus its column provenance.
type Encoded struct {
	Matrix   *mat.Dense
	Features []Feature
	// Dropped lists source columns that produced no feature.
	Dropped []string
}

// Rows returns the matrix row count
func (e *Encoded) Rows() int {
	r, _ := e.Matrix.Dims()
	return r
}

// Preprocessor applies the fixed encode → impute → standardize chain.
type Preprocessor struct {
	coercer *coercer.TypeCoercer
}

// NewPreprocessor creates a preprocessor using the given cell coercer
func NewPreprocessor(c *coercer.TypeCoercer) *Preprocessor {
	if c == nil {
		c = coercer.NewTypeCoercer(coercer.DefaultCoercionConfig())
	}
	return &Preprocessor{coercer: c}
}

type rawFeature struct {
	feature Feature
	values  []float64
	present []bool
}

// Encode one-hot encodes categorical columns (dropping the first sorted
// level), imputes missing numeric cells with the column mean and scales
// every column to zero mean and unit variance. Numeric and boolean columns
// come first in input order, followed by indicator columns.
func (p *Preprocessor) Encode(table *domain.Table) (*Encoded, error) {
	if table == nil || table.NumRows() == 0 {
		return nil, errors.InvalidInput("dataset has no rows")
	}

	var numeric, indicators []rawFeature
	var dropped []string

	for j, name := range table.Headers {
		column := table.Column(j)
		kind := p.coercer.InferKind(column)

		if kind == domain.KindCategorical {
			encoded := p.oneHot(name, column)
			if len(encoded) == 0 {
				dropped = append(dropped, name)
			}
			indicators = append(indicators, encoded...)
			continue
		}

		raw := rawFeature{
			feature: Feature{Name: name, Source: name, Kind: kind},
			values:  make([]float64, len(column)),
			present: make([]bool, len(column)),
		}
		observed := false
		for i, cell := range column {
			if v, ok := p.coercer.Float(kind, cell); ok {
				raw.values[i] = v
				raw.present[i] = true
				observed = true
			}
		}
		if !observed {
			dropped = append(dropped, name)
			continue
		}
		numeric = append(numeric, raw)
	}

	features := append(numeric, indicators...)
	if len(features) == 0 {
		return nil, errors.InvalidInput("no usable feature columns after encoding")
	}

	rows := table.NumRows()
	out := mat.NewDense(rows, len(features), nil)
	meta := make([]Feature, len(features))

	for j := range features {
		column, err := impute(features[j])
		if err != nil {
			return nil, errors.Wrapf(err, "failed to impute column %q", features[j].feature.Name)
		}
		mean, scale, err := standardize(column)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to scale column %q", features[j].feature.Name)
		}
		out.SetCol(j, column)

		meta[j] = features[j].feature
		meta[j].Mean = mean
		meta[j].Scale = scale
	}

	return &Encoded{Matrix: out, Features: meta, Dropped: dropped}, nil
}

// oneHot expands a categorical column into indicator columns, one per level
// except the lexically first. Missing cells are zero in every indicator.
func (p *Preprocessor) oneHot(name string, column []string) []rawFeature {
	levels := make(map[string]struct{})
	cells := make([]string, len(column))
	present := make([]bool, len(column))
	for i, raw := range column {
		if level, ok := p.coercer.Category(raw); ok {
			levels[level] = struct{}{}
			cells[i] = level
			present[i] = true
		}
	}

	sorted := make([]string, 0, len(levels))
	for level := range levels {
		sorted = append(sorted, level)
	}
	sort.Strings(sorted)
	if len(sorted) <= 1 {
		return nil
	}

	out := make([]rawFeature, 0, len(sorted)-1)
	for _, level := range sorted[1:] {
		raw := rawFeature{
			feature: Feature{
				Name:   name + "_" + level,
				Source: name,
				Kind:   domain.KindCategorical,
				Level:  level,
			},
			values:  make([]float64, len(column)),
			present: make([]bool, len(column)),
		}
		for i := range column {
			raw.present[i] = true
			if present[i] && cells[i] == level {
				raw.values[i] = 1
			}
		}
		out = append(out, raw)
	}
	return out
}

// impute replaces missing entries with the mean of the present ones
func impute(raw rawFeature) ([]float64, error) {
	observed := make([]float64, 0, len(raw.values))
	for i, v := range raw.values {
		if raw.present[i] {
			observed = append(observed, v)
		}
	}
	mean, err := stats.Mean(observed)
	if err != nil {
		return nil, err
	}

	column := make([]float64, len(raw.values))
	for i, v := range raw.values {
		if raw.present[i] {
			column[i] = v
		} else {
			column[i] = mean
		}
	}
	return column, nil
}

// standardize centers and scales column in place using population
// statistics. A constant column is centered only.
func standardize(column []float64) (mean, scale float64, err error) {
	mean, err = stats.Mean(column)
	if err != nil {
		return 0, 0, err
	}
	std, err := stats.StandardDeviationPopulation(column)
	if err != nil {
		return 0, 0, err
	}

	scale = std
	if std <= 10*epsilon*math.Max(math.Abs(mean), 1) {
		scale = 1
	}
	for i, v := range column {
		column[i] = (v - mean) / scale
	}
	return mean, scale, nil
}

const epsilon = 2.220446049250313e-16
