package coercer

import (
	"math"
	"strconv"
	"strings"

	"patientcluster/domain/dataset"
)

// TypeCoercer classifies raw cells and columns deterministically
type TypeCoercer struct {
	config  CoercionConfig
	missing map[string]struct{}
}

// CoercionConfig defines the tokens and literals the coercer recognizes
type CoercionConfig struct {
	MissingTokens []string `json:"missing_tokens"` // cell values read as missing, matched after trimming
	TrueLiterals  []string `json:"true_literals"`
	FalseLiterals []string `json:"false_literals"`
}

// DefaultCoercionConfig mirrors the pandas CSV reader: its default NA
// tokens and its boolean literals.
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{
		MissingTokens: []string{
			"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
			"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
			"n/a", "nan", "null",
		},
		TrueLiterals:  []string{"True", "TRUE", "true"},
		FalseLiterals: []string{"False", "FALSE", "false"},
	}
}

// NewTypeCoercer creates a coercer with the given config
func NewTypeCoercer(config CoercionConfig) *TypeCoercer {
	missing := make(map[string]struct{}, len(config.MissingTokens))
	for _, token := range config.MissingTokens {
		missing[token] = struct{}{}
	}
	return &TypeCoercer{config: config, missing: missing}
}

// IsMissing reports whether a raw cell is a missing value
func (c *TypeCoercer) IsMissing(raw string) bool {
	_, ok := c.missing[strings.TrimSpace(raw)]
	return ok
}

// ParseNumeric parses a present cell as a finite float.
func (c *TypeCoercer) ParseNumeric(raw string) (float64, bool) {
	val, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsInf(val, 0) || math.IsNaN(val) {
		return 0, false
	}
	return val, true
}

// ParseBoolean parses a present cell as a boolean literal.
func (c *TypeCoercer) ParseBoolean(raw string) (bool, bool) {
	trimmed := strings.TrimSpace(raw)
	for _, lit := range c.config.TrueLiterals {
		if trimmed == lit {
			return true, true
		}
	}
	for _, lit := range c.config.FalseLiterals {
		if trimmed == lit {
			return false, true
		}
	}
	return false, false
}

// InferKind classifies a column. A column is numeric when every present
// cell parses as a finite number (an all-missing column counts as numeric),
// boolean when every cell is a boolean literal and none is missing, and
// categorical otherwise.
func (c *TypeCoercer) InferKind(values []string) dataset.ColumnKind {
	numeric, boolean := true, true
	missing := 0

	for _, raw := range values {
		if c.IsMissing(raw) {
			missing++
			continue
		}
		if numeric {
			if _, ok := c.ParseNumeric(raw); !ok {
				numeric = false
			}
		}
		if boolean {
			if _, ok := c.ParseBoolean(raw); !ok {
				boolean = false
			}
		}
		if !numeric && !boolean {
			return dataset.KindCategorical
		}
	}

	switch {
	case numeric:
		return dataset.KindNumeric
	case boolean && missing == 0:
		return dataset.KindBoolean
	default:
		return dataset.KindCategorical
	}
}

// Float converts a present cell of a numeric or boolean column to a float.
// Missing cells report ok=false.
func (c *TypeCoercer) Float(kind dataset.ColumnKind, raw string) (float64, bool) {
	if c.IsMissing(raw) {
		return 0, false
	}
	switch kind {
	case dataset.KindBoolean:
		b, ok := c.ParseBoolean(raw)
		if !ok {
			return 0, false
		}
		if b {
			return 1, true
		}
		return 0, true
	default:
		return c.ParseNumeric(raw)
	}
}

// Category returns the level of a categorical cell, trimmed.
func (c *TypeCoercer) Category(raw string) (string, bool) {
	if c.IsMissing(raw) {
		return "", false
	}
	return strings.TrimSpace(raw), true
}
