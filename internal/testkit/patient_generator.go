// Package testkit generates patient tables for tests.
package testkit

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math/rand"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// PatientGeneratorConfig configures the synthetic cohort generator
type PatientGeneratorConfig struct {
	Centers   [][2]float64 `json:"centers"`
	GroupSize int          `json:"group_size"`
	Spread    float64      `json:"spread"`
	Seed      int64        `json:"seed"`
}

// DefaultPatientConfig returns three well separated groups of ten
// patients around (0,0), (10,10) and (-10,10).
func DefaultPatientConfig() PatientGeneratorConfig {
	return PatientGeneratorConfig{
		Centers:   [][2]float64{{0, 0}, {10, 10}, {-10, 10}},
		GroupSize: 10,
		Spread:    0.3,
		Seed:      7,
	}
}

// PatientDataGenerator emits numeric patient tables drawn from Gaussian
// groups.
type PatientDataGenerator struct {
	config PatientGeneratorConfig
	rng    *rand.Rand
}

// NewPatientDataGenerator creates a new generator
func NewPatientDataGenerator(config PatientGeneratorConfig) *PatientDataGenerator {
	return &PatientDataGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Headers are the generated column names.
var Headers = []string{"marker_a", "marker_b"}

// Generate returns the rows and the group each row was drawn from. Groups
// are interleaved row by row.
func (g *PatientDataGenerator) Generate() ([][]string, []int) {
	n := len(g.config.Centers) * g.config.GroupSize
	rows := make([][]string, 0, n)
	truth := make([]int, 0, n)
	for i := 0; i < n; i++ {
		c := i % len(g.config.Centers)
		center := g.config.Centers[c]
		rows = append(rows, []string{
			formatFloat(center[0] + g.rng.NormFloat64()*g.config.Spread),
			formatFloat(center[1] + g.rng.NormFloat64()*g.config.Spread),
		})
		truth = append(truth, c)
	}
	return rows, truth
}

// CSV renders the generated cohort as a CSV document.
func (g *PatientDataGenerator) CSV() ([]byte, []int, error) {
	rows, truth := g.Generate()
	data, err := EncodeCSV(Headers, rows)
	return data, truth, err
}

// EncodeCSV writes a header and rows as CSV.
func EncodeCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(headers); err != nil {
		return nil, err
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeXLSX writes a header and rows to the first sheet of a workbook.
func EncodeXLSX(headers []string, rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	all := append([][]string{headers}, rows...)
	for i, row := range all {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return nil, err
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CategoricalCSV is a ten-row table with one two-level categorical column.
func CategoricalCSV() []byte {
	var buf bytes.Buffer
	buf.WriteString("smoker\n")
	for i := 0; i < 10; i++ {
		if i%2 == 0 {
			buf.WriteString("yes\n")
		} else {
			buf.WriteString("no\n")
		}
	}
	return buf.Bytes()
}

// IdenticalCSV is a table of n identical numeric rows.
func IdenticalCSV(n int) []byte {
	var buf bytes.Buffer
	buf.WriteString("age,bmi\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&buf, "%d,%s\n", 50, "24.5")
	}
	return buf.Bytes()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
