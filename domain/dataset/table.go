package dataset

import (
	"fmt"
)

// ClusterColumn is the name of the column holding the selected labels.
const ClusterColumn = "Cluster"

// ColumnKind classifies a raw column for encoding.
type ColumnKind string

const (
	KindNumeric     ColumnKind = "numeric"
	KindBoolean     ColumnKind = "boolean"
	KindCategorical ColumnKind = "categorical"
)

// Table is an uploaded dataset: a header row plus rows of raw cells.
// Every row has exactly len(Headers) cells.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]string
}

// NewTable builds a table, padding short rows with empty (missing) cells.
// A row with more cells than the header is rejected.
func NewTable(name string, headers []string, rows [][]string) (*Table, error) {
	if len(headers) == 0 {
		return nil, fmt.Errorf("table has no columns")
	}

	normalized := make([][]string, len(rows))
	for i, row := range rows {
		if len(row) > len(headers) {
			return nil, fmt.Errorf("row %d has %d fields, header has %d", i+1, len(row), len(headers))
		}
		cells := make([]string, len(headers))
		copy(cells, row)
		normalized[i] = cells
	}

	return &Table{
		Name:    name,
		Headers: append([]string(nil), headers...),
		Rows:    normalized,
	}, nil
}

// NumRows returns the number of data rows
func (t *Table) NumRows() int { return len(t.Rows) }

// NumCols returns the number of columns
func (t *Table) NumCols() int { return len(t.Headers) }

// Column returns the cells of column j in row order.
func (t *Table) Column(j int) []string {
	values := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[j]
	}
	return values
}

// ColumnIndex returns the index of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for j, header := range t.Headers {
		if header == name {
			return j
		}
	}
	return -1
}

// Head returns a table with the first n rows. The rows are shared.
func (t *Table) Head(n int) *Table {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	if n < 0 {
		n = 0
	}
	return &Table{Name: t.Name, Headers: t.Headers, Rows: t.Rows[:n]}
}

// WithLabels returns a copy of the table with labels in the Cluster column.
// An existing Cluster column is overwritten in place; otherwise the column
// is appended.
func (t *Table) WithLabels(labels []int) (*Table, error) {
	if len(labels) != len(t.Rows) {
		return nil, fmt.Errorf("label count %d does not match row count %d", len(labels), len(t.Rows))
	}

	target := t.ColumnIndex(ClusterColumn)
	headers := append([]string(nil), t.Headers...)
	if target < 0 {
		headers = append(headers, ClusterColumn)
		target = len(headers) - 1
	}

	rows := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		cells := make([]string, len(headers))
		copy(cells, row)
		cells[target] = fmt.Sprintf("%d", labels[i])
		rows[i] = cells
	}

	return &Table{Name: t.Name, Headers: headers, Rows: rows}, nil
}
