package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTablePadsShortRows(t *testing.T) {
	table, err := NewTable("t.csv", []string{"a", "b", "c"}, [][]string{{"1", "2"}, {"3", "4", "5"}})
	require.NoError(t, err)

	assert.Equal(t, 2, table.NumRows())
	assert.Equal(t, 3, table.NumCols())
	assert.Equal(t, []string{"1", "2", ""}, table.Rows[0])
	assert.Equal(t, []string{"", "5"}, table.Column(2))
}

func TestNewTableRejectsLongRows(t *testing.T) {
	_, err := NewTable("t.csv", []string{"a"}, [][]string{{"1", "2"}})
	assert.Error(t, err)

	_, err = NewTable("t.csv", nil, nil)
	assert.Error(t, err)
}

func TestWithLabelsAppendsCluster(t *testing.T) {
	table, err := NewTable("t.csv", []string{"age", "sex"}, [][]string{{"40", "F"}, {"52", "M"}})
	require.NoError(t, err)

	out, err := table.WithLabels([]int{1, -1})
	require.NoError(t, err)

	assert.Equal(t, []string{"age", "sex", ClusterColumn}, out.Headers)
	assert.Equal(t, []string{"40", "F", "1"}, out.Rows[0])
	assert.Equal(t, []string{"52", "M", "-1"}, out.Rows[1])
	assert.Equal(t, []string{"age", "sex"}, table.Headers, "input must not be mutated")
	assert.Len(t, table.Rows[0], 2)
}

func TestWithLabelsOverwritesExistingCluster(t *testing.T) {
	table, err := NewTable("t.csv", []string{"Cluster", "x"}, [][]string{{"9", "1"}})
	require.NoError(t, err)

	out, err := table.WithLabels([]int{0})
	require.NoError(t, err)
	assert.Equal(t, []string{"Cluster", "x"}, out.Headers)
	assert.Equal(t, []string{"0", "1"}, out.Rows[0])
}

func TestWithLabelsLengthMismatch(t *testing.T) {
	table, err := NewTable("t.csv", []string{"x"}, [][]string{{"1"}, {"2"}})
	require.NoError(t, err)

	_, err = table.WithLabels([]int{0})
	assert.Error(t, err)
}

func TestHead(t *testing.T) {
	table, err := NewTable("t.csv", []string{"x"}, [][]string{{"1"}, {"2"}, {"3"}})
	require.NoError(t, err)

	assert.Equal(t, 2, table.Head(2).NumRows())
	assert.Equal(t, 3, table.Head(10).NumRows())
}
