// Package render draws the selected clustering as go-echarts pages.
package render

import (
	"bytes"
	"fmt"
	"sort"

	"patientcluster/internal/clustering"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const (
	chartWidth  = "900px"
	chartHeight = "600px"
)

// ScatterTitle is the heading of the projection plot for a method.
func ScatterTitle(method clustering.Method) string {
	return fmt.Sprintf("%s Clustering (PCA Projection)", method)
}

// DendrogramTitle is the heading of the truncated merge tree.
const DendrogramTitle = "Hierarchical Clustering Dendrogram (Truncated)"

// Scatter renders the projected rows as one series per label.
func Scatter(method clustering.Method, proj *clustering.Projection, labels []int) ([]byte, error) {
	n, _ := proj.Points.Dims()
	if len(labels) != n {
		return nil, fmt.Errorf("label count %d does not match %d projected rows", len(labels), n)
	}

	groups := make(map[int][]opts.ScatterData)
	for i, label := range labels {
		groups[label] = append(groups[label], opts.ScatterData{
			Value:      []interface{}{proj.Points.At(i, 0), proj.Points.At(i, 1)},
			SymbolSize: 10,
		})
	}
	order := make([]int, 0, len(groups))
	for label := range groups {
		order = append(order, label)
	}
	sort.Ints(order)

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: ScatterTitle(method),
			Width:     chartWidth,
			Height:    chartHeight,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    ScatterTitle(method),
			Subtitle: fmt.Sprintf("PC1 %.1f%% / PC2 %.1f%% of variance", proj.Explained[0]*100, proj.Explained[1]*100),
		}),
	)
	for _, label := range order {
		scatter.AddSeries(SeriesName(label), groups[label])
	}

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		return nil, fmt.Errorf("failed to render scatter plot: %w", err)
	}
	return buf.Bytes(), nil
}

// SeriesName names the scatter series of a label
func SeriesName(label int) string {
	if label == clustering.NoiseLabel {
		return "Noise"
	}
	return fmt.Sprintf("Cluster %d", label)
}

// Dendrogram renders a truncated merge tree as a tree chart. Leaves carry
// no label; internal nodes show their merge height.
func Dendrogram(root *clustering.DendrogramNode) ([]byte, error) {
	if root == nil {
		return nil, fmt.Errorf("no merge tree to render")
	}

	tree := charts.NewTree()
	tree.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: DendrogramTitle,
			Width:     chartWidth,
			Height:    "400px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    DendrogramTitle,
			Subtitle: fmt.Sprintf("%d rows, top %d levels", root.Size, root.Depth()),
		}),
	)
	tree.AddSeries("merges", []opts.TreeData{*treeData(root)})

	var buf bytes.Buffer
	if err := tree.Render(&buf); err != nil {
		return nil, fmt.Errorf("failed to render dendrogram: %w", err)
	}
	return buf.Bytes(), nil
}

func treeData(node *clustering.DendrogramNode) *opts.TreeData {
	data := &opts.TreeData{}
	if node.Leaf() {
		return data
	}
	data.Name = fmt.Sprintf("%.2f", node.Height)
	for _, child := range node.Children {
		data.Children = append(data.Children, treeData(child))
	}
	return data
}
