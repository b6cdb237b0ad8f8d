package clustering

// DendrogramNode is a node of a level-truncated merge tree.
type DendrogramNode struct {
	ID     int     `json:"id"`
	Height float64 `json:"height"`
	Size   int     `json:"size"`
	// Truncated marks a subtree collapsed into a single leaf.
	Truncated bool              `json:"truncated,omitempty"`
	Children  []*DendrogramNode `json:"children,omitempty"`
}

// Leaf reports whether the node is drawn as a leaf
func (d *DendrogramNode) Leaf() bool { return len(d.Children) == 0 }

// Depth returns the number of levels below this node
func (d *DendrogramNode) Depth() int {
	depth := 0
	for _, c := range d.Children {
		if cd := c.Depth() + 1; cd > depth {
			depth = cd
		}
	}
	return depth
}

// TruncateLevels builds the dendrogram of n rows from sorted merges,
// expanding merges at levels 0 through p with the root at level 0. Deeper
// subtrees become truncated leaves at level p+1 carrying their size. It
// returns nil for fewer than two rows.
func TruncateLevels(n int, merges []Merge, p int) *DendrogramNode {
	if n < 2 || len(merges) != n-1 {
		return nil
	}
	return buildNode(n, merges, 2*n-2, 0, p)
}

func buildNode(n int, merges []Merge, id, level, p int) *DendrogramNode {
	if id < n {
		return &DendrogramNode{ID: id, Size: 1}
	}
	m := merges[id-n]
	node := &DendrogramNode{ID: id, Height: m.Height, Size: m.Size}
	if level > p {
		node.Truncated = true
		return node
	}
	node.Children = []*DendrogramNode{
		buildNode(n, merges, m.Left, level+1, p),
		buildNode(n, merges, m.Right, level+1, p),
	}
	return node
}
