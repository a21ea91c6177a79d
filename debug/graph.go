// Package debug holds the offline diagnostics an engine this size
// accumulates: a DOT export of the live search tree. Grounded on the
// teacher's own go.mod declaring github.com/awalterschulze/gographviz
// as a dependency (no pack example exercises it; this package wires it
// through its documented graph-builder API).
package debug

import (
	"fmt"
	"sort"

	"github.com/awalterschulze/gographviz"

	"github.com/nnzero/alphabeth/mcts"
)

// GraphOptions bounds how much of the tree TreeGraph renders.
type GraphOptions struct {
	// TopK caps how many children of each expanded node are drawn,
	// keeping the export readable for a node with hundreds of children.
	TopK int
	// MaxDepth caps how many plies below root are walked.
	MaxDepth int
}

// DefaultGraphOptions matches what a human skimming a dot render wants:
// the handful of most-visited lines, not the whole tree.
func DefaultGraphOptions() GraphOptions {
	return GraphOptions{TopK: 5, MaxDepth: 4}
}

// TreeGraph renders root's search tree (restricted to the top-K most
// visited children at each level, down to MaxDepth) as a Graphviz DOT
// string.
func TreeGraph(root *mcts.Node, opts GraphOptions) (string, error) {
	g := gographviz.NewGraph()
	if err := g.SetName("search"); err != nil {
		return "", err
	}
	if err := g.SetDir(true); err != nil {
		return "", err
	}

	rootID := "n0"
	if err := g.AddNode("search", rootID, nodeAttrs(root, "root")); err != nil {
		return "", err
	}

	walk(g, root, rootID, 0, opts)
	return g.String(), nil
}

func walk(g *gographviz.Graph, n *mcts.Node, id string, depth int, opts GraphOptions) {
	if depth >= opts.MaxDepth || !n.HasChildren() {
		return
	}
	children := topKByVisits(n.Children(), opts.TopK)
	for i, c := range children {
		childID := fmt.Sprintf("%s_%d", id, i)
		_ = g.AddNode("search", childID, nodeAttrs(c, c.Move()))
		_ = g.AddEdge(id, childID, true, map[string]string{
			"label": fmt.Sprintf("%.3f", c.Prior()),
		})
		walk(g, c, childID, depth+1, opts)
	}
}

func nodeAttrs(n *mcts.Node, label string) map[string]string {
	return map[string]string{
		"label": fmt.Sprintf("\"%s\\nvisits=%d prior=%.3f\"", label, n.Visits(), n.Prior()),
		"shape": "box",
	}
}

func topKByVisits(children []*mcts.Node, k int) []*mcts.Node {
	sorted := make([]*mcts.Node, len(children))
	copy(sorted, children)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Visits() > sorted[j].Visits() })
	if k > 0 && len(sorted) > k {
		sorted = sorted[:k]
	}
	return sorted
}
