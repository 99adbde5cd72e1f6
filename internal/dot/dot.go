// Package dot turns a call tree into an ordered node/edge list and
// serializes it in graphviz DOT syntax. Layout and rasterization are the
// renderer's business; this package only describes the graph.
package dot

import (
	"fmt"
	"io"

	"github.com/wtviz/wtviz/internal/calltree"
)

type (
	Graph struct {
		// Direction is the graphviz rankdir, LR or TB.
		Direction string
		Nodes     []GraphNode
		Edges     []Edge
	}

	GraphNode struct {
		ID              string
		Label           string
		SelfTicks       uint64
		CumulativeTicks uint64
		FillColor       string
	}

	Edge struct {
		From string
		To   string
	}
)

// Modules are colored by order of first appearance in the tree; the
// palette wraps to grey once exhausted.
var palette = []string{
	"lightblue",
	"thistle",
	"wheat",
	"darkseagreen",
	"darksalmon",
	"papayawhip",
	"rosybrown",
	"lightcoral",
	"tan",
	"cadetblue",
	"plum",
}

const overflowColor = "grey"

// FromTree flattens a call tree into a graph description. Nodes appear
// in pre-order, edges in parent-before-child order, so two runs over the
// same tree produce byte-identical output. Recursive calls stay distinct
// nodes; nothing is merged by name.
func FromTree(root *calltree.Node, direction string) *Graph {
	if direction == "" {
		direction = "LR"
	}
	g := &Graph{Direction: direction}
	colors := make(map[string]string)

	var visit func(n *calltree.Node, parentID string)
	visit = func(n *calltree.Node, parentID string) {
		id := fmt.Sprintf("n%d", len(g.Nodes))
		g.Nodes = append(g.Nodes, GraphNode{
			ID:              id,
			Label:           n.Name,
			SelfTicks:       n.SelfTicks,
			CumulativeTicks: n.CumulativeTicks,
			FillColor:       moduleColor(colors, n.Module()),
		})
		if parentID != "" {
			g.Edges = append(g.Edges, Edge{From: parentID, To: id})
		}
		for _, child := range n.Children {
			visit(child, id)
		}
	}
	for _, top := range root.Children {
		visit(top, "")
	}
	return g
}

func moduleColor(colors map[string]string, module string) string {
	if c, ok := colors[module]; ok {
		return c
	}
	c := overflowColor
	if len(colors) < len(palette) {
		c = palette[len(colors)]
	}
	colors[module] = c
	return c
}

// Write emits the graph in DOT syntax.
func (g *Graph) Write(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "digraph tree {\n\trankdir=%s;\n", g.Direction); err != nil {
		return err
	}
	for _, n := range g.Nodes {
		label := n.Label
		if n.SelfTicks > 0 || n.CumulativeTicks > 0 {
			label = fmt.Sprintf("%s\n%d / %d", n.Label, n.SelfTicks, n.CumulativeTicks)
		}
		_, err := fmt.Fprintf(w, "\t%s [label=%q, shape=box, style=filled, fillcolor=%s];\n",
			n.ID, label, n.FillColor)
		if err != nil {
			return err
		}
	}
	for _, e := range g.Edges {
		if _, err := fmt.Fprintf(w, "\t%s -> %s;\n", e.From, e.To); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}
