package calltree

import "strings"

type (
	// Node is one call in a reconstructed tree. Children are stored in
	// call order and are never reordered. A tree is immutable once the
	// builder returns it; deriving a reduced tree copies nodes instead
	// of mutating them.
	Node struct {
		Name            string  `json:"name"`
		SelfTicks       uint64  `json:"self_ticks"`
		CumulativeTicks uint64  `json:"cumulative_ticks,omitempty"`
		Depth           int     `json:"depth"`
		Children        []*Node `json:"children,omitempty"`
	}
)

// NewRoot returns the synthetic super-root. It sits at depth -1 and owns
// every top-level call, so a trace with several depth-0 calls is still a
// single well-formed tree.
func NewRoot() *Node {
	return &Node{Depth: -1}
}

// IsRoot reports whether the node is the synthetic super-root.
func (n *Node) IsRoot() bool {
	return n.Depth == -1
}

// Module returns the module part of the qualified name, or an empty
// string if the name has no module prefix.
func (n *Node) Module() string {
	if i := strings.Index(n.Name, "!"); i >= 0 {
		return n.Name[:i]
	}
	return ""
}

// Function returns the function part of the qualified name.
func (n *Node) Function() string {
	if i := strings.Index(n.Name, "!"); i >= 0 {
		return n.Name[i+1:]
	}
	return n.Name
}

// Walk visits the tree pre-order, parents before children, siblings in
// call order. The super-root itself is visited first.
func (n *Node) Walk(visit func(*Node)) {
	visit(n)
	for _, child := range n.Children {
		child.Walk(visit)
	}
}

// Count returns the number of calls in the tree, excluding the
// super-root.
func (n *Node) Count() int {
	count := 0
	n.Walk(func(node *Node) {
		if !node.IsRoot() {
			count++
		}
	})
	return count
}
