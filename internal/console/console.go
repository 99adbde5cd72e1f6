// Package console renders a call tree as an indented box-drawing
// listing, the way tree(1) draws directories.
package console

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/wtviz/wtviz/internal/calltree"
)

var moduleColor = color.New(color.FgCyan)

// Render writes the tree below the super-root. Siblings print in call
// order; the last child of a node gets the closing elbow.
func Render(w io.Writer, root *calltree.Node) {
	for _, top := range root.Children {
		renderNode(w, top, "", "", "")
	}
}

func renderNode(w io.Writer, n *calltree.Node, prefix, branch, childIndent string) {
	fmt.Fprintf(w, "%s%s%s\n", prefix+branch, formatModule(n), n.Function())
	childPrefix := prefix + childIndent
	for i, child := range n.Children {
		if i == len(n.Children)-1 {
			renderNode(w, child, childPrefix, "└── ", "    ")
		} else {
			renderNode(w, child, childPrefix, "├── ", "│   ")
		}
	}
}

func formatModule(n *calltree.Node) string {
	module := n.Module()
	if module == "" {
		return ""
	}
	return moduleColor.Sprint(module) + "!"
}
