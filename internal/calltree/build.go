package calltree

import "github.com/wtviz/wtviz/internal/wt"

type (
	// Stats counts the decisions the builder made while reconstructing
	// the tree. Merges is the number of return records folded into an
	// already open node; Defensive is the number of return records that
	// had no matching open node and were treated as fresh entries. A
	// non-zero Defensive count usually means the trace was truncated or
	// interleaved.
	Stats struct {
		Records   int `json:"records"`
		Merges    int `json:"merges"`
		Defensive int `json:"defensive"`
	}

	openNode struct {
		node *Node
		// recordDepth is the depth declared on the trace line, which can
		// jump by more than one level between adjacent lines. The node's
		// own Depth is structural and always parent.Depth+1.
		recordDepth int
	}
)

// Build reconstructs the call tree from an ordered record stream. It is
// deterministic: identical input produces an identical tree. An empty
// stream yields the bare super-root.
//
// The builder keeps a stack of open nodes indexed by record depth. A
// node is closed once a record at its own depth or shallower appears
// after it; closing stops adding children to it but never discards it.
// Return records finalize the open node at their depth instead of
// inserting a sibling duplicate.
func Build(records []wt.CallRecord) (*Node, Stats) {
	root := NewRoot()
	stack := []openNode{{node: root, recordDepth: -1}}
	var stats Stats

	for _, rec := range records {
		stats.Records++

		// Close anything strictly deeper than the current record.
		for len(stack) > 1 && stack[len(stack)-1].recordDepth > rec.Depth {
			stack = stack[:len(stack)-1]
		}

		top := stack[len(stack)-1]
		if top.recordDepth == rec.Depth {
			if rec.Kind == wt.Return && top.node.Name == rec.QualifiedName {
				// The closing measurement of the call opened by the
				// previous record at this depth. Self ticks stay from the
				// entry line.
				top.node.CumulativeTicks = rec.CumulativeTicks
				stats.Merges++
				continue
			}
			if rec.Kind == wt.Return {
				stats.Defensive++
			}
			// A sibling at the same depth closes the previous one.
			stack = stack[:len(stack)-1]
		} else if rec.Kind == wt.Return {
			stats.Defensive++
		}

		parent := stack[len(stack)-1].node
		node := &Node{
			Name:            rec.QualifiedName,
			SelfTicks:       rec.SelfTicks,
			CumulativeTicks: rec.CumulativeTicks,
			Depth:           parent.Depth + 1,
		}
		parent.Children = append(parent.Children, node)
		stack = append(stack, openNode{node: node, recordDepth: rec.Depth})
	}

	return root, stats
}
