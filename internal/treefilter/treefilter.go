// Package treefilter derives a reduced call tree by pruning subtrees
// whose qualified name matches a configured substring, or which sit
// deeper than the configured depth bound.
package treefilter

import (
	"fmt"
	"strings"

	"github.com/wtviz/wtviz/internal/calltree"
)

const (
	PresetLight  = "light"
	PresetMedium = "medium"
	PresetHigh   = "high"

	MinDepth = 1
	MaxDepth = 9
)

// The preset lists are plain data so tests and callers can inspect
// them. Order matters only for display; matching any one substring is
// sufficient to exclude a node.
var (
	routineFilters = []string{
		"CriticalSection",
		"security_check",
		"Alloc",
		"Heap",
		"free",
		"operator",
		"LockExclusive",
	}
	errorFilters = []string{"Error", "mkstr"}
	charFilters  = []string{"toupper", "tolower", "Unicode", "towlower", "towupper"}
	irrelevantOps = []string{
		"memcpy",
		"memmove",
		"memset",
		"Close",
		"Rtlp",
		"Language",
		"initterm",
		"Fls",
	}
)

// PresetSubstrings returns the ordered substring list for a named
// preset, or an error for an unknown name.
func PresetSubstrings(preset string) ([]string, error) {
	switch preset {
	case PresetLight:
		return concat(routineFilters, errorFilters), nil
	case PresetMedium:
		return concat(routineFilters, errorFilters, charFilters), nil
	case PresetHigh:
		return concat(routineFilters, errorFilters, charFilters, irrelevantOps), nil
	default:
		return nil, fmt.Errorf("unknown filter preset %q (valid: light, medium, high)", preset)
	}
}

func concat(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

type (
	// Config is built once per run and read-only thereafter.
	Config struct {
		// MaxDepth is the number of nested levels to keep below each
		// top-level call, in [1,9].
		MaxDepth int
		// Substrings are matched case-sensitively against the full
		// qualified name.
		Substrings []string
	}
)

// NewConfig validates and assembles a filter configuration from a depth
// bound, a preset name and user-supplied extra substrings. Validation
// happens before any parsing: an out-of-range depth is an error, never
// silently clamped.
func NewConfig(maxDepth int, preset string, extra []string) (Config, error) {
	if maxDepth < MinDepth || maxDepth > MaxDepth {
		return Config{}, fmt.Errorf("depth level %d out of range [%d,%d]", maxDepth, MinDepth, MaxDepth)
	}
	substrings, err := PresetSubstrings(preset)
	if err != nil {
		return Config{}, err
	}
	return Config{
		MaxDepth:   maxDepth,
		Substrings: append(substrings, extra...),
	}, nil
}

// Excludes reports whether a qualified name matches any configured
// substring.
func (cfg Config) Excludes(qualifiedName string) bool {
	for _, s := range cfg.Substrings {
		if strings.Contains(qualifiedName, s) {
			return true
		}
	}
	return false
}

// Filter produces the reduced tree. The full tree is left untouched;
// every kept node is copied. Pruning removes whole subtrees: children of
// an excluded node are never promoted to the grandparent, and are never
// even visited. Depth is evaluated relative to each top-level call, so
// it resets to zero for every child of the super-root. Filtering is
// idempotent for a fixed configuration.
func Filter(root *calltree.Node, cfg Config) *calltree.Node {
	out := calltree.NewRoot()
	for _, top := range root.Children {
		if kept := filterNode(top, 0, cfg); kept != nil {
			out.Children = append(out.Children, kept)
		}
	}
	return out
}

func filterNode(n *calltree.Node, relDepth int, cfg Config) *calltree.Node {
	if relDepth > cfg.MaxDepth || cfg.Excludes(n.Name) {
		return nil
	}
	kept := &calltree.Node{
		Name:            n.Name,
		SelfTicks:       n.SelfTicks,
		CumulativeTicks: n.CumulativeTicks,
		Depth:           n.Depth,
	}
	for _, child := range n.Children {
		if c := filterNode(child, relDepth+1, cfg); c != nil {
			kept.Children = append(kept.Children, c)
		}
	}
	return kept
}
