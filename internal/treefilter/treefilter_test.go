package treefilter

import (
	"strings"
	"testing"

	"github.com/wtviz/wtviz/internal/calltree"
	"github.com/wtviz/wtviz/internal/testutil"
	"github.com/wtviz/wtviz/internal/wt"
)

func buildTree(t *testing.T, trace string) *calltree.Node {
	t.Helper()
	records, err := wt.NewReader(strings.NewReader(trace)).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	root, _ := calltree.Build(records)
	return root
}

func TestNewConfigValidation(t *testing.T) {
	tests := []struct {
		name     string
		maxDepth int
		preset   string
		wantErr  string
	}{
		{name: "depth too small", maxDepth: 0, preset: PresetMedium, wantErr: "depth level 0 out of range [1,9]"},
		{name: "depth too large", maxDepth: 10, preset: PresetMedium, wantErr: "depth level 10 out of range [1,9]"},
		{name: "unknown preset", maxDepth: 5, preset: "extreme", wantErr: `unknown filter preset "extreme" (valid: light, medium, high)`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := NewConfig(test.maxDepth, test.preset, nil)
			if err == nil {
				t.Fatal("expected an error")
			}
			if err.Error() != test.wantErr {
				t.Fatalf("error = %q, want %q", err.Error(), test.wantErr)
			}
		})
	}

	if _, err := NewConfig(9, PresetMedium, []string{"cmp"}); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestPresetSubstrings(t *testing.T) {
	light, err := PresetSubstrings(PresetLight)
	if err != nil {
		t.Fatal(err)
	}
	medium, err := PresetSubstrings(PresetMedium)
	if err != nil {
		t.Fatal(err)
	}
	high, err := PresetSubstrings(PresetHigh)
	if err != nil {
		t.Fatal(err)
	}

	if len(light) >= len(medium) || len(medium) >= len(high) {
		t.Fatalf("preset sizes not increasing: %d, %d, %d", len(light), len(medium), len(high))
	}

	contains := func(list []string, s string) bool {
		for _, v := range list {
			if v == s {
				return true
			}
		}
		return false
	}
	// Alloc is a routine filter, present in every preset.
	for _, list := range [][]string{light, medium, high} {
		if !contains(list, "Alloc") {
			t.Fatal("Alloc missing from a preset")
		}
	}
	// Character helpers only join at medium, irrelevant ops at high.
	if contains(light, "toupper") {
		t.Fatal("toupper should not be in the light preset")
	}
	if !contains(medium, "toupper") {
		t.Fatal("toupper should be in the medium preset")
	}
	if contains(medium, "memcpy") {
		t.Fatal("memcpy should not be in the medium preset")
	}
	if !contains(high, "memcpy") {
		t.Fatal("memcpy should be in the high preset")
	}
}

func TestFilterByName(t *testing.T) {
	trace := strings.Join([]string{
		"  105     0 [  0] MyModule!myFunction",
		"    9     0 [  1]   MyModule!_RTC_CheckEsp",
		"    4     0 [  1]   ntdll!RtlAllocateHeap",
		"    2     0 [  2]     ntdll!RtlpLowFragHeapFree",
		"    3     0 [  1]   MyModule!printf",
	}, "\n")
	root := buildTree(t, trace)

	cfg, err := NewConfig(9, PresetLight, nil)
	if err != nil {
		t.Fatal(err)
	}
	got := Filter(root, cfg)

	// _RTC_CheckEsp matches no light substring and is kept;
	// RtlAllocateHeap matches Alloc (and Heap) and goes away together
	// with its whole subtree.
	want := &calltree.Node{
		Depth: -1,
		Children: []*calltree.Node{
			{
				Name:      "MyModule!myFunction",
				SelfTicks: 105,
				Depth:     0,
				Children: []*calltree.Node{
					{Name: "MyModule!_RTC_CheckEsp", SelfTicks: 9, Depth: 1},
					{Name: "MyModule!printf", SelfTicks: 3, Depth: 1},
				},
			},
		},
	}
	if diff := testutil.Diff(got, want); diff != "" {
		t.Fatalf("Result mismatch: got - want +\n%s", diff)
	}
}

func TestFilterNeverPromotesGrandchildren(t *testing.T) {
	trace := strings.Join([]string{
		"    1     0 [  0] m!keep",
		"    2     0 [  1]   ntdll!RtlAllocateHeap",
		"    3     0 [  2]     m!interesting",
	}, "\n")
	root := buildTree(t, trace)

	cfg, err := NewConfig(9, PresetLight, nil)
	if err != nil {
		t.Fatal(err)
	}
	got := Filter(root, cfg)

	// m!interesting matches nothing but its parent was pruned; subtree
	// pruning never re-parents it under m!keep.
	want := &calltree.Node{
		Depth: -1,
		Children: []*calltree.Node{
			{Name: "m!keep", SelfTicks: 1, Depth: 0},
		},
	}
	if diff := testutil.Diff(got, want); diff != "" {
		t.Fatalf("Result mismatch: got - want +\n%s", diff)
	}
}

func TestFilterDepthBound(t *testing.T) {
	trace := strings.Join([]string{
		"    1     0 [  0] m!a",
		"    2     0 [  1]   m!b",
		"    3     0 [  2]     m!c",
		"    4     0 [  0] m!x",
		"    5     0 [  1]   m!y",
		"    6     0 [  2]     m!z",
	}, "\n")
	root := buildTree(t, trace)

	cfg, err := NewConfig(1, PresetLight, nil)
	if err != nil {
		t.Fatal(err)
	}
	got := Filter(root, cfg)

	// The bound is relative to each top-level call: both roots keep one
	// level of children.
	want := &calltree.Node{
		Depth: -1,
		Children: []*calltree.Node{
			{
				Name:      "m!a",
				SelfTicks: 1,
				Depth:     0,
				Children:  []*calltree.Node{{Name: "m!b", SelfTicks: 2, Depth: 1}},
			},
			{
				Name:      "m!x",
				SelfTicks: 4,
				Depth:     0,
				Children:  []*calltree.Node{{Name: "m!y", SelfTicks: 5, Depth: 1}},
			},
		},
	}
	if diff := testutil.Diff(got, want); diff != "" {
		t.Fatalf("Result mismatch: got - want +\n%s", diff)
	}
}

func TestFilterCaseSensitive(t *testing.T) {
	trace := "    1     0 [  0] m!my_alloc_helper"
	root := buildTree(t, trace)

	cfg, err := NewConfig(9, PresetHigh, nil)
	if err != nil {
		t.Fatal(err)
	}
	got := Filter(root, cfg)
	// The preset contains "Alloc"; the lowercase name must survive.
	if len(got.Children) != 1 {
		t.Fatal("lowercase alloc helper should not match the Alloc filter")
	}
}

func TestFilterExtraSubstrings(t *testing.T) {
	trace := strings.Join([]string{
		"    1     0 [  0] m!main",
		"    2     0 [  1]   m!compare",
	}, "\n")
	root := buildTree(t, trace)

	cfg, err := NewConfig(9, PresetLight, []string{"cmp", "compare"})
	if err != nil {
		t.Fatal(err)
	}
	got := Filter(root, cfg)
	if len(got.Children[0].Children) != 0 {
		t.Fatal("user-supplied substring should prune m!compare")
	}
}

func TestFilterIdempotent(t *testing.T) {
	trace := strings.Join([]string{
		"  105     0 [  0] MyModule!myFunction",
		"    9     0 [  1]   ntdll!RtlAllocateHeap",
		"    3     0 [  1]   MyModule!printf",
		"    4     0 [  2]     MyModule!toupper",
		"    5     0 [  3]       m!deep",
	}, "\n")
	root := buildTree(t, trace)

	cfg, err := NewConfig(2, PresetMedium, nil)
	if err != nil {
		t.Fatal(err)
	}
	once := Filter(root, cfg)
	twice := Filter(once, cfg)
	if diff := testutil.Diff(twice, once); diff != "" {
		t.Fatalf("filtering is not idempotent: got - want +\n%s", diff)
	}
}

func TestFilterLeavesFullTreeUntouched(t *testing.T) {
	trace := strings.Join([]string{
		"    1     0 [  0] m!main",
		"    2     0 [  1]   ntdll!RtlAllocateHeap",
	}, "\n")
	root := buildTree(t, trace)
	before := root.Count()

	cfg, err := NewConfig(9, PresetLight, nil)
	if err != nil {
		t.Fatal(err)
	}
	_ = Filter(root, cfg)

	if root.Count() != before {
		t.Fatalf("full tree mutated: %d nodes, want %d", root.Count(), before)
	}
	if len(root.Children[0].Children) != 1 {
		t.Fatal("full tree lost a child")
	}
}
