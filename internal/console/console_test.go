package console

import (
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/wtviz/wtviz/internal/calltree"
	"github.com/wtviz/wtviz/internal/wt"
)

func TestRender(t *testing.T) {
	color.NoColor = true

	trace := strings.Join([]string{
		"  105     0 [  0] MyModule!myFunction",
		"    1     0 [  1]   MyModule!ILT+1555(_printf)",
		"    9     0 [  1]   MyModule!printf",
		"    4     0 [  2]     ntdll!memset",
		"    6     0 [  0] MyModule!second",
	}, "\n")
	records, err := wt.NewReader(strings.NewReader(trace)).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	root, _ := calltree.Build(records)

	var sb strings.Builder
	Render(&sb, root)

	want := strings.Join([]string{
		"MyModule!myFunction",
		"├── MyModule!ILT+1555(_printf)",
		"└── MyModule!printf",
		"    └── ntdll!memset",
		"MyModule!second",
		"",
	}, "\n")
	if got := sb.String(); got != want {
		t.Fatalf("unexpected rendering:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderEmptyTree(t *testing.T) {
	var sb strings.Builder
	Render(&sb, calltree.NewRoot())
	if sb.String() != "" {
		t.Fatalf("empty tree rendered %q", sb.String())
	}
}
