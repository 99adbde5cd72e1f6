package main

import (
	"os"
	"os/exec"
	"path/filepath"

	"github.com/alecthomas/kong"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/wtviz/wtviz/internal/calltree"
	"github.com/wtviz/wtviz/internal/console"
	"github.com/wtviz/wtviz/internal/dot"
	"github.com/wtviz/wtviz/internal/logutil"
	"github.com/wtviz/wtviz/internal/treefilter"
	"github.com/wtviz/wtviz/internal/wt"
)

type cliFlags struct {
	Input string `arg:"" help:"File with the output of the wt command (plain or .gz)." type:"existingfile"`

	Depth      int      `short:"d" default:"9"      help:"Depth level of filtering, between 1 and 9."`
	Filter     string   `short:"f" default:"medium" enum:"light,medium,high" help:"Level of default filtering: light, medium or high."`
	AddFilters []string `short:"a" name:"add-filters" help:"Additional filter substrings. Ex: -a cmp -a memcpy"`

	Output  string `short:"o" default:"." help:"Directory to write the resulting trees to."`
	Tree    string `short:"t" default:"LR" enum:"LR,TB" help:"Direction of the trees: LR (left to right) or TB (top to bottom)."`
	Console bool   `short:"c" help:"Display the resulting filtered tree in the console."`
	JSON    bool   `help:"Also write both trees as JSON."`
	NoPNG   bool   `name:"no-png" help:"Only emit DOT files, do not invoke the dot binary."`
}

func main() {
	logutil.ConfigureLogger()

	var flags cliFlags
	kong.Parse(&flags,
		kong.Name("wtviz"),
		kong.Description("Visualizes the result of the WinDbg wt command as call trees."),
	)

	// Configuration is validated before any parsing happens; an
	// out-of-range depth or unknown preset is fatal, never clamped.
	cfg, err := treefilter.NewConfig(flags.Depth, flags.Filter, flags.AddFilters)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid filter configuration")
	}

	log.Info().
		Str("input", flags.Input).
		Int("depth", flags.Depth).
		Str("preset", flags.Filter).
		Strs("extra_filters", flags.AddFilters).
		Str("direction", flags.Tree).
		Str("output", flags.Output).
		Msg("processing wt trace")

	source, err := wt.Open(flags.Input)
	if err != nil {
		log.Fatal().Err(err).Msg("can't open input")
	}
	reader := wt.NewReader(source)
	records, err := reader.ReadAll()
	if err != nil {
		source.Close()
		log.Fatal().Err(err).Str("input", flags.Input).Msg("can't read trace")
	}
	source.Close()

	full, stats := calltree.Build(records)
	reduced := treefilter.Filter(full, cfg)

	log.Info().
		Int("records", stats.Records).
		Int("noise_lines", reader.NoiseLines()).
		Int("merges", stats.Merges).
		Int("defensive_entries", stats.Defensive).
		Int("full_nodes", full.Count()).
		Int("filtered_nodes", reduced.Count()).
		Msg("trees built")

	trees := []struct {
		name string
		tree *calltree.Node
	}{
		{"full_tree", full},
		{"filtered_tree", reduced},
	}
	for _, t := range trees {
		if err := writeTree(flags, t.name, t.tree); err != nil {
			log.Fatal().Err(err).Str("tree", t.name).Msg("can't write tree")
		}
	}

	if flags.Console {
		console.Render(os.Stdout, reduced)
	}

	log.Info().Str("output", flags.Output).Msg("trees generated")
}

func writeTree(flags cliFlags, name string, tree *calltree.Node) error {
	dotPath := filepath.Join(flags.Output, name+".dot")
	f, err := os.Create(dotPath)
	if err != nil {
		return err
	}
	graph := dot.FromTree(tree, flags.Tree)
	if err := graph.Write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	if flags.JSON {
		jf, err := os.Create(filepath.Join(flags.Output, name+".json"))
		if err != nil {
			return err
		}
		if err := json.NewEncoder(jf).Encode(tree); err != nil {
			jf.Close()
			return err
		}
		if err := jf.Close(); err != nil {
			return err
		}
	}

	if flags.NoPNG {
		return nil
	}
	pngPath := filepath.Join(flags.Output, name+".png")
	cmd := exec.Command("dot", dotPath, "-T", "png", "-o", pngPath)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		log.Warn().Err(err).Str("dot", dotPath).
			Msg("dot failed, is graphviz installed and in PATH?")
	}
	return nil
}
