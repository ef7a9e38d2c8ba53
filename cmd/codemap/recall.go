package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"codemap/internal/recall"
	"codemap/internal/repomap"
)

var (
	recallLayers    []string
	recallMaxTokens int
	recallRoot      string
)

var recallCmd = &cobra.Command{
	Use:   "recall <map-name> <query>",
	Short: "Retrieve the map slices most relevant to a query",
	Long: `recall loads a persisted repository map and scores its skeleton and
implementation layers against the query terms. Stale maps are rebuilt
from disk first when --root is given.`,
	Args: cobra.ExactArgs(2),
	RunE: runRecall,
}

func init() {
	recallCmd.Flags().StringSliceVar(&recallLayers, "layer", nil, "Layers to render: logic, skeleton, implementation (default all)")
	recallCmd.Flags().IntVar(&recallMaxTokens, "max-tokens", 4096, "Approximate token budget for the combined output")
	recallCmd.Flags().StringVar(&recallRoot, "root", "", "Repository root, enables rebuild when the map is stale")
	rootCmd.AddCommand(recallCmd)
}

func runRecall(cmd *cobra.Command, args []string) error {
	name, query := args[0], args[1]
	logger := newLogger()
	engine, err := newEngine(logger)
	if err != nil {
		return err
	}

	rm, fresh, err := engine.LoadFresh(name)
	if err != nil {
		return err
	}
	if !fresh {
		if recallRoot == "" {
			logger.Warn("map is stale, pass --root to rebuild", "name", name)
		} else {
			rm, err = engine.Analyze(recallRoot, repomap.AnalyzeOptions{Name: name, Persist: true})
			if err != nil {
				return fmt.Errorf("rebuilding stale map: %w", err)
			}
		}
	}

	slices := recall.Recall(rm, query, recall.Options{
		Layers:    recallLayers,
		MaxTokens: recallMaxTokens,
	})

	layers := make([]string, 0, len(slices))
	for layer := range slices {
		layers = append(layers, layer)
	}
	sort.Strings(layers)
	for _, layer := range layers {
		fmt.Fprintf(cmd.OutOrStdout(), "=== %s ===\n%s\n", layer, slices[layer])
	}
	return nil
}
