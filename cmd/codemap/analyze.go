package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"codemap/internal/render"
	"codemap/internal/repomap"
)

var (
	analyzeName        string
	analyzeInclude     []string
	analyzeIgnore      []string
	analyzeLanguages   []string
	analyzeMentions    []string
	analyzeMaxFileSize int64
	analyzeSave        bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Build a repository map and print its overview",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeName, "name", "", "Map name (default: base name of the path)")
	analyzeCmd.Flags().StringSliceVar(&analyzeInclude, "include", nil, "Glob patterns of files to include")
	analyzeCmd.Flags().StringSliceVar(&analyzeIgnore, "ignore", nil, "Glob patterns of files to skip")
	analyzeCmd.Flags().StringSliceVar(&analyzeLanguages, "lang", nil, "Restrict parsing to these languages")
	analyzeCmd.Flags().StringSliceVar(&analyzeMentions, "mention", nil, "Terms that boost the rank of files defining them")
	analyzeCmd.Flags().Int64Var(&analyzeMaxFileSize, "max-file-size", 0, "Skip files larger than this many bytes")
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", false, "Persist the map to the work directory")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	logger := newLogger()
	engine, err := newEngine(logger)
	if err != nil {
		return err
	}

	rm, err := engine.Analyze(root, repomap.AnalyzeOptions{
		Name:        analyzeName,
		Include:     analyzeInclude,
		Ignore:      analyzeIgnore,
		Languages:   analyzeLanguages,
		Mentions:    analyzeMentions,
		MaxFileSize: analyzeMaxFileSize,
		Persist:     analyzeSave,
	})
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), render.Overview(rm))
	return nil
}
