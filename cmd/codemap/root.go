package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"codemap/internal/lang"
	"codemap/internal/repomap"
)

const version = "0.3.0"

var (
	workDirFlag string
	rulesFlag   string
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "codemap",
	Short: "Code intelligence and safe editing for source trees",
	Long: `codemap parses a repository with tree-sitter grammars, ranks files by
dependency importance, and serves layered views of the result. Its edit
commands apply search/replace blocks, unified diffs, and line operation
batches with validation and rollback.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("codemap version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&workDirFlag, "work-dir", ".codemap", "Directory for persisted maps and artifacts")
	rootCmd.PersistentFlags().StringVar(&rulesFlag, "rules", "", "Directory of per-language capture rule overrides ({lang}.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verboseFlag {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func newEngine(logger *slog.Logger) (*repomap.Engine, error) {
	reg := lang.NewRegistry()
	if rulesFlag != "" {
		if err := reg.LoadRules(rulesFlag); err != nil {
			return nil, err
		}
	}
	return repomap.New(workDirFlag, reg, logger), nil
}
