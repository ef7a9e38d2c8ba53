package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"codemap/internal/edit"
)

var (
	editSearchFile    string
	editReplaceFile   string
	editIndentNorm    bool
	editSimilarity    bool
	editSimilarityMin float64
	editResultAsJSON  bool
)

var editCmd = &cobra.Command{
	Use:   "edit <file>",
	Short: "Replace a block of text in a file",
	Long: `edit reads a search block and a replacement block and rewrites the
target file. Matching tries exact lines first, then substring; the
indent-normalized and similarity strategies are opt-in.`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	editCmd.Flags().StringVar(&editSearchFile, "search", "", "File holding the search block (required)")
	editCmd.Flags().StringVar(&editReplaceFile, "replace", "", "File holding the replacement block (required)")
	editCmd.Flags().BoolVar(&editIndentNorm, "indent-normalized", false, "Also try matching with common indentation stripped")
	editCmd.Flags().BoolVar(&editSimilarity, "similarity", false, "Also try fuzzy window matching")
	editCmd.Flags().Float64Var(&editSimilarityMin, "similarity-threshold", 0, "Minimum fuzzy match ratio (default 0.8)")
	editCmd.Flags().BoolVar(&editResultAsJSON, "json", false, "Emit the full result as JSON")
	editCmd.MarkFlagRequired("search")
	editCmd.MarkFlagRequired("replace")
	rootCmd.AddCommand(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	search, err := os.ReadFile(editSearchFile)
	if err != nil {
		return err
	}
	replace, err := os.ReadFile(editReplaceFile)
	if err != nil {
		return err
	}

	sr := edit.NewSearchReplacer(newLogger())
	sr.IndentNormalized = editIndentNorm
	sr.Similarity = editSimilarity
	sr.SimilarityThreshold = editSimilarityMin

	res := sr.ReplaceInFile(args[0], string(search), string(replace))
	return emitResult(cmd, res, editResultAsJSON)
}

func emitResult(cmd *cobra.Command, res edit.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else if res.Success {
		fmt.Fprintf(cmd.OutOrStdout(), "ok (modified=%v)\n", res.Modified)
	}
	if !res.Success {
		return fmt.Errorf("%s", res.Err)
	}
	return nil
}
