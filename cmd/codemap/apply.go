package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"codemap/internal/edit"
)

var (
	applyPatchFile string
	applyVersion   string
	applyDryRun    bool
	applyStrict    bool
	applyValidate  bool
	applyJSON      bool
)

var applyCmd = &cobra.Command{
	Use:   "apply <dir>",
	Short: "Apply a unified diff to a directory",
	Long: `apply reads a unified diff from --patch (or stdin) and applies it to
the files under the given directory. The patch text is saved beside the
directory, every touched file is backed up first, and --strict rolls the
whole batch back on the first failing hunk.`,
	Args: cobra.ExactArgs(1),
	RunE: runApply,
}

func init() {
	applyCmd.Flags().StringVar(&applyPatchFile, "patch", "", "Patch file to apply (default: read stdin)")
	applyCmd.Flags().StringVar(&applyVersion, "patch-version", "v1", "Version tag for the persisted patch file")
	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "Parse and report without writing anything")
	applyCmd.Flags().BoolVar(&applyStrict, "strict", false, "Abort and roll back on the first failing hunk")
	applyCmd.Flags().BoolVar(&applyValidate, "validate", false, "Reject hunks whose declared line counts do not match their bodies")
	applyCmd.Flags().BoolVar(&applyJSON, "json", false, "Emit the full result as JSON")
	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
	var body []byte
	var err error
	if applyPatchFile != "" {
		body, err = os.ReadFile(applyPatchFile)
	} else {
		body, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return err
	}

	pa := edit.NewPatchApplier(newLogger())
	pa.Strict = applyStrict
	pa.Validate = applyValidate

	res := pa.Apply(args[0], string(body), applyVersion, applyDryRun)
	return emitResult(cmd, res, applyJSON)
}
