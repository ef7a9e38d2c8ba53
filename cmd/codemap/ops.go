package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"codemap/internal/edit"
)

var (
	opsFile   string
	opsDryRun bool
	opsStrict bool
	opsJSON   bool
)

var opsCmd = &cobra.Command{
	Use:   "ops <dir>",
	Short: "Apply a JSON batch of line operations to a directory",
	Long: `ops reads an operation list (insert/replace/delete with line numbers)
from --file or stdin, converts it into a unified diff, and applies it
through the same backed-up write path as apply.`,
	Args: cobra.ExactArgs(1),
	RunE: runOps,
}

func init() {
	opsCmd.Flags().StringVar(&opsFile, "file", "", "Operation list JSON (default: read stdin)")
	opsCmd.Flags().BoolVar(&opsDryRun, "dry-run", false, "Render the diff without writing anything")
	opsCmd.Flags().BoolVar(&opsStrict, "strict", false, "Abort and roll back on the first failure")
	opsCmd.Flags().BoolVar(&opsJSON, "json", false, "Emit the full result as JSON")
	rootCmd.AddCommand(opsCmd)
}

func runOps(cmd *cobra.Command, args []string) error {
	var body []byte
	var err error
	if opsFile != "" {
		body, err = os.ReadFile(opsFile)
	} else {
		body, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return err
	}

	list, err := edit.ParseOperationList(body)
	if err != nil {
		return err
	}

	logger := newLogger()
	pa := edit.NewPatchApplier(logger)
	pa.Strict = opsStrict
	editor := edit.NewOpsEditor(pa, logger)

	res := editor.Apply(args[0], list, opsDryRun)
	return emitResult(cmd, res, opsJSON)
}
