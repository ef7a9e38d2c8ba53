package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"codemap/internal/snapshot"
)

var (
	snapshotVersion string
	snapshotRestore string
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <dir>",
	Short: "Archive a directory, or restore it from an earlier archive",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshot,
}

func init() {
	snapshotCmd.Flags().StringVar(&snapshotVersion, "version", "v1", "Version tag for the archive name")
	snapshotCmd.Flags().StringVar(&snapshotRestore, "restore", "", "Restore the directory from this archive instead of creating one")
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	if snapshotRestore != "" {
		if err := snapshot.Restore(snapshotRestore, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "restored %s from %s\n", args[0], snapshotRestore)
		return nil
	}
	path, err := snapshot.Create(args[0], snapshotVersion)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
