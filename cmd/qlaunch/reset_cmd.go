package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetAll bool // Flag to wipe bookmarks, usage data and preferences too

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Wipe the index and rebuild it",
	Long: `Wipe every namespace except web bookmarks and rebuild from the catalog.

With --all, bookmarks, usage statistics, search shortcuts, snippets and
favorites are deleted as well and nothing is rebuilt.`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVar(&resetAll, "all", false, "delete all launcher data, bookmarks and preferences included")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	l, err := openLauncher(ctx)
	if err != nil {
		return err
	}
	defer l.Close()

	out := cmd.OutOrStdout()
	if resetAll {
		if err := l.ResetAppData(ctx); err != nil {
			return fmt.Errorf("reset failed: %w", err)
		}
		printSuccess(out, "All launcher data deleted")
		return nil
	}

	if err := l.ResetIndex(ctx); err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}
	printSuccess(out, fmt.Sprintf("Index rebuilt: %d documents", l.Status().Documents))
	return nil
}
