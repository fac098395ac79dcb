package main

import (
	"github.com/spf13/cobra"
)

var findCmd = &cobra.Command{
	Use:   "find [query...]",
	Short: "Search without the interactive box (alias for direct search)",
	Long: `Search the index and print ranked results.
If no query is provided, recent items are listed.

This command is an alias for the direct search: 'qlaunch <query>'
You can use either 'qlaunch find maps' or just 'qlaunch maps'

Examples:
  qlaunch find maps
  qlaunch find w golang generics
  qlaunch find call 112`,
	RunE: runFind,
}

func init() {
	rootCmd.AddCommand(findCmd)
}

// runFind never opens the TUI, even for an empty query
func runFind(cmd *cobra.Command, args []string) error {
	return search(cmd, args, false)
}
