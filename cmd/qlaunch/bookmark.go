package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var bookmarkCmd = &cobra.Command{
	Use:   "bookmark",
	Short: "Manage indexed web bookmarks",
}

var bookmarkAddCmd = &cobra.Command{
	Use:   "add <url> [title...]",
	Short: "Index a web page so it shows up in search",
	Example: `  qlaunch bookmark add go.dev/doc Go documentation
  qlaunch bookmark add https://pkg.go.dev`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBookmarkAdd,
}

var bookmarkRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a bookmark by id",
	Args:  cobra.ExactArgs(1),
	RunE:  runBookmarkRemove,
}

func init() {
	bookmarkCmd.AddCommand(bookmarkAddCmd, bookmarkRemoveCmd)
	rootCmd.AddCommand(bookmarkCmd)
}

func runBookmarkAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	l, err := openLauncher(ctx)
	if err != nil {
		return err
	}
	defer l.Close()

	doc, err := l.IndexWebURL(ctx, args[0], strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	printSuccess(cmd.OutOrStdout(), fmt.Sprintf("Bookmarked %s (%s)", doc.Name, doc.IntentURI))
	printMuted(cmd.OutOrStdout(), "  id: "+doc.ID)
	return nil
}

func runBookmarkRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	l, err := openLauncher(ctx)
	if err != nil {
		return err
	}
	defer l.Close()

	if err := l.RemoveFromIndex(ctx, "web_bookmarks", args[0]); err != nil {
		return err
	}
	printSuccess(cmd.OutOrStdout(), "Bookmark removed")
	return nil
}
