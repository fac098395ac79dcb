package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/igusev/qlaunch/internal/model"
)

var (
	shortcutDescription string // Flag for the shortcut's display name
	shortcutSuggestURL  string // Flag for the suggestion endpoint template
)

var shortcutCmd = &cobra.Command{
	Use:   "shortcut",
	Short: "Manage search shortcuts (alias + URL template)",
	Long: `Search shortcuts turn "<alias> <term>" into a web search. The URL template
uses %s as the placeholder for the URL-encoded term.`,
}

var shortcutListCmd = &cobra.Command{
	Use:   "list",
	Short: "List search shortcuts",
	Args:  cobra.NoArgs,
	RunE:  runShortcutList,
}

var shortcutAddCmd = &cobra.Command{
	Use:     "add <alias> <url-template>",
	Short:   "Add or replace a search shortcut",
	Example: `  qlaunch shortcut add gh "https://github.com/search?q=%s" --description GitHub`,
	Args:    cobra.ExactArgs(2),
	RunE:    runShortcutAdd,
}

var shortcutRemoveCmd = &cobra.Command{
	Use:   "remove <alias|id>",
	Short: "Remove a search shortcut",
	Args:  cobra.ExactArgs(1),
	RunE:  runShortcutRemove,
}

func init() {
	shortcutAddCmd.Flags().StringVarP(&shortcutDescription, "description", "d", "", "display name (defaults to the alias)")
	shortcutAddCmd.Flags().StringVar(&shortcutSuggestURL, "suggest-url", "", "suggestion endpoint template with %s")
	shortcutCmd.AddCommand(shortcutListCmd, shortcutAddCmd, shortcutRemoveCmd)
	rootCmd.AddCommand(shortcutCmd)
}

func runShortcutList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	l, err := openLauncher(ctx)
	if err != nil {
		return err
	}
	defer l.Close()

	list, err := l.SearchShortcuts(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return outputJSON(out, list)
	}
	if len(list) == 0 {
		printMuted(out, "No search shortcuts")
		return nil
	}
	for _, sc := range list {
		fmt.Fprintf(out, "%-4s %-16s %s\n", sc.Alias, sc.Description, urlStyle.Render(sc.URLTemplate))
	}
	return nil
}

func runShortcutAdd(cmd *cobra.Command, args []string) error {
	sc := model.SearchShortcut{
		Alias:         args[0],
		URLTemplate:   args[1],
		Description:   shortcutDescription,
		SuggestionURL: shortcutSuggestURL,
	}
	if sc.Description == "" {
		sc.Description = sc.Alias
	}
	if !strings.Contains(sc.URLTemplate, model.URLPlaceholder) {
		return fmt.Errorf("url template must contain %s", model.URLPlaceholder)
	}

	ctx := cmd.Context()
	l, err := openLauncher(ctx)
	if err != nil {
		return err
	}
	defer l.Close()

	saved, err := l.AddSearchShortcut(ctx, sc)
	if err != nil {
		return err
	}
	printSuccess(cmd.OutOrStdout(), fmt.Sprintf("Saved shortcut %q (%s)", saved.Alias, saved.ID))
	return nil
}

func runShortcutRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	l, err := openLauncher(ctx)
	if err != nil {
		return err
	}
	defer l.Close()

	removed, err := l.RemoveSearchShortcut(ctx, args[0])
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("no search shortcut %q", args[0])
	}
	printSuccess(cmd.OutOrStdout(), fmt.Sprintf("Removed shortcut %q", args[0]))
	return nil
}
