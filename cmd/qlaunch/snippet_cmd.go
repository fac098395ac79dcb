package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/igusev/qlaunch/internal/model"
)

var snippetCmd = &cobra.Command{
	Use:   "snippet",
	Short: "Manage text snippets (alias + content)",
}

var snippetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List snippets",
	Args:  cobra.NoArgs,
	RunE:  runSnippetList,
}

var snippetAddCmd = &cobra.Command{
	Use:   "add <alias> [content...]",
	Short: "Add or replace a snippet; content is read from stdin when omitted",
	Example: `  qlaunch snippet add sig "Kind regards, Jane"
  qlaunch snippet add readme < README.md`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSnippetAdd,
}

var snippetRemoveCmd = &cobra.Command{
	Use:   "remove <alias>",
	Short: "Remove a snippet",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnippetRemove,
}

func init() {
	snippetCmd.AddCommand(snippetListCmd, snippetAddCmd, snippetRemoveCmd)
	rootCmd.AddCommand(snippetCmd)
}

func runSnippetList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	l, err := openLauncher(ctx)
	if err != nil {
		return err
	}
	defer l.Close()

	list, err := l.Snippets(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return outputJSON(out, list)
	}
	if len(list) == 0 {
		printMuted(out, "No snippets")
		return nil
	}
	for _, sn := range list {
		fmt.Fprintf(out, "%-12s %s\n", sn.Alias, mutedStyle.Render(firstLine(sn.Content, 60)))
	}
	return nil
}

func runSnippetAdd(cmd *cobra.Command, args []string) error {
	content := strings.Join(args[1:], " ")
	if len(args) == 1 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read snippet content: %w", err)
		}
		content = strings.TrimRight(string(data), "\n")
	}
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("snippet content is empty")
	}

	ctx := cmd.Context()
	l, err := openLauncher(ctx)
	if err != nil {
		return err
	}
	defer l.Close()

	if err := l.AddSnippet(ctx, model.Snippet{Alias: args[0], Content: content}); err != nil {
		return err
	}
	printSuccess(cmd.OutOrStdout(), fmt.Sprintf("Saved snippet %q", args[0]))
	return nil
}

func runSnippetRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	l, err := openLauncher(ctx)
	if err != nil {
		return err
	}
	defer l.Close()

	removed, err := l.RemoveSnippet(ctx, args[0])
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("no snippet %q", args[0])
	}
	printSuccess(cmd.OutOrStdout(), fmt.Sprintf("Removed snippet %q", args[0]))
	return nil
}

// firstLine returns the first line of s, cut to max runes
func firstLine(s string, max int) string {
	line, _, more := strings.Cut(s, "\n")
	runes := []rune(line)
	if len(runes) > max {
		return string(runes[:max]) + "..."
	}
	if more {
		return line + " ..."
	}
	return line
}
