package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/igusev/qlaunch/internal/types"
)

var resetIndex bool // Flag to wipe non-bookmark namespaces before rebuilding

var indexCmd = &cobra.Command{
	Use:   "index [namespace...]",
	Short: "Rebuild the search index from the catalog and preferences",
	Long: `Rebuild the search index. Without arguments every source-backed namespace
is rebuilt; otherwise only the named ones.

Namespaces: apps, shortcuts, static_shortcuts, app_shortcuts, contacts,
snippets, search_shortcuts

Examples:
  qlaunch index
  qlaunch index apps contacts
  qlaunch index --reset`,
	RunE: runIndex,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index and usage statistics",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	indexCmd.Flags().BoolVar(&resetIndex, "reset", false, "wipe the index (bookmarks are kept) before rebuilding")
	rootCmd.AddCommand(indexCmd, statusCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if resetIndex && len(args) > 0 {
		return fmt.Errorf("--reset rebuilds every namespace and takes no arguments")
	}

	namespaces := make([]types.Namespace, 0, len(args))
	for _, arg := range args {
		ns, err := types.ParseNamespace(arg)
		if err != nil {
			return err
		}
		namespaces = append(namespaces, ns)
	}

	ctx := cmd.Context()
	l, err := openLauncher(ctx)
	if err != nil {
		return err
	}
	defer l.Close()

	out := cmd.OutOrStdout()
	start := time.Now()
	switch {
	case resetIndex:
		err = l.ResetIndex(ctx)
	case len(namespaces) == 0:
		err = l.IndexAll(ctx)
	default:
		for _, ns := range namespaces {
			if err = l.IndexNamespace(ctx, ns); err != nil {
				break
			}
			printMuted(out, fmt.Sprintf("  %s: %d documents", ns, l.Status().Namespaces[ns]))
		}
	}
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	printSuccess(out, fmt.Sprintf("Indexed %d documents in %v", l.Status().Documents, time.Since(start).Round(time.Millisecond)))
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	l, err := openLauncher(cmd.Context())
	if err != nil {
		return err
	}
	defer l.Close()

	out := cmd.OutOrStdout()
	if jsonOutput {
		return outputJSON(out, l.Status())
	}

	s := l.Status()
	printLogo(out, version)
	printSection(out, "Index")
	printBullet(out, fmt.Sprintf("%d documents", s.Documents))
	for _, ns := range types.AllNamespaces {
		if n := s.Namespaces[ns]; n > 0 {
			printMuted(out, fmt.Sprintf("    %-17s %d", ns, n))
		}
	}
	if s.LastFullReindex.IsZero() {
		printBullet(out, "never fully reindexed")
	} else {
		printBullet(out, "last full reindex "+s.LastFullReindex.Format(time.RFC3339))
	}
	if s.NeedsReindex {
		printWarning(out, "index is stale, run 'qlaunch index'")
	}

	printSection(out, "Usage")
	printBullet(out, fmt.Sprintf("%d launches across %d items", s.Usages, s.TrackedItems))
	return nil
}
