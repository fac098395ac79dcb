package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/igusev/qlaunch/internal/config"
	"github.com/igusev/qlaunch/internal/history"
	"github.com/igusev/qlaunch/internal/launcher"
	"github.com/igusev/qlaunch/internal/logger"
	"github.com/igusev/qlaunch/internal/model"
	"github.com/igusev/qlaunch/internal/server"
	"github.com/igusev/qlaunch/internal/tui"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"     // Version from git tag or "dev"
	commit    = "unknown" // Git commit hash (used in version output)
	buildTime = "unknown" // Build timestamp (used in version output)
)

// Platform constants for runtime.GOOS
const (
	platformDarwin  = "darwin"
	platformLinux   = "linux"
	platformWindows = "windows"
)

var (
	verbose    bool // Flag to enable verbose logging
	showScores bool // Flag to show ranking scores
	autoGo     bool // Flag to launch the first result
	jsonOutput bool // Flag to print results as JSON
	limit      int  // Flag to cap the number of results
)

var rootCmd = &cobra.Command{
	Use:   "qlaunch [flags] [query...]",
	Short: "Search-first launcher for apps, contacts, shortcuts and snippets",
	Long: `qlaunch searches your apps, contacts, shortcuts, bookmarks and snippets
from a local index and launches the result.

Getting Started:
  1. Run: qlaunch config (writes ~/.config/qlaunch/config.yaml)
  2. Put apps.yaml, contacts.yaml, ... into the catalog directory
  3. Run: qlaunch index
  4. Run: qlaunch (interactive mode) or qlaunch <query> (direct search)

Examples:
  qlaunch                   # Interactive search box
  qlaunch maps              # Direct search for "maps"
  qlaunch w golang generics # Wikipedia search shortcut
  qlaunch 0612345678        # Call/SMS actions plus matching contacts
  qlaunch -g spotify        # Launch the first result
  qlaunch --json mail       # Machine-readable results

Configuration:
  ~/.config/qlaunch/config.yaml or environment variables:
    QLAUNCH_DATA_DIR=/tmp/qlaunch
    QLAUNCH_SEARCH_DEFAULT_LIMIT=10`,
	RunE: runSearch,
	// Accept any number of arguments as search query
	Args: cobra.ArbitraryArgs,
	// Don't suggest commands when args don't match subcommands
	SuggestionsMinimumDistance: 2,
}

// openLauncher loads the configuration and opens a hydrated launcher.
// Usage is recorded synchronously so it survives the process exiting.
func openLauncher(ctx context.Context) (*launcher.Launcher, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	l, err := launcher.Open(cfg, launcher.WithUsageDispatcher(history.Sync))
	if err != nil {
		return nil, err
	}
	if err := l.Hydrate(ctx); err != nil {
		logger.Debug("Hydration incomplete: %v", err)
	}
	return l, nil
}

// runSearch handles the default search behavior
func runSearch(cmd *cobra.Command, args []string) error {
	return search(cmd, args, true)
}

// search prints ranked results for args, or recent items for an empty query.
// With interactive set, an empty query opens the TUI instead.
func search(cmd *cobra.Command, args []string, interactive bool) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Join all args to support multi-word queries: "qlaunch w golang generics"
	query := strings.TrimSpace(strings.Join(args, " "))
	if autoGo && query == "" {
		return fmt.Errorf("-g/--go requires a search query")
	}

	l, err := openLauncher(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := l.Close(); err != nil {
			logger.Debug("Failed to close launcher: %v", err)
		}
	}()

	n := limit
	if n <= 0 {
		n = l.Config().Search.DefaultLimit
	}

	if query == "" && interactive && !jsonOutput {
		return runInteractive(ctx, l, n)
	}

	// First run or stale index: reindex before answering
	if ran, err := l.Refresh(ctx); err != nil {
		logger.Warn("Reindex failed: %v", err)
	} else if ran {
		logger.Debug("Index refreshed before search")
	}

	var results []model.SearchResult
	if query == "" {
		results = l.RecentItems(ctx, n, nil)
	} else {
		results = l.Search(ctx, query, n)
	}

	if autoGo {
		return runAutoGo(cmd.OutOrStdout(), l, query, results)
	}
	if jsonOutput {
		return outputJSON(cmd.OutOrStdout(), map[string]any{
			"query":   query,
			"results": server.Views(results),
		})
	}
	printResults(cmd.OutOrStdout(), results, showScores)
	return nil
}

// runAutoGo launches the first result and prints its target
func runAutoGo(w io.Writer, l *launcher.Launcher, query string, results []model.SearchResult) error {
	if len(results) == 0 {
		return fmt.Errorf("nothing found for query: %s", query)
	}

	first := results[0]
	b := first.Common()
	l.ReportUsage(b.Namespace, b.ID, query, true)

	target := model.LaunchTarget(first)
	if isOpenable(target) {
		logger.Debug("Opening %s", target)
		if err := openBrowser(target); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to open: %v\n", err)
		}
	}
	fmt.Fprintln(w, target)
	return nil
}

// printResults prints one line per result, scores optional
func printResults(w io.Writer, results []model.SearchResult, scores bool) {
	if len(results) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No results"))
		return
	}
	for _, r := range results {
		line := model.DisplayString(r)
		if scores {
			line = fmt.Sprintf("%s %s", line, mutedStyle.Render(fmt.Sprintf("[%d]", r.Common().RankingScore)))
		}
		fmt.Fprintf(w, "%s\n    %s\n", line, urlStyle.Render(model.LaunchTarget(r)))
	}
}

// outputJSON writes v as indented JSON
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// isOpenable reports whether target is something the desktop opener understands
func isOpenable(target string) bool {
	for _, prefix := range []string{"http://", "https://", "mailto:", "tel:", "sms:"} {
		if strings.HasPrefix(target, prefix) {
			return true
		}
	}
	return false
}

// openBrowser opens the given URL with the platform opener
func openBrowser(url string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var cmd *exec.Cmd

	switch runtime.GOOS {
	case platformDarwin:
		cmd = exec.CommandContext(ctx, "open", url)
	case platformLinux:
		cmd = exec.CommandContext(ctx, "xdg-open", url)
	case platformWindows:
		// Empty string before URL is important: start interprets first quoted arg as window title
		cmd = exec.CommandContext(ctx, "cmd", "/c", "start", "", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Run()
}

// runInteractive launches the TUI; the picked result's target goes to stdout
func runInteractive(ctx context.Context, l *launcher.Launcher, n int) error {
	refresh := func() tea.Cmd {
		return func() tea.Msg {
			err := l.IndexAll(ctx)
			return tui.RefreshCompleteMsg{Err: err, Documents: l.Status().Documents}
		}
	}

	status := l.Status()
	m := tui.New(l, tui.Options{
		Limit:       n,
		Documents:   status.Documents,
		ShowScores:  showScores,
		AutoRefresh: status.NeedsReindex,
		Version:     version,
		OnRefresh:   refresh,
	})
	p := tea.NewProgram(m, tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	if final, ok := finalModel.(tui.Model); ok {
		if selected := final.Selected(); selected != nil {
			target := model.LaunchTarget(selected)
			if isOpenable(target) {
				if err := openBrowser(target); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to open: %v\n", err)
				}
			}
			fmt.Println(target)
		}
	}
	return nil
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&showScores, "scores", false, "show ranking scores")
	rootCmd.Flags().BoolVarP(&autoGo, "go", "g", false, "launch the first result")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
	rootCmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of results (default from config)")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		logger.SetVerbose(verbose)
		logger.Debug("Verbose mode enabled")
	}
}

func main() {
	// Enable interspersed flags (flags can appear anywhere in the command line)
	rootCmd.Flags().SetInterspersed(true)

	if err := rootCmd.Execute(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}
