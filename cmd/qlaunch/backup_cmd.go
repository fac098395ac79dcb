package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export or import snippets, search shortcuts and favorites",
}

var backupExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write a JSON backup to file (stdout when omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBackupExport,
}

var backupImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Restore a JSON backup; '-' reads stdin",
	Args:  cobra.ExactArgs(1),
	RunE:  runBackupImport,
}

func init() {
	backupCmd.AddCommand(backupExportCmd, backupImportCmd)
	rootCmd.AddCommand(backupCmd)
}

func runBackupExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	l, err := openLauncher(ctx)
	if err != nil {
		return err
	}
	defer l.Close()

	if len(args) == 0 {
		_, err := l.ExportBackup(ctx, cmd.OutOrStdout())
		return err
	}

	// Write next to the target and rename so a failed export never truncates an old backup
	path := args[0]
	tmp, err := os.CreateTemp(filepath.Dir(path), ".qlaunch-backup-*.json")
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer os.Remove(tmp.Name())

	file, err := l.ExportBackup(ctx, tmp)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}

	printSuccess(cmd.OutOrStdout(), fmt.Sprintf("Exported %d snippets, %d search shortcuts, %d favorites to %s",
		len(file.Snippets), len(file.SearchShortcuts), len(file.Favorites), path))
	return nil
}

func runBackupImport(cmd *cobra.Command, args []string) error {
	var r io.Reader
	if args[0] == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open backup: %w", err)
		}
		defer f.Close()
		r = f
	}

	ctx := cmd.Context()
	l, err := openLauncher(ctx)
	if err != nil {
		return err
	}
	defer l.Close()

	report, err := l.ImportBackup(ctx, r)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	out := cmd.OutOrStdout()
	printSuccess(out, fmt.Sprintf("Imported version %d backup: %d snippets, %d search shortcuts, %d favorites",
		report.Version, report.Snippets, report.SearchShortcuts, report.Favorites))
	if report.Skipped > 0 {
		printMuted(out, fmt.Sprintf("  skipped %d invalid entries", report.Skipped))
	}

	sections := make([]string, 0, len(report.Errors))
	for section := range report.Errors {
		sections = append(sections, section)
	}
	sort.Strings(sections)
	for _, section := range sections {
		printWarning(out, fmt.Sprintf("%s: %v", section, report.Errors[section]))
	}
	return nil
}
