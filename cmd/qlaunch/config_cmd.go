package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/igusev/qlaunch/internal/config"
)

var writeExample bool // Flag to write config.yaml.example instead of running the wizard

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configure data and catalog locations",
	Long: `Interactive configuration wizard for the data directory, the catalog
directory, the result limit and the HTTP listen address.
Creates or updates the configuration file at ~/.config/qlaunch/config.yaml`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

var excludeCmd = &cobra.Command{
	Use:   "exclude",
	Short: "Manage packages that are never indexed",
}

var excludeAddCmd = &cobra.Command{
	Use:     "add <pattern>",
	Short:   "Exclude packages matching a glob pattern",
	Example: `  qlaunch config exclude add "com.vendor.*"`,
	Args:    cobra.ExactArgs(1),
	RunE:    runExcludeAdd,
}

var excludeRemoveCmd = &cobra.Command{
	Use:   "remove <pattern>",
	Short: "Remove an exclusion pattern",
	Args:  cobra.ExactArgs(1),
	RunE:  runExcludeRemove,
}

func init() {
	configCmd.Flags().BoolVar(&writeExample, "example", false, "write an annotated example config next to config.yaml")
	excludeCmd.AddCommand(excludeAddCmd, excludeRemoveCmd)
	configCmd.AddCommand(excludeCmd)
	rootCmd.AddCommand(configCmd)
}

// wizardConfig is the subset of the configuration the wizard writes
type wizardConfig struct {
	DataDir    string `yaml:"data_dir"`
	CatalogDir string `yaml:"catalog_dir"`
	Search     struct {
		DefaultLimit int `yaml:"default_limit"`
	} `yaml:"search"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	if writeExample {
		if err := config.CreateExampleConfig(); err != nil {
			return fmt.Errorf("failed to write example config: %w", err)
		}
		printSuccess(cmd.OutOrStdout(), "Example written to "+config.ExampleConfigPath())
		return nil
	}

	existing, err := config.Load()
	if err != nil {
		existing = config.Default(filepath.Join(os.Getenv("HOME"), ".local", "share", "qlaunch"))
		existing.CatalogDir = filepath.Join(config.ConfigDir(), "catalog")
	}
	return runConfigWizard(cmd.InOrStdin(), cmd.OutOrStdout(), existing, config.ConfigPath())
}

// runConfigWizard asks for each setting, keeping the existing value on empty input
func runConfigWizard(in io.Reader, out io.Writer, existing *config.Config, path string) error {
	reader := bufio.NewReader(in)

	printLogo(out, version)

	ask := func(label, current string) (string, error) {
		printPrompt(out, fmt.Sprintf("%s [%s]: ", label, current))
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		if line = strings.TrimSpace(line); line != "" {
			return line, nil
		}
		return current, nil
	}

	var (
		wc  wizardConfig
		err error
	)
	if wc.DataDir, err = ask("Data directory", existing.DataDir); err != nil {
		return err
	}
	if wc.CatalogDir, err = ask("Catalog directory", existing.CatalogDir); err != nil {
		return err
	}

	limitStr, err := ask("Results per query", strconv.Itoa(existing.Search.DefaultLimit))
	if err != nil {
		return err
	}
	wc.Search.DefaultLimit, err = strconv.Atoi(limitStr)
	if err != nil || wc.Search.DefaultLimit <= 0 {
		printWarning(out, fmt.Sprintf("invalid limit '%s', using default %d", limitStr, config.DefaultLimit))
		wc.Search.DefaultLimit = config.DefaultLimit
	}

	if wc.Server.Addr, err = ask("HTTP listen address", existing.Server.Addr); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(&wc)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintln(out)
	printSuccess(out, "Configuration saved to "+path)
	printMuted(out, "Put apps.yaml, contacts.yaml, shortcuts.yaml into "+wc.CatalogDir+", then run 'qlaunch index'.")
	return nil
}

func runExcludeAdd(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := cfg.AddExclusion(args[0]); err != nil {
		return err
	}
	printSuccess(cmd.OutOrStdout(), fmt.Sprintf("Excluded %q; run 'qlaunch index apps' to apply", args[0]))
	return nil
}

func runExcludeRemove(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := cfg.RemoveExclusion(args[0]); err != nil {
		return err
	}
	printSuccess(cmd.OutOrStdout(), fmt.Sprintf("Removed exclusion %q", args[0]))
	return nil
}
