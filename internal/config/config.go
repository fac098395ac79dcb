package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/viper"
)

// ErrInvalidConfig is returned when a configuration value cannot be used
var ErrInvalidConfig = errors.New("invalid configuration")

// Defaults
const (
	DefaultLimit              = 20
	DefaultSettingsPackage    = "com.android.settings"
	DefaultSuggestionTimeout  = 1000 // milliseconds
	DefaultSuggestionRate     = 4.0  // requests per second
	DefaultMaxSuggestions     = 5
	DefaultFreshnessHours     = 12
	DefaultSettleDelaySeconds = 3
	DefaultServerAddr         = "127.0.0.1:8377"
)

// Config holds the application configuration
type Config struct {
	DataDir    string       `mapstructure:"data_dir"`
	CatalogDir string       `mapstructure:"catalog_dir"`
	Search     SearchConfig `mapstructure:"search"`
	Index      IndexConfig  `mapstructure:"index"`
	Server     ServerConfig `mapstructure:"server"`
	Verbose    bool         `mapstructure:"verbose"`
}

// SearchConfig holds query engine settings
type SearchConfig struct {
	DefaultLimit        int     `mapstructure:"default_limit"`
	SettingsPackage     string  `mapstructure:"settings_package"`
	SuggestionTimeoutMS int     `mapstructure:"suggestion_timeout_ms"`
	SuggestionRate      float64 `mapstructure:"suggestion_rate"`
	MaxSuggestions      int     `mapstructure:"max_suggestions"`
}

// IndexConfig holds indexing settings
type IndexConfig struct {
	FreshnessHours     int      `mapstructure:"freshness_hours"`
	SettleDelaySeconds int      `mapstructure:"settle_delay_seconds"`
	ExcludedPackages   []string `mapstructure:"excluded_packages"`
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ConfigDir returns ~/.config/qlaunch
func ConfigDir() string {
	return filepath.Join(os.Getenv("HOME"), ".config", "qlaunch")
}

// ConfigPath returns the path of the main config file
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

func setDefaults() {
	home := os.Getenv("HOME")
	viper.SetDefault("data_dir", filepath.Join(home, ".local", "share", "qlaunch"))
	viper.SetDefault("catalog_dir", filepath.Join(ConfigDir(), "catalog"))
	viper.SetDefault("search.default_limit", DefaultLimit)
	viper.SetDefault("search.settings_package", DefaultSettingsPackage)
	viper.SetDefault("search.suggestion_timeout_ms", DefaultSuggestionTimeout)
	viper.SetDefault("search.suggestion_rate", DefaultSuggestionRate)
	viper.SetDefault("search.max_suggestions", DefaultMaxSuggestions)
	viper.SetDefault("index.freshness_hours", DefaultFreshnessHours)
	viper.SetDefault("index.settle_delay_seconds", DefaultSettleDelaySeconds)
	viper.SetDefault("index.excluded_packages", []string{})
	viper.SetDefault("server.addr", DefaultServerAddr)
	viper.SetDefault("server.allowed_origins", []string{})
	viper.SetDefault("verbose", false)
}

// Load loads configuration from file and environment variables.
// A missing config file is not an error; defaults apply.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(ConfigDir())
	viper.AddConfigPath(".") // Also check current directory

	// QLAUNCH_SEARCH_DEFAULT_LIMIT overrides search.default_limit
	viper.SetEnvPrefix("QLAUNCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.DataDir = expandPath(cfg.DataDir)
	cfg.CatalogDir = expandPath(cfg.CatalogDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration rooted at dataDir, without reading files
func Default(dataDir string) *Config {
	return &Config{
		DataDir:    dataDir,
		CatalogDir: filepath.Join(dataDir, "catalog"),
		Search: SearchConfig{
			DefaultLimit:        DefaultLimit,
			SettingsPackage:     DefaultSettingsPackage,
			SuggestionTimeoutMS: DefaultSuggestionTimeout,
			SuggestionRate:      DefaultSuggestionRate,
			MaxSuggestions:      DefaultMaxSuggestions,
		},
		Index: IndexConfig{
			FreshnessHours:     DefaultFreshnessHours,
			SettleDelaySeconds: DefaultSettleDelaySeconds,
		},
		Server: ServerConfig{Addr: DefaultServerAddr},
	}
}

// Validate checks values that cannot be defaulted and falls back to defaults for the rest
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("%w: data_dir is empty", ErrInvalidConfig)
	}
	for _, pattern := range c.Index.ExcludedPackages {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("%w: bad exclusion pattern %q", ErrInvalidConfig, pattern)
		}
	}

	if c.Search.DefaultLimit <= 0 {
		c.Search.DefaultLimit = DefaultLimit
	}
	if c.Search.SettingsPackage == "" {
		c.Search.SettingsPackage = DefaultSettingsPackage
	}
	if c.Search.SuggestionTimeoutMS <= 0 {
		c.Search.SuggestionTimeoutMS = DefaultSuggestionTimeout
	}
	if c.Search.SuggestionRate <= 0 {
		c.Search.SuggestionRate = DefaultSuggestionRate
	}
	if c.Search.MaxSuggestions <= 0 {
		c.Search.MaxSuggestions = DefaultMaxSuggestions
	}
	if c.Index.FreshnessHours < 0 {
		c.Index.FreshnessHours = DefaultFreshnessHours
	}
	if c.Index.SettleDelaySeconds < 0 {
		c.Index.SettleDelaySeconds = DefaultSettleDelaySeconds
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	return nil
}

// SuggestionTimeout returns the remote suggestion timeout as time.Duration
func (c *SearchConfig) SuggestionTimeout() time.Duration {
	return time.Duration(c.SuggestionTimeoutMS) * time.Millisecond
}

// Freshness returns how long a full reindex stays fresh
func (c *IndexConfig) Freshness() time.Duration {
	return time.Duration(c.FreshnessHours) * time.Hour
}

// SettleDelay returns the startup delay before a background reindex
func (c *IndexConfig) SettleDelay() time.Duration {
	return time.Duration(c.SettleDelaySeconds) * time.Second
}

// IndexPath is the bleve index directory
func (c *Config) IndexPath() string { return filepath.Join(c.DataDir, "index.bleve") }

// DatabasePath is the sqlite preference store
func (c *Config) DatabasePath() string { return filepath.Join(c.DataDir, "prefs.db") }

// UsagePath is the gob usage file
func (c *Config) UsagePath() string { return filepath.Join(c.DataDir, "usage.gob") }

// CacheDir holds timestamps and the favorites cache
func (c *Config) CacheDir() string { return filepath.Join(c.DataDir, "cache") }

// expandPath expands ~ to home directory in paths
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home := os.Getenv("HOME")
		if len(path) == 1 {
			return home
		}
		return filepath.Join(home, path[1:])
	}
	return path
}

// EnsureConfigDir ensures the config directory exists
func EnsureConfigDir() error {
	return os.MkdirAll(ConfigDir(), 0755)
}

// ExampleConfigPath returns the path where the example config should be created
func ExampleConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml.example")
}

// IsExcluded reports whether packageName matches any excluded package glob
func (c *Config) IsExcluded(packageName string) bool {
	for _, pattern := range c.Index.ExcludedPackages {
		if matched, err := doublestar.Match(pattern, packageName); err == nil && matched {
			return true
		}
	}
	return false
}

// AddExclusion adds a new exclusion pattern if it doesn't already exist
func (c *Config) AddExclusion(pattern string) error {
	if !doublestar.ValidatePattern(pattern) {
		return fmt.Errorf("%w: bad exclusion pattern %q", ErrInvalidConfig, pattern)
	}
	for _, existing := range c.Index.ExcludedPackages {
		if existing == pattern {
			return nil
		}
	}

	c.Index.ExcludedPackages = append(c.Index.ExcludedPackages, pattern)
	return c.Save()
}

// RemoveExclusion removes an exclusion pattern
func (c *Config) RemoveExclusion(pattern string) error {
	kept := make([]string, 0, len(c.Index.ExcludedPackages))
	for _, p := range c.Index.ExcludedPackages {
		if p != pattern {
			kept = append(kept, p)
		}
	}
	c.Index.ExcludedPackages = kept
	return c.Save()
}

// Save saves the current configuration to file
func (c *Config) Save() error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	viper.Set("data_dir", c.DataDir)
	viper.Set("catalog_dir", c.CatalogDir)
	viper.Set("search.default_limit", c.Search.DefaultLimit)
	viper.Set("search.settings_package", c.Search.SettingsPackage)
	viper.Set("search.suggestion_timeout_ms", c.Search.SuggestionTimeoutMS)
	viper.Set("search.suggestion_rate", c.Search.SuggestionRate)
	viper.Set("search.max_suggestions", c.Search.MaxSuggestions)
	viper.Set("index.freshness_hours", c.Index.FreshnessHours)
	viper.Set("index.settle_delay_seconds", c.Index.SettleDelaySeconds)
	viper.Set("index.excluded_packages", c.Index.ExcludedPackages)
	viper.Set("server.addr", c.Server.Addr)
	viper.Set("server.allowed_origins", c.Server.AllowedOrigins)
	viper.Set("verbose", c.Verbose)

	if err := viper.WriteConfigAs(ConfigPath()); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// CreateExampleConfig creates an example configuration file
func CreateExampleConfig() error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}

	exampleConfig := `# qlaunch configuration file
# Place this file at ~/.config/qlaunch/config.yaml

# Index, preference database and usage data
data_dir: "~/.local/share/qlaunch"

# YAML catalog read by the file-backed sources
# (apps.yaml, shortcuts.yaml, static_shortcuts.yaml, contacts.yaml)
catalog_dir: "~/.config/qlaunch/catalog"

search:
  default_limit: 20
  # Package of the system settings app (ranked below other apps)
  settings_package: "com.android.settings"
  suggestion_timeout_ms: 1000
  # Remote suggestion requests per second
  suggestion_rate: 4
  max_suggestions: 5

index:
  # Skip the startup reindex if the last one is newer than this
  freshness_hours: 12
  settle_delay_seconds: 3
  # Packages never indexed (glob patterns)
  excluded_packages:
  # - "com.vendor.*"
  # - "com.example.bloatware"

server:
  addr: "127.0.0.1:8377"
  allowed_origins: []

# Environment variables can also be used:
# QLAUNCH_DATA_DIR=/tmp/qlaunch
# QLAUNCH_SEARCH_DEFAULT_LIMIT=10
`

	return os.WriteFile(ExampleConfigPath(), []byte(exampleConfig), 0644)
}
