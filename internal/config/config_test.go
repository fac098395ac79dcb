package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

// withTempHome points HOME at a temp dir and resets viper for the duration of the test
func withTempHome(t *testing.T) string {
	t.Helper()
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)
	viper.Reset()
	t.Cleanup(viper.Reset)
	return tmpHome
}

func TestDurations(t *testing.T) {
	cfg := Default("/tmp/qlaunch")

	if got := cfg.Search.SuggestionTimeout(); got != time.Second {
		t.Errorf("SuggestionTimeout() = %v, want 1s", got)
	}
	if got := cfg.Index.Freshness(); got != 12*time.Hour {
		t.Errorf("Freshness() = %v, want 12h", got)
	}
	if got := cfg.Index.SettleDelay(); got != 3*time.Second {
		t.Errorf("SettleDelay() = %v, want 3s", got)
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := Default("/data")
	tests := map[string]string{
		cfg.IndexPath():    "/data/index.bleve",
		cfg.DatabasePath(): "/data/prefs.db",
		cfg.UsagePath():    "/data/usage.gob",
		cfg.CacheDir():     "/data/cache",
		cfg.CatalogDir:     "/data/catalog",
	}
	for got, want := range tests {
		if got != want {
			t.Errorf("path = %q, want %q", got, want)
		}
	}
}

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/test")

	tests := []struct {
		input string
		want  string
	}{
		{"~", "/home/test"},
		{"~/.local/share/qlaunch", "/home/test/.local/share/qlaunch"},
		{"/abs/path", "/abs/path"},
		{"relative/path", "relative/path"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := expandPath(tt.input); got != tt.want {
			t.Errorf("expandPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestIsExcluded(t *testing.T) {
	cfg := Default("/tmp")
	cfg.Index.ExcludedPackages = []string{"com.vendor.*", "com.example.bloat", "org.{foo,bar}.app"}

	tests := []struct {
		pkg  string
		want bool
	}{
		{"com.vendor.updater", true},
		{"com.vendor.sub.module", true},
		{"com.example.bloat", true},
		{"com.example.bloatware", false},
		{"org.foo.app", true},
		{"org.baz.app", false},
		{"com.android.settings", false},
	}

	for _, tt := range tests {
		if got := cfg.IsExcluded(tt.pkg); got != tt.want {
			t.Errorf("IsExcluded(%q) = %v, want %v", tt.pkg, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{DataDir: "/tmp", Search: SearchConfig{DefaultLimit: -1, SuggestionRate: 0}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.Search.DefaultLimit != DefaultLimit || cfg.Search.SuggestionRate != DefaultSuggestionRate {
		t.Errorf("invalid values should fall back to defaults: %+v", cfg.Search)
	}
	if cfg.Server.Addr != DefaultServerAddr {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}

	bad := Default("/tmp")
	bad.Index.ExcludedPackages = []string{"com.[broken"}
	if err := bad.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
	}

	empty := &Config{}
	if err := empty.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("empty data_dir should be invalid, got %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	tmpHome := withTempHome(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.DataDir != filepath.Join(tmpHome, ".local", "share", "qlaunch") {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.CatalogDir != filepath.Join(tmpHome, ".config", "qlaunch", "catalog") {
		t.Errorf("CatalogDir = %q", cfg.CatalogDir)
	}
	if cfg.Search.DefaultLimit != 20 || cfg.Search.MaxSuggestions != 5 {
		t.Errorf("search defaults = %+v", cfg.Search)
	}
	if cfg.Search.SettingsPackage != "com.android.settings" {
		t.Errorf("SettingsPackage = %q", cfg.Search.SettingsPackage)
	}
	if cfg.Index.FreshnessHours != 12 || cfg.Index.SettleDelaySeconds != 3 {
		t.Errorf("index defaults = %+v", cfg.Index)
	}
	if cfg.Server.Addr != DefaultServerAddr {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
}

func TestLoadFromFileWithTilde(t *testing.T) {
	tmpHome := withTempHome(t)
	configDir := filepath.Join(tmpHome, ".config", "qlaunch")
	os.MkdirAll(configDir, 0755)

	content := `data_dir: "~/qdata"
search:
  default_limit: 7
index:
  excluded_packages:
    - "com.vendor.*"
`
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DataDir != filepath.Join(tmpHome, "qdata") {
		t.Errorf("DataDir = %q, want expanded tilde", cfg.DataDir)
	}
	if cfg.Search.DefaultLimit != 7 {
		t.Errorf("DefaultLimit = %d, want 7", cfg.Search.DefaultLimit)
	}
	if !cfg.IsExcluded("com.vendor.x") {
		t.Error("exclusion from file should apply")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	withTempHome(t)
	t.Setenv("QLAUNCH_SEARCH_DEFAULT_LIMIT", "3")
	t.Setenv("QLAUNCH_DATA_DIR", "/tmp/qlaunch-env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Search.DefaultLimit != 3 {
		t.Errorf("DefaultLimit = %d, want 3 from env", cfg.Search.DefaultLimit)
	}
	if cfg.DataDir != "/tmp/qlaunch-env" {
		t.Errorf("DataDir = %q, want env override", cfg.DataDir)
	}
}

func TestLoadCorruptedConfigFile(t *testing.T) {
	tmpHome := withTempHome(t)
	configDir := filepath.Join(tmpHome, ".config", "qlaunch")
	os.MkdirAll(configDir, 0755)
	os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte("search: [unclosed\n  bad: : yaml"), 0644)

	if _, err := Load(); err == nil {
		t.Error("expected error for corrupted config file")
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpHome := withTempHome(t)

	cfg := Default(filepath.Join(tmpHome, "data"))
	cfg.Search.DefaultLimit = 15
	cfg.Index.ExcludedPackages = []string{"com.a.*", "com.b"}
	cfg.Server.AllowedOrigins = []string{"http://localhost:3000"}

	if err := cfg.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(ConfigPath()); err != nil {
		t.Fatalf("config file was not created: %v", err)
	}

	viper.Reset()
	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Search.DefaultLimit != 15 {
		t.Errorf("DefaultLimit = %d, want 15", loaded.Search.DefaultLimit)
	}
	if len(loaded.Index.ExcludedPackages) != 2 {
		t.Errorf("ExcludedPackages = %v", loaded.Index.ExcludedPackages)
	}
	if len(loaded.Server.AllowedOrigins) != 1 {
		t.Errorf("AllowedOrigins = %v", loaded.Server.AllowedOrigins)
	}
}

func TestAddRemoveExclusion(t *testing.T) {
	tmpHome := withTempHome(t)
	cfg := Default(filepath.Join(tmpHome, "data"))

	if err := cfg.AddExclusion("com.vendor.*"); err != nil {
		t.Fatalf("AddExclusion failed: %v", err)
	}
	cfg.AddExclusion("com.vendor.*")
	if len(cfg.Index.ExcludedPackages) != 1 {
		t.Errorf("duplicate exclusion added: %v", cfg.Index.ExcludedPackages)
	}
	if err := cfg.AddExclusion("com.[bad"); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("AddExclusion(bad) error = %v", err)
	}

	if err := cfg.RemoveExclusion("com.vendor.*"); err != nil {
		t.Fatalf("RemoveExclusion failed: %v", err)
	}
	if len(cfg.Index.ExcludedPackages) != 0 {
		t.Errorf("exclusion not removed: %v", cfg.Index.ExcludedPackages)
	}
}

func TestCreateExampleConfig(t *testing.T) {
	withTempHome(t)

	if err := CreateExampleConfig(); err != nil {
		t.Fatalf("CreateExampleConfig failed: %v", err)
	}
	data, err := os.ReadFile(ExampleConfigPath())
	if err != nil {
		t.Fatalf("example config not written: %v", err)
	}
	for _, key := range []string{"data_dir:", "catalog_dir:", "excluded_packages:", "suggestion_timeout_ms:"} {
		if !strings.Contains(string(data), key) {
			t.Errorf("example config missing %q", key)
		}
	}
}
