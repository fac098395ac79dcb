package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/igusev/qlaunch/internal/config"
	"github.com/igusev/qlaunch/internal/launcher"
	"github.com/igusev/qlaunch/internal/source"
)

// setupEnv points HOME and the data and catalog directories at a temp dir and
// seeds the catalog with two apps
func setupEnv(t *testing.T) string {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	home := t.TempDir()
	catalogDir := filepath.Join(home, "catalog")
	t.Setenv("HOME", home)
	t.Setenv("QLAUNCH_DATA_DIR", filepath.Join(home, "data"))
	t.Setenv("QLAUNCH_CATALOG_DIR", catalogDir)
	t.Setenv("QLAUNCH_INDEX_SETTLE_DELAY_SECONDS", "0")

	err := source.NewCatalog(catalogDir).Write(source.AppsFile, []source.App{
		{PackageName: "com.app.maps", Label: "Maps"},
		{PackageName: "com.app.mail", Label: "Mail"},
	})
	if err != nil {
		t.Fatalf("seeding catalog: %v", err)
	}
	return home
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeWithInput(t, "", args...)
}

// executeWithInput runs the root command with fresh flag values
func executeWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	verbose, showScores, autoGo, jsonOutput, limit = false, false, false, false, 0
	resetIndex, resetAll, serveAddr, writeExample = false, false, "", false
	shortcutDescription, shortcutSuggestURL = "", ""

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, args...)
	if err != nil {
		t.Fatalf("qlaunch %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func TestSearch_DirectQueryIndexesOnFirstRun(t *testing.T) {
	setupEnv(t)

	out := mustExecute(t, "maps")
	if !strings.Contains(out, "[app] Maps") {
		t.Errorf("Expected Maps in output, got:\n%s", out)
	}
	if !strings.Contains(out, "com.app.maps") {
		t.Errorf("Expected launch target in output, got:\n%s", out)
	}
}

func TestSearch_Scores(t *testing.T) {
	setupEnv(t)

	out := mustExecute(t, "--scores", "mail")
	if !regexp.MustCompile(`\[app\] Mail.* \[\d+\]`).MatchString(out) {
		t.Errorf("Expected a score after Mail, got:\n%s", out)
	}
}

func TestSearch_JSON(t *testing.T) {
	setupEnv(t)

	out := mustExecute(t, "--json", "maps")
	var resp struct {
		Query   string `json:"query"`
		Results []struct {
			Type   string `json:"type"`
			Target string `json:"target"`
		} `json:"results"`
	}
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("Failed to parse JSON output: %v\n%s", err, out)
	}
	if resp.Query != "maps" {
		t.Errorf("Expected query 'maps', got %q", resp.Query)
	}
	if len(resp.Results) == 0 || resp.Results[0].Type != "app" || resp.Results[0].Target != "com.app.maps" {
		t.Errorf("Expected Maps first, got %+v", resp.Results)
	}
}

func TestSearch_AutoGoWithoutQuery(t *testing.T) {
	setupEnv(t)

	_, err := execute(t, "-g")
	if err == nil || err.Error() != "-g/--go requires a search query" {
		t.Errorf("Expected '-g/--go requires a search query' error, got: %v", err)
	}
}

func TestSearch_AutoGoRecordsUsage(t *testing.T) {
	setupEnv(t)

	out := mustExecute(t, "-g", "mail")
	if strings.TrimSpace(out) != "com.app.mail" {
		t.Errorf("Expected the launch target only, got %q", out)
	}

	out = mustExecute(t, "find")
	if !strings.Contains(out, "[app] Mail") {
		t.Errorf("Expected Mail in recent items, got:\n%s", out)
	}
	if strings.Contains(out, "Maps") {
		t.Errorf("Expected only launched items in recent items, got:\n%s", out)
	}

	if _, err := execute(t, "-g", "zzzzqqq"); err == nil {
		t.Error("Expected an error when nothing matches")
	}
}

func TestFind_EmptyHistory(t *testing.T) {
	setupEnv(t)

	out := mustExecute(t, "find")
	if !strings.Contains(out, "No results") {
		t.Errorf("Expected 'No results', got:\n%s", out)
	}
}

func TestIndexAndStatus(t *testing.T) {
	setupEnv(t)

	out := mustExecute(t, "index", "apps")
	if !strings.Contains(out, "apps: 2 documents") {
		t.Errorf("Expected per-namespace count, got:\n%s", out)
	}

	if _, err := execute(t, "index", "planets"); err == nil {
		t.Error("Expected an error for an unknown namespace")
	}
	if _, err := execute(t, "index", "--reset", "apps"); err == nil {
		t.Error("Expected --reset with arguments to fail")
	}

	mustExecute(t, "index")
	out = mustExecute(t, "status", "--json")
	var status launcher.Status
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("Failed to parse status: %v\n%s", err, out)
	}
	if status.Namespaces["apps"] != 2 {
		t.Errorf("Expected 2 apps, got %d", status.Namespaces["apps"])
	}
	if status.NeedsReindex {
		t.Error("Expected a fresh index after a full pass")
	}

	out = mustExecute(t, "status")
	if !strings.Contains(out, "documents") || !strings.Contains(out, "last full reindex") {
		t.Errorf("Expected human-readable status, got:\n%s", out)
	}
}

func TestShortcutCommands(t *testing.T) {
	setupEnv(t)

	if _, err := execute(t, "shortcut", "add", "gh", "https://github.com/search"); err == nil {
		t.Error("Expected a template without placeholder to be rejected")
	}

	mustExecute(t, "shortcut", "add", "gh", "https://github.com/search?q=%s", "-d", "GitHub")
	out := mustExecute(t, "shortcut", "list")
	if !strings.Contains(out, "gh") || !strings.Contains(out, "GitHub") {
		t.Errorf("Expected gh in list, got:\n%s", out)
	}

	out = mustExecute(t, "gh", "bleve")
	if !strings.Contains(out, "https://github.com/search?q=bleve") {
		t.Errorf("Expected the filled template, got:\n%s", out)
	}

	mustExecute(t, "shortcut", "remove", "gh")
	if _, err := execute(t, "shortcut", "remove", "gh"); err == nil {
		t.Error("Expected removing a missing shortcut to fail")
	}
}

func TestSnippetCommands(t *testing.T) {
	setupEnv(t)

	mustExecute(t, "snippet", "add", "sig", "Kind", "regards,", "Jane")
	if _, err := executeWithInput(t, "Line one\nLine two\n", "snippet", "add", "addr"); err != nil {
		t.Fatalf("snippet from stdin: %v", err)
	}
	if _, err := executeWithInput(t, "  \n", "snippet", "add", "blank"); err == nil {
		t.Error("Expected empty content to be rejected")
	}

	out := mustExecute(t, "snippet", "list")
	if !strings.Contains(out, "Kind regards, Jane") || !strings.Contains(out, "Line one ...") {
		t.Errorf("Expected both snippets, got:\n%s", out)
	}

	out = mustExecute(t, "sig")
	if !strings.Contains(out, "Kind regards, Jane") {
		t.Errorf("Expected snippet content as launch target, got:\n%s", out)
	}

	mustExecute(t, "snippet", "remove", "sig")
	if _, err := execute(t, "snippet", "remove", "sig"); err == nil {
		t.Error("Expected removing a missing snippet to fail")
	}
}

func TestBookmarkCommands(t *testing.T) {
	setupEnv(t)

	out := mustExecute(t, "bookmark", "add", "go.dev/doc", "Go", "documentation")
	if !strings.Contains(out, "https://go.dev/doc") {
		t.Errorf("Expected normalized URL, got:\n%s", out)
	}

	out = mustExecute(t, "go", "documentation")
	if !strings.Contains(out, "https://go.dev/doc") {
		t.Errorf("Expected bookmark in results, got:\n%s", out)
	}

	if _, err := execute(t, "bookmark", "add", "ftp://example.com"); err == nil {
		t.Error("Expected an unsupported scheme to fail")
	}
}

func TestFavoriteCommands(t *testing.T) {
	setupEnv(t)
	mustExecute(t, "index")

	mustExecute(t, "favorite", "add", "apps:com.app.maps")
	out := mustExecute(t, "favorite", "list")
	if !strings.Contains(out, "apps:com.app.maps") || !strings.Contains(out, "Maps") {
		t.Errorf("Expected pinned Maps, got:\n%s", out)
	}

	if _, err := execute(t, "favorite", "add", "maps"); err == nil {
		t.Error("Expected a key without namespace to fail")
	}

	mustExecute(t, "favorite", "remove", "apps:com.app.maps")
	if _, err := execute(t, "favorite", "remove", "apps:com.app.maps"); err == nil {
		t.Error("Expected unpinning twice to fail")
	}
}

func TestBackupCommands(t *testing.T) {
	home := setupEnv(t)
	path := filepath.Join(home, "backup.json")

	mustExecute(t, "snippet", "add", "sig", "Kind regards")
	out := mustExecute(t, "backup", "export", path)
	if !strings.Contains(out, "1 snippets") {
		t.Errorf("Expected export summary, got:\n%s", out)
	}

	mustExecute(t, "reset", "--all")
	out = mustExecute(t, "snippet", "list")
	if !strings.Contains(out, "No snippets") {
		t.Fatalf("Expected snippets to be wiped, got:\n%s", out)
	}

	out = mustExecute(t, "backup", "import", path)
	if !strings.Contains(out, "1 snippets") {
		t.Errorf("Expected import summary, got:\n%s", out)
	}
	out = mustExecute(t, "snippet", "list")
	if !strings.Contains(out, "sig") {
		t.Errorf("Expected restored snippet, got:\n%s", out)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out, err = executeWithInput(t, string(data), "backup", "import", "-")
	if err != nil || !strings.Contains(out, "1 snippets") {
		t.Errorf("Expected import from stdin, got %v:\n%s", err, out)
	}

	out = mustExecute(t, "backup", "export")
	var exported map[string]any
	if err := json.Unmarshal([]byte(out), &exported); err != nil {
		t.Errorf("Expected JSON on stdout: %v", err)
	}

	if _, err := executeWithInput(t, `{"version":99}`, "backup", "import", "-"); err == nil {
		t.Error("Expected a newer backup version to fail")
	}
}

func TestResetCommand(t *testing.T) {
	setupEnv(t)

	mustExecute(t, "bookmark", "add", "go.dev/blog", "Go", "blog")
	out := mustExecute(t, "reset")
	if !strings.Contains(out, "Index rebuilt") {
		t.Errorf("Expected rebuild summary, got:\n%s", out)
	}
	if out := mustExecute(t, "go", "blog"); !strings.Contains(out, "https://go.dev/blog") {
		t.Errorf("Expected bookmark to survive reset, got:\n%s", out)
	}

	mustExecute(t, "reset", "--all")
	if out := mustExecute(t, "find", "go", "blog"); strings.Contains(out, "https://go.dev/blog") {
		t.Errorf("Expected bookmark to be gone after reset --all, got:\n%s", out)
	}
}

func TestConfigWizard(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "qlaunch", "config.yaml")
	existing := config.Default(filepath.Join(dir, "data"))

	// Keep data dir, set catalog dir, bad limit, keep address
	input := "\n/srv/catalog\nlots\n\n"
	var out bytes.Buffer
	if err := runConfigWizard(strings.NewReader(input), &out, existing, path); err != nil {
		t.Fatalf("runConfigWizard: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("config not written: %v", err)
	}
	var wc wizardConfig
	if err := yaml.Unmarshal(data, &wc); err != nil {
		t.Fatalf("config is not YAML: %v", err)
	}

	if wc.DataDir != existing.DataDir {
		t.Errorf("Expected data dir %q, got %q", existing.DataDir, wc.DataDir)
	}
	if wc.CatalogDir != "/srv/catalog" {
		t.Errorf("Expected catalog dir '/srv/catalog', got %q", wc.CatalogDir)
	}
	if wc.Search.DefaultLimit != config.DefaultLimit {
		t.Errorf("Expected default limit after bad input, got %d", wc.Search.DefaultLimit)
	}
	if wc.Server.Addr != config.DefaultServerAddr {
		t.Errorf("Expected default address, got %q", wc.Server.Addr)
	}
	if !strings.Contains(out.String(), "invalid limit") {
		t.Errorf("Expected a warning for the bad limit, got:\n%s", out.String())
	}
}

func TestIsOpenable(t *testing.T) {
	tests := []struct {
		target string
		want   bool
	}{
		{"https://go.dev", true},
		{"http://localhost:8080", true},
		{"tel:+31612345678", true},
		{"sms:112", true},
		{"mailto:jane@example.com", true},
		{"com.app.maps", false},
		{"content://contacts/7", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isOpenable(tt.target); got != tt.want {
			t.Errorf("isOpenable(%q) = %v, want %v", tt.target, got, tt.want)
		}
	}
}

func TestFirstLine(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"single line", "hello", 10, "hello"},
		{"multi line", "hello\nworld", 10, "hello ..."},
		{"long line", "abcdefghijkl", 5, "abcde..."},
		{"runes", "Привет мир", 6, "Привет..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := firstLine(tt.in, tt.max); got != tt.want {
				t.Errorf("firstLine(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}
