package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/igusev/qlaunch/internal/config"
	"github.com/igusev/qlaunch/internal/history"
	"github.com/igusev/qlaunch/internal/launcher"
	"github.com/igusev/qlaunch/internal/model"
	"github.com/igusev/qlaunch/internal/source"
	"github.com/igusev/qlaunch/internal/types"
)

func main() {
	// Create demo data directory in demo/data/qlaunch
	demoDir := "demo/data/qlaunch"
	catalogDir := filepath.Join(demoDir, "catalog")
	if err := os.MkdirAll(catalogDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create demo dir: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generating fake data in: %s\n", demoDir)

	apps := []source.App{
		{PackageName: "com.google.android.apps.maps", Label: "Maps", Category: "travel"},
		{PackageName: "com.google.android.gm", Label: "Gmail", Category: "productivity"},
		{PackageName: "com.google.android.calendar", Label: "Calendar", Category: "productivity"},
		{PackageName: "com.google.android.dialer", Label: "Phone", Category: "communication"},
		{PackageName: "com.google.android.apps.messaging", Label: "Messages", Category: "communication"},
		{PackageName: "com.google.android.apps.photos", Label: "Photos", Category: "photography"},
		{PackageName: "com.spotify.music", Label: "Spotify", Category: "music"},
		{PackageName: "org.mozilla.firefox", Label: "Firefox", Category: "browser"},
		{PackageName: "org.telegram.messenger", Label: "Telegram", Category: "communication"},
		{PackageName: "com.whatsapp", Label: "WhatsApp", Category: "communication"},
		{PackageName: "nl.ns.android", Label: "NS", Category: "travel"},
		{PackageName: "com.android.settings", Label: "Settings", Category: "system"},
		{PackageName: "com.android.camera", Label: "Camera", Category: "photography"},
		{PackageName: "org.fdroid.fdroid", Label: "F-Droid", Category: "system"},
	}

	shortcuts := []source.Shortcut{
		{PackageName: "com.google.android.apps.maps", ID: "navigate_home", ShortLabel: "Home", LongLabel: "Navigate home",
			IntentURI: "google.navigation:q=home"},
		{PackageName: "com.google.android.apps.maps", ID: "navigate_work", ShortLabel: "Work", LongLabel: "Navigate to work",
			IntentURI: "google.navigation:q=work"},
		{PackageName: "com.google.android.gm", ID: "compose", ShortLabel: "Compose", LongLabel: "Compose email"},
		{PackageName: "org.telegram.messenger", ID: "saved", ShortLabel: "Saved Messages"},
	}

	staticShortcuts := []source.Shortcut{
		{PackageName: "com.google.android.calendar", ID: "new_event", ShortLabel: "New event", LongLabel: "Create a calendar event"},
		{PackageName: "com.android.camera", ID: "selfie", ShortLabel: "Selfie", LongLabel: "Take a selfie"},
		{PackageName: "com.spotify.music", ID: "liked", ShortLabel: "Liked Songs", Disabled: true},
	}

	contacts := []source.Contact{
		{ID: "1", Name: "Jane Doe", Phones: []string{"+31612345678"}, Emails: []string{"jane@example.com"}},
		{ID: "2", Name: "John Smith", Phones: []string{"+31687654321"}},
		{ID: "3", Name: "María José García", Emails: []string{"maria@example.org"}},
		{ID: "4", Name: "Anna van der Berg", Phones: []string{"+31201234567", "+31699988877"}},
		{ID: "5", Name: "Dr. Peter Müller", Phones: []string{"+4930123456"}},
	}

	catalog := source.NewCatalog(catalogDir)
	for name, items := range map[string]any{
		source.AppsFile:            apps,
		source.ShortcutsFile:       shortcuts,
		source.StaticShortcutsFile: staticShortcuts,
		source.ContactsFile:        contacts,
	} {
		if err := catalog.Write(name, items); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", name, err)
			os.Exit(1)
		}
	}
	fmt.Printf("✓ Created catalog (%d apps, %d contacts)\n", len(apps), len(contacts))

	cfg := config.Default(demoDir)
	cfg.CatalogDir = catalogDir

	l, err := launcher.Open(cfg, launcher.WithUsageDispatcher(history.Sync))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open launcher: %v\n", err)
		os.Exit(1)
	}
	defer l.Close()

	ctx := context.Background()
	if err := l.IndexAll(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build index: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Created search index (%d documents)\n", l.Status().Documents)

	snippets := []model.Snippet{
		{Alias: "sig", Content: "Kind regards,\nJane"},
		{Alias: "addr", Content: "Damrak 1, 1012 LG Amsterdam"},
	}
	for _, sn := range snippets {
		if err := l.AddSnippet(ctx, sn); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to add snippet %s: %v\n", sn.Alias, err)
			os.Exit(1)
		}
	}
	fmt.Printf("✓ Created snippets\n")

	// Simulated launches: Maps is the most frequent pick for "ma"
	launches := []struct {
		query string
		id    string
		first bool
	}{
		{"ma", "com.google.android.apps.maps", true},
		{"ma", "com.google.android.apps.maps", true},
		{"map", "com.google.android.apps.maps", true},
		{"gm", "com.google.android.gm", true},
		{"spo", "com.spotify.music", false},
		{"tel", "org.telegram.messenger", true},
		{"ns", "nl.ns.android", true},
	}
	for _, u := range launches {
		l.ReportUsage(types.NamespaceApps, u.id, u.query, u.first)
	}
	fmt.Printf("✓ Created usage history\n")

	fmt.Printf("\n✅ Demo data generated successfully!\n\n")
	fmt.Printf("To use with qlaunch, point it at the demo directory:\n")
	fmt.Printf("  export QLAUNCH_DATA_DIR=$(pwd)/%s\n", demoDir)
	fmt.Printf("  export QLAUNCH_CATALOG_DIR=$(pwd)/%s\n", catalogDir)
	fmt.Printf("  qlaunch\n\n")
}
