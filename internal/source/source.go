// Package source defines the content sources the indexers enumerate and a
// file-backed catalog implementing them.
package source

import (
	"context"

	"github.com/igusev/qlaunch/internal/types"
)

// App is an installed application
type App struct {
	PackageName string `yaml:"package"`
	Label       string `yaml:"label"`
	Category    string `yaml:"category,omitempty"`
	Icon        string `yaml:"icon,omitempty"`
}

// Shortcut is a launcher shortcut published by an app, either at runtime
// (dynamic/pinned) or in its manifest (static)
type Shortcut struct {
	PackageName string `yaml:"package"`
	ID          string `yaml:"id"`
	ShortLabel  string `yaml:"label"`
	LongLabel   string `yaml:"long_label,omitempty"`
	IntentURI   string `yaml:"intent,omitempty"`
	IconResID   int    `yaml:"icon_res,omitempty"`
	Disabled    bool   `yaml:"disabled,omitempty"`
}

// Contact is an address book entry
type Contact struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	PhotoURI string   `yaml:"photo,omitempty"`
	Phones   []string `yaml:"phones,omitempty"`
	Emails   []string `yaml:"emails,omitempty"`
}

// AppShortcut is a built-in launcher action
type AppShortcut struct {
	ID          string
	Label       string
	Description string
	DeepLink    string
}

// AppSource lists installed applications
type AppSource interface {
	Apps(ctx context.Context) ([]App, error)
}

// ShortcutSource lists dynamic and pinned launcher shortcuts
type ShortcutSource interface {
	Shortcuts(ctx context.Context) ([]Shortcut, error)
}

// StaticShortcutSource lists manifest-declared shortcuts
type StaticShortcutSource interface {
	StaticShortcuts(ctx context.Context) ([]Shortcut, error)
}

// ContactSource lists contacts
type ContactSource interface {
	Contacts(ctx context.Context) ([]Contact, error)
}

// AppShortcutSource lists the launcher's own actions
type AppShortcutSource interface {
	AppShortcuts(ctx context.Context) ([]AppShortcut, error)
}

// IconLoader resolves an icon reference for a document. Calls are expensive
// and are cached by the caller.
type IconLoader interface {
	Icon(ctx context.Context, doc types.Document) (string, error)
}

// Builtin is the fixed set of launcher actions
type Builtin struct{}

// AppShortcuts implements AppShortcutSource
func (Builtin) AppShortcuts(context.Context) ([]AppShortcut, error) {
	return []AppShortcut{
		{ID: "settings", Label: "Launcher settings", Description: "Preferences", DeepLink: "qlaunch://settings"},
		{ID: "shortcuts", Label: "Edit search shortcuts", Description: "Aliases", DeepLink: "qlaunch://settings/shortcuts"},
		{ID: "snippets", Label: "Edit snippets", Description: "Quick copy", DeepLink: "qlaunch://settings/snippets"},
		{ID: "reindex", Label: "Rebuild search index", Description: "Maintenance", DeepLink: "qlaunch://reindex"},
		{ID: "backup", Label: "Back up settings", Description: "Export", DeepLink: "qlaunch://backup"},
	}, nil
}
