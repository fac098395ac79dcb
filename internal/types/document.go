package types

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// Namespace partitions documents by content source
type Namespace string

// Known namespaces
const (
	NamespaceApps            Namespace = "apps"
	NamespaceShortcuts       Namespace = "shortcuts"        // Launcher (dynamic/pinned) shortcuts published by apps
	NamespaceStaticShortcuts Namespace = "static_shortcuts" // Manifest-declared shortcuts
	NamespaceSearchShortcuts Namespace = "search_shortcuts" // User-configurable alias -> URL template
	NamespaceAppShortcuts    Namespace = "app_shortcuts"    // Built-in launcher actions
	NamespaceContacts        Namespace = "contacts"
	NamespaceSnippets        Namespace = "snippets"
	NamespaceWebBookmarks    Namespace = "web_bookmarks"
)

// AllNamespaces lists every namespace in indexing order
var AllNamespaces = []Namespace{
	NamespaceApps,
	NamespaceShortcuts,
	NamespaceStaticShortcuts,
	NamespaceAppShortcuts,
	NamespaceSearchShortcuts,
	NamespaceContacts,
	NamespaceSnippets,
	NamespaceWebBookmarks,
}

// ProtectedNamespaces survive ResetIndex and zombie cleanup.
// They are only wiped by an explicit data reset.
var ProtectedNamespaces = []Namespace{NamespaceWebBookmarks}

// ParseNamespace validates a namespace string
func ParseNamespace(s string) (Namespace, error) {
	for _, ns := range AllNamespaces {
		if string(ns) == s {
			return ns, nil
		}
	}
	return "", fmt.Errorf("unknown namespace %q", s)
}

// IsProtected reports whether ns must survive index resets
func (ns Namespace) IsProtected() bool {
	for _, p := range ProtectedNamespaces {
		if p == ns {
			return true
		}
	}
	return false
}

// IsPackageScoped reports whether document ids of ns start with "<package>/"
func (ns Namespace) IsPackageScoped() bool {
	return ns == NamespaceShortcuts || ns == NamespaceStaticShortcuts
}

// DefaultScore returns the static prior baked into documents of ns at index time (1-5)
func DefaultScore(ns Namespace) int {
	switch ns {
	case NamespaceApps:
		return 5
	case NamespaceShortcuts, NamespaceStaticShortcuts:
		return 4
	case NamespaceAppShortcuts, NamespaceSearchShortcuts, NamespaceContacts:
		return 3
	case NamespaceWebBookmarks, NamespaceSnippets:
		return 2
	default:
		return 1
	}
}

// Document is the unit of indexing.
// ID is unique within Namespace only; Description meaning depends on the namespace:
// category for apps, alias for search shortcuts, "photoUri|tokens" for contacts,
// clipboard text for snippets.
type Document struct {
	Namespace   Namespace
	ID          string
	Name        string
	Description string
	Score       int
	IntentURI   string
	IconResID   int
	IsAction    bool
}

// Key returns the store-wide unique key "namespace:id"
func (d Document) Key() string {
	return Key(d.Namespace, d.ID)
}

// Key builds the store-wide unique key for a namespace/id pair
func Key(ns Namespace, id string) string {
	return string(ns) + ":" + id
}

// ShortcutID builds "<package>/<shortcutId>"
func ShortcutID(packageName, shortcutID string) string {
	return packageName + "/" + shortcutID
}

// SplitShortcutID splits "<package>/<shortcutId>" into its parts
func SplitShortcutID(id string) (packageName, shortcutID string, ok bool) {
	idx := strings.Index(id, "/")
	if idx <= 0 || idx == len(id)-1 {
		return "", "", false
	}
	return id[:idx], id[idx+1:], true
}

// AppShortcutID builds "app_<shortcutId>"
func AppShortcutID(shortcutID string) string {
	return "app_" + shortcutID
}

// BookmarkID builds "web_<urlHash>" from a normalized URL
func BookmarkID(url string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(url))))
	return fmt.Sprintf("web_%016x", h.Sum64())
}

// PackageOf returns the package a document belongs to, if any
func (d Document) PackageOf() string {
	switch {
	case d.Namespace == NamespaceApps:
		return d.ID
	case d.Namespace.IsPackageScoped():
		if pkg, _, ok := SplitShortcutID(d.ID); ok {
			return pkg
		}
	}
	return ""
}
