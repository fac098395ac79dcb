package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/igusev/qlaunch/internal/logger"
	"github.com/igusev/qlaunch/internal/types"
)

// Catalog file names
const (
	AppsFile            = "apps.yaml"
	ShortcutsFile       = "shortcuts.yaml"
	StaticShortcutsFile = "static_shortcuts.yaml"
	ContactsFile        = "contacts.yaml"
)

// NamespaceForFile maps a catalog file name to the namespace it feeds
func NamespaceForFile(name string) (types.Namespace, bool) {
	switch filepath.Base(name) {
	case AppsFile:
		return types.NamespaceApps, true
	case ShortcutsFile:
		return types.NamespaceShortcuts, true
	case StaticShortcutsFile:
		return types.NamespaceStaticShortcuts, true
	case ContactsFile:
		return types.NamespaceContacts, true
	}
	return "", false
}

// Catalog reads sources from YAML files in a directory. Each file holds a
// list of entries; a missing file is an empty source and an entry that fails
// to decode is skipped and logged.
type Catalog struct {
	dir string
	log *zap.Logger
}

// NewCatalog creates a catalog rooted at dir
func NewCatalog(dir string) *Catalog {
	return &Catalog{dir: dir, log: logger.Named("catalog")}
}

// Dir returns the catalog directory
func (c *Catalog) Dir() string {
	return c.dir
}

// Apps implements AppSource
func (c *Catalog) Apps(ctx context.Context) ([]App, error) {
	return decodeList[App](ctx, c, AppsFile)
}

// Shortcuts implements ShortcutSource
func (c *Catalog) Shortcuts(ctx context.Context) ([]Shortcut, error) {
	return decodeList[Shortcut](ctx, c, ShortcutsFile)
}

// StaticShortcuts implements StaticShortcutSource
func (c *Catalog) StaticShortcuts(ctx context.Context) ([]Shortcut, error) {
	return decodeList[Shortcut](ctx, c, StaticShortcutsFile)
}

// Contacts implements ContactSource
func (c *Catalog) Contacts(ctx context.Context) ([]Contact, error) {
	return decodeList[Contact](ctx, c, ContactsFile)
}

// Icon implements IconLoader. Apps may name an icon file relative to the
// catalog; everything else falls back to the namespace glyph.
func (c *Catalog) Icon(ctx context.Context, doc types.Document) (string, error) {
	switch doc.Namespace {
	case types.NamespaceApps:
		apps, err := c.Apps(ctx)
		if err != nil {
			return "", err
		}
		for _, a := range apps {
			if a.PackageName == doc.ID && a.Icon != "" {
				return c.resolve(a.Icon), nil
			}
		}
		return "package:" + doc.ID, nil
	case types.NamespaceShortcuts, types.NamespaceStaticShortcuts:
		if doc.IconResID != 0 {
			return fmt.Sprintf("res:%s#%d", doc.PackageOf(), doc.IconResID), nil
		}
		return "package:" + doc.PackageOf(), nil
	case types.NamespaceContacts:
		if photo, _, _ := strings.Cut(doc.Description, "|"); photo != "" {
			return photo, nil
		}
		return "glyph:avatar", nil
	case types.NamespaceSnippets:
		return "glyph:clipboard", nil
	case types.NamespaceWebBookmarks:
		return "glyph:bookmark", nil
	case types.NamespaceSearchShortcuts:
		return "glyph:search", nil
	default:
		return "glyph:action", nil
	}
}

func (c *Catalog) resolve(ref string) string {
	if filepath.IsAbs(ref) || strings.Contains(ref, "://") {
		return ref
	}
	return "file://" + filepath.Join(c.dir, ref)
}

func decodeList[T any](ctx context.Context, c *Catalog, name string) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(c.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	if len(root.Content) == 0 {
		return nil, nil
	}
	list := root.Content[0]
	if list.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%s: expected a list of entries", name)
	}

	items := make([]T, 0, len(list.Content))
	for i, node := range list.Content {
		var item T
		if err := node.Decode(&item); err != nil {
			c.log.Warn("skipping catalog entry",
				zap.String("file", name), zap.Int("entry", i), zap.Int("line", node.Line), zap.Error(err))
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// Write stores items as a catalog file. It is used by tooling that seeds or
// edits the catalog.
func (c *Catalog) Write(name string, items any) error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("creating catalog directory: %w", err)
	}
	data, err := yaml.Marshal(items)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	tmp := filepath.Join(c.dir, "."+name+".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return os.Rename(tmp, filepath.Join(c.dir, name))
}
