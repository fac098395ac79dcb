// Package materialize turns indexed documents into presentation-ready search results
package materialize

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/igusev/qlaunch/internal/logger"
	"github.com/igusev/qlaunch/internal/lru"
	"github.com/igusev/qlaunch/internal/model"
	"github.com/igusev/qlaunch/internal/source"
	"github.com/igusev/qlaunch/internal/types"
)

// IconCacheSize bounds the icon cache
const IconCacheSize = 200

const maxSubtitleRunes = 60

// Lookup finds a document by namespace and id; used to name the app that owns a shortcut
type Lookup func(ns types.Namespace, id string) (types.Document, bool)

// Materializer builds result variants and caches icon lookups by "namespace:id"
type Materializer struct {
	icons  source.IconLoader
	lookup Lookup
	cache  *lru.Cache[string, string]
	log    *zap.Logger
}

// New creates a materializer. icons and lookup may be nil.
func New(icons source.IconLoader, lookup Lookup) *Materializer {
	return &Materializer{
		icons:  icons,
		lookup: lookup,
		cache:  lru.New[string, string](IconCacheSize),
		log:    logger.Named("materialize"),
	}
}

// Materialize builds the result variant for doc's namespace with the given ranking score
func (m *Materializer) Materialize(ctx context.Context, doc types.Document, score int) model.SearchResult {
	base := model.Base{
		ID:           doc.ID,
		Namespace:    doc.Namespace,
		Title:        doc.Name,
		Icon:         m.Icon(ctx, doc),
		RankingScore: score,
	}

	switch doc.Namespace {
	case types.NamespaceApps:
		base.Subtitle = doc.Description
		return &model.AppResult{Base: base, PackageName: doc.ID}

	case types.NamespaceShortcuts, types.NamespaceStaticShortcuts:
		pkg, shortcutID, _ := types.SplitShortcutID(doc.ID)
		base.Subtitle = m.appLabel(pkg)
		if base.Subtitle == "" {
			base.Subtitle = doc.Description
		}
		return &model.ShortcutResult{Base: base, PackageName: pkg, ShortcutID: shortcutID, IntentURI: doc.IntentURI}

	case types.NamespaceSearchShortcuts:
		alias := doc.Description
		base.Subtitle = "Type \"" + alias + " \" to search"
		return &model.SearchIntentResult{Base: base, Alias: alias}

	case types.NamespaceContacts:
		target := doc.IntentURI
		photo, _, _ := strings.Cut(doc.Description, "|")
		phone := ""
		switch {
		case strings.HasPrefix(target, "tel:"):
			phone = strings.TrimPrefix(target, "tel:")
			base.Subtitle = phone
		case strings.HasPrefix(target, "mailto:"):
			base.Subtitle = strings.TrimPrefix(target, "mailto:")
		}
		return &model.ContactResult{Base: base, PhotoURI: photo, Phone: phone}

	case types.NamespaceSnippets:
		content := doc.IntentURI
		if content == "" {
			content = doc.Description
		}
		base.Subtitle = Preview(content)
		return &model.SnippetResult{Base: base, Alias: doc.Name, Content: content}

	case types.NamespaceWebBookmarks:
		base.Subtitle = doc.IntentURI
		return &model.ContentResult{Base: base, DeepLink: doc.IntentURI}

	default:
		base.Subtitle = doc.Description
		return &model.ContentResult{Base: base, DeepLink: doc.IntentURI, IsAction: doc.IsAction}
	}
}

// Icon returns the cached icon reference for doc, loading it on a miss.
// Failed loads are not cached so a later render can retry.
func (m *Materializer) Icon(ctx context.Context, doc types.Document) string {
	key := doc.Key()
	if icon, ok := m.cache.Get(key); ok {
		return icon
	}
	if m.icons == nil {
		return ""
	}
	icon, err := m.icons.Icon(ctx, doc)
	if err != nil {
		m.log.Debug("icon load failed", zap.String("key", key), zap.Error(err))
		return ""
	}
	m.cache.Put(key, icon)
	return icon
}

// InvalidateIcons drops cached icons of the given namespaces, or all icons if none are given
func (m *Materializer) InvalidateIcons(namespaces ...types.Namespace) {
	if len(namespaces) == 0 {
		m.cache.Clear()
		return
	}
	m.cache.DeleteFunc(func(key string, _ string) bool {
		for _, ns := range namespaces {
			if strings.HasPrefix(key, string(ns)+":") {
				return true
			}
		}
		return false
	})
}

// CachedIcons returns the number of cached icons
func (m *Materializer) CachedIcons() int {
	return m.cache.Len()
}

func (m *Materializer) appLabel(pkg string) string {
	if pkg == "" || m.lookup == nil {
		return ""
	}
	if app, ok := m.lookup(types.NamespaceApps, pkg); ok {
		return app.Name
	}
	return ""
}

// Preview returns the first line of s, cut to a subtitle-friendly length
func Preview(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	line = strings.TrimSpace(line)
	if utf8.RuneCountInString(line) <= maxSubtitleRunes {
		return line
	}
	r := []rune(line)
	return string(r[:maxSubtitleRunes-1]) + "…"
}
