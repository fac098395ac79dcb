package materialize

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/igusev/qlaunch/internal/model"
	"github.com/igusev/qlaunch/internal/types"
)

type countingLoader struct {
	calls int
	fail  bool
}

func (l *countingLoader) Icon(_ context.Context, doc types.Document) (string, error) {
	l.calls++
	if l.fail {
		return "", errors.New("no icon")
	}
	return "icon:" + doc.Key(), nil
}

func TestMaterialize_Variants(t *testing.T) {
	apps := map[string]types.Document{
		"com.app.mail": {Namespace: types.NamespaceApps, ID: "com.app.mail", Name: "Mail"},
	}
	lookup := func(ns types.Namespace, id string) (types.Document, bool) {
		d, ok := apps[id]
		return d, ok && ns == types.NamespaceApps
	}
	m := New(&countingLoader{}, lookup)
	ctx := context.Background()

	tests := []struct {
		name     string
		doc      types.Document
		kind     model.Kind
		subtitle string
		target   string
	}{
		{
			"app",
			types.Document{Namespace: types.NamespaceApps, ID: "com.app.maps", Name: "Maps", Description: "travel"},
			model.KindApp, "travel", "com.app.maps",
		},
		{
			"dynamic shortcut names its app",
			types.Document{Namespace: types.NamespaceShortcuts, ID: "com.app.mail/compose", Name: "Compose", IntentURI: "intent:compose"},
			model.KindShortcut, "Mail", "intent:compose",
		},
		{
			"static shortcut without known app",
			types.Document{Namespace: types.NamespaceStaticShortcuts, ID: "com.app.x/scan", Name: "Scan", Description: "Scan a code"},
			model.KindShortcut, "Scan a code", "com.app.x/scan",
		},
		{
			"search shortcut",
			types.Document{Namespace: types.NamespaceSearchShortcuts, ID: "s1", Name: "YouTube", Description: "y"},
			model.KindSearchIntent, "Type \"y \" to search", "",
		},
		{
			"contact with phone",
			types.Document{Namespace: types.NamespaceContacts, ID: "42", Name: "Jane", Description: "content://p/42|31612345678", IntentURI: "tel:+31612345678"},
			model.KindContact, "+31612345678", "tel:+31612345678",
		},
		{
			"contact with email only",
			types.Document{Namespace: types.NamespaceContacts, ID: "43", Name: "Joe", Description: "|joe@example.com", IntentURI: "mailto:joe@example.com"},
			model.KindContact, "joe@example.com", "content://contacts/43",
		},
		{
			"snippet keeps raw content",
			types.Document{Namespace: types.NamespaceSnippets, ID: "addr", Name: "addr", Description: "Main St 1", IntentURI: "**Main St** 1\nCity"},
			model.KindSnippet, "**Main St** 1", "**Main St** 1\nCity",
		},
		{
			"bookmark",
			types.Document{Namespace: types.NamespaceWebBookmarks, ID: "web_1", Name: "Go", IntentURI: "https://go.dev"},
			model.KindContent, "https://go.dev", "https://go.dev",
		},
		{
			"launcher action",
			types.Document{Namespace: types.NamespaceAppShortcuts, ID: "app_settings", Name: "Settings", Description: "Preferences", IntentURI: "qlaunch://settings", IsAction: true},
			model.KindContent, "Preferences", "qlaunch://settings",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := m.Materialize(ctx, tt.doc, 123)
			if r.Kind() != tt.kind {
				t.Fatalf("Kind() = %s, want %s", r.Kind(), tt.kind)
			}
			b := r.Common()
			if b.RankingScore != 123 || b.ID != tt.doc.ID || b.Namespace != tt.doc.Namespace || b.Title != tt.doc.Name {
				t.Errorf("base = %+v", b)
			}
			if b.Subtitle != tt.subtitle {
				t.Errorf("Subtitle = %q, want %q", b.Subtitle, tt.subtitle)
			}
			if got := model.LaunchTarget(r); got != tt.target {
				t.Errorf("LaunchTarget = %q, want %q", got, tt.target)
			}
			if b.Icon != "icon:"+tt.doc.Key() {
				t.Errorf("Icon = %q", b.Icon)
			}
		})
	}
}

func TestIcon_CachedByKey(t *testing.T) {
	loader := &countingLoader{}
	m := New(loader, nil)
	ctx := context.Background()
	doc := types.Document{Namespace: types.NamespaceApps, ID: "com.app.a"}

	for i := 0; i < 5; i++ {
		m.Icon(ctx, doc)
	}
	if loader.calls != 1 {
		t.Errorf("loader called %d times, want 1", loader.calls)
	}

	// Same id in another namespace is a different key
	m.Icon(ctx, types.Document{Namespace: types.NamespaceContacts, ID: "com.app.a"})
	if loader.calls != 2 {
		t.Errorf("loader called %d times, want 2", loader.calls)
	}
}

func TestIcon_BoundedAndInvalidated(t *testing.T) {
	loader := &countingLoader{}
	m := New(loader, nil)
	ctx := context.Background()

	for i := 0; i < IconCacheSize+50; i++ {
		m.Icon(ctx, types.Document{Namespace: types.NamespaceApps, ID: strings.Repeat("a", i+1)})
	}
	if m.CachedIcons() != IconCacheSize {
		t.Errorf("CachedIcons() = %d, want %d", m.CachedIcons(), IconCacheSize)
	}

	m.Icon(ctx, types.Document{Namespace: types.NamespaceContacts, ID: "1"})
	m.InvalidateIcons(types.NamespaceApps)
	if m.CachedIcons() != 1 {
		t.Errorf("after invalidating apps, CachedIcons() = %d, want 1", m.CachedIcons())
	}
	m.InvalidateIcons()
	if m.CachedIcons() != 0 {
		t.Errorf("after full invalidation, CachedIcons() = %d", m.CachedIcons())
	}
}

func TestIcon_FailuresNotCached(t *testing.T) {
	loader := &countingLoader{fail: true}
	m := New(loader, nil)
	doc := types.Document{Namespace: types.NamespaceApps, ID: "x"}
	if icon := m.Icon(context.Background(), doc); icon != "" {
		t.Errorf("Icon() = %q, want empty", icon)
	}
	m.Icon(context.Background(), doc)
	if loader.calls != 2 {
		t.Errorf("loader called %d times, want 2", loader.calls)
	}
}

func TestPreview(t *testing.T) {
	if got := Preview("  first\nsecond"); got != "first" {
		t.Errorf("Preview = %q", got)
	}
	long := strings.Repeat("x", 100)
	got := Preview(long)
	if len([]rune(got)) != maxSubtitleRunes || !strings.HasSuffix(got, "…") {
		t.Errorf("Preview(long) = %q", got)
	}
}
