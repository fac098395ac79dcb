package indexer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/igusev/qlaunch/internal/index"
	"github.com/igusev/qlaunch/internal/model"
	"github.com/igusev/qlaunch/internal/smartaction"
	"github.com/igusev/qlaunch/internal/source"
	"github.com/igusev/qlaunch/internal/types"
)

// builder enumerates one source and maps it to the documents of its namespace.
// Bad items are skipped and logged; only an unavailable source is an error.
type builder func(ctx context.Context) ([]types.Document, error)

func (m *Manager) builderFor(ns types.Namespace) (builder, bool) {
	switch ns {
	case types.NamespaceApps:
		return m.buildApps, m.sources.Apps != nil
	case types.NamespaceShortcuts:
		return m.buildShortcuts, m.sources.Shortcuts != nil
	case types.NamespaceStaticShortcuts:
		return m.buildStaticShortcuts, m.sources.StaticShortcuts != nil
	case types.NamespaceAppShortcuts:
		return m.buildAppShortcuts, m.sources.AppShortcuts != nil
	case types.NamespaceContacts:
		return m.buildContacts, m.sources.Contacts != nil
	case types.NamespaceSearchShortcuts:
		return m.buildSearchShortcuts, m.prefs != nil
	case types.NamespaceSnippets:
		return m.buildSnippets, m.prefs != nil
	}
	return nil, false
}

// skipper counts and logs skipped items for one pass
type skipper struct {
	log     *zap.Logger
	ns      types.Namespace
	skipped int
}

func (s *skipper) skip(item string, reason string) {
	s.skipped++
	s.log.Debug("skipping item", zap.String("namespace", string(s.ns)), zap.String("item", item), zap.String("reason", reason))
}

func (s *skipper) done(indexed int) {
	if s.skipped > 0 {
		s.log.Info("items skipped during pass",
			zap.String("namespace", string(s.ns)), zap.Int("indexed", indexed), zap.Int("skipped", s.skipped))
	}
}

func (m *Manager) buildApps(ctx context.Context) ([]types.Document, error) {
	apps, err := m.sources.Apps.Apps(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing apps: %w", err)
	}

	sk := &skipper{log: m.log, ns: types.NamespaceApps}
	docs := make([]types.Document, 0, len(apps))
	seen := make(map[string]bool, len(apps))
	for _, a := range apps {
		pkg := strings.TrimSpace(a.PackageName)
		switch {
		case pkg == "":
			sk.skip(a.Label, "missing package name")
			continue
		case seen[pkg]:
			sk.skip(pkg, "duplicate package")
			continue
		case m.excluded(pkg):
			sk.skip(pkg, "excluded")
			continue
		}
		seen[pkg] = true

		label := strings.TrimSpace(a.Label)
		if label == "" {
			label = pkg
		}
		docs = append(docs, types.Document{
			Namespace:   types.NamespaceApps,
			ID:          pkg,
			Name:        label,
			Description: a.Category,
			Score:       types.DefaultScore(types.NamespaceApps),
		})
	}
	sk.done(len(docs))
	return docs, nil
}

func (m *Manager) buildShortcuts(ctx context.Context) ([]types.Document, error) {
	list, err := m.sources.Shortcuts.Shortcuts(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing shortcuts: %w", err)
	}
	return m.shortcutDocuments(types.NamespaceShortcuts, list), nil
}

func (m *Manager) buildStaticShortcuts(ctx context.Context) ([]types.Document, error) {
	list, err := m.sources.StaticShortcuts.StaticShortcuts(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing static shortcuts: %w", err)
	}
	return m.shortcutDocuments(types.NamespaceStaticShortcuts, list), nil
}

// shortcutDocuments maps launcher shortcuts. Shortcuts of apps that are not
// installed are dropped once the apps namespace has been indexed.
func (m *Manager) shortcutDocuments(ns types.Namespace, list []source.Shortcut) []types.Document {
	installed := m.installedPackages()
	sk := &skipper{log: m.log, ns: ns}
	docs := make([]types.Document, 0, len(list))
	seen := make(map[string]bool, len(list))

	for _, s := range list {
		pkg := strings.TrimSpace(s.PackageName)
		id := types.ShortcutID(pkg, strings.TrimSpace(s.ID))
		switch {
		case pkg == "" || strings.TrimSpace(s.ID) == "":
			sk.skip(id, "missing package or id")
			continue
		case strings.TrimSpace(s.ShortLabel) == "":
			sk.skip(id, "missing label")
			continue
		case s.Disabled:
			sk.skip(id, "disabled")
			continue
		case m.excluded(pkg):
			sk.skip(id, "excluded")
			continue
		case installed != nil && !installed[pkg]:
			sk.skip(id, "package not installed")
			continue
		case seen[id]:
			sk.skip(id, "duplicate")
			continue
		}
		seen[id] = true

		docs = append(docs, types.Document{
			Namespace:   ns,
			ID:          id,
			Name:        strings.TrimSpace(s.ShortLabel),
			Description: s.LongLabel,
			Score:       types.DefaultScore(ns),
			IntentURI:   s.IntentURI,
			IconResID:   s.IconResID,
		})
	}
	sk.done(len(docs))
	return docs
}

func (m *Manager) buildAppShortcuts(ctx context.Context) ([]types.Document, error) {
	list, err := m.sources.AppShortcuts.AppShortcuts(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing launcher actions: %w", err)
	}

	sk := &skipper{log: m.log, ns: types.NamespaceAppShortcuts}
	docs := make([]types.Document, 0, len(list))
	for _, a := range list {
		if a.ID == "" || a.Label == "" {
			sk.skip(a.ID, "missing id or label")
			continue
		}
		docs = append(docs, types.Document{
			Namespace:   types.NamespaceAppShortcuts,
			ID:          types.AppShortcutID(a.ID),
			Name:        a.Label,
			Description: a.Description,
			Score:       types.DefaultScore(types.NamespaceAppShortcuts),
			IntentURI:   a.DeepLink,
			IsAction:    true,
		})
	}
	sk.done(len(docs))
	return docs, nil
}

func (m *Manager) buildContacts(ctx context.Context) ([]types.Document, error) {
	contacts, err := m.sources.Contacts.Contacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing contacts: %w", err)
	}

	sk := &skipper{log: m.log, ns: types.NamespaceContacts}
	docs := make([]types.Document, 0, len(contacts))
	seen := make(map[string]bool, len(contacts))
	for _, c := range contacts {
		name := strings.TrimSpace(c.Name)
		switch {
		case c.ID == "":
			sk.skip(name, "missing id")
			continue
		case name == "":
			sk.skip(c.ID, "missing name")
			continue
		case seen[c.ID]:
			sk.skip(c.ID, "duplicate")
			continue
		}
		seen[c.ID] = true
		docs = append(docs, ContactDocument(c))
	}
	sk.done(len(docs))
	return docs, nil
}

// ContactDocument maps a contact. Description is "photoUri|tokens" where the
// tokens are every phone variant and email, so "0612", "+31 6" and "31612"
// all find the same person.
func ContactDocument(c source.Contact) types.Document {
	var tokens []string
	seen := make(map[string]bool)
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			tokens = append(tokens, s)
		}
	}
	for _, p := range c.Phones {
		for _, v := range smartaction.PhoneVariants(p) {
			add(v)
		}
	}
	for _, e := range c.Emails {
		add(strings.ToLower(strings.TrimSpace(e)))
	}

	intent := ""
	switch {
	case len(c.Phones) > 0 && smartaction.NormalizePhone(c.Phones[0]) != "":
		intent = "tel:" + smartaction.Dialable(c.Phones[0])
	case len(c.Emails) > 0:
		intent = "mailto:" + strings.TrimSpace(c.Emails[0])
	}

	return types.Document{
		Namespace:   types.NamespaceContacts,
		ID:          c.ID,
		Name:        strings.TrimSpace(c.Name),
		Description: c.PhotoURI + "|" + strings.Join(tokens, " "),
		Score:       types.DefaultScore(types.NamespaceContacts),
		IntentURI:   intent,
	}
}

func (m *Manager) buildSearchShortcuts(ctx context.Context) ([]types.Document, error) {
	list, err := m.prefs.SearchShortcuts(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading search shortcuts: %w", err)
	}

	sk := &skipper{log: m.log, ns: types.NamespaceSearchShortcuts}
	docs := make([]types.Document, 0, len(list))
	for _, sc := range list {
		if !sc.Valid() || sc.ID == "" {
			sk.skip(sc.Alias, "invalid shortcut")
			continue
		}
		docs = append(docs, SearchShortcutDocument(sc))
	}
	sk.done(len(docs))
	return docs, nil
}

// SearchShortcutDocument mirrors a search shortcut into the store.
// The alias goes in Description so step-4 hits can be matched to an activated alias.
func SearchShortcutDocument(sc model.SearchShortcut) types.Document {
	name := sc.Description
	if name == "" {
		name = sc.Alias
	}
	return types.Document{
		Namespace:   types.NamespaceSearchShortcuts,
		ID:          sc.ID,
		Name:        name,
		Description: sc.Alias,
		Score:       types.DefaultScore(types.NamespaceSearchShortcuts),
		IntentURI:   sc.URLTemplate,
	}
}

func (m *Manager) buildSnippets(ctx context.Context) ([]types.Document, error) {
	list, err := m.prefs.Snippets(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading snippets: %w", err)
	}

	sk := &skipper{log: m.log, ns: types.NamespaceSnippets}
	docs := make([]types.Document, 0, len(list))
	for _, sn := range list {
		if strings.TrimSpace(sn.Alias) == "" {
			sk.skip(sn.Content, "missing alias")
			continue
		}
		docs = append(docs, types.Document{
			Namespace:   types.NamespaceSnippets,
			ID:          strings.ToLower(strings.TrimSpace(sn.Alias)),
			Name:        strings.TrimSpace(sn.Alias),
			Description: index.SearchableText(sn.Content),
			Score:       types.DefaultScore(types.NamespaceSnippets),
			IntentURI:   sn.Content,
		})
	}
	sk.done(len(docs))
	return docs, nil
}

// installedPackages returns the indexed app packages, or nil if no apps are indexed yet
func (m *Manager) installedPackages() map[string]bool {
	apps := m.store.Namespace(types.NamespaceApps)
	if len(apps) == 0 {
		return nil
	}
	installed := make(map[string]bool, len(apps))
	for _, a := range apps {
		installed[a.ID] = true
	}
	return installed
}

func (m *Manager) excluded(pkg string) bool {
	return m.exclude != nil && m.exclude(pkg)
}
