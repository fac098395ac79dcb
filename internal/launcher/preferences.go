package launcher

import (
	"context"

	"go.uber.org/zap"

	"github.com/igusev/qlaunch/internal/model"
)

// Every mutation below writes the repository first, then re-derives the
// namespace mirrored from it so search sees the change immediately.

// SearchShortcuts returns the configured search shortcuts
func (l *Launcher) SearchShortcuts(ctx context.Context) ([]model.SearchShortcut, error) {
	return l.prefs.SearchShortcuts(ctx)
}

// SetSearchShortcuts replaces every search shortcut
func (l *Launcher) SetSearchShortcuts(ctx context.Context, list []model.SearchShortcut) error {
	if err := l.prefs.SetSearchShortcuts(ctx, list); err != nil {
		return err
	}
	return l.IndexCustomShortcuts(ctx)
}

// AddSearchShortcut stores sc, replacing a shortcut with the same alias
func (l *Launcher) AddSearchShortcut(ctx context.Context, sc model.SearchShortcut) (model.SearchShortcut, error) {
	saved, err := l.prefs.AddSearchShortcut(ctx, sc)
	if err != nil {
		return saved, err
	}
	return saved, l.IndexCustomShortcuts(ctx)
}

// RemoveSearchShortcut deletes the shortcut with the given id or alias
func (l *Launcher) RemoveSearchShortcut(ctx context.Context, idOrAlias string) (bool, error) {
	removed, err := l.prefs.RemoveSearchShortcut(ctx, idOrAlias)
	if err != nil || !removed {
		return removed, err
	}
	return true, l.IndexCustomShortcuts(ctx)
}

// Snippets returns the configured snippets
func (l *Launcher) Snippets(ctx context.Context) ([]model.Snippet, error) {
	return l.prefs.Snippets(ctx)
}

// SetSnippets replaces every snippet
func (l *Launcher) SetSnippets(ctx context.Context, list []model.Snippet) error {
	if err := l.prefs.SetSnippets(ctx, list); err != nil {
		return err
	}
	return l.IndexSnippets(ctx)
}

// AddSnippet stores sn, replacing a snippet with the same alias
func (l *Launcher) AddSnippet(ctx context.Context, sn model.Snippet) error {
	if err := l.prefs.AddSnippet(ctx, sn); err != nil {
		return err
	}
	return l.IndexSnippets(ctx)
}

// RemoveSnippet deletes the snippet with the given alias
func (l *Launcher) RemoveSnippet(ctx context.Context, alias string) (bool, error) {
	removed, err := l.prefs.RemoveSnippet(ctx, alias)
	if err != nil || !removed {
		return removed, err
	}
	return true, l.IndexSnippets(ctx)
}

// AddFavorite pins a result by its "namespace:id" key
func (l *Launcher) AddFavorite(ctx context.Context, key string) error {
	if _, _, err := splitFavorite(key); err != nil {
		return err
	}
	if err := l.prefs.AddFavorite(ctx, key); err != nil {
		return err
	}
	_, err := l.Favorites(ctx)
	return err
}

// RemoveFavorite unpins a result
func (l *Launcher) RemoveFavorite(ctx context.Context, key string) (bool, error) {
	removed, err := l.prefs.RemoveFavorite(ctx, key)
	if err != nil || !removed {
		return removed, err
	}
	_, err = l.Favorites(ctx)
	return true, err
}

// Favorites materializes the pinned results in display order and refreshes the
// cold-start cache. Pins whose document is gone are skipped, not removed, so
// they come back once the source reappears.
func (l *Launcher) Favorites(ctx context.Context) ([]model.SearchResult, error) {
	keys, err := l.prefs.Favorites(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]model.SearchResult, 0, len(keys))
	views := make([]model.Favorite, 0, len(keys))
	for _, key := range keys {
		ns, id, err := splitFavorite(key)
		if err != nil {
			l.log.Debug("skipping malformed favorite", zap.String("key", key))
			continue
		}
		doc, ok := l.store.Get(ns, id)
		if !ok {
			continue
		}
		r := l.mat.Materialize(ctx, doc, 0)
		results = append(results, r)
		views = append(views, favoriteView(r))
	}

	if err := l.cache.WriteFavorites(views); err != nil {
		l.log.Warn("failed to cache favorites", zap.Error(err))
	}
	return results, nil
}

// CachedFavorites returns the favorites written by the last Favorites call,
// for display before the index is loaded
func (l *Launcher) CachedFavorites() ([]model.Favorite, error) {
	return l.cache.ReadFavorites()
}

func favoriteView(r model.SearchResult) model.Favorite {
	b := r.Common()
	return model.Favorite{
		ID:        b.ID,
		Namespace: b.Namespace,
		Title:     b.Title,
		Subtitle:  b.Subtitle,
	}
}
