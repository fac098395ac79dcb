package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/igusev/qlaunch/internal/model"
)

// SearchShortcuts returns the configured shortcuts, or the built-in defaults
// if none were ever saved or the stored list is unreadable
func (s *Store) SearchShortcuts(ctx context.Context) ([]model.SearchShortcut, error) {
	var list []model.SearchShortcut
	found, err := s.getJSON(ctx, keySearchShortcuts, &list)
	if err != nil {
		return model.DefaultSearchShortcuts(), err
	}
	if !found {
		return model.DefaultSearchShortcuts(), nil
	}
	return list, nil
}

// SetSearchShortcuts replaces the shortcut list. Missing ids are assigned,
// invalid entries are rejected, and later duplicates of an alias win.
func (s *Store) SetSearchShortcuts(ctx context.Context, list []model.SearchShortcut) error {
	clean := make([]model.SearchShortcut, 0, len(list))
	byAlias := make(map[string]int, len(list))
	for _, sc := range list {
		if !sc.Valid() {
			return fmt.Errorf("invalid search shortcut %q", sc.Alias)
		}
		if sc.ID == "" {
			sc.ID = uuid.NewString()
		}
		alias := strings.ToLower(sc.Alias)
		if i, ok := byAlias[alias]; ok {
			clean[i] = sc
			continue
		}
		byAlias[alias] = len(clean)
		clean = append(clean, sc)
	}
	return s.putJSON(ctx, keySearchShortcuts, clean)
}

// AddSearchShortcut adds sc, replacing any shortcut with the same alias
func (s *Store) AddSearchShortcut(ctx context.Context, sc model.SearchShortcut) (model.SearchShortcut, error) {
	if !sc.Valid() {
		return model.SearchShortcut{}, fmt.Errorf("invalid search shortcut %q", sc.Alias)
	}
	list, err := s.SearchShortcuts(ctx)
	if err != nil {
		return model.SearchShortcut{}, err
	}
	if sc.ID == "" {
		sc.ID = uuid.NewString()
	}

	replaced := false
	for i := range list {
		if strings.EqualFold(list[i].Alias, sc.Alias) {
			sc.ID = list[i].ID
			list[i] = sc
			replaced = true
			break
		}
	}
	if !replaced {
		list = append(list, sc)
	}
	return sc, s.SetSearchShortcuts(ctx, list)
}

// RemoveSearchShortcut removes the shortcut whose id or alias equals key
func (s *Store) RemoveSearchShortcut(ctx context.Context, key string) (bool, error) {
	list, err := s.SearchShortcuts(ctx)
	if err != nil {
		return false, err
	}
	kept := list[:0:0]
	for _, sc := range list {
		if sc.ID == key || strings.EqualFold(sc.Alias, key) {
			continue
		}
		kept = append(kept, sc)
	}
	if len(kept) == len(list) {
		return false, nil
	}
	return true, s.putJSON(ctx, keySearchShortcuts, kept)
}

// Snippets returns the saved snippets
func (s *Store) Snippets(ctx context.Context) ([]model.Snippet, error) {
	var list []model.Snippet
	found, err := s.getJSON(ctx, keySnippets, &list)
	if err != nil || !found {
		return nil, err
	}
	return list, nil
}

// SetSnippets replaces the snippet list; later duplicates of an alias win
func (s *Store) SetSnippets(ctx context.Context, list []model.Snippet) error {
	clean := make([]model.Snippet, 0, len(list))
	byAlias := make(map[string]int, len(list))
	for _, sn := range list {
		if strings.TrimSpace(sn.Alias) == "" {
			return fmt.Errorf("snippet alias is empty")
		}
		alias := strings.ToLower(sn.Alias)
		if i, ok := byAlias[alias]; ok {
			clean[i] = sn
			continue
		}
		byAlias[alias] = len(clean)
		clean = append(clean, sn)
	}
	return s.putJSON(ctx, keySnippets, clean)
}

// AddSnippet adds sn, replacing any snippet with the same alias
func (s *Store) AddSnippet(ctx context.Context, sn model.Snippet) error {
	list, err := s.Snippets(ctx)
	if err != nil {
		return err
	}
	return s.SetSnippets(ctx, append(list, sn))
}

// RemoveSnippet removes the snippet with alias
func (s *Store) RemoveSnippet(ctx context.Context, alias string) (bool, error) {
	list, err := s.Snippets(ctx)
	if err != nil {
		return false, err
	}
	kept := list[:0:0]
	for _, sn := range list {
		if !strings.EqualFold(sn.Alias, alias) {
			kept = append(kept, sn)
		}
	}
	if len(kept) == len(list) {
		return false, nil
	}
	return true, s.putJSON(ctx, keySnippets, kept)
}

// Favorites returns pinned result keys ("namespace:id") in display order
func (s *Store) Favorites(ctx context.Context) ([]string, error) {
	var keys []string
	found, err := s.getJSON(ctx, keyFavorites, &keys)
	if err != nil || !found {
		return nil, err
	}
	return keys, nil
}

// SetFavorites replaces the favorites list, dropping duplicates
func (s *Store) SetFavorites(ctx context.Context, keys []string) error {
	seen := make(map[string]bool, len(keys))
	clean := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		clean = append(clean, k)
	}
	return s.putJSON(ctx, keyFavorites, clean)
}

// AddFavorite appends key if not already pinned
func (s *Store) AddFavorite(ctx context.Context, key string) error {
	keys, err := s.Favorites(ctx)
	if err != nil {
		return err
	}
	return s.SetFavorites(ctx, append(keys, key))
}

// RemoveFavorite unpins key
func (s *Store) RemoveFavorite(ctx context.Context, key string) (bool, error) {
	keys, err := s.Favorites(ctx)
	if err != nil {
		return false, err
	}
	kept := keys[:0:0]
	for _, k := range keys {
		if k != key {
			kept = append(kept, k)
		}
	}
	if len(kept) == len(keys) {
		return false, nil
	}
	return true, s.SetFavorites(ctx, kept)
}
