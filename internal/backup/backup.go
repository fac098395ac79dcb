// Package backup reads and writes the versioned JSON backup of the user's
// search shortcuts, snippets and favorites.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/igusev/qlaunch/internal/logger"
	"github.com/igusev/qlaunch/internal/model"
	"github.com/igusev/qlaunch/internal/types"
	"go.uber.org/zap"
)

// CurrentVersion is the newest backup format this build reads and the one it writes.
// Version 1 used the quickCopy and customShortcuts keys.
const CurrentVersion = 2

// ErrUnsupportedVersion is returned for backups written by a newer release
var ErrUnsupportedVersion = errors.New("unsupported backup version")

// ErrMalformedBackup is returned when the backup is not a JSON object
var ErrMalformedBackup = errors.New("malformed backup")

// Repository is the preference storage a backup is taken from and restored into
type Repository interface {
	SearchShortcuts(ctx context.Context) ([]model.SearchShortcut, error)
	SetSearchShortcuts(ctx context.Context, list []model.SearchShortcut) error
	Snippets(ctx context.Context) ([]model.Snippet, error)
	SetSnippets(ctx context.Context, list []model.Snippet) error
	Favorites(ctx context.Context) ([]string, error)
	SetFavorites(ctx context.Context, keys []string) error
}

// File is the on-disk backup document
type File struct {
	Version         int                    `json:"version"`
	Snippets        []model.Snippet        `json:"snippets"`
	SearchShortcuts []model.SearchShortcut `json:"searchShortcuts"`
	Favorites       []string               `json:"favorites"`
}

// Section names used in Report
const (
	SectionSnippets        = "snippets"
	SectionSearchShortcuts = "searchShortcuts"
	SectionFavorites       = "favorites"
)

// Report summarizes an import. A section that fails is recorded in Errors
// and does not stop the other sections.
type Report struct {
	Version         int
	Snippets        int
	SearchShortcuts int
	Favorites       int
	Skipped         int
	Errors          map[string]error
}

// OK reports whether every section imported cleanly
func (r *Report) OK() bool {
	return len(r.Errors) == 0
}

// Total returns the number of imported entries
func (r *Report) Total() int {
	return r.Snippets + r.SearchShortcuts + r.Favorites
}

func (r *Report) fail(section string, err error) {
	if r.Errors == nil {
		r.Errors = make(map[string]error)
	}
	r.Errors[section] = err
}

// Export writes the current repository contents as indented JSON
func Export(ctx context.Context, repo Repository, w io.Writer) (*File, error) {
	shortcuts, err := repo.SearchShortcuts(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading search shortcuts: %w", err)
	}
	snippets, err := repo.Snippets(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading snippets: %w", err)
	}
	favorites, err := repo.Favorites(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading favorites: %w", err)
	}

	f := &File{
		Version:         CurrentVersion,
		Snippets:        nonNil(snippets),
		SearchShortcuts: nonNil(shortcuts),
		Favorites:       nonNil(favorites),
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f); err != nil {
		return nil, fmt.Errorf("encoding backup: %w", err)
	}
	return f, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// legacyShortcut is an entry of the version 1 customShortcuts array
type legacyShortcut struct {
	Type string `json:"type"`
	model.SearchShortcut
}

// Import restores a backup. The version is checked before anything is written:
// a backup newer than CurrentVersion fails with ErrUnsupportedVersion and
// leaves the repository untouched. Otherwise each section present in the
// backup replaces the stored one; malformed entries are skipped.
func Import(ctx context.Context, repo Repository, r io.Reader) (*Report, error) {
	log := logger.Named("backup")

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedBackup, err)
	}

	version := 1
	if v, ok := raw["version"]; ok {
		if err := json.Unmarshal(v, &version); err != nil {
			return nil, fmt.Errorf("%w: version: %w", ErrMalformedBackup, err)
		}
	}
	if version > CurrentVersion {
		return nil, fmt.Errorf("%w: backup is version %d, this build supports up to %d",
			ErrUnsupportedVersion, version, CurrentVersion)
	}

	report := &Report{Version: version}

	if data, ok := firstPresent(raw, "snippets", "quickCopy"); ok {
		snippets, skipped, err := decodeSnippets(data)
		report.Skipped += skipped
		if err == nil {
			err = repo.SetSnippets(ctx, snippets)
		}
		if err != nil {
			log.Warn("snippet import failed", zap.Error(err))
			report.fail(SectionSnippets, err)
		} else {
			report.Snippets = len(snippets)
		}
	}

	if data, ok := raw["searchShortcuts"]; ok {
		shortcuts, skipped, err := decodeShortcuts(data)
		report.Skipped += skipped
		if err == nil {
			err = repo.SetSearchShortcuts(ctx, shortcuts)
		}
		if err != nil {
			log.Warn("search shortcut import failed", zap.Error(err))
			report.fail(SectionSearchShortcuts, err)
		} else {
			report.SearchShortcuts = len(shortcuts)
		}
	} else if data, ok := raw["customShortcuts"]; ok {
		shortcuts, skipped, err := decodeLegacyShortcuts(data)
		report.Skipped += skipped
		if err == nil {
			err = repo.SetSearchShortcuts(ctx, shortcuts)
		}
		if err != nil {
			log.Warn("legacy shortcut import failed", zap.Error(err))
			report.fail(SectionSearchShortcuts, err)
		} else {
			report.SearchShortcuts = len(shortcuts)
		}
	}

	if data, ok := raw["favorites"]; ok {
		favorites, skipped, err := decodeFavorites(data)
		report.Skipped += skipped
		if err == nil {
			err = repo.SetFavorites(ctx, favorites)
		}
		if err != nil {
			log.Warn("favorite import failed", zap.Error(err))
			report.fail(SectionFavorites, err)
		} else {
			report.Favorites = len(favorites)
		}
	}

	log.Debug("backup imported",
		zap.Int("version", version),
		zap.Int("snippets", report.Snippets),
		zap.Int("search_shortcuts", report.SearchShortcuts),
		zap.Int("favorites", report.Favorites),
		zap.Int("skipped", report.Skipped))
	return report, nil
}

func firstPresent(raw map[string]json.RawMessage, keys ...string) (json.RawMessage, bool) {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			return v, true
		}
	}
	return nil, false
}

// decodeEach decodes a JSON array element by element so one bad entry only skips itself
func decodeEach[T any](data json.RawMessage, keep func(*T) bool) ([]T, int, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, 0, fmt.Errorf("expected an array: %w", err)
	}
	out := make([]T, 0, len(items))
	skipped := 0
	for _, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil || !keep(&v) {
			skipped++
			continue
		}
		out = append(out, v)
	}
	return out, skipped, nil
}

func decodeSnippets(data json.RawMessage) ([]model.Snippet, int, error) {
	return decodeEach(data, func(s *model.Snippet) bool {
		s.Alias = strings.TrimSpace(s.Alias)
		return s.Alias != ""
	})
}

func decodeShortcuts(data json.RawMessage) ([]model.SearchShortcut, int, error) {
	return decodeEach(data, func(s *model.SearchShortcut) bool {
		return normalizeShortcut(s)
	})
}

// decodeLegacyShortcuts keeps only "type":"search" entries. Entries that lost
// their URL template are completed from the built-in legacy list by alias.
func decodeLegacyShortcuts(data json.RawMessage) ([]model.SearchShortcut, int, error) {
	legacy := model.LegacySearchShortcuts()
	entries, skipped, err := decodeEach(data, func(l *legacyShortcut) bool {
		if !strings.EqualFold(l.Type, "search") {
			return false
		}
		if l.URLTemplate == "" {
			known, ok := legacy[strings.ToLower(strings.TrimSpace(l.Alias))]
			if !ok {
				return false
			}
			l.URLTemplate = known.URLTemplate
			if l.SuggestionURL == "" {
				l.SuggestionURL = known.SuggestionURL
			}
			if l.Description == "" {
				l.Description = known.Description
			}
			if l.PackageName == "" {
				l.PackageName = known.PackageName
			}
		}
		return normalizeShortcut(&l.SearchShortcut)
	})
	if err != nil {
		return nil, skipped, err
	}

	out := make([]model.SearchShortcut, len(entries))
	for i, e := range entries {
		out[i] = e.SearchShortcut
	}
	return out, skipped, nil
}

func normalizeShortcut(s *model.SearchShortcut) bool {
	s.Alias = strings.TrimSpace(s.Alias)
	if !s.Valid() {
		return false
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return true
}

// decodeFavorites accepts "namespace:id" keys. Bare ids from older releases
// referred to apps.
func decodeFavorites(data json.RawMessage) ([]string, int, error) {
	return decodeEach(data, func(key *string) bool {
		k := strings.TrimSpace(*key)
		if k == "" {
			return false
		}
		if ns, _, found := strings.Cut(k, ":"); !found || !isNamespace(ns) {
			k = types.Key(types.NamespaceApps, k)
		}
		*key = k
		return true
	})
}

func isNamespace(s string) bool {
	_, err := types.ParseNamespace(s)
	return err == nil
}
