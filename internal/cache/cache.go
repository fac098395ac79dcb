// Package cache keeps small plain-text files next to the index: reindex
// timestamps and the favorites view models shown instantly on cold start.
package cache

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/igusev/qlaunch/internal/model"
	"github.com/igusev/qlaunch/internal/types"
)

const (
	favoritesFileName       = "favorites.txt"
	lastFullReindexFileName = ".last_full_reindex_time"
)

// Cache manages the local cache directory
type Cache struct {
	dir string
}

// New creates a new Cache instance
func New(dir string) *Cache {
	return &Cache{dir: dir}
}

// EnsureDir ensures the cache directory exists
func (c *Cache) EnsureDir() error {
	return os.MkdirAll(c.dir, 0755)
}

// FavoritesPath returns the full path to the favorites cache file
func (c *Cache) FavoritesPath() string {
	return filepath.Join(c.dir, favoritesFileName)
}

// WriteFavorites writes favorites view models to the cache
// Format: namespace|id|title|subtitle (one per line, '|' and '\' escaped)
func (c *Cache) WriteFavorites(favorites []model.Favorite) error {
	if err := c.EnsureDir(); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	f, err := os.Create(c.FavoritesPath())
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	defer f.Close()

	writer := bufio.NewWriter(f)
	for _, fav := range favorites {
		line := strings.Join([]string{
			escapeField(string(fav.Namespace)),
			escapeField(fav.ID),
			escapeField(fav.Title),
			escapeField(fav.Subtitle),
		}, "|") + "\n"
		if _, err := writer.WriteString(line); err != nil {
			return fmt.Errorf("failed to write favorite: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush cache file: %w", err)
	}
	return nil
}

// ReadFavorites reads the cached favorites. A missing file yields an empty list.
// Malformed lines are skipped.
func (c *Cache) ReadFavorites() ([]model.Favorite, error) {
	f, err := os.Open(c.FavoritesPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open cache file: %w", err)
	}
	defer f.Close()

	var favorites []model.Favorite
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		parts := splitEscaped(line)
		if len(parts) < 3 || parts[0] == "" || parts[1] == "" {
			continue
		}

		fav := model.Favorite{
			Namespace: types.Namespace(parts[0]),
			ID:        parts[1],
			Title:     parts[2],
		}
		if len(parts) >= 4 {
			fav.Subtitle = parts[3]
		}
		favorites = append(favorites, fav)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}
	return favorites, nil
}

// ClearFavorites removes the favorites cache file
func (c *Cache) ClearFavorites() error {
	if err := os.Remove(c.FavoritesPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove favorites cache: %w", err)
	}
	return nil
}

// SaveLastFullReindexTime saves the last successful full reindex timestamp
func (c *Cache) SaveLastFullReindexTime(t time.Time) error {
	return c.saveTime(lastFullReindexFileName, t)
}

// LoadLastFullReindexTime loads the last successful full reindex timestamp
// Returns zero time if no full reindex has completed yet
func (c *Cache) LoadLastFullReindexTime() (time.Time, error) {
	return c.loadTime(lastFullReindexFileName)
}

// ClearLastFullReindexTime forgets the last full reindex, forcing one on next start
func (c *Cache) ClearLastFullReindexTime() error {
	err := os.Remove(filepath.Join(c.dir, lastFullReindexFileName))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove reindex timestamp: %w", err)
	}
	return nil
}

// SaveLastIndexTime saves when ns was last indexed
func (c *Cache) SaveLastIndexTime(ns types.Namespace, t time.Time) error {
	return c.saveTime(".last_index_"+string(ns), t)
}

// LoadLastIndexTime loads when ns was last indexed; zero time if never
func (c *Cache) LoadLastIndexTime(ns types.Namespace) (time.Time, error) {
	return c.loadTime(".last_index_" + string(ns))
}

func (c *Cache) saveTime(name string, t time.Time) error {
	if err := c.EnsureDir(); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data := []byte(t.Format(time.RFC3339))
	if err := os.WriteFile(filepath.Join(c.dir, name), data, 0644); err != nil {
		return fmt.Errorf("failed to save timestamp %s: %w", name, err)
	}
	return nil
}

func (c *Cache) loadTime(name string) (time.Time, error) {
	data, err := os.ReadFile(filepath.Join(c.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to read timestamp %s: %w", name, err)
	}

	t, err := time.Parse(time.RFC3339, strings.TrimSpace(string(data)))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %s: %w", name, err)
	}
	return t, nil
}

// escapeField flattens newlines and escapes '\' and '|'
func escapeField(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "|", `\|`)
}

// splitEscaped splits on unescaped '|' and unescapes each field
func splitEscaped(line string) []string {
	var parts []string
	var cur strings.Builder
	escaped := false
	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '|':
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	return append(parts, cur.String())
}
