package model

import (
	"net/url"
	"strings"

	"github.com/igusev/qlaunch/internal/types"
)

// URLPlaceholder is substituted by the URL-encoded search term
const URLPlaceholder = "%s"

// SearchShortcut maps an alias typed as the first query word to a URL template
type SearchShortcut struct {
	ID            string `json:"id"`
	Alias         string `json:"alias"`
	URLTemplate   string `json:"urlTemplate"`
	Description   string `json:"description"`
	Color         *int   `json:"color,omitempty"`
	SuggestionURL string `json:"suggestionUrl,omitempty"`
	PackageName   string `json:"packageName,omitempty"`
}

// BuildURL fills the template with the query-escaped term
func (s SearchShortcut) BuildURL(term string) string {
	return strings.Replace(s.URLTemplate, URLPlaceholder, url.QueryEscape(strings.TrimSpace(term)), 1)
}

// BuildSuggestionURL fills the suggestion endpoint with the term, empty if none is configured
func (s SearchShortcut) BuildSuggestionURL(term string) string {
	if s.SuggestionURL == "" {
		return ""
	}
	return strings.Replace(s.SuggestionURL, URLPlaceholder, url.QueryEscape(strings.TrimSpace(term)), 1)
}

// Valid reports whether the shortcut can be activated
func (s SearchShortcut) Valid() bool {
	return strings.TrimSpace(s.Alias) != "" &&
		!strings.ContainsAny(strings.TrimSpace(s.Alias), " \t\n") &&
		strings.Contains(s.URLTemplate, URLPlaceholder)
}

// Snippet is a saved clipboard text addressed by a short alias
type Snippet struct {
	Alias   string `json:"alias"`
	Content string `json:"content"`
}

// Favorite is the serialized view model of a pinned result, used for instant cold-start display
type Favorite struct {
	ID        string          `json:"id"`
	Namespace types.Namespace `json:"namespace"`
	Title     string          `json:"title"`
	Subtitle  string          `json:"subtitle,omitempty"`
}

// DefaultSearchShortcuts returns the built-in shortcut set used when the user has not configured any
func DefaultSearchShortcuts() []SearchShortcut {
	return []SearchShortcut{
		{
			ID:            "default-google",
			Alias:         "g",
			URLTemplate:   "https://www.google.com/search?q=%s",
			Description:   "Google",
			SuggestionURL: "https://suggestqueries.google.com/complete/search?client=firefox&q=%s",
		},
		{
			ID:            "default-youtube",
			Alias:         "y",
			URLTemplate:   "https://www.youtube.com/results?search_query=%s",
			Description:   "YouTube",
			SuggestionURL: "https://suggestqueries.google.com/complete/search?client=firefox&ds=yt&q=%s",
			PackageName:   "com.google.android.youtube",
		},
		{
			ID:          "default-maps",
			Alias:       "m",
			URLTemplate: "https://www.google.com/maps/search/%s",
			Description: "Maps",
			PackageName: "com.google.android.apps.maps",
		},
		{
			ID:          "default-wikipedia",
			Alias:       "w",
			URLTemplate: "https://en.wikipedia.org/wiki/Special:Search?search=%s",
			Description: "Wikipedia",
		},
		{
			ID:          "default-playstore",
			Alias:       "p",
			URLTemplate: "https://play.google.com/store/search?q=%s&c=apps",
			Description: "Play Store",
			PackageName: "com.android.vending",
		},
		{
			ID:          "default-duckduckgo",
			Alias:       "d",
			URLTemplate: "https://duckduckgo.com/?q=%s",
			Description: "DuckDuckGo",
		},
	}
}

// LegacySearchShortcuts is the hardcoded list older releases shipped with.
// It only serves as a fallback when importing legacy backups whose entries
// carry an alias but no URL template.
func LegacySearchShortcuts() map[string]SearchShortcut {
	legacy := map[string]SearchShortcut{
		"r": {Alias: "r", URLTemplate: "https://www.reddit.com/search/?q=%s", Description: "Reddit"},
		"a": {Alias: "a", URLTemplate: "https://www.amazon.com/s?k=%s", Description: "Amazon"},
		"i": {Alias: "i", URLTemplate: "https://www.imdb.com/find?q=%s", Description: "IMDb"},
		"s": {Alias: "s", URLTemplate: "https://open.spotify.com/search/%s", Description: "Spotify", PackageName: "com.spotify.music"},
	}
	for _, s := range DefaultSearchShortcuts() {
		legacy[s.Alias] = s
	}
	return legacy
}
