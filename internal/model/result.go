// Package model defines the search result view models and user-editable entities
package model

import (
	"fmt"

	"github.com/igusev/qlaunch/internal/types"
)

// Kind tags a SearchResult variant
type Kind string

// Result variants
const (
	KindApp          Kind = "app"
	KindContent      Kind = "content"
	KindShortcut     Kind = "shortcut"
	KindSearchIntent Kind = "search_intent"
	KindContact      Kind = "contact"
	KindSnippet      Kind = "snippet"
)

// Base holds the fields shared by every result variant
type Base struct {
	ID           string          `json:"id"`
	Namespace    types.Namespace `json:"namespace"`
	Title        string          `json:"title"`
	Subtitle     string          `json:"subtitle,omitempty"`
	Icon         string          `json:"icon,omitempty"` // Icon reference resolved by the materializer
	RankingScore int             `json:"rankingScore"`
}

// SearchResult is the engine's output contract.
// Ranking code only touches Common(); variants are switched on at
// materialization and serialization boundaries.
type SearchResult interface {
	Kind() Kind
	Common() *Base
}

// AppResult is an installed application
type AppResult struct {
	Base
	PackageName string `json:"packageName"`
}

// ContentResult is a generic action or deep link (smart actions, bookmarks, launcher actions)
type ContentResult struct {
	Base
	DeepLink string `json:"deepLink"`
	IsAction bool   `json:"isAction,omitempty"`
}

// ShortcutResult is an app-published launcher shortcut
type ShortcutResult struct {
	Base
	PackageName string `json:"packageName"`
	ShortcutID  string `json:"shortcutId"`
	IntentURI   string `json:"intentUri,omitempty"`
}

// SearchIntentResult offers to run (or complete) a custom search shortcut
type SearchIntentResult struct {
	Base
	Alias       string `json:"alias"`
	URL         string `json:"url,omitempty"` // Filled URL template; empty while waiting for a search term
	Term        string `json:"term,omitempty"`
	PackageName string `json:"packageName,omitempty"`
	Suggestion  bool   `json:"suggestion,omitempty"`
}

// ContactResult is a contact from the address book
type ContactResult struct {
	Base
	PhotoURI string `json:"photoUri,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// SnippetResult is a saved clipboard snippet
type SnippetResult struct {
	Base
	Alias   string `json:"alias"`
	Content string `json:"content"`
}

// Kind implements SearchResult
func (r *AppResult) Kind() Kind { return KindApp }

// Common implements SearchResult
func (r *AppResult) Common() *Base { return &r.Base }

// Kind implements SearchResult
func (r *ContentResult) Kind() Kind { return KindContent }

// Common implements SearchResult
func (r *ContentResult) Common() *Base { return &r.Base }

// Kind implements SearchResult
func (r *ShortcutResult) Kind() Kind { return KindShortcut }

// Common implements SearchResult
func (r *ShortcutResult) Common() *Base { return &r.Base }

// Kind implements SearchResult
func (r *SearchIntentResult) Kind() Kind { return KindSearchIntent }

// Common implements SearchResult
func (r *SearchIntentResult) Common() *Base { return &r.Base }

// Kind implements SearchResult
func (r *ContactResult) Kind() Kind { return KindContact }

// Common implements SearchResult
func (r *ContactResult) Common() *Base { return &r.Base }

// Kind implements SearchResult
func (r *SnippetResult) Kind() Kind { return KindSnippet }

// Common implements SearchResult
func (r *SnippetResult) Common() *Base { return &r.Base }

// Key returns "namespace:id" for a result
func Key(r SearchResult) string {
	b := r.Common()
	return types.Key(b.Namespace, b.ID)
}

// LaunchTarget returns what launching the result opens: a URL, deep link,
// intent URI or package name. Snippets return their content (copy target).
func LaunchTarget(r SearchResult) string {
	switch v := r.(type) {
	case *AppResult:
		return v.PackageName
	case *ContentResult:
		return v.DeepLink
	case *ShortcutResult:
		if v.IntentURI != "" {
			return v.IntentURI
		}
		return v.PackageName + "/" + v.ShortcutID
	case *SearchIntentResult:
		return v.URL
	case *ContactResult:
		if v.Phone != "" {
			return "tel:" + v.Phone
		}
		return "content://contacts/" + v.ID
	case *SnippetResult:
		return v.Content
	default:
		return ""
	}
}

// DisplayString renders a one-line description used by the CLI
func DisplayString(r SearchResult) string {
	b := r.Common()
	if b.Subtitle == "" {
		return fmt.Sprintf("[%s] %s", r.Kind(), b.Title)
	}
	return fmt.Sprintf("[%s] %s > %s", r.Kind(), b.Title, b.Subtitle)
}
