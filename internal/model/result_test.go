package model

import (
	"testing"

	"github.com/igusev/qlaunch/internal/types"
)

func TestSearchShortcut_BuildURL(t *testing.T) {
	s := SearchShortcut{Alias: "y", URLTemplate: "https://www.youtube.com/results?search_query=%s"}

	got := s.BuildURL("rust programming")
	want := "https://www.youtube.com/results?search_query=rust+programming"
	if got != want {
		t.Errorf("BuildURL = %q, want %q", got, want)
	}
}

func TestSearchShortcut_BuildSuggestionURL(t *testing.T) {
	s := SearchShortcut{Alias: "g", URLTemplate: "https://g/?q=%s"}
	if got := s.BuildSuggestionURL("x"); got != "" {
		t.Errorf("no suggestion URL configured, got %q", got)
	}

	s.SuggestionURL = "https://s/?q=%s"
	if got := s.BuildSuggestionURL("a&b"); got != "https://s/?q=a%26b" {
		t.Errorf("BuildSuggestionURL = %q", got)
	}
}

func TestSearchShortcut_Valid(t *testing.T) {
	tests := []struct {
		name string
		s    SearchShortcut
		want bool
	}{
		{"ok", SearchShortcut{Alias: "g", URLTemplate: "https://g/?q=%s"}, true},
		{"empty alias", SearchShortcut{Alias: " ", URLTemplate: "https://g/?q=%s"}, false},
		{"alias with space", SearchShortcut{Alias: "g g", URLTemplate: "https://g/?q=%s"}, false},
		{"no placeholder", SearchShortcut{Alias: "g", URLTemplate: "https://g/"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefaultSearchShortcuts_AllValidAndUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, s := range DefaultSearchShortcuts() {
		if !s.Valid() {
			t.Errorf("default shortcut %q is invalid", s.Alias)
		}
		if seen[s.Alias] {
			t.Errorf("duplicate alias %q", s.Alias)
		}
		seen[s.Alias] = true
	}
	if !seen["y"] {
		t.Error("defaults should include the YouTube alias y")
	}
}

func TestLaunchTarget(t *testing.T) {
	tests := []struct {
		r    SearchResult
		want string
	}{
		{&AppResult{PackageName: "com.mail"}, "com.mail"},
		{&ContentResult{DeepLink: "tel:123"}, "tel:123"},
		{&ShortcutResult{PackageName: "com.mail", ShortcutID: "compose"}, "com.mail/compose"},
		{&ShortcutResult{PackageName: "com.mail", ShortcutID: "c", IntentURI: "intent:#x"}, "intent:#x"},
		{&SearchIntentResult{URL: "https://g/?q=a"}, "https://g/?q=a"},
		{&ContactResult{Base: Base{ID: "7"}, Phone: "+31"}, "tel:+31"},
		{&ContactResult{Base: Base{ID: "7"}}, "content://contacts/7"},
		{&SnippetResult{Content: "hello"}, "hello"},
	}
	for _, tt := range tests {
		if got := LaunchTarget(tt.r); got != tt.want {
			t.Errorf("LaunchTarget(%s) = %q, want %q", tt.r.Kind(), got, tt.want)
		}
	}
}

func TestKeyAndDisplayString(t *testing.T) {
	r := &AppResult{Base: Base{ID: "com.mail", Namespace: types.NamespaceApps, Title: "Mail", Subtitle: "Communication"}}
	if Key(r) != "apps:com.mail" {
		t.Errorf("Key = %q", Key(r))
	}
	if got := DisplayString(r); got != "[app] Mail > Communication" {
		t.Errorf("DisplayString = %q", got)
	}
	r.Subtitle = ""
	if got := DisplayString(r); got != "[app] Mail" {
		t.Errorf("DisplayString = %q", got)
	}
}
