package fuzzy

import (
	"strings"
	"testing"
)

func TestScore_Tiers(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		candidate string
		want      int
	}{
		{"exact", "settings", "Settings", 100},
		{"exact with padding", "  Settings ", "settings", 100},
		{"prefix beats subsequence", "se", "Settings", 90},
		{"word prefix", "maps", "Google Maps", 85},
		{"acronym", "gm", "Google Maps", 80},
		{"acronym prefix", "gm", "Google Maps Navigation", 80},
		{"substring", "ogle", "Google Maps", 70},
		{"subsequence", "gps", "Google Maps", 52},
		{"no match", "xyz", "Google", 0},
		{"empty query", "", "Google", 0},
		{"blank query", "   ", "Google", 0},
		{"empty candidate", "g", "", 0},
		{"case insensitive prefix", "GOO", "google", 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.query, tt.candidate); got != tt.want {
				t.Errorf("Score(%q, %q) = %d, want %d", tt.query, tt.candidate, got, tt.want)
			}
		})
	}
}

func TestScore_SubsequenceFloor(t *testing.T) {
	candidate := "a" + strings.Repeat("x", 80) + "b"
	if got := Score("ab", candidate); got != 10 {
		t.Errorf("long subsequence match should floor at 10, got %d", got)
	}
}

func TestScore_Range(t *testing.T) {
	queries := []string{"a", "se", "gm", "zz", "mail", "1", "0612"}
	candidates := []string{"Settings", "Gmail", "Google Maps", "Phone 0612345678", "Calculator", "z"}
	for _, q := range queries {
		for _, c := range candidates {
			s := Score(q, c)
			if s < 0 || s > 100 {
				t.Errorf("Score(%q, %q) = %d out of range", q, c, s)
			}
		}
	}
}

func TestScoreWithMask_MatchesScore(t *testing.T) {
	queries := []string{"a", "se", "gm", "gps", "zz", "mail", "1", "ogle", "sttngs", "é"}
	candidates := []string{"Settings", "Gmail", "Google Maps", "Phone 0612345678", "Calculator", "z", "Café"}
	for _, q := range queries {
		for _, c := range candidates {
			want := Score(q, c)
			got := ScoreWithMask(q, Mask(q), c, Mask(c))
			if got != want {
				t.Errorf("ScoreWithMask(%q, %q) = %d, Score = %d", q, c, got, want)
			}
		}
	}
}

func TestMask(t *testing.T) {
	if Mask("") != 0 {
		t.Error("empty string should have empty mask")
	}
	if Mask("A") != Mask("a") {
		t.Error("mask should be case-insensitive")
	}
	if Mask("ab")&^Mask("abc") != 0 {
		t.Error("mask of subset should be contained in mask of superset")
	}
	if Mask("0") == Mask("a") {
		t.Error("digits and letters should map to different bits")
	}
	if Mask("-!") != 0 {
		t.Error("punctuation should not set bits")
	}
}

func BenchmarkScoreWithMask(b *testing.B) {
	names := []string{"Settings", "Gmail", "Google Maps", "Calculator", "Camera", "Contacts", "Clock", "Chrome"}
	masks := make([]uint64, len(names))
	for i, n := range names {
		masks[i] = Mask(n)
	}
	qm := Mask("zq")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for j, n := range names {
			ScoreWithMask("zq", qm, n, masks[j])
		}
	}
}
