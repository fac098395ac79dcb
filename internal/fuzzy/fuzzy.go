// Package fuzzy scores how well a typed query matches a candidate name.
// Score is a pure function: deterministic, no state, no side effects.
package fuzzy

import (
	"strings"
	"unicode/utf8"
)

// Tier scores, evaluated in strict priority order
const (
	ScoreExact       = 100
	ScorePrefix      = 90
	ScoreWordPrefix  = 85
	ScoreAcronym     = 80
	ScoreSubstring   = 70
	subsequenceBase  = 60
	subsequenceFloor = 10
	ScoreNoMatch     = 0
)

// Score returns a match score in [0,100]. The first matching tier wins:
//
//	100 exact (case-insensitive, trimmed)
//	 90 candidate starts with query
//	 85 a whitespace-delimited word of candidate starts with query
//	 80 query is a prefix of the candidate's acronym
//	 70 candidate contains query
//	 max(10, 60-(len(candidate)-len(query))) for an ordered subsequence
//	  0 otherwise; an empty query never matches
func Score(query, candidate string) int {
	q := strings.ToLower(strings.TrimSpace(query))
	c := strings.ToLower(strings.TrimSpace(candidate))
	return score(q, c, 0, 0, false)
}

// ScoreWithMask is Score with precomputed character masks (see Mask).
// It produces the same result as Score; the masks only let the
// subsequence tier reject obvious non-matches without scanning.
func ScoreWithMask(query string, queryMask uint64, candidate string, candidateMask uint64) int {
	q := strings.ToLower(strings.TrimSpace(query))
	c := strings.ToLower(strings.TrimSpace(candidate))
	return score(q, c, queryMask, candidateMask, true)
}

func score(q, c string, qMask, cMask uint64, useMask bool) int {
	if q == "" || c == "" {
		return ScoreNoMatch
	}
	if q == c {
		return ScoreExact
	}
	if strings.HasPrefix(c, q) {
		return ScorePrefix
	}

	words := strings.Fields(c)
	for _, w := range words {
		if strings.HasPrefix(w, q) {
			return ScoreWordPrefix
		}
	}

	if len(words) > 1 {
		compact := strings.Join(strings.Fields(q), "")
		if compact != "" && strings.HasPrefix(acronym(words), compact) {
			return ScoreAcronym
		}
	}

	if strings.Contains(c, q) {
		return ScoreSubstring
	}

	if useMask && qMask&^cMask != 0 {
		return ScoreNoMatch
	}
	if isSubsequence(q, c) {
		s := subsequenceBase - (utf8.RuneCountInString(c) - utf8.RuneCountInString(q))
		if s < subsequenceFloor {
			s = subsequenceFloor
		}
		return s
	}
	return ScoreNoMatch
}

// acronym joins the first rune of each word
func acronym(words []string) string {
	var b strings.Builder
	for _, w := range words {
		r, _ := utf8.DecodeRuneInString(w)
		b.WriteRune(r)
	}
	return b.String()
}

// isSubsequence reports whether all runes of q appear in c in order
func isSubsequence(q, c string) bool {
	qr := []rune(q)
	qi := 0
	for _, r := range c {
		if qi < len(qr) && r == qr[qi] {
			qi++
		}
	}
	return qi == len(qr)
}

// Mask returns a bitmask with one bit per lowercase ASCII letter and digit present in s.
// Characters outside [a-z0-9] are ignored, so the mask can only reject, never accept.
func Mask(s string) uint64 {
	var m uint64
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z':
			m |= 1 << uint(r-'a')
		case r >= '0' && r <= '9':
			m |= 1 << uint(26+r-'0')
		}
	}
	return m
}
