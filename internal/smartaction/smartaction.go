// Package smartaction recognizes phone numbers, email addresses and URLs in a query
// and turns them into synthetic, non-persisted result candidates.
package smartaction

import (
	"net/url"
	"regexp"
	"strings"
)

// Kind identifies the detected action
type Kind string

// Detected action kinds
const (
	KindCall  Kind = "call"
	KindSMS   Kind = "sms"
	KindEmail Kind = "email"
	KindURL   Kind = "url"
)

// Action scores sit just below 100 so detected actions outrank generic index hits
const (
	ScoreCall  = 100
	ScoreEmail = 100
	ScoreSMS   = 99
	ScoreURL   = 98
)

// Minimum digit counts for a phone number to be recognized
const (
	minBareDigits      = 5 // Bare query, no trigger word
	minTriggeredDigits = 3 // After "call", "sms" or "text"
	maxPhoneDigits     = 15
)

var (
	emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)
	urlPattern   = regexp.MustCompile(`(?i)^(https?://)?([a-z0-9](?:[a-z0-9\-]*[a-z0-9])?\.)+[a-z]{2,}(:\d{1,5})?(/\S*)?$`)
)

// Action is a synthesized result inferred from the query text
type Action struct {
	Kind   Kind
	Target string // Phone number, email address or absolute URL
	URI    string // tel:, sms:, mailto: or http(s) URI
	Title  string
	Score  int
}

// Detect runs every pattern check against query. Each kind contributes at most one action.
func Detect(query string) []Action {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil
	}

	trigger, rest := splitTrigger(q)
	switch trigger {
	case "call":
		if isPhoneLike(rest, minTriggeredDigits) {
			return []Action{callAction(rest)}
		}
	case "sms", "text":
		if isPhoneLike(rest, minTriggeredDigits) {
			return []Action{smsAction(rest)}
		}
	case "email", "mailto":
		if emailPattern.MatchString(rest) {
			return []Action{emailAction(rest)}
		}
	}

	var actions []Action
	if isPhoneLike(q, minBareDigits) {
		actions = append(actions, callAction(q), smsAction(q))
	}
	if addr := strings.TrimPrefix(q, "mailto:"); emailPattern.MatchString(addr) {
		actions = append(actions, emailAction(addr))
	} else if !strings.ContainsAny(q, " \t") && urlPattern.MatchString(q) {
		actions = append(actions, urlAction(q))
	}
	return actions
}

func splitTrigger(q string) (string, string) {
	idx := strings.IndexAny(q, " \t")
	if idx < 0 {
		return "", q
	}
	return strings.ToLower(q[:idx]), strings.TrimSpace(q[idx+1:])
}

func callAction(number string) Action {
	n := strings.TrimSpace(number)
	return Action{Kind: KindCall, Target: n, URI: "tel:" + Dialable(n), Title: "Call " + n, Score: ScoreCall}
}

func smsAction(number string) Action {
	n := strings.TrimSpace(number)
	return Action{Kind: KindSMS, Target: n, URI: "sms:" + Dialable(n), Title: "Send SMS to " + n, Score: ScoreSMS}
}

func emailAction(addr string) Action {
	return Action{Kind: KindEmail, Target: addr, URI: "mailto:" + addr, Title: "Email " + addr, Score: ScoreEmail}
}

func urlAction(raw string) Action {
	abs := raw
	lower := strings.ToLower(raw)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		abs = "https://" + raw
	}
	title := abs
	if u, err := url.Parse(abs); err == nil && u.Host != "" {
		title = "Open " + u.Host
	}
	return Action{Kind: KindURL, Target: abs, URI: abs, Title: title, Score: ScoreURL}
}

// Dialable keeps a leading '+' and the digits
func Dialable(number string) string {
	n := NormalizePhone(number)
	if strings.HasPrefix(strings.TrimSpace(number), "+") {
		return "+" + n
	}
	return n
}

// isPhoneLike accepts digits with common separators and an optional leading '+'
func isPhoneLike(s string, minDigits int) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	digits := 0
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return false
		}
	}
	return digits >= minDigits && digits <= maxPhoneDigits
}
