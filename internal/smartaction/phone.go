package smartaction

import "strings"

// twoDigitCallingCodes lists ITU country calling codes that are two digits long.
// Codes starting with 1 or 7 are one digit; everything else is three.
var twoDigitCallingCodes = map[string]bool{
	"20": true, "27": true, "30": true, "31": true, "32": true, "33": true,
	"34": true, "36": true, "39": true, "40": true, "41": true, "43": true,
	"44": true, "45": true, "46": true, "47": true, "48": true, "49": true,
	"51": true, "52": true, "53": true, "54": true, "55": true, "56": true,
	"57": true, "58": true, "60": true, "61": true, "62": true, "63": true,
	"64": true, "65": true, "66": true, "81": true, "82": true, "84": true,
	"86": true, "90": true, "91": true, "92": true, "93": true, "94": true,
	"95": true, "98": true,
}

// NormalizePhone strips everything except digits
func NormalizePhone(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PhoneVariants returns the indexable spellings of a phone number:
// the normalized international digits plus the trunk-prefixed and bare
// national forms, so differently formatted queries hit the same contact.
//
//	"+31 6 1234 5678" -> 31612345678, 0612345678, 612345678
//	"06 1234 5678"    -> 0612345678, 612345678
func PhoneVariants(raw string) []string {
	trimmed := strings.TrimSpace(raw)
	n := NormalizePhone(trimmed)
	if n == "" {
		return nil
	}

	variants := []string{n}
	add := func(v string) {
		if v == "" {
			return
		}
		for _, existing := range variants {
			if existing == v {
				return
			}
		}
		variants = append(variants, v)
	}

	switch {
	case strings.HasPrefix(trimmed, "+") || strings.HasPrefix(n, "00"):
		intl := strings.TrimPrefix(n, "00")
		if intl != n {
			variants[0] = intl
		}
		cc := callingCodeLength(intl)
		if len(intl) > cc {
			national := intl[cc:]
			add("0" + national)
			add(national)
		}
	case strings.HasPrefix(n, "0"):
		add(n[1:])
	}
	return variants
}

func callingCodeLength(digits string) int {
	if digits == "" {
		return 0
	}
	if digits[0] == '1' || digits[0] == '7' {
		return 1
	}
	if len(digits) >= 2 && twoDigitCallingCodes[digits[:2]] {
		return 2
	}
	return 3
}

// QueryPhoneVariant returns the digits-only form of query when it differs from the
// query and carries at least three digits; otherwise "". The engine ORs it into the
// index query to catch differently formatted numbers.
func QueryPhoneVariant(query string) string {
	q := strings.TrimSpace(query)
	n := NormalizePhone(q)
	if len(n) < 3 || n == q {
		return ""
	}
	return n
}
