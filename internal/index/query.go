package index

import (
	"strings"
	"unicode"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Tokenize lowercases s and splits it on every rune that is neither a letter
// nor a digit. Every token is kept, matching the index's text analyzer which
// drops no stop words.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// buildQuery ORs one conjunction per query string; returns nil if nothing is searchable
func buildQuery(queries []string) query.Query {
	var alternatives []query.Query
	seen := make(map[string]bool, len(queries))
	for _, raw := range queries {
		tokens := Tokenize(raw)
		if len(tokens) == 0 {
			continue
		}
		key := strings.Join(tokens, " ")
		if seen[key] {
			continue
		}
		seen[key] = true
		alternatives = append(alternatives, buildTokenQuery(tokens))
	}

	switch len(alternatives) {
	case 0:
		return nil
	case 1:
		return alternatives[0]
	default:
		return bleve.NewDisjunctionQuery(alternatives...)
	}
}

// buildTokenQuery requires ALL tokens; each may prefix-match Name (boosted) or Description
func buildTokenQuery(tokens []string) query.Query {
	tokenQueries := make([]query.Query, 0, len(tokens))
	for _, token := range tokens {
		nameQ := bleve.NewPrefixQuery(token)
		nameQ.SetField("Name")
		nameQ.SetBoost(5.0)

		descQ := bleve.NewPrefixQuery(token)
		descQ.SetField("Description")

		tokenQueries = append(tokenQueries, bleve.NewDisjunctionQuery(nameQ, descQ))
	}

	if len(tokenQueries) == 1 {
		return tokenQueries[0]
	}
	return bleve.NewConjunctionQuery(tokenQueries...)
}
