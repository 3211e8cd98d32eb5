// Package fleet holds the fleet-maintenance domain: buses, on-board equipment
// and incidents, plus the pure business rules (state machines, internal codes,
// search tokenization) their services enforce.
package fleet

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxSearchTermsPorDoc caps the token array stored per document.
const maxSearchTermsPorDoc = 50

// quitarAcentos decomposes and strips combining marks, so "Bilbáo" and
// "bilbao" tokenize the same.
var quitarAcentos = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeForSearch lowercases value, strips accents and collapses runs of
// whitespace to single spaces.
func NormalizeForSearch(value string) string {
	plano, _, err := transform.String(quitarAcentos, value)
	if err != nil {
		plano = value
	}
	return strings.Join(strings.Fields(strings.ToLower(plano)), " ")
}

// BuildSearchTerms tokenizes the given parts into the searchTerms array
// matched by array-contains-any queries. Per part it emits each token of two
// or more characters plus the full normalized phrase, deduplicated in first
// appearance order, capped at 50 entries.
func BuildSearchTerms(parts ...string) []string {
	var tokens []string
	vistos := make(map[string]struct{})

	agregar := func(token string) {
		if _, ok := vistos[token]; ok || len(tokens) >= maxSearchTermsPorDoc {
			return
		}
		vistos[token] = struct{}{}
		tokens = append(tokens, token)
	}

	for _, part := range parts {
		normalizado := NormalizeForSearch(part)
		if normalizado == "" {
			continue
		}
		for _, token := range strings.Split(normalizado, " ") {
			if len(token) < 2 {
				continue
			}
			agregar(token)
		}
		// The full phrase too, for substring matching in the UI.
		agregar(normalizado)
	}
	return tokens
}
