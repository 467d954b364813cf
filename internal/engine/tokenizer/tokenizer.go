// Package tokenizer provides text normalisation and tokenisation for the
// similarity engine. Normalisation lower-cases input, replaces every non-word
// character with a space and collapses whitespace; tokenisation splits the
// normalised text on whitespace. Unlike a search tokenizer nothing is dropped
// or stemmed: verbatim overlap detection needs every word.
package tokenizer

import (
	"strings"
	"unicode"
)

// Normalize lower-cases text, maps non-word characters to spaces, collapses
// whitespace runs and trims the result. A word character is a letter, a
// number of any kind (decimal, letterlike or other, so "²" and "Ⅻ" count) or
// an underscore; combining marks are not. Normalize is idempotent.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(text))
	pendingSpace := false
	for _, r := range strings.ToLower(text) {
		if !isWordRune(r) {
			pendingSpace = b.Len() > 0
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Tokenize splits normalised text into word tokens. Empty input yields an
// empty, non-nil slice.
func Tokenize(normalized string) []string {
	fields := strings.Fields(normalized)
	if fields == nil {
		return []string{}
	}
	return fields
}

// Tokens is Tokenize(Normalize(text)).
func Tokens(text string) []string {
	return Tokenize(Normalize(text))
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}
