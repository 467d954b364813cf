// Package ngram builds word n-gram sets from token sequences.
package ngram

import (
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/errors"
)

// DefaultSize is the window width used when none is configured.
const DefaultSize = 3

// Set is a set of space-joined n-grams.
type Set map[string]struct{}

// Contains reports whether gram is in the set.
func (s Set) Contains(gram string) bool {
	_, ok := s[gram]
	return ok
}

// Extract returns the set of contiguous n-token windows of tokens, each
// joined by a single space. A sequence shorter than n produces an empty set.
func Extract(tokens []string, n int) (Set, error) {
	if n < 1 {
		return nil, apperrors.InvalidConfiguration("nGramSize", "must be >= 1, got %d", n)
	}
	if len(tokens) < n {
		return Set{}, nil
	}
	set := make(Set, len(tokens)-n+1)
	for i := 0; i+n <= len(tokens); i++ {
		set[strings.Join(tokens[i:i+n], " ")] = struct{}{}
	}
	return set, nil
}
