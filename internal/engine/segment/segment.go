// Package segment finds maximal verbatim token runs shared by two token
// sequences.
//
// Candidates are enumerated by query offset i ascending, then reference
// offset j ascending. Every pair whose minLen-windows are equal is extended
// greedily to its maximal length k. A candidate is reported unless a single
// reported segment already consumes both its query range [i, i+k) and its
// reference range [j, j+k); consumed ranges are kept per reported segment in
// an occupancy structure. As a result no reported segment is a strict
// positional sub-run of another, a passage repeated in either sequence is
// reported at each of its positions, and a sequence matched against itself
// yields one segment spanning it.
package segment

import (
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/errors"
)

// DefaultMinLength is the minimum run length used when none is configured.
const DefaultMinLength = 10

// Match is one verbatim run shared by the query and a reference.
type Match struct {
	Text            string `json:"text"`
	Length          int    `json:"length"`
	QueryOffset     int    `json:"query_offset"`
	ReferenceOffset int    `json:"reference_offset"`
}

// Find returns the maximal shared runs of at least minLen tokens between
// query and reference, in enumeration order.
func Find(query, reference []string, minLen int) ([]Match, error) {
	if minLen < 1 {
		return nil, apperrors.InvalidConfiguration("minSegmentLength", "must be >= 1, got %d", minLen)
	}
	matches := make([]Match, 0)
	if len(query) < minLen || len(reference) < minLen {
		return matches, nil
	}

	windows := indexWindows(reference, minLen)
	var occupied occupancy
	for i := 0; i+minLen <= len(query); i++ {
		candidates, ok := windows[windowKey(query[i:i+minLen])]
		if !ok {
			continue
		}
		for _, j := range candidates {
			// Keys are joined with a separator that cannot occur inside a
			// token, but verify anyway so output never depends on the key.
			if !equalTokens(query[i:i+minLen], reference[j:j+minLen]) {
				continue
			}
			length := extend(query, reference, i, j, minLen)
			if occupied.covers(i, j, length) {
				continue
			}
			occupied.add(i, j, length)
			matches = append(matches, Match{
				Text:            strings.Join(query[i:i+length], " "),
				Length:          length,
				QueryOffset:     i,
				ReferenceOffset: j,
			})
		}
	}
	return matches, nil
}

// indexWindows maps every minLen-window of tokens to its start offsets in
// ascending order.
func indexWindows(tokens []string, minLen int) map[string][]int {
	index := make(map[string][]int, len(tokens)-minLen+1)
	for j := 0; j+minLen <= len(tokens); j++ {
		key := windowKey(tokens[j : j+minLen])
		index[key] = append(index[key], j)
	}
	return index
}

func windowKey(window []string) string {
	return strings.Join(window, "\x00")
}

// extend grows a run starting at (i, j) that is known to match for length
// tokens until a mismatch or either sequence ends.
func extend(query, reference []string, i, j, length int) int {
	for i+length < len(query) && j+length < len(reference) && query[i+length] == reference[j+length] {
		length++
	}
	return length
}

func equalTokens(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if a[k] != b[k] {
			return false
		}
	}
	return true
}

// occupancy records the query and reference ranges consumed by each
// reported segment. Segments are added in enumeration order, so any segment
// able to contain a later candidate has already been recorded.
type occupancy struct {
	spans []span
}

type span struct {
	query, reference int
	length           int
}

// covers reports whether one recorded segment consumes both
// [i, i+length) of the query and [j, j+length) of the reference.
func (o *occupancy) covers(i, j, length int) bool {
	for _, s := range o.spans {
		if i >= s.query && i+length <= s.query+s.length &&
			j >= s.reference && j+length <= s.reference+s.length {
			return true
		}
	}
	return false
}

func (o *occupancy) add(i, j, length int) {
	o.spans = append(o.spans, span{query: i, reference: j, length: length})
}
