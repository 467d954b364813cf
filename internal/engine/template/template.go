// Package template reduces credential-bearing documents to their structure by
// substituting known field values with fixed sentinels, so two documents cut
// from the same template compare as near-identical regardless of who they
// were issued to.
package template

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/engine/similarity"
)

// Sentinels substituted for each field kind. They are upper case while the
// text they are inserted into is lower case, so a later field value can never
// match inside an earlier substitution.
const (
	NameSentinel       = "[NAME]"
	IdentifierSentinel = "[CERT_NUM]"
	DateSentinel       = "[DATE]"
)

// Fields are the variable values of one document. Empty fields are skipped.
type Fields struct {
	Name       string `json:"name,omitempty"`
	Identifier string `json:"identifier,omitempty"`
	Date       string `json:"date,omitempty"`
}

// IsZero reports whether no field is set.
func (f Fields) IsZero() bool {
	return f.Name == "" && f.Identifier == "" && f.Date == ""
}

// Normalize lower-cases text, collapses whitespace, then replaces every
// occurrence of each known field value with its sentinel in the fixed order
// name, identifier, date.
func Normalize(text string, f Fields) string {
	out := collapse(text)
	for _, r := range []struct {
		value    string
		sentinel string
	}{
		{f.Name, NameSentinel},
		{f.Identifier, IdentifierSentinel},
		{f.Date, DateSentinel},
	} {
		value := collapse(r.value)
		if value == "" {
			continue
		}
		out = strings.ReplaceAll(out, value, r.sentinel)
	}
	return out
}

// Similarity is the Jaccard similarity of the whitespace token sets of two
// normalized templates.
func Similarity(a, b string) float64 {
	return similarity.TokenSetJaccard(a, b)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
