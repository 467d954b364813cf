// Package similarity implements the set and vector similarity metrics used by
// the engine: Jaccard over n-gram sets and cosine over token frequency
// vectors. Both are total functions returning values in [0, 1]; degenerate
// inputs (empty sets, zero vectors) score 0 rather than NaN.
package similarity

import (
	"math"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/engine/ngram"
)

// Jaccard returns |A ∩ B| / |A ∪ B|, or 0 when either set is empty.
func Jaccard(a, b ngram.Set) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	intersection := 0
	for gram := range small {
		if large.Contains(gram) {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// TokenSetJaccard is Jaccard over the whitespace-separated token sets of a
// and b. It is the structural measure used for template comparison.
func TokenSetJaccard(a, b string) float64 {
	return Jaccard(tokenSet(a), tokenSet(b))
}

func tokenSet(s string) ngram.Set {
	fields := strings.Fields(s)
	set := make(ngram.Set, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// FrequencyVector maps each token to its occurrence count.
type FrequencyVector map[string]int

// Frequencies counts the tokens of a sequence.
func Frequencies(tokens []string) FrequencyVector {
	v := make(FrequencyVector, len(tokens))
	for _, t := range tokens {
		v[t]++
	}
	return v
}

// Magnitude is the Euclidean norm of the vector.
func (v FrequencyVector) Magnitude() float64 {
	var sum float64
	for _, c := range v {
		sum += float64(c) * float64(c)
	}
	return math.Sqrt(sum)
}

// Cosine returns the cosine similarity of the token frequency vectors of x
// and y, or 0 when either is empty.
func Cosine(x, y []string) float64 {
	return CosineVectors(Frequencies(x), Frequencies(y))
}

// CosineVectors is Cosine over precomputed frequency vectors.
func CosineVectors(a, b FrequencyVector) float64 {
	magA, magB := a.Magnitude(), b.Magnitude()
	if magA == 0 || magB == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	var dot float64
	for token, count := range small {
		if other, ok := large[token]; ok {
			dot += float64(count) * float64(other)
		}
	}
	if dot == 0 {
		return 0
	}
	// Cauchy-Schwarz bounds the exact value by 1; rounding can overshoot.
	return math.Min(1, dot/(magA*magB))
}
