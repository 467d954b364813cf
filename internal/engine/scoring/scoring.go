// Package scoring combines metric outputs into a single score per reference,
// ranks references, and derives verdicts and confidence values.
package scoring

import (
	"fmt"
	"math"
	"sort"

	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/errors"
)

const (
	DefaultSimilarityThreshold = 0.70
	DefaultTemplateThreshold   = 0.85

	weightTolerance = 1e-9
)

// Weights of the combined score. They must be non-negative and sum to 1.
type Weights struct {
	Jaccard float64 `json:"jaccard"`
	Cosine  float64 `json:"cosine"`
}

func DefaultWeights() Weights {
	return Weights{Jaccard: 0.6, Cosine: 0.4}
}

func (w Weights) Validate() error {
	if w.Jaccard < 0 || w.Cosine < 0 || math.IsNaN(w.Jaccard) || math.IsNaN(w.Cosine) {
		return apperrors.InvalidConfiguration("weights", "must be non-negative, got %v/%v", w.Jaccard, w.Cosine)
	}
	if sum := w.Jaccard + w.Cosine; math.Abs(sum-1) > weightTolerance {
		return apperrors.InvalidConfiguration("weights", "must sum to 1, got %v", sum)
	}
	return nil
}

// ValidateThreshold rejects thresholds outside [0, 1].
func ValidateThreshold(name string, threshold float64) error {
	if threshold < 0 || threshold > 1 || math.IsNaN(threshold) {
		return apperrors.InvalidConfiguration(name, "must be within [0, 1], got %v", threshold)
	}
	return nil
}

// Combine returns the weighted sum of the Jaccard and cosine scores.
func Combine(jaccard, cosine float64, w Weights) float64 {
	return w.Jaccard*jaccard + w.Cosine*cosine
}

// Classification is a verdict derived purely from scores.
type Classification struct {
	IsMatch    bool `json:"is_match"`
	Confidence int  `json:"confidence"`
}

// Classify reports whether score reaches threshold.
func Classify(score, threshold float64) bool {
	return score >= threshold
}

// ClassifyPlagiarism is the similarity verdict for the best combined score.
func ClassifyPlagiarism(maxCombined, threshold float64) Classification {
	isMatch := Classify(maxCombined, threshold)
	return Classification{IsMatch: isMatch, Confidence: PlagiarismConfidence(maxCombined, isMatch)}
}

// PlagiarismConfidence keeps the historical convention of the plagiarism
// report: for a positive verdict confidence falls as similarity rises.
// ForgeryConfidence runs the other way.
func PlagiarismConfidence(maxCombined float64, isMatch bool) int {
	if isMatch {
		return max(0, 100-int(math.Round(maxCombined*100)))
	}
	return 100 - int(math.Round(maxCombined*50))
}

// ForgeryConfidence rises with template similarity.
func ForgeryConfidence(templateSimilarity float64) int {
	return int(math.Round(templateSimilarity * 100))
}

// ClassifyForgery is the template verdict. A document that is not forged is
// reported with full confidence.
func ClassifyForgery(forged bool, templateSimilarity float64) Classification {
	if !forged {
		return Classification{IsMatch: false, Confidence: 100}
	}
	return Classification{IsMatch: true, Confidence: ForgeryConfidence(templateSimilarity)}
}

// Scored is one reference's metric outputs.
type Scored struct {
	DocID    string
	Seq      uint64
	Jaccard  float64
	Cosine   float64
	Combined float64
}

// Rank sorts by combined score descending, earlier-inserted references first
// on ties, and truncates to limit when limit > 0.
func Rank(scores []Scored, limit int) []Scored {
	result := make([]Scored, len(scores))
	copy(result, scores)
	sort.Slice(result, func(i, j int) bool {
		if result[i].Combined != result[j].Combined {
			return result[i].Combined > result[j].Combined
		}
		return result[i].Seq < result[j].Seq
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

// Percent renders a fraction as a percentage rounded to two decimals.
func Percent(x float64) float64 {
	return math.Round(x*100*100) / 100
}

// Truncate shortens text to maxChars runes followed by "...". A maxChars of
// 0 disables truncation.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	return fmt.Sprintf("%s...", string(runes[:maxChars]))
}
