package analyzer

import (
	"errors"

	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/engine/ngram"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/engine/scoring"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/engine/segment"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/errors"
)

// Options parameterise one query. A zero display cap disables that cap.
type Options struct {
	NGramSize           int             `json:"ngram_size"`
	MinSegmentLength    int             `json:"min_segment_length"`
	Weights             scoring.Weights `json:"weights"`
	SimilarityThreshold float64         `json:"similarity_threshold"`
	TemplateThreshold   float64         `json:"template_threshold"`
	MaxSegmentsPerMatch int             `json:"max_segments_per_match"`
	MaxSegmentChars     int             `json:"max_segment_chars"`
	MaxRankedMatches    int             `json:"max_ranked_matches"`
}

func DefaultOptions() Options {
	return Options{
		NGramSize:           ngram.DefaultSize,
		MinSegmentLength:    segment.DefaultMinLength,
		Weights:             scoring.DefaultWeights(),
		SimilarityThreshold: scoring.DefaultSimilarityThreshold,
		TemplateThreshold:   scoring.DefaultTemplateThreshold,
		MaxSegmentsPerMatch: 3,
		MaxSegmentChars:     200,
		MaxRankedMatches:    10,
	}
}

func OptionsFromConfig(cfg config.EngineConfig) Options {
	return Options{
		NGramSize:           cfg.NGramSize,
		MinSegmentLength:    cfg.MinSegmentLength,
		Weights:             scoring.Weights{Jaccard: cfg.Weights.Jaccard, Cosine: cfg.Weights.Cosine},
		SimilarityThreshold: cfg.SimilarityThreshold,
		TemplateThreshold:   cfg.TemplateThreshold,
		MaxSegmentsPerMatch: cfg.MaxSegmentsPerMatch,
		MaxSegmentChars:     cfg.MaxSegmentChars,
		MaxRankedMatches:    cfg.MaxRankedMatches,
	}
}

// Validate reports every invalid field. Values are never clamped.
func (o Options) Validate() error {
	var errs []error
	if o.NGramSize < 1 {
		errs = append(errs, apperrors.InvalidConfiguration("nGramSize", "must be >= 1, got %d", o.NGramSize))
	}
	if o.MinSegmentLength < 1 {
		errs = append(errs, apperrors.InvalidConfiguration("minSegmentLength", "must be >= 1, got %d", o.MinSegmentLength))
	}
	if err := o.Weights.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := scoring.ValidateThreshold("similarityThreshold", o.SimilarityThreshold); err != nil {
		errs = append(errs, err)
	}
	if err := scoring.ValidateThreshold("templateThreshold", o.TemplateThreshold); err != nil {
		errs = append(errs, err)
	}
	for _, c := range []struct {
		name  string
		value int
	}{
		{"maxSegmentsPerMatch", o.MaxSegmentsPerMatch},
		{"maxSegmentChars", o.MaxSegmentChars},
		{"maxRankedMatches", o.MaxRankedMatches},
	} {
		if c.value < 0 {
			errs = append(errs, apperrors.InvalidConfiguration(c.name, "must be >= 0, got %d", c.value))
		}
	}
	return errors.Join(errs...)
}

// Overrides carries per-request changes to the configured options. Nil
// fields keep the configured value.
type Overrides struct {
	NGramSize           *int             `json:"ngram_size,omitempty"`
	MinSegmentLength    *int             `json:"min_segment_length,omitempty"`
	Weights             *scoring.Weights `json:"weights,omitempty"`
	SimilarityThreshold *float64         `json:"similarity_threshold,omitempty"`
	TemplateThreshold   *float64         `json:"template_threshold,omitempty"`
	MaxSegmentsPerMatch *int             `json:"max_segments_per_match,omitempty"`
	MaxSegmentChars     *int             `json:"max_segment_chars,omitempty"`
	MaxRankedMatches    *int             `json:"max_ranked_matches,omitempty"`
}

// Apply returns o with the non-nil overrides applied.
func (o Options) Apply(ov *Overrides) Options {
	if ov == nil {
		return o
	}
	setInt := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	setFloat := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	setInt(&o.NGramSize, ov.NGramSize)
	setInt(&o.MinSegmentLength, ov.MinSegmentLength)
	setInt(&o.MaxSegmentsPerMatch, ov.MaxSegmentsPerMatch)
	setInt(&o.MaxSegmentChars, ov.MaxSegmentChars)
	setInt(&o.MaxRankedMatches, ov.MaxRankedMatches)
	setFloat(&o.SimilarityThreshold, ov.SimilarityThreshold)
	setFloat(&o.TemplateThreshold, ov.TemplateThreshold)
	if ov.Weights != nil {
		o.Weights = *ov.Weights
	}
	return o
}
