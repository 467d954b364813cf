package analyzer

import (
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/certificate"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/engine/segment"
)

const analysisMethod = "multi-algorithm"

// SimilarityResult is the full-precision comparison against one reference.
type SimilarityResult struct {
	DocumentID string          `json:"document_id"`
	Jaccard    float64         `json:"jaccard"`
	Cosine     float64         `json:"cosine"`
	Combined   float64         `json:"combined"`
	Segments   []segment.Match `json:"segments,omitempty"`
}

// SimilarDocument is a reference at or above the similarity threshold.
// Scores are percentages.
type SimilarDocument struct {
	DocumentID        string  `json:"document_id"`
	SimilarityScore   float64 `json:"similarity_score"`
	JaccardSimilarity float64 `json:"jaccard_similarity"`
	CosineSimilarity  float64 `json:"cosine_similarity"`
	MatchingSegments  int     `json:"matching_segments"`
}

// MatchingPart is one displayed verbatim segment of a similar reference.
type MatchingPart struct {
	SourceDocument  string  `json:"source_document"`
	MatchedText     string  `json:"matched_text"`
	LengthWords     int     `json:"length_words"`
	QueryOffset     int     `json:"query_offset"`
	ReferenceOffset int     `json:"reference_offset"`
	SimilarityScore float64 `json:"similarity_score"`
	Explanation     string  `json:"explanation"`
}

// RankedMatch is one entry of the ranked reference list.
type RankedMatch struct {
	Rank              int             `json:"rank"`
	DocumentID        string          `json:"document_id"`
	SimilarityScore   float64         `json:"similarity_score"`
	JaccardSimilarity float64         `json:"jaccard_similarity"`
	CosineSimilarity  float64         `json:"cosine_similarity"`
	Similar           bool            `json:"similar"`
	Segments          []segment.Match `json:"segments"`
}

type SimilarityReport struct {
	DocumentID        string            `json:"document_id,omitempty"`
	IsPlagiarized     bool              `json:"is_plagiarized"`
	MaxSimilarity     float64           `json:"max_similarity"`
	AverageSimilarity float64           `json:"average_similarity"`
	Threshold         float64           `json:"threshold"`
	SimilarDocuments  []SimilarDocument `json:"similar_documents"`
	MatchingParts     []MatchingPart    `json:"matching_parts"`
	TopMatches        []RankedMatch     `json:"top_matches"`
	ConfidenceScore   int               `json:"confidence_score"`
	AnalysisMethod    string            `json:"analysis_method"`
	DocumentHash      string            `json:"document_hash"`
	CorpusSize        int               `json:"corpus_size"`
	CorpusVersion     uint64            `json:"corpus_version"`

	// Results holds every comparison in corpus order at full precision.
	Results []SimilarityResult `json:"-"`
}

type TemplateMatchReport struct {
	CertificateID         string                  `json:"certificate_id,omitempty"`
	IsForged              bool                    `json:"is_forged"`
	ExtractedInfo         certificate.Info        `json:"extracted_info"`
	ForgeryEvidence       *certificate.Evidence   `json:"forgery_evidence"`
	DuplicateCertificates []certificate.Duplicate `json:"duplicate_certificates"`
	Confidence            int                     `json:"confidence"`
	Explanation           string                  `json:"explanation"`
	Threshold             float64                 `json:"threshold"`

	// ClosestTemplate is the reference with the highest template similarity,
	// whether or not it counts as forgery evidence.
	ClosestTemplate       string  `json:"closest_template,omitempty"`
	MaxTemplateSimilarity float64 `json:"max_template_similarity"`
	DocumentHash          string  `json:"document_hash"`
	CorpusSize            int     `json:"corpus_size"`
}
