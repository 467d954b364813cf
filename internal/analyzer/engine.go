// Package analyzer runs similarity and template-forgery queries against the
// reference corpora. Comparisons against individual references are
// independent, so they fan out across a bounded worker pool over a registry
// snapshot.
package analyzer

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/certificate"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/engine/ngram"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/engine/scoring"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/engine/segment"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/engine/similarity"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/engine/template"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/engine/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/errors"
)

type Engine struct {
	documents    *corpus.Registry
	certificates *corpus.Registry
	workers      int
	logger       *slog.Logger
}

// New creates an Engine over the two registries. workers <= 0 uses one
// worker per CPU.
func New(documents, certificates *corpus.Registry, workers int) *Engine {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Engine{
		documents:    documents,
		certificates: certificates,
		workers:      workers,
		logger:       slog.Default().With("component", "analyzer"),
	}
}

func (e *Engine) Documents() *corpus.Registry    { return e.documents }
func (e *Engine) Certificates() *corpus.Registry { return e.certificates }

// RegisterDocument adds or replaces a reference document.
func (e *Engine) RegisterDocument(id, text string) (corpus.Document, error) {
	return e.documents.Put(corpus.Document{ID: id, Text: text})
}

// RegisterCertificate adds or replaces a reference certificate. Fields are
// extracted from text; non-empty values in fields take precedence.
func (e *Engine) RegisterCertificate(id, text string, fields *certificate.Info) (corpus.Document, error) {
	return e.certificates.Put(corpus.Document{ID: id, Text: text, Fields: resolveFields(text, fields)})
}

func resolveFields(text string, fields *certificate.Info) certificate.Info {
	info := certificate.Extract(text)
	if fields != nil {
		info = info.Merge(*fields)
	}
	return info
}

type scored struct {
	doc    corpus.Document
	tokens []string
	result SimilarityResult
}

// Analyze compares text against every reference document.
func (e *Engine) Analyze(ctx context.Context, documentID, text string, opts Options) (*SimilarityReport, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	queryTokens := tokenizer.Tokens(text)
	queryGrams, err := ngram.Extract(queryTokens, opts.NGramSize)
	if err != nil {
		return nil, err
	}
	queryVector := similarity.Frequencies(queryTokens)

	docs, version := e.documents.Snapshot()
	entries := make([]scored, len(docs))
	err = e.fanOut(ctx, len(docs), func(i int) error {
		doc := docs[i]
		tokens := tokenizer.Tokens(doc.Text)
		grams, err := ngram.Extract(tokens, opts.NGramSize)
		if err != nil {
			return err
		}
		j := similarity.Jaccard(queryGrams, grams)
		c := similarity.CosineVectors(queryVector, similarity.Frequencies(tokens))
		entries[i] = scored{
			doc:    doc,
			tokens: tokens,
			result: SimilarityResult{
				DocumentID: doc.ID,
				Jaccard:    j,
				Cosine:     c,
				Combined:   scoring.Combine(j, c, opts.Weights),
			},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ranked := make([]scoring.Scored, len(entries))
	for i, en := range entries {
		ranked[i] = scoring.Scored{
			DocID:    en.doc.ID,
			Seq:      en.doc.Seq,
			Jaccard:  en.result.Jaccard,
			Cosine:   en.result.Cosine,
			Combined: en.result.Combined,
		}
	}
	ranked = scoring.Rank(ranked, opts.MaxRankedMatches)

	// Segments are only needed for similar references and the ranked list.
	needSegments := make(map[string]bool, len(ranked))
	for _, r := range ranked {
		needSegments[r.DocID] = true
	}
	for _, en := range entries {
		if scoring.Classify(en.result.Combined, opts.SimilarityThreshold) {
			needSegments[en.doc.ID] = true
		}
	}
	err = e.fanOut(ctx, len(entries), func(i int) error {
		if !needSegments[entries[i].doc.ID] {
			return nil
		}
		matches, err := segment.Find(queryTokens, entries[i].tokens, opts.MinSegmentLength)
		if err != nil {
			return err
		}
		entries[i].result.Segments = matches
		return nil
	})
	if err != nil {
		return nil, err
	}

	report := buildSimilarityReport(documentID, text, entries, ranked, opts)
	report.CorpusSize = len(docs)
	report.CorpusVersion = version

	e.logger.Debug("analysis complete",
		"corpus_size", len(docs),
		"similar", len(report.SimilarDocuments),
		"is_plagiarized", report.IsPlagiarized,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return report, nil
}

func buildSimilarityReport(documentID, text string, entries []scored, ranked []scoring.Scored, opts Options) *SimilarityReport {
	report := &SimilarityReport{
		DocumentID:       documentID,
		Threshold:        opts.SimilarityThreshold,
		SimilarDocuments: make([]SimilarDocument, 0),
		MatchingParts:    make([]MatchingPart, 0),
		TopMatches:       make([]RankedMatch, 0, len(ranked)),
		AnalysisMethod:   analysisMethod,
		DocumentHash:     documentHash(text),
		Results:          make([]SimilarityResult, 0, len(entries)),
	}

	byID := make(map[string]SimilarityResult, len(entries))
	var total float64
	for _, en := range entries {
		res := en.result
		byID[res.DocumentID] = res
		report.Results = append(report.Results, res)
		total += res.Combined
		if res.Combined > report.MaxSimilarity {
			report.MaxSimilarity = res.Combined
		}
		if !scoring.Classify(res.Combined, opts.SimilarityThreshold) {
			continue
		}
		report.SimilarDocuments = append(report.SimilarDocuments, SimilarDocument{
			DocumentID:        res.DocumentID,
			SimilarityScore:   scoring.Percent(res.Combined),
			JaccardSimilarity: scoring.Percent(res.Jaccard),
			CosineSimilarity:  scoring.Percent(res.Cosine),
			MatchingSegments:  len(res.Segments),
		})
		for _, m := range displaySegments(res.Segments, opts) {
			report.MatchingParts = append(report.MatchingParts, MatchingPart{
				SourceDocument:  res.DocumentID,
				MatchedText:     m.Text,
				LengthWords:     m.Length,
				QueryOffset:     m.QueryOffset,
				ReferenceOffset: m.ReferenceOffset,
				SimilarityScore: scoring.Percent(res.Combined),
				Explanation:     fmt.Sprintf("Exact match of %d consecutive words found in %s", m.Length, res.DocumentID),
			})
		}
	}
	if len(entries) > 0 {
		report.AverageSimilarity = total / float64(len(entries))
	}

	for i, r := range ranked {
		res := byID[r.DocID]
		report.TopMatches = append(report.TopMatches, RankedMatch{
			Rank:              i + 1,
			DocumentID:        r.DocID,
			SimilarityScore:   scoring.Percent(r.Combined),
			JaccardSimilarity: scoring.Percent(r.Jaccard),
			CosineSimilarity:  scoring.Percent(r.Cosine),
			Similar:           scoring.Classify(r.Combined, opts.SimilarityThreshold),
			Segments:          displaySegments(res.Segments, opts),
		})
	}

	verdict := scoring.ClassifyPlagiarism(report.MaxSimilarity, opts.SimilarityThreshold)
	report.IsPlagiarized = verdict.IsMatch
	report.ConfidenceScore = verdict.Confidence
	return report
}

// displaySegments applies the per-match count cap and the text length cap.
func displaySegments(matches []segment.Match, opts Options) []segment.Match {
	n := len(matches)
	if opts.MaxSegmentsPerMatch > 0 && n > opts.MaxSegmentsPerMatch {
		n = opts.MaxSegmentsPerMatch
	}
	out := make([]segment.Match, n)
	for i := range out {
		out[i] = matches[i]
		out[i].Text = scoring.Truncate(matches[i].Text, opts.MaxSegmentChars)
	}
	return out
}

type templateEntry struct {
	doc        corpus.Document
	similarity float64
	fieldScore float64
}

// AnalyzeTemplate compares the template of text against every reference
// certificate. Fields are extracted from text; non-empty values in fields
// take precedence.
func (e *Engine) AnalyzeTemplate(ctx context.Context, certificateID, text string, fields *certificate.Info, opts Options) (*TemplateMatchReport, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	info := resolveFields(text, fields)
	queryTemplate := template.Normalize(text, info.TemplateFields())

	refs, _ := e.certificates.Snapshot()
	entries := make([]templateEntry, len(refs))
	err := e.fanOut(ctx, len(refs), func(i int) error {
		ref := refs[i]
		entries[i] = templateEntry{
			doc:        ref,
			similarity: template.Similarity(queryTemplate, template.Normalize(ref.Text, ref.Fields.TemplateFields())),
			fieldScore: certificate.FieldSimilarity(info, ref.Fields),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	report := &TemplateMatchReport{
		CertificateID:         certificateID,
		ExtractedInfo:         info,
		DuplicateCertificates: make([]certificate.Duplicate, 0),
		Threshold:             opts.TemplateThreshold,
		DocumentHash:          documentHash(text),
		CorpusSize:            len(refs),
	}

	// Entries are in insertion order, so strict comparisons keep the
	// earliest reference on ties.
	var evidenceFrom *templateEntry
	for i := range entries {
		en := &entries[i]
		if en.similarity > report.MaxTemplateSimilarity {
			report.MaxTemplateSimilarity = en.similarity
			report.ClosestTemplate = en.doc.ID
		}
		if scoring.Classify(en.similarity, opts.TemplateThreshold) && certificate.CredentialsDiffer(info, en.doc.Fields) {
			if evidenceFrom == nil || en.similarity > evidenceFrom.similarity {
				evidenceFrom = en
			}
		}
		if en.fieldScore > certificate.DuplicateThreshold {
			report.DuplicateCertificates = append(report.DuplicateCertificates, certificate.Duplicate{
				CertificateID: en.doc.ID,
				Similarity:    scoring.Percent(en.fieldScore),
				HolderName:    en.doc.Fields.HolderName,
			})
		}
	}

	var bestSimilarity float64
	if evidenceFrom != nil {
		bestSimilarity = evidenceFrom.similarity
		report.ForgeryEvidence = &certificate.Evidence{
			MatchedCertificate: evidenceFrom.doc.ID,
			TemplateSimilarity: scoring.Percent(evidenceFrom.similarity),
			OriginalHolder:     evidenceFrom.doc.Fields.HolderName,
			OriginalCertNumber: evidenceFrom.doc.Fields.CertificateNumber,
			OriginalIssueDate:  evidenceFrom.doc.Fields.IssueDate,
		}
	}
	verdict := scoring.ClassifyForgery(evidenceFrom != nil, bestSimilarity)
	report.IsForged = verdict.IsMatch
	report.Confidence = verdict.Confidence
	report.Explanation = certificate.Explain(report.ForgeryEvidence, report.DuplicateCertificates)

	e.logger.Debug("template analysis complete",
		"corpus_size", len(refs),
		"is_forged", report.IsForged,
		"duplicates", len(report.DuplicateCertificates),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return report, nil
}

// fanOut runs fn for every index in [0, n) on the worker pool, stopping at
// the first error or when ctx is done.
func (e *Engine) fanOut(ctx context.Context, n int, fn func(i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(i)
		})
	}
	if err := g.Wait(); err != nil {
		return translateContextErr(err)
	}
	// A cancellation observed only by the loop leaves no error in the group.
	return translateContextErr(ctx.Err())
}

func translateContextErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: analysis exceeded its time budget", apperrors.ErrTimeout)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("analysis cancelled: %w", err)
	default:
		return err
	}
}

func documentHash(text string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(text)))
}
