// Package handler exposes the analyzer over HTTP: plagiarism and template
// checks, corpus statistics and report cache administration.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/analyzer"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/analyzer/cache"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/certificate"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/corpus"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/resilience"
)

const (
	kindPlagiarism = "plagiarism"
	kindTemplate   = "template"
)

// AnalyzeRequest is the body of POST /api/v1/analyze.
type AnalyzeRequest struct {
	Text       string              `json:"text"`
	DocumentID string              `json:"document_id,omitempty"`
	Options    *analyzer.Overrides `json:"options,omitempty"`
}

// TemplateRequest is the body of POST /api/v1/certificates/analyze.
type TemplateRequest struct {
	Text          string              `json:"text"`
	CertificateID string              `json:"certificate_id,omitempty"`
	Fields        *certificate.Info   `json:"fields,omitempty"`
	Options       *analyzer.Overrides `json:"options,omitempty"`
}

type Config struct {
	Defaults     analyzer.Options
	QueryTimeout time.Duration
	MaxBodyBytes int64
}

// Handler serves analysis requests. The cache, tracker and metrics are
// optional.
type Handler struct {
	engine  *analyzer.Engine
	cache   *cache.ReportCache
	tracker analytics.Tracker
	metrics *metrics.Metrics
	cfg     Config
	logger  *slog.Logger
}

func New(engine *analyzer.Engine, reportCache *cache.ReportCache, tracker analytics.Tracker, m *metrics.Metrics, cfg Config) *Handler {
	return &Handler{
		engine:  engine,
		cache:   reportCache,
		tracker: tracker,
		metrics: m,
		cfg:     cfg,
		logger:  slog.Default().With("component", "analyzer-handler"),
	}
}

func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req AnalyzeRequest
	if !h.decode(w, r, &req) {
		return
	}
	opts := h.cfg.Defaults.Apply(req.Options)
	version := h.engine.Documents().Version()

	var (
		report   *analyzer.SimilarityReport
		cacheHit bool
	)
	err := resilience.WithTimeout(ctx, h.cfg.QueryTimeout, "analyze", func(ctx context.Context) error {
		compute := func(ctx context.Context) (*analyzer.SimilarityReport, error) {
			return h.engine.Analyze(ctx, req.DocumentID, req.Text, opts)
		}
		var err error
		if h.cache != nil {
			report, cacheHit, err = h.cache.Similarity(ctx, req.DocumentID, req.Text, opts, version, compute)
		} else {
			report, err = compute(ctx)
		}
		return err
	})
	latency := time.Since(start)
	if err != nil {
		h.observe(kindPlagiarism, "error", false, latency, 0)
		status := apperrors.HTTPStatusCode(err)
		log.Error("analysis failed", "error", err, "status_code", status)
		h.writeError(w, status, err.Error())
		return
	}

	h.observe(kindPlagiarism, outcome(report.IsPlagiarized), cacheHit, latency, report.MaxSimilarity)
	var top string
	if len(report.TopMatches) > 0 {
		top = report.TopMatches[0].DocumentID
	}
	h.track(ctx, analytics.AnalysisEvent{
		Type:       analytics.EventPlagiarismCheck,
		QueryID:    req.DocumentID,
		CorpusSize: report.CorpusSize,
		Score:      report.MaxSimilarity,
		Flagged:    report.IsPlagiarized,
		TopMatch:   top,
		Matches:    len(report.SimilarDocuments),
		LatencyMs:  latency.Milliseconds(),
		CacheHit:   cacheHit,
	})
	log.Info("analysis completed",
		"document_id", req.DocumentID,
		"corpus_size", report.CorpusSize,
		"is_plagiarized", report.IsPlagiarized,
		"max_similarity", report.MaxSimilarity,
		"cache_hit", cacheHit,
		"latency_ms", latency.Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, report)
}

func (h *Handler) AnalyzeCertificate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req TemplateRequest
	if !h.decode(w, r, &req) {
		return
	}
	opts := h.cfg.Defaults.Apply(req.Options)
	version := h.engine.Certificates().Version()

	var (
		report   *analyzer.TemplateMatchReport
		cacheHit bool
	)
	err := resilience.WithTimeout(ctx, h.cfg.QueryTimeout, "analyze-certificate", func(ctx context.Context) error {
		compute := func(ctx context.Context) (*analyzer.TemplateMatchReport, error) {
			return h.engine.AnalyzeTemplate(ctx, req.CertificateID, req.Text, req.Fields, opts)
		}
		var err error
		if h.cache != nil {
			report, cacheHit, err = h.cache.Template(ctx, req.CertificateID, req.Text, req.Fields, opts, version, compute)
		} else {
			report, err = compute(ctx)
		}
		return err
	})
	latency := time.Since(start)
	if err != nil {
		h.observe(kindTemplate, "error", false, latency, 0)
		status := apperrors.HTTPStatusCode(err)
		log.Error("certificate analysis failed", "error", err, "status_code", status)
		h.writeError(w, status, err.Error())
		return
	}

	h.observe(kindTemplate, outcome(report.IsForged), cacheHit, latency, report.MaxTemplateSimilarity)
	h.track(ctx, analytics.AnalysisEvent{
		Type:       analytics.EventTemplateCheck,
		QueryID:    req.CertificateID,
		CorpusSize: report.CorpusSize,
		Score:      report.MaxTemplateSimilarity,
		Flagged:    report.IsForged,
		TopMatch:   report.ClosestTemplate,
		Matches:    len(report.DuplicateCertificates),
		LatencyMs:  latency.Milliseconds(),
		CacheHit:   cacheHit,
	})
	log.Info("certificate analysis completed",
		"certificate_id", req.CertificateID,
		"corpus_size", report.CorpusSize,
		"is_forged", report.IsForged,
		"duplicates", len(report.DuplicateCertificates),
		"cache_hit", cacheHit,
		"latency_ms", latency.Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, report)
}

// CorpusStats reports the size of both corpora.
func (h *Handler) CorpusStats(w http.ResponseWriter, r *http.Request) {
	h.ObserveState()
	h.writeJSON(w, http.StatusOK, map[string]corpus.Stats{
		"documents":    h.engine.Documents().Stats(),
		"certificates": h.engine.Certificates().Stats(),
	})
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	s := h.cache.Stats()
	total := s.Hits + s.Misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(s.Hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     s.Hits,
		"misses":   s.Misses,
		"total":    total,
		"hit_rate": hitRate,
		"breaker":  s.Breaker,
		"rejected": s.Rejected,
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	deleted, err := h.cache.Invalidate(r.Context())
	if err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

// ObserveState copies corpus sizes and the cache breaker state into the
// gauges.
func (h *Handler) ObserveState() {
	if h.metrics == nil {
		return
	}
	for kind, reg := range map[string]*corpus.Registry{
		"document":    h.engine.Documents(),
		"certificate": h.engine.Certificates(),
	} {
		s := reg.Stats()
		h.metrics.CorpusDocuments.WithLabelValues(kind).Set(float64(s.Documents))
		h.metrics.CorpusBytes.WithLabelValues(kind).Set(float64(s.Bytes))
	}
	if h.cache != nil {
		h.metrics.CircuitBreakerState.WithLabelValues("report-cache").Set(float64(h.cache.BreakerState()))
	}
}

func (h *Handler) observe(kind, result string, cacheHit bool, latency time.Duration, maxScore float64) {
	if h.metrics == nil {
		return
	}
	h.metrics.AnalysesTotal.WithLabelValues(kind, result).Inc()
	if result == "error" {
		return
	}
	status := "disabled"
	switch {
	case h.cache == nil:
	case cacheHit:
		status = "hit"
		h.metrics.CacheHitsTotal.Inc()
	default:
		status = "miss"
		h.metrics.CacheMissesTotal.Inc()
	}
	h.metrics.AnalysisLatency.WithLabelValues(kind, status).Observe(latency.Seconds())
	h.metrics.MaxSimilarity.WithLabelValues(kind).Observe(maxScore)
}

func (h *Handler) track(ctx context.Context, e analytics.AnalysisEvent) {
	if h.tracker == nil {
		return
	}
	e.Timestamp = time.Now().UTC()
	e.RequestID = middleware.GetRequestID(ctx)
	h.tracker.TrackAnalysis(e)
}

func outcome(flagged bool) string {
	if flagged {
		return "flagged"
	}
	return "clean"
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if h.cfg.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes)
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
