// Package metrics defines the Prometheus collectors used by the analyzer
// service and exposes an HTTP handler for scraping.
package metrics

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	RateLimitedTotal     prometheus.Counter
	AnalysesTotal        *prometheus.CounterVec
	AnalysisLatency      *prometheus.HistogramVec
	MaxSimilarity        *prometheus.HistogramVec
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	ReferencesRegistered *prometheus.CounterVec
	CorpusDocuments      *prometheus.GaugeVec
	CorpusBytes          *prometheus.GaugeVec
	CircuitBreakerState  *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg. Tests pass a
// fresh prometheus.NewRegistry(); the service uses prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		RateLimitedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "http_rate_limited_total",
				Help: "Requests rejected by the per-client rate limiter.",
			},
		),
		AnalysesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "similarity_analyses_total",
				Help: "Analyses by kind (plagiarism, template) and outcome (clean, flagged, error).",
			},
			[]string{"kind", "outcome"},
		),
		AnalysisLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "similarity_analysis_seconds",
				Help:    "Analysis latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"kind", "cache_status"},
		),
		MaxSimilarity: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "similarity_max_score",
				Help:    "Highest similarity found per analysis, as a fraction.",
				Buckets: prometheus.LinearBuckets(0, 0.1, 11),
			},
			[]string{"kind"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "report_cache_hits_total",
				Help: "Total number of report cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "report_cache_misses_total",
				Help: "Total number of report cache misses.",
			},
		),
		ReferencesRegistered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corpus_references_registered_total",
				Help: "References registered by kind and source.",
			},
			[]string{"kind", "source"},
		),
		CorpusDocuments: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "corpus_documents",
				Help: "Number of references held per corpus.",
			},
			[]string{"kind"},
		),
		CorpusBytes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "corpus_bytes",
				Help: "Total text bytes held per corpus.",
			},
			[]string{"kind"},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.RateLimitedTotal,
		m.AnalysesTotal,
		m.AnalysisLatency,
		m.MaxSimilarity,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.ReferencesRegistered,
		m.CorpusDocuments,
		m.CorpusBytes,
		m.CircuitBreakerState,
	)
	return m
}

// Handler serves the metrics gathered from g. Collector errors are logged
// and the remaining metrics are still served.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{
		ErrorLog:          slog.NewLogLogger(slog.Default().Handler(), slog.LevelError),
		ErrorHandling:     promhttp.ContinueOnError,
		EnableOpenMetrics: true,
	})
}
