package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/kafka"
)

const (
	maxLatencySamples = 10000
	topReferences     = 10
)

type Stats struct {
	TotalChecks       int64            `json:"total_checks"`
	PlagiarismChecks  int64            `json:"plagiarism_checks"`
	TemplateChecks    int64            `json:"template_checks"`
	PlagiarismFlagged int64            `json:"plagiarism_flagged"`
	ForgeriesFlagged  int64            `json:"forgeries_flagged"`
	CacheHits         int64            `json:"cache_hits"`
	CacheMisses       int64            `json:"cache_misses"`
	AvgLatencyMs      float64          `json:"avg_latency_ms"`
	P50LatencyMs      int64            `json:"p50_latency_ms"`
	P95LatencyMs      int64            `json:"p95_latency_ms"`
	P99LatencyMs      int64            `json:"p99_latency_ms"`
	TopMatched        []ReferenceCount `json:"top_matched_references"`
	Registrations     map[string]int64 `json:"registrations"`
	ChecksPerMinute   float64          `json:"checks_per_minute"`
}

// ReferenceCount is how often a reference was the closest match.
type ReferenceCount struct {
	ID    string `json:"id"`
	Count int64  `json:"count"`
}

// Aggregator folds events into running statistics. Latency percentiles
// cover the most recent maxLatencySamples checks.
type Aggregator struct {
	mu            sync.RWMutex
	checks        map[EventType]int64
	flagged       map[EventType]int64
	cacheHits     int64
	cacheMisses   int64
	latencies     []int64
	next          int
	topMatches    map[string]int64
	registrations map[string]int64
	startTime     time.Time
	logger        *slog.Logger
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		checks:        make(map[EventType]int64),
		flagged:       make(map[EventType]int64),
		latencies:     make([]int64, 0, 1024),
		topMatches:    make(map[string]int64),
		registrations: make(map[string]int64),
		startTime:     time.Now(),
		logger:        slog.Default().With("component", "analytics-aggregator"),
	}
}

func (a *Aggregator) TrackAnalysis(e AnalysisEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.checks[e.Type]++
	if e.Flagged {
		a.flagged[e.Type]++
	}
	if e.CacheHit {
		a.cacheHits++
	} else {
		a.cacheMisses++
	}
	if e.TopMatch != "" {
		a.topMatches[e.TopMatch]++
	}
	if len(a.latencies) < maxLatencySamples {
		a.latencies = append(a.latencies, e.LatencyMs)
		return
	}
	a.latencies[a.next] = e.LatencyMs
	a.next = (a.next + 1) % maxLatencySamples
}

func (a *Aggregator) TrackRegistration(e RegistrationEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.registrations[e.Kind]++
}

// HandleMessage decodes one event from the analytics topic. Undecodable or
// unknown events are logged and skipped so they do not block the partition.
func (a *Aggregator) HandleMessage(_ context.Context, msg kafka.Message) error {
	switch EventType(msg.Type) {
	case EventPlagiarismCheck, EventTemplateCheck:
		e, err := kafka.DecodeJSON[AnalysisEvent](msg.Value)
		if err != nil {
			a.logger.Error("failed to decode analysis event", "offset", msg.Offset, "error", err)
			return nil
		}
		a.TrackAnalysis(e)
	case EventReferenceAdded:
		e, err := kafka.DecodeJSON[RegistrationEvent](msg.Value)
		if err != nil {
			a.logger.Error("failed to decode registration event", "offset", msg.Offset, "error", err)
			return nil
		}
		a.TrackRegistration(e)
	default:
		a.logger.Warn("skipping unknown analytics event", "type", msg.Type, "offset", msg.Offset)
	}
	return nil
}

func (a *Aggregator) Stats() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := Stats{
		PlagiarismChecks:  a.checks[EventPlagiarismCheck],
		TemplateChecks:    a.checks[EventTemplateCheck],
		PlagiarismFlagged: a.flagged[EventPlagiarismCheck],
		ForgeriesFlagged:  a.flagged[EventTemplateCheck],
		CacheHits:         a.cacheHits,
		CacheMisses:       a.cacheMisses,
		Registrations:     make(map[string]int64, len(a.registrations)),
	}
	stats.TotalChecks = stats.PlagiarismChecks + stats.TemplateChecks
	for kind, n := range a.registrations {
		stats.Registrations[kind] = n
	}
	if len(a.latencies) > 0 {
		sorted := make([]int64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	stats.TopMatched = topN(a.topMatches, topReferences)
	if elapsed := time.Since(a.startTime).Minutes(); elapsed > 0 {
		stats.ChecksPerMinute = float64(stats.TotalChecks) / elapsed
	}
	return stats
}

func (s Stats) String() string {
	return fmt.Sprintf("checks=%d flagged=%d forged=%d p95=%dms",
		s.TotalChecks, s.PlagiarismFlagged, s.ForgeriesFlagged, s.P95LatencyMs)
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func topN(counts map[string]int64, n int) []ReferenceCount {
	result := make([]ReferenceCount, 0, len(counts))
	for id, count := range counts {
		result = append(result, ReferenceCount{ID: id, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].ID < result[j].ID
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
