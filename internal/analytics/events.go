// Package analytics tracks what the engine is asked and what it finds.
// Events are published to Kafka by a batching Collector and folded into
// in-memory statistics by an Aggregator.
package analytics

import "time"

type EventType string

const (
	EventPlagiarismCheck EventType = "plagiarism_check"
	EventTemplateCheck   EventType = "template_check"
	EventReferenceAdded  EventType = "reference_added"
)

// AnalysisEvent records one plagiarism or template check.
type AnalysisEvent struct {
	Type       EventType `json:"type"`
	QueryID    string    `json:"query_id,omitempty"`
	CorpusSize int       `json:"corpus_size"`
	// Score is the max similarity for plagiarism checks and the max
	// template similarity for template checks, both as fractions.
	Score     float64   `json:"score"`
	Flagged   bool      `json:"flagged"`
	TopMatch  string    `json:"top_match,omitempty"`
	Matches   int       `json:"matches"`
	LatencyMs int64     `json:"latency_ms"`
	CacheHit  bool      `json:"cache_hit"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// RegistrationEvent records a reference entering a corpus.
type RegistrationEvent struct {
	Type      EventType `json:"type"`
	Kind      string    `json:"kind"`
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// Tracker receives events. Both the Kafka-backed Collector and the local
// Aggregator implement it.
type Tracker interface {
	TrackAnalysis(AnalysisEvent)
	TrackRegistration(RegistrationEvent)
}
