package main

import (
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/metrics"
)

// instrumentedTracker counts registrations in Prometheus before forwarding
// events to the collector, or straight to the aggregator without Kafka.
type instrumentedTracker struct {
	next    analytics.Tracker
	metrics *metrics.Metrics
}

func (t *instrumentedTracker) TrackAnalysis(e analytics.AnalysisEvent) {
	t.next.TrackAnalysis(e)
}

func (t *instrumentedTracker) TrackRegistration(e analytics.RegistrationEvent) {
	t.metrics.ReferencesRegistered.WithLabelValues(e.Kind, e.Source).Inc()
	t.next.TrackRegistration(e)
}
