// Package ingestion brings reference documents and certificates into the
// corpora, either from the HTTP API or from the reference-documents Kafka
// topic, and keeps the persistent store in step with the registries.
package ingestion

import (
	"time"

	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/certificate"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/corpus/store"
)

// Sources recorded on registration events.
const (
	SourceAPI   = "api"
	SourceKafka = "kafka"
)

// RegisterRequest is the JSON body accepted when registering a reference.
// Fields only apply to certificates.
type RegisterRequest struct {
	ID     string            `json:"id,omitempty"`
	Text   string            `json:"text"`
	Fields *certificate.Info `json:"fields,omitempty"`
}

type RegisterResponse struct {
	ID            string           `json:"id"`
	Kind          store.Kind       `json:"kind"`
	Seq           uint64           `json:"seq"`
	Fields        certificate.Info `json:"fields,omitzero"`
	CorpusSize    int              `json:"corpus_size"`
	CorpusVersion uint64           `json:"corpus_version"`
	Published     bool             `json:"published"`
}

// ReferenceEvent is the payload of the reference-documents topic. Origin
// identifies the publishing instance so it can skip its own events.
type ReferenceEvent struct {
	ID          string            `json:"id"`
	Kind        store.Kind        `json:"kind"`
	Text        string            `json:"text"`
	Fields      *certificate.Info `json:"fields,omitempty"`
	Origin      string            `json:"origin"`
	SubmittedAt time.Time         `json:"submitted_at"`
}
