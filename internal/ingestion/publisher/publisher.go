// Package publisher handles registrations submitted over the API: it
// validates them, registers and persists them locally, and publishes them
// to the reference-documents topic so other instances pick them up.
package publisher

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/corpus/store"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/kafka"
)

// EventPublisher is the part of the Kafka producer the publisher needs.
type EventPublisher interface {
	Publish(ctx context.Context, event kafka.Event) error
}

const referenceEventType = "reference"

type Publisher struct {
	registrar *ingestion.Registrar
	producer  EventPublisher
	origin    string
	logger    *slog.Logger
}

// New creates a Publisher. producer may be nil when Kafka is disabled;
// origin identifies this instance on published events.
func New(registrar *ingestion.Registrar, producer EventPublisher, origin string) *Publisher {
	return &Publisher{
		registrar: registrar,
		producer:  producer,
		origin:    origin,
		logger:    slog.Default().With("component", "publisher"),
	}
}

// Register validates req, assigns an ID when it has none, registers the
// reference and publishes it. A publish failure is logged and reported in
// the response; the reference is still registered.
func (p *Publisher) Register(ctx context.Context, kind store.Kind, req *ingestion.RegisterRequest) (*ingestion.RegisterResponse, error) {
	if err := validator.ValidateRegisterRequest(kind, req); err != nil {
		return nil, err
	}
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	doc, err := p.registrar.Register(ctx, kind, id, req.Text, req.Fields, ingestion.SourceAPI)
	if err != nil {
		return nil, err
	}
	stats := p.registrar.Registry(kind).Stats()
	resp := &ingestion.RegisterResponse{
		ID:            doc.ID,
		Kind:          kind,
		Seq:           doc.Seq,
		CorpusSize:    stats.Documents,
		CorpusVersion: stats.Version,
	}
	if kind == store.KindCertificate {
		resp.Fields = doc.Fields
	}
	if p.producer == nil {
		return resp, nil
	}
	event := kafka.Event{
		Key:  string(kind) + ":" + doc.ID,
		Type: referenceEventType,
		Value: ingestion.ReferenceEvent{
			ID:          doc.ID,
			Kind:        kind,
			Text:        doc.Text,
			Fields:      req.Fields,
			Origin:      p.origin,
			SubmittedAt: time.Now().UTC(),
		},
	}
	if err := p.producer.Publish(ctx, event); err != nil {
		p.logger.Error("reference registered locally but not published",
			"kind", kind,
			"id", doc.ID,
			"error", err,
		)
		return resp, nil
	}
	resp.Published = true
	return resp, nil
}
