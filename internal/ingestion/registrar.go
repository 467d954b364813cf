package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/analyzer"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/certificate"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/corpus/store"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/errors"
)

// Persister saves registered references. *store.Store implements it.
type Persister interface {
	Save(ctx context.Context, kind store.Kind, doc corpus.Document) error
}

// Registrar registers references with the engine, persists them and
// reports the registration. persister and tracker are optional.
type Registrar struct {
	engine    *analyzer.Engine
	persister Persister
	tracker   analytics.Tracker
	logger    *slog.Logger
}

func NewRegistrar(engine *analyzer.Engine, persister Persister, tracker analytics.Tracker) *Registrar {
	return &Registrar{
		engine:    engine,
		persister: persister,
		tracker:   tracker,
		logger:    slog.Default().With("component", "registrar"),
	}
}

// Register adds the reference to the matching registry and then persists
// it. A persistence failure is returned, but the in-memory entry stays
// until the process restarts.
func (r *Registrar) Register(ctx context.Context, kind store.Kind, id, text string, fields *certificate.Info, source string) (corpus.Document, error) {
	var (
		doc corpus.Document
		err error
	)
	switch kind {
	case store.KindDocument:
		doc, err = r.engine.RegisterDocument(id, text)
	case store.KindCertificate:
		doc, err = r.engine.RegisterCertificate(id, text, fields)
	default:
		return corpus.Document{}, fmt.Errorf("%w: unknown reference kind %q", apperrors.ErrInvalidInput, kind)
	}
	if err != nil {
		return corpus.Document{}, err
	}
	if r.persister != nil {
		if err := r.persister.Save(ctx, kind, doc); err != nil {
			r.logger.Error("reference registered but not persisted", "kind", kind, "id", doc.ID, "error", err)
			return doc, fmt.Errorf("persisting %s %s: %w", kind, doc.ID, err)
		}
	}
	if r.tracker != nil {
		r.tracker.TrackRegistration(analytics.RegistrationEvent{
			Type:      analytics.EventReferenceAdded,
			Kind:      string(kind),
			ID:        doc.ID,
			Source:    source,
			Timestamp: time.Now().UTC(),
		})
	}
	r.logger.Info("reference registered", "kind", kind, "id", doc.ID, "seq", doc.Seq, "source", source)
	return doc, nil
}

// Registry returns the registry that holds references of kind.
func (r *Registrar) Registry(kind store.Kind) *corpus.Registry {
	if kind == store.KindCertificate {
		return r.engine.Certificates()
	}
	return r.engine.Documents()
}
