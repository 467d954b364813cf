package ingestion

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/analyzer"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/certificate"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/corpus/store"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/errors"
)

type memPersister struct {
	mu    sync.Mutex
	saved map[store.Kind][]corpus.Document
	err   error
}

func (m *memPersister) Save(_ context.Context, kind store.Kind, doc corpus.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.saved == nil {
		m.saved = make(map[store.Kind][]corpus.Document)
	}
	m.saved[kind] = append(m.saved[kind], doc)
	return nil
}

func newEngine() *analyzer.Engine {
	return analyzer.New(corpus.NewRegistry(), corpus.NewRegistry(), 2)
}

func TestRegisterPersistsAndTracks(t *testing.T) {
	engine := newEngine()
	persister := &memPersister{}
	agg := analytics.NewAggregator()
	r := NewRegistrar(engine, persister, agg)

	doc, err := r.Register(context.Background(), store.KindCertificate, "c1",
		"This is to certify that John Smith", &certificate.Info{CertificateNumber: "N-1"}, SourceAPI)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Fields.HolderName != "John Smith" || doc.Fields.CertificateNumber != "N-1" {
		t.Errorf("fields = %+v", doc.Fields)
	}
	if engine.Certificates().Len() != 1 || engine.Documents().Len() != 0 {
		t.Error("certificate landed in the wrong registry")
	}
	if got := persister.saved[store.KindCertificate]; len(got) != 1 || got[0].ID != "c1" {
		t.Errorf("persisted = %+v", persister.saved)
	}
	if agg.Stats().Registrations["certificate"] != 1 {
		t.Error("registration not tracked")
	}
	if r.Registry(store.KindCertificate) != engine.Certificates() || r.Registry(store.KindDocument) != engine.Documents() {
		t.Error("Registry() returned the wrong registry")
	}
}

func TestRegisterPersistFailure(t *testing.T) {
	engine := newEngine()
	boom := errors.New("disk full")
	r := NewRegistrar(engine, &memPersister{err: boom}, nil)
	if _, err := r.Register(context.Background(), store.KindDocument, "d", "text", nil, SourceAPI); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if engine.Documents().Len() != 1 {
		t.Error("in-memory entry should remain after a persistence failure")
	}
}

func TestRegisterRejects(t *testing.T) {
	engine := newEngine()
	r := NewRegistrar(engine, nil, nil)
	if _, err := r.Register(context.Background(), store.Kind("x"), "d", "t", nil, SourceAPI); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("unknown kind: err = %v", err)
	}
	engine.Documents().Seal()
	if _, err := r.Register(context.Background(), store.KindDocument, "d", "t", nil, SourceAPI); !errors.Is(err, apperrors.ErrCorpusSealed) {
		t.Errorf("sealed: err = %v", err)
	}
}
