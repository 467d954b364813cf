package consumer

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/analyzer"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/certificate"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/corpus/store"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/kafka"
)

func message(t *testing.T, ev ingestion.ReferenceEvent) kafka.Message {
	t.Helper()
	value, err := json.Marshal(ev)
	if err != nil {
		t.Fatal(err)
	}
	return kafka.Message{Value: value}
}

func TestHandleMessage(t *testing.T) {
	engine := analyzer.New(corpus.NewRegistry(), corpus.NewRegistry(), 1)
	handle := HandleMessage(ingestion.NewRegistrar(engine, nil, nil), "self")
	ctx := context.Background()

	msgs := []kafka.Message{
		message(t, ingestion.ReferenceEvent{ID: "d1", Kind: store.KindDocument, Text: "alpha beta", Origin: "peer"}),
		message(t, ingestion.ReferenceEvent{ID: "d2", Kind: store.KindDocument, Text: "own event", Origin: "self"}),
		message(t, ingestion.ReferenceEvent{ID: "", Kind: store.KindDocument, Text: "no id"}),
		message(t, ingestion.ReferenceEvent{ID: "d3", Kind: "video", Text: "bad kind"}),
		message(t, ingestion.ReferenceEvent{ID: "c1", Kind: store.KindCertificate, Text: "cert", Fields: &certificate.Info{HolderName: "Jane Doe"}}),
		{Value: []byte("garbage")},
	}
	for i, m := range msgs {
		if err := handle(ctx, m); err != nil {
			t.Fatalf("message %d: %v", i, err)
		}
	}
	if engine.Documents().Len() != 1 {
		t.Errorf("documents = %d, want 1", engine.Documents().Len())
	}
	if _, ok := engine.Documents().Get("d1"); !ok {
		t.Error("peer event not applied")
	}
	c, ok := engine.Certificates().Get("c1")
	if !ok || c.Fields.HolderName != "Jane Doe" {
		t.Errorf("certificate = %+v, %v", c, ok)
	}
}

func TestHandleMessageSealedCorpus(t *testing.T) {
	engine := analyzer.New(corpus.NewRegistry(), corpus.NewRegistry(), 1)
	engine.Documents().Seal()
	handle := HandleMessage(ingestion.NewRegistrar(engine, nil, nil), "self")
	m := message(t, ingestion.ReferenceEvent{ID: "d1", Kind: store.KindDocument, Text: "text"})
	if err := handle(context.Background(), m); err != nil {
		t.Errorf("sealed corpus should drop the event, got %v", err)
	}
}
