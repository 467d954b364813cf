package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/analyzer"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/corpus/store"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/resilience"
)

// corpusBacking is the persistent side of the registries. Both fields are
// nil for the memory driver; postgres is set only for the postgres driver.
type corpusBacking struct {
	refs     *store.Store
	postgres *postgres.Client
}

// Close releases the store, which owns the Postgres pool when there is one.
func (b corpusBacking) Close() {
	if b.refs == nil {
		return
	}
	if err := b.refs.Close(); err != nil {
		slog.Warn("closing corpus store", "error", err)
	}
}

func openCorpusStore(ctx context.Context, cfg *config.Config) (corpusBacking, error) {
	switch cfg.Corpus.Driver {
	case "memory", "":
		slog.Warn("corpus is in memory only; references are lost on restart")
		return corpusBacking{}, nil
	case "sqlite":
		s, err := store.OpenSQLite(ctx, cfg.SQLite)
		if err != nil {
			return corpusBacking{}, err
		}
		return corpusBacking{refs: s}, nil
	case "postgres":
		var client *postgres.Client
		err := resilience.Retry(ctx, "postgres-connect", resilience.RetryConfig{
			MaxAttempts:  cfg.Corpus.LoadAttempts,
			InitialDelay: 500 * time.Millisecond,
		}, func() error {
			var err error
			client, err = postgres.New(ctx, cfg.Postgres)
			return err
		})
		if err != nil {
			return corpusBacking{}, err
		}
		s := store.NewPostgres(client)
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return corpusBacking{}, err
		}
		return corpusBacking{refs: s, postgres: client}, nil
	default:
		return corpusBacking{}, fmt.Errorf("unknown corpus driver %q", cfg.Corpus.Driver)
	}
}

// warmCorpus loads every persisted reference into the engine's registries
// in their stored order.
func warmCorpus(ctx context.Context, cfg config.CorpusConfig, s *store.Store, engine *analyzer.Engine) error {
	start := time.Now()
	for _, target := range []struct {
		kind store.Kind
		reg  *corpus.Registry
	}{
		{store.KindDocument, engine.Documents()},
		{store.KindCertificate, engine.Certificates()},
	} {
		var docs []corpus.Document
		err := resilience.Retry(ctx, "corpus-load", resilience.RetryConfig{MaxAttempts: cfg.LoadAttempts}, func() error {
			return resilience.WithTimeout(ctx, cfg.LoadTimeout, "corpus-load", func(ctx context.Context) error {
				var err error
				docs, err = s.LoadAll(ctx, target.kind)
				return err
			})
		})
		if err != nil {
			return fmt.Errorf("loading %s references: %w", target.kind, err)
		}
		if err := target.reg.Load(docs); err != nil {
			return err
		}
		slog.Info("reference corpus loaded", "kind", target.kind, "count", len(docs))
	}
	slog.Info("corpus warm-up complete", "duration", time.Since(start).Round(time.Millisecond))
	return nil
}
