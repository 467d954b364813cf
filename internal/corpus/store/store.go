// Package store persists reference documents and certificates so the
// in-memory registries can be rebuilt on start-up. The same SQL runs against
// PostgreSQL (service deployments) and SQLite (the CLI's local corpus file).
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/postgres"
)

// Kind separates plain reference documents from certificates.
type Kind string

const (
	KindDocument    Kind = "document"
	KindCertificate Kind = "certificate"
)

type dialect int

const (
	dialectPostgres dialect = iota
	dialectSQLite
)

const schema = `CREATE TABLE IF NOT EXISTS reference_documents (
	kind         TEXT NOT NULL,
	id           TEXT NOT NULL,
	body         TEXT NOT NULL,
	fields       TEXT NOT NULL DEFAULT '{}',
	content_hash TEXT NOT NULL,
	created_at   TEXT NOT NULL,
	PRIMARY KEY (kind, id)
)`

// created_at is kept on conflict so a replaced document keeps its rank.
const upsertQuery = `INSERT INTO reference_documents (kind, id, body, fields, content_hash, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (kind, id) DO UPDATE SET
		body = excluded.body,
		fields = excluded.fields,
		content_hash = excluded.content_hash`

const loadQuery = `SELECT id, body, fields, created_at FROM reference_documents
	WHERE kind = $1 ORDER BY created_at, id`

// timeLayout is fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

var placeholder = regexp.MustCompile(`\$\d+`)

type Store struct {
	db      *sql.DB
	dialect dialect
	lock    *flock.Flock
	logger  *slog.Logger
}

// NewPostgres wraps an open PostgreSQL client.
func NewPostgres(client *postgres.Client) *Store {
	return &Store{
		db:      client.DB,
		dialect: dialectPostgres,
		logger:  slog.Default().With("component", "corpus-store", "driver", "postgres"),
	}
}

// OpenSQLite opens (creating if needed) the corpus file at cfg.Path. An
// exclusive lock on "<path>.lock" is held until Close so two processes never
// write the same corpus file.
func OpenSQLite(ctx context.Context, cfg config.SQLiteConfig) (*Store, error) {
	lock := flock.New(cfg.Path + ".lock")
	locked, err := tryLock(ctx, lock, cfg.LockTimeout)
	if err != nil {
		return nil, fmt.Errorf("locking corpus %s: %w", cfg.Path, err)
	}
	if !locked {
		return nil, fmt.Errorf("corpus %s is locked by another process", cfg.Path)
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("opening sqlite corpus: %w", err)
	}
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}
	s := &Store{
		db:      db,
		dialect: dialectSQLite,
		lock:    lock,
		logger:  slog.Default().With("component", "corpus-store", "driver", "sqlite"),
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func tryLock(ctx context.Context, lock *flock.Flock, timeout time.Duration) (bool, error) {
	if timeout <= 0 {
		return lock.TryLock()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return lock.TryLockContext(ctx, 50*time.Millisecond)
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating reference_documents table: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	err := s.db.Close()
	if s.lock != nil {
		if unlockErr := s.lock.Unlock(); unlockErr != nil && err == nil {
			err = unlockErr
		}
	}
	return err
}

func (s *Store) rebind(query string) string {
	if s.dialect == dialectSQLite {
		return placeholder.ReplaceAllString(query, "?")
	}
	return query
}

// Save upserts one document.
func (s *Store) Save(ctx context.Context, kind Kind, doc corpus.Document) error {
	return s.SaveAll(ctx, kind, []corpus.Document{doc})
}

// SaveAll upserts docs in a single transaction.
func (s *Store) SaveAll(ctx context.Context, kind Kind, docs []corpus.Document) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, s.rebind(upsertQuery))
		if err != nil {
			return fmt.Errorf("preparing upsert: %w", err)
		}
		defer stmt.Close()
		for _, doc := range docs {
			fields, err := json.Marshal(doc.Fields)
			if err != nil {
				return fmt.Errorf("encoding fields of %s: %w", doc.ID, err)
			}
			createdAt := doc.AddedAt
			if createdAt.IsZero() {
				createdAt = time.Now().UTC()
			}
			if _, err := stmt.ExecContext(ctx,
				string(kind), doc.ID, doc.Text, string(fields),
				fmt.Sprintf("%x", sha256.Sum256([]byte(doc.Text))),
				createdAt.UTC().Format(timeLayout),
			); err != nil {
				return fmt.Errorf("saving %s %s: %w", kind, doc.ID, err)
			}
		}
		return nil
	})
}

// LoadAll returns every stored document of kind in insertion order.
func (s *Store) LoadAll(ctx context.Context, kind Kind) ([]corpus.Document, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(loadQuery), string(kind))
	if err != nil {
		return nil, fmt.Errorf("querying %s corpus: %w", kind, err)
	}
	defer rows.Close()

	var docs []corpus.Document
	for rows.Next() {
		var (
			doc       corpus.Document
			fields    string
			createdAt string
		)
		if err := rows.Scan(&doc.ID, &doc.Text, &fields, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", kind, err)
		}
		if err := json.Unmarshal([]byte(fields), &doc.Fields); err != nil {
			return nil, fmt.Errorf("decoding fields of %s: %w", doc.ID, err)
		}
		if doc.AddedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at of %s: %w", doc.ID, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s rows: %w", kind, err)
	}
	s.logger.Debug("corpus loaded", "kind", kind, "documents", len(docs))
	return docs, nil
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rolling back transaction after error %v: %w", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
