// Package corpus holds the reference documents queries are compared against.
//
// A Registry is append-only: entries can be added or replaced but never
// removed. Writers take the exclusive lock and readers work on snapshots
// taken under the shared lock, so a query never observes a half-applied
// write. Seal turns the registry read-only for callers that want the
// populate-then-query discipline enforced.
package corpus

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/certificate"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/errors"
)

// Document is one reference entry. It is never mutated once registered.
type Document struct {
	ID      string           `json:"id"`
	Text    string           `json:"text"`
	Fields  certificate.Info `json:"fields"`
	Seq     uint64           `json:"seq"`
	AddedAt time.Time        `json:"added_at"`
}

type Registry struct {
	mu      sync.RWMutex
	docs    map[string]Document
	order   []string
	nextSeq uint64
	version uint64
	sealed  bool
	bytes   int64
}

func NewRegistry() *Registry {
	return &Registry{
		docs: make(map[string]Document),
	}
}

// Put adds doc or replaces the entry with the same ID. A replaced entry
// keeps its original insertion rank. Seq and AddedAt are assigned here.
func (r *Registry) Put(doc Document) (Document, error) {
	if strings.TrimSpace(doc.ID) == "" {
		return Document{}, fmt.Errorf("%w: document id is required", apperrors.ErrInvalidInput)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return Document{}, fmt.Errorf("registering %s: %w", doc.ID, apperrors.ErrCorpusSealed)
	}
	return r.putLocked(doc), nil
}

func (r *Registry) putLocked(doc Document) Document {
	if doc.AddedAt.IsZero() {
		doc.AddedAt = time.Now().UTC()
	}
	if prev, exists := r.docs[doc.ID]; exists {
		doc.Seq = prev.Seq
		r.bytes -= int64(len(prev.Text))
	} else {
		doc.Seq = r.nextSeq
		r.nextSeq++
		r.order = append(r.order, doc.ID)
	}
	r.docs[doc.ID] = doc
	r.bytes += int64(len(doc.Text))
	r.version++
	return doc
}

// Load registers docs in order under a single lock. It is used to warm the
// registry from persistent storage.
func (r *Registry) Load(docs []Document) error {
	for _, d := range docs {
		if strings.TrimSpace(d.ID) == "" {
			return fmt.Errorf("%w: document id is required", apperrors.ErrInvalidInput)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return fmt.Errorf("loading %d documents: %w", len(docs), apperrors.ErrCorpusSealed)
	}
	for _, d := range docs {
		r.putLocked(d)
	}
	return nil
}

func (r *Registry) Get(id string) (Document, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[id]
	return doc, ok
}

// Snapshot returns every entry in insertion order together with the version
// it was taken at.
func (r *Registry) Snapshot() ([]Document, uint64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Document, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.docs[id])
	}
	return out, r.version
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Version increases on every write.
func (r *Registry) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// Bytes is the total size of the registered texts.
func (r *Registry) Bytes() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.bytes
}

func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Stats summarises the registry for the stats endpoint.
type Stats struct {
	Documents int    `json:"documents"`
	Bytes     int64  `json:"bytes"`
	Version   uint64 `json:"version"`
	Sealed    bool   `json:"sealed"`
}

func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Stats{
		Documents: len(r.order),
		Bytes:     r.bytes,
		Version:   r.version,
		Sealed:    r.sealed,
	}
}
