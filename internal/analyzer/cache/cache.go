// Package cache memoises analysis reports in Redis. Keys cover the query
// text, the effective options and the corpus version, so registering a
// reference makes earlier entries unreachable without an explicit flush.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/analyzer"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/certificate"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/resilience"
)

const (
	keyPrefix         = "simreport:"
	similarityKind    = "similarity"
	templateMatchKind = "template"
)

// Store is the subset of the Redis client the cache needs.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) (int64, error)
}

type ReportCache struct {
	store   Store
	ttl     time.Duration
	breaker *resilience.CircuitBreaker
	group   singleflight.Group
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

func New(store Store, ttl time.Duration) *ReportCache {
	return &ReportCache{
		store:   store,
		ttl:     ttl,
		breaker: resilience.NewCircuitBreaker("report-cache", resilience.CircuitBreakerConfig{
			IsFailure: isStoreFailure,
		}),
		logger:  slog.Default().With("component", "report-cache"),
	}
}

// Stats is a point-in-time view of cache effectiveness.
type Stats struct {
	Hits     int64  `json:"hits"`
	Misses   int64  `json:"misses"`
	Breaker  string `json:"breaker"`
	Rejected int64  `json:"rejected"`
}

func (c *ReportCache) Stats() Stats {
	rejected, _ := c.breaker.Counts()
	return Stats{
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Breaker:  c.breaker.GetState().String(),
		Rejected: rejected,
	}
}

// isStoreFailure keeps absent keys and abandoned requests from tripping the
// breaker.
func isStoreFailure(err error) bool {
	return err != nil && !errors.Is(err, pkgredis.ErrMiss) && !errors.Is(err, context.Canceled)
}

// BreakerState exposes the Redis circuit state for metrics.
func (c *ReportCache) BreakerState() resilience.State {
	return c.breaker.GetState()
}

// Similarity returns the cached plagiarism report for the query or computes
// and stores it. The bool reports a cache hit. Concurrent misses for one key
// share a single compute call, which runs under a context that keeps the
// first caller's deadline but not its cancellation.
func (c *ReportCache) Similarity(
	ctx context.Context,
	documentID, text string,
	opts analyzer.Options,
	corpusVersion uint64,
	compute func(ctx context.Context) (*analyzer.SimilarityReport, error),
) (*analyzer.SimilarityReport, bool, error) {
	key := buildKey(similarityKind, corpusVersion, documentID, text, opts, nil)
	return getOrCompute(ctx, c, key, compute)
}

// Template is the template-forgery counterpart of Similarity. Field
// overrides take part in the key.
func (c *ReportCache) Template(
	ctx context.Context,
	certificateID, text string,
	fields *certificate.Info,
	opts analyzer.Options,
	corpusVersion uint64,
	compute func(ctx context.Context) (*analyzer.TemplateMatchReport, error),
) (*analyzer.TemplateMatchReport, bool, error) {
	key := buildKey(templateMatchKind, corpusVersion, certificateID, text, opts, fields)
	return getOrCompute(ctx, c, key, compute)
}

// Invalidate removes every cached report.
func (c *ReportCache) Invalidate(ctx context.Context) (int64, error) {
	deleted, err := c.store.DeleteByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return deleted, fmt.Errorf("invalidating report cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return deleted, nil
}

func getOrCompute[T any](ctx context.Context, c *ReportCache, key string, compute func(ctx context.Context) (*T, error)) (*T, bool, error) {
	if v, ok := load[T](ctx, c, key); ok {
		return v, true, nil
	}
	ch := c.group.DoChan(key, func() (any, error) {
		shared, cancel := detach(ctx)
		defer cancel()
		if v, ok := load[T](shared, c, key); ok {
			return v, nil
		}
		v, err := compute(shared)
		if err != nil {
			return nil, err
		}
		c.save(shared, key, v)
		return v, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val.(*T), false, nil
	case <-ctx.Done():
		return nil, false, context.Cause(ctx)
	}
}

// detach keeps ctx's values and deadline but drops its cancellation, so a
// caller that goes away does not fail the others waiting on the same key.
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	shared := context.WithoutCancel(ctx)
	if deadline, ok := ctx.Deadline(); ok {
		return context.WithDeadline(shared, deadline)
	}
	return context.WithCancel(shared)
}

// load counts a miss for absent keys, Redis failures and undecodable
// entries alike.
func load[T any](ctx context.Context, c *ReportCache, key string) (*T, bool) {
	var data []byte
	err := c.breaker.Execute(func() error {
		var err error
		data, err = c.store.Get(ctx, key)
		return err
	})
	if err != nil {
		if !errors.Is(err, resilience.ErrCircuitOpen) && !errors.Is(err, pkgredis.ErrMiss) {
			c.logger.Warn("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	if data == nil {
		c.misses.Add(1)
		return nil, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "key", key)
	return &v, true
}

func (c *ReportCache) save(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Execute(func() error {
		return c.store.Set(ctx, key, data, c.ttl)
	})
	if err != nil && !errors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

type keyMaterial struct {
	Kind    string            `json:"kind"`
	Version uint64            `json:"version"`
	ID      string            `json:"id"`
	Text    string            `json:"text"`
	Options analyzer.Options  `json:"options"`
	Fields  *certificate.Info `json:"fields,omitempty"`
}

func buildKey(kind string, version uint64, id, text string, opts analyzer.Options, fields *certificate.Info) string {
	raw, _ := json.Marshal(keyMaterial{
		Kind:    kind,
		Version: version,
		ID:      id,
		Text:    text,
		Options: opts,
		Fields:  fields,
	})
	hash := sha256.Sum256(raw)
	return fmt.Sprintf("%s%s:%x", keyPrefix, kind, hash[:16])
}
