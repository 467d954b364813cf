package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/analyzer"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/certificate"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/redis"
)

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
	fail error
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	v, ok := m.data[key]
	if !ok {
		return nil, pkgredis.ErrMiss
	}
	return v, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.data[key] = value
	return nil
}

func (m *memStore) DeleteByPattern(_ context.Context, pattern string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	var n int64
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

func TestSimilarityHitAfterMiss(t *testing.T) {
	c := New(newMemStore(), time.Minute)
	ctx := context.Background()
	opts := analyzer.DefaultOptions()
	calls := 0
	compute := func(context.Context) (*analyzer.SimilarityReport, error) {
		calls++
		return &analyzer.SimilarityReport{DocumentID: "q", MaxSimilarity: 0.5, DocumentHash: "abc"}, nil
	}

	first, hit, err := c.Similarity(ctx, "q", "some text", opts, 1, compute)
	if err != nil || hit {
		t.Fatalf("first call: hit=%v err=%v", hit, err)
	}
	second, hit, err := c.Similarity(ctx, "q", "some text", opts, 1, compute)
	if err != nil || !hit {
		t.Fatalf("second call: hit=%v err=%v", hit, err)
	}
	if calls != 1 {
		t.Errorf("compute called %d times, want 1", calls)
	}
	if second.MaxSimilarity != first.MaxSimilarity || second.DocumentHash != "abc" {
		t.Errorf("cached report = %+v", second)
	}
	if s := c.Stats(); s.Hits != 1 || s.Misses != 2 {
		t.Errorf("stats = %+v, want 1 hit and 2 misses", s)
	}
}

func TestKeyDependsOnInputs(t *testing.T) {
	opts := analyzer.DefaultOptions()
	base := buildKey(similarityKind, 1, "id", "text", opts, nil)

	other := opts
	other.NGramSize = 4
	variants := map[string]string{
		"version": buildKey(similarityKind, 2, "id", "text", opts, nil),
		"id":      buildKey(similarityKind, 1, "id2", "text", opts, nil),
		"text":    buildKey(similarityKind, 1, "id", "text2", opts, nil),
		"options": buildKey(similarityKind, 1, "id", "text", other, nil),
		"kind":    buildKey(templateMatchKind, 1, "id", "text", opts, nil),
		"fields":  buildKey(similarityKind, 1, "id", "text", opts, &certificate.Info{HolderName: "X"}),
	}
	for name, k := range variants {
		if k == base {
			t.Errorf("changing %s did not change the key", name)
		}
	}
	if again := buildKey(similarityKind, 1, "id", "text", opts, nil); again != base {
		t.Error("key is not deterministic")
	}
	if !strings.HasPrefix(base, keyPrefix) {
		t.Errorf("key %q lacks prefix", base)
	}
}

func TestComputeErrorNotCached(t *testing.T) {
	c := New(newMemStore(), time.Minute)
	boom := errors.New("boom")
	_, _, err := c.Template(context.Background(), "c", "t", nil, analyzer.DefaultOptions(), 1,
		func(context.Context) (*analyzer.TemplateMatchReport, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	_, hit, err := c.Template(context.Background(), "c", "t", nil, analyzer.DefaultOptions(), 1,
		func(context.Context) (*analyzer.TemplateMatchReport, error) { return &analyzer.TemplateMatchReport{}, nil })
	if err != nil || hit {
		t.Errorf("hit=%v err=%v after failed compute", hit, err)
	}
}

func TestStoreFailureFallsBackToCompute(t *testing.T) {
	store := newMemStore()
	store.fail = errors.New("connection refused")
	c := New(store, time.Minute)
	for i := 0; i < 10; i++ {
		r, hit, err := c.Similarity(context.Background(), "", "x", analyzer.DefaultOptions(), 1,
			func(context.Context) (*analyzer.SimilarityReport, error) { return &analyzer.SimilarityReport{}, nil })
		if err != nil || hit || r == nil {
			t.Fatalf("call %d: r=%v hit=%v err=%v", i, r, hit, err)
		}
	}
	stats := c.Stats()
	if stats.Breaker != "open" {
		t.Errorf("breaker = %q, want open after repeated failures", stats.Breaker)
	}
	if stats.Rejected == 0 {
		t.Error("open breaker rejected no store calls")
	}
}

func TestConcurrentCallsCoalesce(t *testing.T) {
	c := New(newMemStore(), time.Minute)
	var calls atomic.Int32
	release := make(chan struct{})
	compute := func(context.Context) (*analyzer.SimilarityReport, error) {
		calls.Add(1)
		<-release
		return &analyzer.SimilarityReport{}, nil
	}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := c.Similarity(context.Background(), "", "same", analyzer.DefaultOptions(), 1, compute); err != nil {
				t.Error(err)
			}
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	if n := calls.Load(); n != 1 {
		t.Errorf("compute called %d times", n)
	}
	if _, hit, _ := c.Similarity(context.Background(), "", "same", analyzer.DefaultOptions(), 1, compute); !hit {
		t.Error("result was not stored")
	}
}

func TestCancelledCallerDoesNotFailSharedCompute(t *testing.T) {
	c := New(newMemStore(), time.Minute)
	var calls atomic.Int32
	release := make(chan struct{})
	compute := func(ctx context.Context) (*analyzer.SimilarityReport, error) {
		calls.Add(1)
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return &analyzer.SimilarityReport{DocumentHash: "shared"}, nil
	}

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, _, err := c.Similarity(leaderCtx, "", "same", analyzer.DefaultOptions(), 1, compute)
		leaderErr <- err
	}()
	time.Sleep(20 * time.Millisecond)

	type result struct {
		report *analyzer.SimilarityReport
		err    error
	}
	follower := make(chan result, 1)
	go func() {
		r, _, err := c.Similarity(context.Background(), "", "same", analyzer.DefaultOptions(), 1, compute)
		follower <- result{r, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	if err := <-leaderErr; !errors.Is(err, context.Canceled) {
		t.Errorf("leader err = %v, want context.Canceled", err)
	}
	close(release)
	got := <-follower
	if got.err != nil || got.report == nil || got.report.DocumentHash != "shared" {
		t.Fatalf("follower = %+v, %v", got.report, got.err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("compute called %d times, want 1", n)
	}
	if _, hit, _ := c.Similarity(context.Background(), "", "same", analyzer.DefaultOptions(), 1, compute); !hit {
		t.Error("shared result was not stored")
	}
}

func TestInvalidate(t *testing.T) {
	store := newMemStore()
	store.data["unrelated"] = []byte("x")
	c := New(store, time.Minute)
	ctx := context.Background()
	for _, text := range []string{"a", "b"} {
		c.Similarity(ctx, "", text, analyzer.DefaultOptions(), 1,
			func(context.Context) (*analyzer.SimilarityReport, error) { return &analyzer.SimilarityReport{}, nil })
	}
	n, err := c.Invalidate(ctx)
	if err != nil || n != 2 {
		t.Fatalf("Invalidate() = %d, %v; want 2", n, err)
	}
	if _, ok := store.data["unrelated"]; !ok {
		t.Error("Invalidate removed a key outside its prefix")
	}
}
