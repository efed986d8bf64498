package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// countingCompute tracks calls and returns configured results
type countingCompute struct {
	calls atomic.Int64
	value any
	err   error
	delay time.Duration
}

func (c *countingCompute) compute(_ context.Context) (any, error) {
	c.calls.Add(1)
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	return c.value, c.err
}

type recordingMetrics struct {
	mu     sync.Mutex
	hits   map[string]int
	misses map[string]int
	size   int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{hits: map[string]int{}, misses: map[string]int{}}
}

func (m *recordingMetrics) Hit(op string) {
	m.mu.Lock()
	m.hits[op]++
	m.mu.Unlock()
}

func (m *recordingMetrics) Miss(op string) {
	m.mu.Lock()
	m.misses[op]++
	m.mu.Unlock()
}

func (m *recordingMetrics) Size(n int) {
	m.mu.Lock()
	m.size = n
	m.mu.Unlock()
}

func TestMemo_HitAfterMiss(t *testing.T) {
	metrics := newRecordingMetrics()
	memo := NewMemo(NewMemoryCache(), DefaultPolicy(), WithMetrics(metrics))
	c := &countingCompute{value: []float64{0.5}}
	ctx := context.Background()

	v1, hit, err := memo.Do(ctx, "predict", "k", c.compute)
	if err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	if hit {
		t.Error("first call should be a miss")
	}

	v2, hit, err := memo.Do(ctx, "predict", "k", c.compute)
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	if !hit {
		t.Error("second call should be a hit")
	}
	if c.calls.Load() != 1 {
		t.Errorf("expected 1 computation, got %d", c.calls.Load())
	}
	if &v1.([]float64)[0] != &v2.([]float64)[0] {
		t.Error("hit should return the stored object")
	}
	if metrics.hits["predict"] != 1 || metrics.misses["predict"] != 1 || metrics.size != 1 {
		t.Errorf("metrics = hits %v misses %v size %d", metrics.hits, metrics.misses, metrics.size)
	}
}

func TestMemo_ErrorsNotCached(t *testing.T) {
	store := NewMemoryCache()
	memo := NewMemo(store, DefaultPolicy())
	boom := errors.New("boom")
	c := &countingCompute{err: boom}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, _, err := memo.Do(ctx, "op", "k", c.compute); !errors.Is(err, boom) {
			t.Fatalf("call %d: err = %v, want %v", i, err, boom)
		}
	}
	if c.calls.Load() != 2 {
		t.Errorf("failed computations should be retried, got %d calls", c.calls.Load())
	}
	if store.Len() != 0 {
		t.Errorf("error should leave the key absent, Len() = %d", store.Len())
	}
}

func TestMemo_PolicyDisabled(t *testing.T) {
	memo := NewMemo(NewMemoryCache(), NoCachePolicy())
	c := &countingCompute{value: 1}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, hit, err := memo.Do(ctx, "op", "k", c.compute); err != nil || hit {
			t.Fatalf("call %d: hit=%v err=%v", i, hit, err)
		}
	}
	if c.calls.Load() != 3 {
		t.Errorf("expected 3 computations, got %d", c.calls.Load())
	}
}

func TestMemo_SkippedOperation(t *testing.T) {
	memo := NewMemo(NewMemoryCache(), Policy{Enabled: true, SkipOperations: []string{"volatile"}})
	c := &countingCompute{value: 1}
	ctx := context.Background()

	_, _, _ = memo.Do(ctx, "volatile", "k", c.compute)
	_, _, _ = memo.Do(ctx, "volatile", "k", c.compute)
	if c.calls.Load() != 2 {
		t.Errorf("skipped operation should always compute, got %d calls", c.calls.Load())
	}
}

func TestMemo_InvalidKey(t *testing.T) {
	memo := NewMemo(NewMemoryCache(), DefaultPolicy())
	c := &countingCompute{value: 1}
	if _, _, err := memo.Do(context.Background(), "op", "", c.compute); err != ErrInvalidKey {
		t.Errorf("err = %v, want %v", err, ErrInvalidKey)
	}
	if c.calls.Load() != 0 {
		t.Error("invalid key should not compute")
	}
}

func TestMemo_NilCache(t *testing.T) {
	memo := NewMemo(nil, DefaultPolicy())
	if _, _, err := memo.Do(context.Background(), "op", "k", (&countingCompute{}).compute); err != ErrNilCache {
		t.Errorf("err = %v, want %v", err, ErrNilCache)
	}
}

func TestMemo_ConcurrentCallersShareOneComputation(t *testing.T) {
	metrics := newRecordingMetrics()
	memo := NewMemo(NewMemoryCache(), DefaultPolicy(), WithMetrics(metrics))
	c := &countingCompute{value: "shared", delay: 50 * time.Millisecond}
	ctx := context.Background()

	const callers = 16
	var wg sync.WaitGroup
	var hits atomic.Int64
	results := make([]any, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, hit, err := memo.Do(ctx, "display", "k", c.compute)
			if err != nil {
				t.Errorf("caller %d: %v", i, err)
				return
			}
			if hit {
				hits.Add(1)
			}
			results[i] = v
		}(i)
	}
	wg.Wait()

	if c.calls.Load() != 1 {
		t.Errorf("expected exactly 1 computation, got %d", c.calls.Load())
	}
	if hits.Load() != callers-1 {
		t.Errorf("expected %d hits, got %d", callers-1, hits.Load())
	}
	for i, v := range results {
		if v != "shared" {
			t.Errorf("caller %d got %v", i, v)
		}
	}
	if metrics.misses["display"] != 1 {
		t.Errorf("expected 1 miss, got %d", metrics.misses["display"])
	}
}

// guardFunc adapts a function to Guard.
type guardFunc func(ctx context.Context, op func(context.Context) error) error

func (g guardFunc) Execute(ctx context.Context, op func(context.Context) error) error {
	return g(ctx, op)
}

func TestMemo_GuardWrapsComputation(t *testing.T) {
	var guarded atomic.Int64
	guard := guardFunc(func(ctx context.Context, op func(context.Context) error) error {
		guarded.Add(1)
		return op(ctx)
	})
	memo := NewMemo(NewMemoryCache(), DefaultPolicy(), WithGuard(guard))
	c := &countingCompute{value: 42}
	ctx := context.Background()

	v, _, err := memo.Do(ctx, "op", "k", c.compute)
	if err != nil || v != 42 {
		t.Fatalf("Do() = %v, %v", v, err)
	}
	_, _, _ = memo.Do(ctx, "op", "k", c.compute)
	if guarded.Load() != 1 {
		t.Errorf("guard should only wrap computations, got %d", guarded.Load())
	}

	rejected := NewMemoryCache()
	rejecting := NewMemo(rejected, DefaultPolicy(), WithGuard(guardFunc(func(context.Context, func(context.Context) error) error {
		return errors.New("full")
	})))
	if _, _, err := rejecting.Do(ctx, "op", "k", c.compute); err == nil {
		t.Error("guard rejection should surface")
	}
	if rejected.Len() != 0 {
		t.Error("rejected computation should not be stored")
	}
}
