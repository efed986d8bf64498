package cache

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// ComputeFunc produces the value for a key.
type ComputeFunc func(ctx context.Context) (any, error)

// Guard bounds a computation, e.g. with a bulkhead or a timeout.
type Guard interface {
	Execute(ctx context.Context, op func(context.Context) error) error
}

// Memo wraps computations with caching.
//
// An entry moves from absent to computing to present. While a key is
// computing, further callers for that key wait for the leader and share its
// result. Errors are never stored, so a failed computation leaves the key
// absent.
type Memo struct {
	cache   Cache
	policy  Policy
	metrics Metrics
	guard   Guard
	group   singleflight.Group
}

// MemoOption configures a Memo.
type MemoOption func(*Memo)

// WithMetrics reports hits, misses and size to m.
func WithMetrics(m Metrics) MemoOption {
	return func(memo *Memo) {
		if m != nil {
			memo.metrics = m
		}
	}
}

// WithGuard runs every computation through g.
func WithGuard(g Guard) MemoOption {
	return func(memo *Memo) {
		memo.guard = g
	}
}

// NewMemo creates a memo over c.
func NewMemo(c Cache, policy Policy, opts ...MemoOption) *Memo {
	m := &Memo{
		cache:   c,
		policy:  policy,
		metrics: NoopMetrics{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Do returns the cached value for key, or computes and stores it.
// hit reports whether the value came from the cache or from a concurrent
// caller's computation.
func (m *Memo) Do(ctx context.Context, op, key string, compute ComputeFunc) (value any, hit bool, err error) {
	if m.cache == nil {
		return nil, false, ErrNilCache
	}
	if !m.policy.ShouldCache() || m.policy.Skips(op) {
		v, err := m.run(ctx, compute)
		return v, false, err
	}
	if err := ValidateKey(key); err != nil {
		return nil, false, err
	}

	if cached, ok := m.cache.Get(ctx, key); ok {
		m.metrics.Hit(op)
		return cached, true, nil
	}

	leader := false
	v, err, _ := m.group.Do(key, func() (any, error) {
		leader = true
		// another leader may have stored the key since our lookup
		if cached, ok := m.cache.Get(ctx, key); ok {
			leader = false
			return cached, nil
		}
		m.metrics.Miss(op)
		result, err := m.run(ctx, compute)
		if err != nil {
			return nil, err
		}
		if err := m.cache.Set(ctx, key, result); err != nil {
			return nil, err
		}
		m.metrics.Size(m.cache.Len())
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	if !leader {
		m.metrics.Hit(op)
	}
	return v, !leader, nil
}

func (m *Memo) run(ctx context.Context, compute ComputeFunc) (any, error) {
	if m.guard == nil {
		return compute(ctx)
	}
	var result any
	err := m.guard.Execute(ctx, func(ctx context.Context) error {
		var err error
		result, err = compute(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
