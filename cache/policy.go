package cache

import "slices"

// Policy configures caching behavior.
type Policy struct {
	// Enabled turns memoization on. When false every request computes.
	Enabled bool

	// SkipOperations lists operations that always compute, e.g. a custom
	// metric with side effects.
	SkipOperations []string
}

// DefaultPolicy returns the default caching policy: enabled, nothing
// skipped.
func DefaultPolicy() Policy {
	return Policy{Enabled: true}
}

// NoCachePolicy returns a policy that disables caching entirely.
func NoCachePolicy() Policy {
	return Policy{}
}

// ShouldCache returns true if caching is enabled by this policy.
func (p Policy) ShouldCache() bool {
	return p.Enabled
}

// Skips reports whether op bypasses the cache.
func (p Policy) Skips(op string) bool {
	return slices.Contains(p.SkipOperations, op)
}
