package cache

// Metrics receives cache events. Implementations must be safe for
// concurrent use.
type Metrics interface {
	// Hit records a lookup served from the cache, including callers that
	// waited for a concurrent computation of the same key.
	Hit(op string)
	// Miss records a computation.
	Miss(op string)
	// Size records the number of entries after a store.
	Size(n int)
}

// NoopMetrics discards every event.
type NoopMetrics struct{}

func (NoopMetrics) Hit(string)  {}
func (NoopMetrics) Miss(string) {}
func (NoopMetrics) Size(int)    {}

var _ Metrics = NoopMetrics{}
