// Package resilience bounds expensive report computations.
//
// Predictions, scores and displays are pure and deterministic, so nothing
// here retries or trips a breaker. A Slots value caps how many computations
// run at once and a Guard adds a per-computation deadline on top:
//
//	guard := resilience.NewGuard(resilience.GuardConfig{Limit: 4, Timeout: 30 * time.Second})
//	memo := cache.NewMemo(cache.NewMemoryCache(), cache.DefaultPolicy(), cache.WithGuard(guard))
//
// A computation that outlives its deadline keeps its goroutine until it
// returns. The caller gets ErrDeadline and the late result is dropped, so it
// never reaches the cache.
package resilience
