// Package cache memoizes report computations.
//
// It provides a Cache interface with an in-memory implementation, SHA-256
// based key derivation over canonical parameters (with array-valued
// parameters replaced by content fingerprints), and a Memo that collapses
// concurrent requests for the same key into one computation.
//
// Entries never expire. A store lives as long as the report state that owns
// it; invalidation replaces the store instead of deleting keys.
package cache
