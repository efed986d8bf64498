package cache

import (
	"context"
	"errors"
	"strings"
)

// MaxKeyLength bounds the length of a key.
const MaxKeyLength = 512

var (
	ErrNilCache   = errors.New("cache: no store configured")
	ErrInvalidKey = errors.New("cache: invalid key")
	ErrKeyTooLong = errors.New("cache: key longer than MaxKeyLength")
)

// Cache is the store behind a report. Values are computed results
// (arrays, frames, displays) shared between callers, which must treat them
// as read-only. Implementations are safe for concurrent use.
type Cache interface {
	// Get reports a miss as (nil, false) and never fails.
	Get(ctx context.Context, key string) (any, bool)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value any) error
	// Delete is a no-op for an absent key.
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context)
	Len() int
	// Keys returns the stored keys sorted.
	Keys() []string
}

// ValidateKey rejects blank keys, keys over MaxKeyLength and keys that
// span lines.
func ValidateKey(key string) error {
	switch {
	case strings.TrimSpace(key) == "", strings.ContainsAny(key, "\r\n"):
		return ErrInvalidKey
	case len(key) > MaxKeyLength:
		return ErrKeyTooLong
	}
	return nil
}
