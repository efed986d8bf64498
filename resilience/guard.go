package resilience

import (
	"context"
	"errors"
	"time"
)

// GuardConfig configures a Guard. Zero fields disable the matching bound.
type GuardConfig struct {
	// Limit caps concurrent computations.
	Limit int
	// MaxWait caps how long a computation waits for a slot.
	MaxWait time.Duration
	// Timeout caps how long a caller waits for a running computation.
	Timeout time.Duration
}

// Guard runs report computations under a concurrency limit and a deadline.
// It satisfies cache.Guard.
type Guard struct {
	slots   *Slots
	timeout time.Duration
}

// NewGuard builds a guard from cfg.
func NewGuard(cfg GuardConfig) *Guard {
	g := &Guard{timeout: max(cfg.Timeout, 0)}
	if cfg.Limit > 0 {
		g.slots = NewSlots(cfg.Limit, cfg.MaxWait)
	}
	return g
}

// Slots returns the concurrency limit, or nil when there is none.
func (g *Guard) Slots() *Slots { return g.slots }

// Timeout returns the per-computation deadline; zero means none.
func (g *Guard) Timeout() time.Duration { return g.timeout }

// Execute runs fn. The deadline starts once a slot is held, and the slot is
// given back as soon as the caller stops waiting.
func (g *Guard) Execute(ctx context.Context, fn func(context.Context) error) error {
	if g.slots == nil {
		return g.bounded(ctx, fn)
	}
	return g.slots.Run(ctx, func(ctx context.Context) error {
		return g.bounded(ctx, fn)
	})
}

func (g *Guard) bounded(ctx context.Context, fn func(context.Context) error) error {
	if g.timeout == 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn(ctx) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrDeadline
		}
		return ctx.Err()
	}
}
