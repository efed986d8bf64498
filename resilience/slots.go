package resilience

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// Slots admits a bounded number of computations.
//
// A caller that finds every slot taken waits for one, for at most MaxWait
// when that is set. Cancelling the caller's context is reported as the
// context error and is not counted as saturation.
type Slots struct {
	size    int
	maxWait time.Duration
	sem     *semaphore.Weighted

	busy      atomic.Int64
	peak      atomic.Int64
	waiting   atomic.Int64
	saturated atomic.Int64
}

// NewSlots returns n slots. A non-positive n means GOMAXPROCS.
func NewSlots(n int, maxWait time.Duration) *Slots {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	return &Slots{size: n, maxWait: maxWait, sem: semaphore.NewWeighted(int64(n))}
}

// Size is the number of slots.
func (s *Slots) Size() int { return s.size }

func (s *Slots) take(ctx context.Context) error {
	if !s.sem.TryAcquire(1) {
		s.waiting.Add(1)
		err := s.wait(ctx)
		s.waiting.Add(-1)
		if err != nil {
			return err
		}
	}
	n := s.busy.Add(1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	return nil
}

func (s *Slots) wait(ctx context.Context) error {
	waitCtx := ctx
	if s.maxWait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, s.maxWait)
		defer cancel()
	}
	if err := s.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.saturated.Add(1)
		return ErrSaturated
	}
	return nil
}

func (s *Slots) give() {
	s.busy.Add(-1)
	s.sem.Release(1)
}

// Run holds a slot for the duration of fn.
func (s *Slots) Run(ctx context.Context, fn func(context.Context) error) error {
	if err := s.take(ctx); err != nil {
		return err
	}
	defer s.give()
	return fn(ctx)
}

// SlotStats is a point-in-time view of a Slots value.
type SlotStats struct {
	Size      int
	Busy      int
	Peak      int
	Waiting   int
	Saturated int64
}

// Stats reports current usage.
func (s *Slots) Stats() SlotStats {
	return SlotStats{
		Size:      s.size,
		Busy:      int(s.busy.Load()),
		Peak:      int(s.peak.Load()),
		Waiting:   int(s.waiting.Load()),
		Saturated: s.saturated.Load(),
	}
}
