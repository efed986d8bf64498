package resilience

import (
	"context"
	"testing"
	"time"
)

func noop(context.Context) error { return nil }

func BenchmarkSlots_Run(b *testing.B) {
	s := NewSlots(64, 0)
	ctx := context.Background()
	b.ReportAllocs()
	for b.Loop() {
		_ = s.Run(ctx, noop)
	}
}

func BenchmarkSlots_Contended(b *testing.B) {
	s := NewSlots(2, 0)
	ctx := context.Background()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = s.Run(ctx, noop)
		}
	})
}

func BenchmarkGuard_Execute(b *testing.B) {
	for _, cfg := range []struct {
		name string
		cfg  GuardConfig
	}{
		{"unbounded", GuardConfig{}},
		{"limit", GuardConfig{Limit: 8}},
		{"limit+deadline", GuardConfig{Limit: 8, Timeout: time.Second}},
	} {
		b.Run(cfg.name, func(b *testing.B) {
			g := NewGuard(cfg.cfg)
			ctx := context.Background()
			for b.Loop() {
				_ = g.Execute(ctx, noop)
			}
		})
	}
}
