package cache

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"
)

func TestMemoryCache_GetSetDelete(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	// Test Get on empty cache
	val, ok := cache.Get(ctx, "nonexistent")
	if ok {
		t.Error("Get on empty cache should return ok=false")
	}
	if val != nil {
		t.Error("Get on empty cache should return nil value")
	}

	// Test Set
	key := "test-key"
	value := []float64{0.25, 0.75}
	if err := cache.Set(ctx, key, value); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Test Get after Set
	got, ok := cache.Get(ctx, key)
	if !ok {
		t.Error("Get after Set should return ok=true")
	}
	if !slices.Equal(got.([]float64), value) {
		t.Errorf("Get returned %v, want %v", got, value)
	}

	// Test Delete
	if err := cache.Delete(ctx, key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	// Test Get after Delete
	if _, ok = cache.Get(ctx, key); ok {
		t.Error("Get after Delete should return ok=false")
	}

	// Test Delete is idempotent (no error on non-existent key)
	if err := cache.Delete(ctx, "nonexistent"); err != nil {
		t.Errorf("Delete on non-existent key should not error, got: %v", err)
	}
}

func TestMemoryCache_SetRejectsInvalidKey(t *testing.T) {
	cache := NewMemoryCache()
	if err := cache.Set(context.Background(), "", 1); err != ErrInvalidKey {
		t.Errorf("Set(\"\") = %v, want %v", err, ErrInvalidKey)
	}
	if cache.Len() != 0 {
		t.Errorf("Len() = %d, want 0", cache.Len())
	}
}

func TestMemoryCache_SameObjectReturned(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	type display struct{ name string }
	stored := &display{name: "roc"}
	_ = cache.Set(ctx, "display", stored)

	got, _ := cache.Get(ctx, "display")
	if got.(*display) != stored {
		t.Error("Get should return the stored object itself")
	}
}

func TestMemoryCache_ClearLenKeys(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	for _, k := range []string{"b", "a", "c"} {
		_ = cache.Set(ctx, k, k)
	}
	if cache.Len() != 3 {
		t.Errorf("Len() = %d, want 3", cache.Len())
	}
	if got := cache.Keys(); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("Keys() = %v, want sorted keys", got)
	}

	cache.Clear(ctx)
	if cache.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", cache.Len())
	}
	if len(cache.Keys()) != 0 {
		t.Errorf("Keys() after Clear = %v, want none", cache.Keys())
	}
}

func TestMemoryCache_SnapshotRestore(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()
	_ = cache.Set(ctx, "k1", 1.5)
	_ = cache.Set(ctx, "k2", "v")

	snap := cache.Snapshot()
	_ = cache.Set(ctx, "k3", 3)
	if len(snap) != 2 {
		t.Errorf("snapshot should not see later writes, got %d entries", len(snap))
	}

	restored := NewMemoryCacheFrom(snap)
	if v, ok := restored.Get(ctx, "k1"); !ok || v.(float64) != 1.5 {
		t.Errorf("restored Get(k1) = %v, %v", v, ok)
	}
	delete(snap, "k2")
	if _, ok := restored.Get(ctx, "k2"); !ok {
		t.Error("restored cache should own its entries")
	}
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	const numGoroutines = 100
	const opsPerGoroutine = 1000

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", id%4)
			for j := 0; j < opsPerGoroutine; j++ {
				switch j % 5 {
				case 0:
					_ = cache.Set(ctx, key, j)
				case 1:
					_, _ = cache.Get(ctx, key)
				case 2:
					_ = cache.Delete(ctx, key)
				case 3:
					_ = cache.Keys()
				case 4:
					_ = cache.Len()
				}
			}
		}(i)
	}

	wg.Wait()
}

func TestMemoryCache_NilValue(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	if err := cache.Set(ctx, "nil-key", nil); err != nil {
		t.Fatalf("Set with nil value failed: %v", err)
	}
	val, ok := cache.Get(ctx, "nil-key")
	if !ok {
		t.Error("a stored nil should still be a hit")
	}
	if val != nil {
		t.Errorf("Get returned %v, want nil", val)
	}
}
