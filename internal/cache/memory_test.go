package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

func TestMemoryBackend_BasicOperations(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryBackend(1024) // 1KB capacity

	key := "test-key"
	value := "test-value"

	if err := cache.Set(ctx, key, value); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	retrieved, err := cache.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if retrieved != value {
		t.Errorf("Retrieved value mismatch: got %s, want %s", retrieved, value)
	}

	if !cache.has(key) {
		t.Error("existing key not found")
	}

	if cache.Size() != int64(len(value)) {
		t.Errorf("Size mismatch: got %d, want %d", cache.Size(), len(value))
	}

	if err := cache.Delete(ctx, key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if cache.has(key) {
		t.Error("Key still exists after delete")
	}
	if cache.Size() != 0 {
		t.Errorf("Size not zero after delete: %d", cache.Size())
	}

	if _, err := cache.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get after delete: got %v, want ErrCacheMiss", err)
	}
}

func TestMemoryBackend_LRUEviction(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryBackend(100)

	for i := 0; i < 5; i++ {
		key := fmt.Sprintf("key-%d", i)
		if err := cache.Set(ctx, key, strings.Repeat("x", 20)); err != nil {
			t.Fatalf("Set failed for key %s: %v", key, err)
		}
	}

	// Access key-0 and key-1 to make them recently used
	_, _ = cache.Get(ctx, "key-0")
	_, _ = cache.Get(ctx, "key-1")

	if err := cache.Set(ctx, "key-new", strings.Repeat("y", 30)); err != nil {
		t.Fatalf("Set failed for new key: %v", err)
	}

	// key-2 and key-3 were least recently used
	for _, k := range []string{"key-2", "key-3"} {
		if cache.has(k) {
			t.Errorf("%s should have been evicted", k)
		}
	}
	for _, k := range []string{"key-0", "key-1", "key-4", "key-new"} {
		if !cache.has(k) {
			t.Errorf("%s should still be cached", k)
		}
	}

	if cache.Size() > 100 {
		t.Errorf("Size exceeds capacity: %d", cache.Size())
	}
	if stats := cache.Stats(); stats.Evictions != 2 {
		t.Errorf("Evictions = %d, want 2", stats.Evictions)
	}
}

func TestMemoryBackend_ItemTooLarge(t *testing.T) {
	cache := NewMemoryBackend(10)

	err := cache.Set(context.Background(), "big", strings.Repeat("z", 11))
	if !errors.Is(err, ErrItemTooLarge) {
		t.Errorf("Expected ErrItemTooLarge, got %v", err)
	}
}

func TestMemoryBackend_Unbounded(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryBackend(0)

	big := strings.Repeat("a", 1<<20)
	if err := cache.Set(ctx, "big", big); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if got, _ := cache.Get(ctx, "big"); got != big {
		t.Error("unbounded backend lost value")
	}
}

func TestMemoryBackend_UpdateExisting(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryBackend(1024)

	_ = cache.Set(ctx, "k", "short")
	_ = cache.Set(ctx, "k", "a much longer value")

	got, err := cache.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != "a much longer value" {
		t.Errorf("got %q", got)
	}
	if cache.Size() != int64(len("a much longer value")) {
		t.Errorf("Size = %d after update", cache.Size())
	}
}

func TestMemoryBackend_Clear(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryBackend(1024)

	for i := 0; i < 10; i++ {
		_ = cache.Set(ctx, fmt.Sprintf("key-%d", i), "value")
	}

	if err := cache.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if cache.Size() != 0 {
		t.Errorf("Size not zero after clear: %d", cache.Size())
	}
	if stats := cache.Stats(); stats.ItemCount != 0 {
		t.Errorf("ItemCount = %d after clear", stats.ItemCount)
	}
}

func TestMemoryBackend_Stats(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryBackend(1024)

	_ = cache.Set(ctx, "key1", "value1")
	_ = cache.Set(ctx, "key2", "value2")

	_, _ = cache.Get(ctx, "key1")    // Hit
	_, _ = cache.Get(ctx, "key2")    // Hit
	_, _ = cache.Get(ctx, "missing") // Miss

	stats := cache.Stats()
	if stats.Hits != 2 {
		t.Errorf("Hits = %d, want 2", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Misses = %d, want 1", stats.Misses)
	}
	if want := 2.0 / 3.0; stats.HitRate != want {
		t.Errorf("HitRate = %f, want %f", stats.HitRate, want)
	}
	if stats.ItemCount != 2 {
		t.Errorf("ItemCount = %d, want 2", stats.ItemCount)
	}
}


func TestMemoryBackend_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryBackend(10 * 1024)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := fmt.Sprintf("g%d-k%d", g, i%10)
				_ = cache.Set(ctx, key, "payload")
				_, _ = cache.Get(ctx, key)
			}
		}(g)
	}
	wg.Wait()

	if cache.Size() > 10*1024 {
		t.Errorf("Size exceeds capacity: %d", cache.Size())
	}
}

func BenchmarkMemoryBackend_Set(b *testing.B) {
	ctx := context.Background()
	cache := NewMemoryBackend(10 * 1024 * 1024)
	value := strings.Repeat("v", 1024)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = cache.Set(ctx, fmt.Sprintf("key-%d", i%1000), value)
	}
}

// has reports whether key is cached without touching the LRU order.
func (c *MemoryBackend) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.items[key]
	return ok
}
