package price

import (
	"testing"
	"time"
)

func newTestCache(ttl time.Duration) (*Cache, *time.Time) {
	cache := NewCache(ttl)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }
	return cache, &now
}

func TestCacheGetPut(t *testing.T) {
	cache, _ := newTestCache(5 * time.Minute)

	if _, ok := cache.Get("WBNB"); ok {
		t.Fatalf("expected miss on empty cache")
	}

	cache.Put("WBNB", 320.0, SourceCoinGecko)
	value, ok := cache.Get("WBNB")
	if !ok || value != 320.0 {
		t.Fatalf("Get = (%v, %v), want (320, true)", value, ok)
	}
}

func TestCacheNormalization(t *testing.T) {
	cache, _ := newTestCache(5 * time.Minute)

	cache.Put("usdt", 1.0, SourceCoinGecko)
	value, ok := cache.Get("USDT")
	if !ok || value != 1.0 {
		t.Fatalf("Get(USDT) = (%v, %v), want (1, true)", value, ok)
	}

	// Same canonical symbol, one entry.
	cache.Put(" Usdt ", 1.01, SourceDexScreener)
	if stats := cache.Stats(); stats.Valid != 1 {
		t.Fatalf("valid entries = %d, want 1", stats.Valid)
	}
}

func TestCacheTTLBoundary(t *testing.T) {
	cache, now := newTestCache(5 * time.Minute)
	cache.Put("MCH", 0.04, SourceDexScreener)

	*now = now.Add(5*time.Minute - time.Nanosecond)
	if _, ok := cache.Get("MCH"); !ok {
		t.Fatalf("entry just inside TTL should be valid")
	}

	// Exactly at the TTL the entry is already expired.
	*now = now.Add(time.Nanosecond)
	if _, ok := cache.Get("MCH"); ok {
		t.Fatalf("entry at TTL boundary should be expired")
	}
}

func TestCachePutRefreshes(t *testing.T) {
	cache, now := newTestCache(5 * time.Minute)
	cache.Put("CAKE", 2.5, SourceCoinGecko)

	*now = now.Add(4 * time.Minute)
	cache.Put("CAKE", 2.6, SourceCoinGecko)

	*now = now.Add(4 * time.Minute)
	value, ok := cache.Get("CAKE")
	if !ok || value != 2.6 {
		t.Fatalf("Get = (%v, %v), want refreshed entry (2.6, true)", value, ok)
	}
}

func TestSweepExpiredIdempotent(t *testing.T) {
	cache, now := newTestCache(5 * time.Minute)
	cache.Put("WBNB", 320.0, SourceCoinGecko)
	cache.Put("USDT", 1.0, SourceCoinGecko)

	*now = now.Add(10 * time.Minute)
	cache.Put("MCH", 0.04, SourceDexScreener)

	if removed := cache.SweepExpired(); removed != 2 {
		t.Fatalf("first sweep removed %d, want 2", removed)
	}
	if removed := cache.SweepExpired(); removed != 0 {
		t.Fatalf("second sweep removed %d, want 0", removed)
	}

	if _, ok := cache.Get("MCH"); !ok {
		t.Fatalf("fresh entry must survive the sweep")
	}
}

func TestCacheStats(t *testing.T) {
	cache, now := newTestCache(5 * time.Minute)
	cache.Put("WBNB", 320.0, SourceCoinGecko)
	cache.Put("USDT", 1.0, SourceCoinGecko)
	cache.Put("MCH", 0.04, SourceDexScreener)

	stats := cache.Stats()
	if stats.Valid != 3 {
		t.Fatalf("valid = %d, want 3", stats.Valid)
	}
	if stats.BySource[SourceCoinGecko] != 2 || stats.BySource[SourceDexScreener] != 1 {
		t.Fatalf("by source = %v", stats.BySource)
	}

	// Expired entries drop out of the stats without a sweep.
	*now = now.Add(10 * time.Minute)
	if stats := cache.Stats(); stats.Valid != 0 {
		t.Fatalf("valid after expiry = %d, want 0", stats.Valid)
	}
}
