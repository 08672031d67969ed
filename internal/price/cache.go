package price

import (
	"strings"
	"sync"
	"time"
)

// DefaultTTL bounds how long a cached quote stays usable.
const DefaultTTL = 5 * time.Minute

// Entry is one cached quote with its provenance.
type Entry struct {
	Symbol     string
	Price      float64
	Source     string
	ObservedAt time.Time
}

// CacheStats is a point-in-time view of the cache. Only valid entries
// are counted.
type CacheStats struct {
	Valid    int
	BySource map[string]int
}

// Cache is a TTL-bounded symbol to price map. All access is serialized;
// an expired entry acts as a miss until swept.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]Entry
	now     func() time.Time
}

func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]Entry),
		now:     time.Now,
	}
}

// Normalize maps a symbol to its canonical cache key.
func Normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Get returns the cached price when a valid entry exists. An entry that
// reached its TTL is a miss, not an error.
func (c *Cache) Get(symbol string) (float64, bool) {
	key := Normalize(symbol)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok || !c.valid(entry) {
		return 0, false
	}
	return entry.Price, true
}

// Put overwrites the entry for symbol with a fresh observation time.
func (c *Cache) Put(symbol string, value float64, source string) {
	key := Normalize(symbol)

	c.mu.Lock()
	c.entries[key] = Entry{
		Symbol:     key,
		Price:      value,
		Source:     source,
		ObservedAt: c.now(),
	}
	c.mu.Unlock()
}

// SweepExpired drops expired entries and returns how many were removed.
func (c *Cache) SweepExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.entries {
		if !c.valid(entry) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Stats counts valid entries, total and per source.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := CacheStats{BySource: make(map[string]int)}
	for _, entry := range c.entries {
		if !c.valid(entry) {
			continue
		}
		stats.Valid++
		stats.BySource[entry.Source]++
	}
	return stats
}

func (c *Cache) valid(entry Entry) bool {
	return c.now().Sub(entry.ObservedAt) < c.ttl
}
