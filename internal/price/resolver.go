package price

import (
	"context"

	"go.uber.org/zap"

	"poolWatch/internal/metrics"
)

// Resolver answers price lookups from the cache first and offers the
// rest to the configured feeds in priority order. Results are written
// back to the cache tagged with the feed that produced them.
type Resolver struct {
	cache  *Cache
	feeds  []Feed
	logger *zap.Logger
}

func NewResolver(cache *Cache, feeds []Feed, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		cache:  cache,
		feeds:  feeds,
		logger: logger,
	}
}

// ResolveMany returns USD prices for every symbol it can resolve,
// keyed by canonical symbol. Symbols no feed can price are simply
// absent from the result; a failing feed never aborts the batch.
func (r *Resolver) ResolveMany(ctx context.Context, symbols []string) map[string]float64 {
	resolved := make(map[string]float64, len(symbols))

	var missing []string
	seen := make(map[string]struct{}, len(symbols))
	for _, symbol := range symbols {
		key := Normalize(symbol)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		if value, ok := r.cache.Get(key); ok {
			resolved[key] = value
			metrics.PriceCacheHits.Inc()
			continue
		}
		metrics.PriceCacheMisses.Inc()
		missing = append(missing, key)
	}

	for _, feed := range r.feeds {
		if len(missing) == 0 {
			break
		}

		prices, err := feed.Fetch(ctx, missing)
		if err != nil {
			metrics.FeedErrors.WithLabelValues(feed.Name()).Inc()
			r.logger.Warn("price feed fetch failed",
				zap.String("feed", feed.Name()),
				zap.Int("symbols", len(missing)),
				zap.Error(err),
			)
		}

		next := make([]string, 0, len(missing))
		for _, key := range missing {
			value, ok := prices[key]
			if !ok || value <= 0 {
				next = append(next, key)
				continue
			}
			r.cache.Put(key, value, feed.Name())
			resolved[key] = value
			metrics.PricesResolved.WithLabelValues(feed.Name()).Inc()
		}
		missing = next
	}

	if len(missing) > 0 {
		r.logger.Debug("symbols left unresolved", zap.Strings("symbols", missing))
	}

	return resolved
}

// ResolveOne is ResolveMany for a single symbol.
func (r *Resolver) ResolveOne(ctx context.Context, symbol string) (float64, bool) {
	prices := r.ResolveMany(ctx, []string{symbol})
	value, ok := prices[Normalize(symbol)]
	return value, ok
}
