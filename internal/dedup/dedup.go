package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultCooldown is how long a delivered alert suppresses repeats for
// the same key.
const DefaultCooldown = 10 * time.Minute

// Guard implements alert cooldown on top of redis. A key is suppressed
// while its cooldown entry is alive; redis being unreachable reads as
// not suppressed, so alerts keep flowing without the guard.
type Guard struct {
	rdb      *redis.Client
	cooldown time.Duration
	logger   *zap.Logger
}

// New connects to redis and verifies the connection before returning.
func New(redisURL string, cooldown time.Duration, logger *zap.Logger) (*Guard, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{rdb: rdb, cooldown: cooldown, logger: logger}, nil
}

// Close shuts down the redis connection.
func (g *Guard) Close() error {
	return g.rdb.Close()
}

// Suppressed reports whether the key is inside its cooldown window.
func (g *Guard) Suppressed(ctx context.Context, key string) bool {
	exists, err := g.rdb.Exists(ctx, key).Result()
	if err != nil {
		g.logger.Warn("cooldown lookup failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return exists > 0
}

// MarkSent opens the cooldown window for a key.
func (g *Guard) MarkSent(ctx context.Context, key string) {
	if err := g.rdb.Set(ctx, key, "1", g.cooldown).Err(); err != nil {
		g.logger.Warn("cooldown mark failed", zap.String("key", key), zap.Error(err))
	}
}

// Clear removes a cooldown entry so the key can alert again before the
// window lapses.
func (g *Guard) Clear(ctx context.Context, key string) {
	if err := g.rdb.Del(ctx, key).Err(); err != nil {
		g.logger.Warn("cooldown clear failed", zap.String("key", key), zap.Error(err))
	}
}
