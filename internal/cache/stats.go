// Package cache keeps approval statistics in Redis between decisions.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"property-survey-backend/internal/config"
	"property-survey-backend/internal/models"
)

const (
	keyPrefix     = "survey:stats:"
	generationKey = keyPrefix + "generation"
)

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// StatsCache stores aggregated statistics per filter. Entries are keyed by a
// generation counter, so Invalidate makes every cached entry unreachable at
// once and the TTL reclaims them. Redis failures are logged and treated as a
// miss; the cache never fails a request.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewStatsCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *StatsCache {
	return &StatsCache{client: client, ttl: ttl, logger: logger}
}

func (c *StatsCache) key(ctx context.Context, filter models.SurveyFilter) (string, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return fmt.Sprintf("%s%d:%s", keyPrefix, gen, filter.CacheKey()), nil
}

// Get looks up the stats for filter. The returned key pins the generation
// read here and is what Set must be given, so stats computed from a read
// that raced an Invalidate land under a generation nobody reads again. The
// key is empty when Redis is unavailable.
func (c *StatsCache) Get(ctx context.Context, filter models.SurveyFilter) (*models.SurveyStats, string, bool) {
	key, err := c.key(ctx, filter)
	if err != nil {
		c.logger.Warn("Stats cache unavailable", zap.Error(err))
		return nil, "", false
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Stats cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, key, false
	}

	var stats models.SurveyStats
	if err := json.Unmarshal(data, &stats); err != nil {
		c.logger.Warn("Stats cache entry corrupt", zap.String("key", key), zap.Error(err))
		return nil, key, false
	}
	return &stats, key, true
}

func (c *StatsCache) Set(ctx context.Context, key string, stats *models.SurveyStats) {
	if key == "" {
		return
	}

	data, err := json.Marshal(stats)
	if err != nil {
		c.logger.Warn("Failed to encode stats for cache", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Stats cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate is called after every write that can change a count or move a
// survey between filter groups.
func (c *StatsCache) Invalidate(ctx context.Context) {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		c.logger.Warn("Stats cache invalidation failed", zap.Error(err))
	}
}
