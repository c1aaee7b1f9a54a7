package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var (
	ErrCacheMiss     = errors.New("cache miss")
	ErrCacheDisabled = errors.New("cache disabled")
)

// Cache keys
const (
	StatsPrefix       = "stats:"
	TotalArtworksKey  = StatsPrefix + "total-artworks"
	CategoryCountsKey = StatsPrefix + "by-category"
	TopArtistsKey     = StatsPrefix + "top-artists"
	CategoriesKey     = StatsPrefix + "categories"
)

// StatsKeys lists every key derived from the artwork collection. They are
// dropped together whenever an artwork changes.
var StatsKeys = []string{TotalArtworksKey, CategoryCountsKey, TopArtistsKey, CategoriesKey}

type RedisCache struct {
	client  *redis.Client
	enabled bool
	ttl     time.Duration
	logger  *logrus.Logger
}

// NewRedisCache creates a new Redis cache instance
func NewRedisCache(addr, password string, db int, ttl time.Duration, maxRetries, poolSize, minIdleConns int, logger *logrus.Logger, enabled bool) (*RedisCache, error) {
	if !enabled {
		logger.Info("Redis cache is disabled")
		return &RedisCache{
			enabled: false,
			logger:  logger,
			ttl:     ttl,
		}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		MaxRetries:   maxRetries,
		PoolSize:     poolSize,
		MinIdleConns: minIdleConns,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Error("Failed to connect to Redis")
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"addr": addr,
		"db":   db,
		"ttl":  ttl,
	}).Info("Redis cache connected successfully")

	return &RedisCache{
		client:  client,
		enabled: true,
		ttl:     ttl,
		logger:  logger,
	}, nil
}

func (c *RedisCache) IsEnabled() bool {
	return c.enabled
}

func (c *RedisCache) Close() error {
	if !c.enabled || c.client == nil {
		return nil
	}

	c.logger.Info("Closing Redis connection")
	return c.client.Close()
}

// GetJSON decodes the value stored at key into dest.
func (c *RedisCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	if !c.enabled {
		return ErrCacheDisabled
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.logger.WithField("key", key).Debug("Cache miss")
			return ErrCacheMiss
		}
		c.logger.WithError(err).WithField("key", key).Error("Failed to read from cache")
		return err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.WithError(err).WithField("key", key).Error("Failed to unmarshal cached value")
		// Delete corrupted cache entry
		c.client.Del(ctx, key)
		return err
	}

	c.logger.WithField("key", key).Debug("Cache hit")
	return nil
}

// SetJSON stores value at key for the configured TTL.
func (c *RedisCache) SetJSON(ctx context.Context, key string, value interface{}) error {
	if !c.enabled {
		return ErrCacheDisabled
	}

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Error("Failed to marshal cache value")
		return err
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("key", key).Error("Failed to write to cache")
		return err
	}
	return nil
}

// Invalidate removes keys from the cache.
func (c *RedisCache) Invalidate(ctx context.Context, keys ...string) error {
	if !c.enabled {
		return ErrCacheDisabled
	}
	if len(keys) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.WithError(err).WithField("keys", keys).Error("Failed to invalidate cache")
		return err
	}

	c.logger.WithField("keys", keys).Debug("Invalidated cache")
	return nil
}
