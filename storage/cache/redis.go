package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/AmelJaballah/SmartLearn-mern-project/core"
)

const keyPrefix = "smartlearn:"

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ core.Cache = (*RedisCache)(nil) // interface compliance check

func NewRedisClient(conf core.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         conf.Address,
		Password:     conf.Password,
		DB:           conf.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
}

// NewRedisCache returns a cache whose entries expire after ttl; 0 keeps them forever.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, "redis ping failed")
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	b, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return core.ErrCacheMiss
		}
		return errors.Wrapf(err, "reading %q from cache", key)
	}
	if err = json.Unmarshal(b, dest); err != nil {
		return errors.Wrapf(err, "decoding cached %q", key)
	}
	return nil
}

func (c *RedisCache) SetJSON(ctx context.Context, key string, value interface{}) error {
	b, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "encoding %q", key)
	}
	if err = c.client.Set(ctx, keyPrefix+key, b, c.ttl).Err(); err != nil {
		return errors.Wrapf(err, "writing %q to cache", key)
	}
	return nil
}
