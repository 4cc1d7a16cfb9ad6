package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xraph/cohesion/internal/config"
	"github.com/xraph/cohesion/internal/dataaccess/redisconn"
)

// Redis stores entries in Redis under a key prefix.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis creates a cache from its data_access section. Connection keys
// are those of redisconn.Options; prefix and ttl configure the cache.
func NewRedis(cfg *config.Config) (*Redis, error) {
	client, err := redisconn.FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return NewRedisWithClient(client, cfg.GetString("prefix"), cfg.GetDuration("ttl")), nil
}

// NewRedisWithClient creates a cache over an existing client.
func NewRedisWithClient(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

// Client returns the underlying client.
func (r *Redis) Client() *redis.Client { return r.client }

// Prefix returns the key prefix.
func (r *Redis) Prefix() string { return r.prefix }

func (r *Redis) Get(ctx context.Context, key string, target any) (bool, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(data, target)
}

func (r *Redis) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if ttl == 0 {
		ttl = r.ttl
	}
	if ttl < 0 {
		ttl = 0
	}
	return r.client.Set(ctx, r.prefix+key, data, ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}

// Close releases the client.
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) Driver() string { return "redis" }
