package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultPrefix prefixes the Redis key of every session.
const DefaultPrefix = "session:"

// createdField marks a session hash as existing before any value is set.
const createdField = "_created"

// RedisStore keeps each session in a Redis hash whose expiry is refreshed on
// every access.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a store over client.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

// Key returns the Redis key of session id.
func (r *RedisStore) Key(id string) string {
	return r.prefix + id
}

func (r *RedisStore) Touch(ctx context.Context, id string) error {
	key := r.Key(id)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSetNX(ctx, key, createdField, time.Now().Unix())
		r.expire(ctx, pipe, key)
		return nil
	})
	return err
}

func (r *RedisStore) Load(ctx context.Context, id, key string) ([]byte, bool, error) {
	data, err := r.client.HGet(ctx, r.Key(id), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if r.ttl > 0 {
		if err := r.client.Expire(ctx, r.Key(id), r.ttl).Err(); err != nil {
			return nil, false, err
		}
	}
	return data, true, nil
}

func (r *RedisStore) Save(ctx context.Context, id, key string, value []byte) error {
	hkey := r.Key(id)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, hkey, key, value)
		r.expire(ctx, pipe, hkey)
		return nil
	})
	return err
}

func (r *RedisStore) Remove(ctx context.Context, id, key string) error {
	return r.client.HDel(ctx, r.Key(id), key).Err()
}

func (r *RedisStore) Destroy(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.Key(id)).Err()
}

func (r *RedisStore) expire(ctx context.Context, pipe redis.Pipeliner, key string) {
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
}
