package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisKV implements KV on redis. It lets several LinkHub clients on one
// machine (or a kiosk fleet) share a durable session mirror.
type RedisKV struct {
	client *redis.Client
	prefix string
}

// NewRedisClient returns a go-redis client from a URL and checks connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, errors.New("redis: empty url")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}

	return client, nil
}

// NewRedisKV wraps a redis client. An empty prefix defaults to "linkhub:".
func NewRedisKV(client *redis.Client, prefix string) *RedisKV {
	if prefix == "" {
		prefix = "linkhub:"
	}
	return &RedisKV{client: client, prefix: prefix}
}

func (r *RedisKV) key(k string) string {
	return r.prefix + k
}

// Get returns the value for key.
func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrKeyNotFound
	}
	if errors.Is(err, redis.ErrClosed) {
		return "", ErrClosed
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

// Set stores value under key without expiry; the backend decides when a
// token stops being valid.
func (r *RedisKV) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, r.key(key), value, 0).Err()
}

// Remove deletes key.
func (r *RedisKV) Remove(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

// Close closes the redis client.
func (r *RedisKV) Close() error {
	return r.client.Close()
}
