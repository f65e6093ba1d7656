package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisConfig locates a Redis server used as the KV substrate.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RedisKV stores values as plain Redis strings under Prefix+key.
type RedisKV struct {
	client redis.Cmdable
	prefix string
}

// NewRedisKV wraps an existing client.
func NewRedisKV(client redis.Cmdable, prefix string) *RedisKV {
	return &RedisKV{client: client, prefix: prefix}
}

// OpenRedis dials the server and checks it answers. The returned close
// function releases the connection pool.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*RedisKV, func() error, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("ping redis at %s: %w", cfg.Addr, err)
	}
	return NewRedisKV(client, cfg.Prefix), client.Close, nil
}

func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %q: %w", key, err)
	}
	return val, nil
}

func (r *RedisKV) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}
