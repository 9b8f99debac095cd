package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/kalakriti/commerce-engine/pkg/redis"
)

// Redis adapts the shared redis client to the Backend contract. Values never
// expire; the engine owns their lifecycle explicitly.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) (*Redis, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &Redis{client: client}, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, key)
	if errors.Is(err, redis.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load key %q: %w", key, err)
	}
	return []byte(val), true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, key, string(value), 0); err != nil {
		return fmt.Errorf("store key %q: %w", key, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key); err != nil {
		return fmt.Errorf("delete key %q: %w", key, err)
	}
	return nil
}
