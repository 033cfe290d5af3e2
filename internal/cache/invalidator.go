// Package cache deletes derived cache keys after a mutation so downstream
// readers recompute fresh values.
package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ticket-ops/catalog-sync-go/internal/config"
)

// BlacklistKey is the cache key consulted by pricing readers for one event.
func BlacklistKey(eventCode string) string {
	return "blacklist_" + eventCode
}

// Invalidator deletes cache keys by exact match or by pattern scan.
type Invalidator struct {
	client *redis.Client
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, cfg config.CacheConfig) (*Invalidator, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Invalidator{client: client}, nil
}

// NewWithClient wraps an existing client, mainly for tests.
func NewWithClient(client *redis.Client) *Invalidator {
	return &Invalidator{client: client}
}

// Invalidate deletes a single key by exact match.
func (i *Invalidator) Invalidate(ctx context.Context, key string) error {
	return i.client.Del(ctx, key).Err()
}

// InvalidatePattern scans for keys matching pattern and deletes each one.
func (i *Invalidator) InvalidatePattern(ctx context.Context, pattern string) error {
	iter := i.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := i.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Ping verifies cache connectivity.
func (i *Invalidator) Ping(ctx context.Context) error {
	return i.client.Ping(ctx).Err()
}

// Close releases the underlying connection.
func (i *Invalidator) Close() error {
	return i.client.Close()
}
