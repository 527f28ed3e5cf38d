// Package rediscache shares the token list between processes through redis.
package rediscache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sugawarayuuta/sonnet"

	"github.com/fd1az/flashroute/business/tokens/domain"
)

// KV is the slice of the redis client the cache uses.
type KV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// Cache stores one chain's list under a single key.
type Cache struct {
	kv  KV
	key string
	ttl time.Duration
}

func New(kv KV, chainID uint64, ttl time.Duration) *Cache {
	return &Cache{
		kv:  kv,
		key: fmt.Sprintf("flashroute:tokens:%d", chainID),
		ttl: ttl,
	}
}

// NewClient dials addr.
func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

func (c *Cache) Name() string { return "redis" }

func (c *Cache) Key() string { return c.key }

// Load returns nil, nil on a missing key.
func (c *Cache) Load(ctx context.Context) ([]domain.ListEntry, error) {
	raw, err := c.kv.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", c.key, err)
	}

	var entries []domain.ListEntry
	if err := sonnet.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.key, err)
	}
	return entries, nil
}

func (c *Cache) Store(ctx context.Context, entries []domain.ListEntry) error {
	raw, err := sonnet.Marshal(entries)
	if err != nil {
		return err
	}
	return c.kv.Set(ctx, c.key, raw, c.ttl).Err()
}
