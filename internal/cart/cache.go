package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cart not in cache")

// Cache holds recently read item lists per card. Mutations must
// invalidate; totals are always recomputed from the cached items.
type Cache interface {
	Get(ctx context.Context, cardID string) ([]LineItem, error)
	Set(ctx context.Context, cardID string, items []LineItem) error
	Delete(ctx context.Context, cardID string) error
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 15 * time.Minute,
	}
}

func (r *RedisCache) Get(ctx context.Context, cardID string) ([]LineItem, error) {
	data, err := r.client.Get(ctx, cacheKey(cardID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var items []LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("unmarshal cached cart failed: %w", err)
	}
	return items, nil
}

func (r *RedisCache) Set(ctx context.Context, cardID string, items []LineItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	// Jitter spreads expiry so a burst of writes does not expire at once.
	ttl := r.baseTTL + time.Duration(rand.Intn(5))*time.Minute
	if err := r.client.Set(ctx, cacheKey(cardID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, cardID string) error {
	if err := r.client.Del(ctx, cacheKey(cardID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(cardID string) string {
	return fmt.Sprintf("cart:%s", cardID)
}

// LocalCache is the in-process fallback used when no redis address is
// configured.
type LocalCache struct {
	mu    sync.RWMutex
	items map[string][]LineItem
}

func NewLocalCache() *LocalCache {
	return &LocalCache{items: make(map[string][]LineItem)}
}

func (c *LocalCache) Get(_ context.Context, cardID string) ([]LineItem, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	items, ok := c.items[cardID]
	if !ok {
		return nil, ErrCacheMiss
	}
	return items, nil
}

func (c *LocalCache) Set(_ context.Context, cardID string, items []LineItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[cardID] = items
	return nil
}

func (c *LocalCache) Delete(_ context.Context, cardID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, cardID)
	return nil
}
