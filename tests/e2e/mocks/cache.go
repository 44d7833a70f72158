package mocks

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// InMemoryCache is a thread-safe map-backed stand-in for the Redis cache
// used by the end-to-end tests. Expiration is ignored.
type InMemoryCache struct {
	mu    sync.RWMutex
	items map[string][]byte
}

func (c *InMemoryCache) Get(ctx context.Context, key string, dest any) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	raw, ok := c.items[key]
	if !ok {
		return redis.Nil
	}
	return json.Unmarshal(raw, dest)
}

func (c *InMemoryCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.items == nil {
		c.items = make(map[string][]byte)
	}
	c.items[key] = raw
	return nil
}

func (c *InMemoryCache) Close() error { return nil }
