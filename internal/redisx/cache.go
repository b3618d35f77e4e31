package redisx

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// JSONCache is a best-effort read-through cache; callers treat errors as misses.
type JSONCache interface {
	Get(ctx context.Context, key string, out any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type Cache struct {
	Redis redis.Cmdable
}

func NewCache(rdb redis.Cmdable) *Cache { return &Cache{Redis: rdb} }

func (c *Cache) Get(ctx context.Context, key string, out any) (bool, error) {
	return GetJSON(ctx, c.Redis, key, out)
}

func (c *Cache) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	return SetJSON(ctx, c.Redis, key, v, ttl)
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.Redis.Del(ctx, keys...).Err()
}

type memEntry struct {
	b       []byte
	expires time.Time
}

// MemCache is the in-process JSONCache used by tests and Redis-less runs.
type MemCache struct {
	mu  sync.Mutex
	m   map[string]memEntry
	Now func() time.Time
}

func NewMemCache() *MemCache {
	return &MemCache{m: map[string]memEntry{}, Now: time.Now}
}

func (c *MemCache) Get(_ context.Context, key string, out any) (bool, error) {
	c.mu.Lock()
	e, ok := c.m[key]
	if ok && !c.Now().Before(e.expires) {
		delete(c.m, key)
		ok = false
	}
	c.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(e.b, out); err != nil {
		return false, err
	}
	return true, nil
}

func (c *MemCache) Set(_ context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = memEntry{b: b, expires: c.Now().Add(ttl)}
	return nil
}

func (c *MemCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.m, k)
	}
	return nil
}

// Has reports whether key holds a live entry.
func (c *MemCache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[key]
	return ok && c.Now().Before(e.expires)
}
