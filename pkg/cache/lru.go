package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type lruEntry struct {
	data     []byte
	expireAt time.Time
}

// LRUCache implements Service in process on a bounded, expiring LRU.
type LRUCache struct {
	lru *expirable.LRU[string, lruEntry]
}

// NewLRUCache creates an in-memory cache.
func NewLRUCache(opts ...LRUOption) *LRUCache {
	cfg := &LRUConfig{
		MaxSize: 1000,
		TTL:     time.Hour,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return &LRUCache{lru: expirable.NewLRU[string, lruEntry](cfg.MaxSize, nil, cfg.TTL)}
}

func (c *LRUCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return err
	}
	e := lruEntry{data: data}
	if expiration > 0 {
		e.expireAt = time.Now().Add(expiration)
	}
	c.lru.Add(key, e)
	return nil
}

func (c *LRUCache) Get(_ context.Context, key string, dest interface{}) error {
	e, ok := c.lru.Get(key)
	if !ok {
		return ErrCacheMiss
	}
	if !e.expireAt.IsZero() && time.Now().After(e.expireAt) {
		c.lru.Remove(key)
		return ErrCacheMiss
	}
	return decode(e.data, dest)
}

func (c *LRUCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		c.lru.Remove(k)
	}
	return nil
}

func (c *LRUCache) Ping(context.Context) error { return nil }

// Len returns the number of cached entries, including ones not yet expired out.
func (c *LRUCache) Len() int { return c.lru.Len() }

func (c *LRUCache) Close() error {
	c.lru.Purge()
	return nil
}

var _ Service = (*LRUCache)(nil)
