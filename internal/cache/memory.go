package cache

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"time"
)

type memoryValue struct {
	data    []byte
	expires time.Time
}

// MemoryCache is the single-instance Cache. Values are copied in and out.
type MemoryCache struct {
	mu     sync.RWMutex
	values map[string]memoryValue
	now    func() time.Time

	sweepEvery time.Duration
	done       chan struct{}
	closeOnce  sync.Once
}

// NewMemoryCache sweeps expired values once a minute until Close.
func NewMemoryCache() *MemoryCache {
	c := &MemoryCache{
		values:     make(map[string]memoryValue),
		now:        time.Now,
		sweepEvery: time.Minute,
		done:       make(chan struct{}),
	}
	go c.sweepLoop()
	return c
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	v, ok := c.values[key]
	c.mu.RUnlock()
	if !ok || c.now().After(v.expires) {
		return nil, ErrCacheMiss
	}
	return bytes.Clone(v.data), nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	v := memoryValue{data: bytes.Clone(value), expires: c.now().Add(ttl)}
	c.mu.Lock()
	c.values[key] = v
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.values, key)
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.values {
		if strings.HasPrefix(key, prefix) {
			delete(c.values, key)
		}
	}
	return nil
}

// Close stops the sweeper. It is safe to call twice.
func (c *MemoryCache) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

func (c *MemoryCache) sweepLoop() {
	ticker := time.NewTicker(c.sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}

func (c *MemoryCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, v := range c.values {
		if now.After(v.expires) {
			delete(c.values, key)
		}
	}
}
