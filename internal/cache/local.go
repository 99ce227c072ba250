package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	data     string
	expireAt time.Time // zero = no expiry
}

func (e *entry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && now.After(e.expireAt)
}

// LocalKV is an in-process KV. Expired keys are dropped lazily on access.
type LocalKV struct {
	mu  sync.Mutex
	kv  map[string]*entry
	now func() time.Time
}

func NewLocal() *LocalKV {
	return &LocalKV{kv: make(map[string]*entry), now: time.Now}
}

func (c *LocalKV) load(key string) (*entry, bool) {
	e, ok := c.kv[key]
	if !ok {
		return nil, false
	}
	if e.expired(c.now()) {
		delete(c.kv, key)
		return nil, false
	}
	return e, true
}

func (c *LocalKV) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.load(key)
	if !ok {
		return "", ErrNotFound
	}
	return e.data, nil
}

func (c *LocalKV) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := &entry{data: value}
	if ttl > 0 {
		e.expireAt = c.now().Add(ttl)
	}
	c.kv[key] = e
	return nil
}

func (c *LocalKV) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.kv, k)
	}
	return nil
}

func (c *LocalKV) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.load(key)
	return ok, nil
}

func (c *LocalKV) Close() error { return nil }
