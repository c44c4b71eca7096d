package testutils

import (
	"context"
	"sync"
	"time"

	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/types"
)

type memEntry struct {
	value    string
	expireAt time.Time
}

// MemCache is an in-memory types.Cache for tests. TTLs are honored on
// read so expiry behavior can be asserted without a real redis, and a
// canceled context is refused the way a real client would refuse it.
type MemCache struct {
	mu   sync.Mutex
	kv   map[string]memEntry
	sets map[string]map[string]struct{}
}

var _ types.Cache = (*MemCache)(nil)

func NewMemCache() *MemCache {
	return &MemCache{
		kv:   make(map[string]memEntry),
		sets: make(map[string]map[string]struct{}),
	}
}

func (c *MemCache) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.kv[key]
	if !ok {
		return "", nil
	}
	if !entry.expireAt.IsZero() && time.Now().After(entry.expireAt) {
		delete(c.kv, key)
		return "", nil
	}
	return entry.value, nil
}

func (c *MemCache) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.kv[key] = memEntry{value: value, expireAt: expiry(ttl)}
	return nil
}

func (c *MemCache) SetMulti(ctx context.Context, ttl time.Duration, kv map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range kv {
		c.kv[k] = memEntry{value: v, expireAt: expiry(ttl)}
	}
	return nil
}

func (c *MemCache) Del(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.kv, k)
		delete(c.sets, k)
	}
	return nil
}

func (c *MemCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.kv[key]; ok {
		entry.expireAt = expiry(ttl)
		c.kv[key] = entry
	}
	return nil
}

func (c *MemCache) SAdd(ctx context.Context, key string, members ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	set, ok := c.sets[key]
	if !ok {
		set = make(map[string]struct{})
		c.sets[key] = set
	}
	for _, m := range members {
		set[m] = struct{}{}
	}
	return nil
}

func (c *MemCache) SMembers(ctx context.Context, key string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	members := make([]string, 0, len(c.sets[key]))
	for m := range c.sets[key] {
		members = append(members, m)
	}
	return members, nil
}

func (c *MemCache) SRem(ctx context.Context, key string, members ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	set := c.sets[key]
	for _, m := range members {
		delete(set, m)
	}
	return nil
}

// ForceExpire drops a key immediately, simulating TTL passing.
func (c *MemCache) ForceExpire(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.kv, key)
}

// Put writes a raw value with no TTL, for seeding corrupt records.
func (c *MemCache) Put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.kv[key] = memEntry{value: value}
}

func expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(ttl)
}
