package types

import (
	"context"
	"time"
)

// Cache is the KV surface the stores run on. Get returns ("", nil) when
// the key is missing so callers can treat absence as a cache miss rather
// than an error.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	SetEx(ctx context.Context, key, value string, ttl time.Duration) error
	// SetMulti writes all pairs in one transaction so multi-projection
	// records never go half-stale.
	SetMulti(ctx context.Context, ttl time.Duration, kv map[string]string) error
	Del(ctx context.Context, keys ...string) error
	Expire(ctx context.Context, key string, ttl time.Duration) error

	SAdd(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
	SRem(ctx context.Context, key string, members ...string) error
}
