package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Invalidator drops cached entries for a domain. An empty scope drops the whole domain.
type Invalidator interface {
	Invalidate(ctx context.Context, domain, scope string) error
}

// Cache is a read-through JSON cache.
type Cache interface {
	Invalidator
	// Get decodes the entry into target and reports whether it was found.
	Get(ctx context.Context, key string, target interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
}

// Key builds "<domain>:<scope>".
func Key(domain, scope string) string {
	return domain + ":" + scope
}

// AllKey is the key of a domain's full listing.
func AllKey(domain string) string {
	return Key(domain, "all")
}

// New returns a Redis cache, or a no-op cache when rdb is nil.
func New(rdb *redis.Client, ttl time.Duration) Cache {
	if rdb == nil {
		return NopCache{}
	}
	return NewRedisCache(rdb, ttl)
}

// NopCache never stores anything.
type NopCache struct{}

func (NopCache) Get(context.Context, string, interface{}) (bool, error) { return false, nil }

func (NopCache) Set(context.Context, string, interface{}) error { return nil }

func (NopCache) Invalidate(context.Context, string, string) error { return nil }
