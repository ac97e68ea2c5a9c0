package resolve

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Func looks up the owning club of a resource in the backing store. It
// returns the club id, or an error wrapping the caller's not-found sentinel
// when the resource does not exist.
type Func func(ctx context.Context, resourceID string) (string, error)

const keyPrefix = "rc:"

// Cache is a read-through cache over a resolution Func. With a nil Redis
// client it degrades to calling the Func directly.
type Cache struct {
	redis   redis.UniversalClient
	ttl     time.Duration
	resolve Func
}

// New creates a Cache. ttl bounds how long a resource→club mapping may be
// served without consulting the store; ownership changes are rare but real
// (aircraft transferred between clubs).
func New(redisClient redis.UniversalClient, ttl time.Duration, fn Func) *Cache {
	return &Cache{
		redis:   redisClient,
		ttl:     ttl,
		resolve: fn,
	}
}

// OwningClub resolves resourceID to its owning club id.
func (c *Cache) OwningClub(ctx context.Context, resourceID string) (string, error) {
	if c == nil || c.resolve == nil {
		return "", errors.New("no resource resolver configured")
	}
	if resourceID == "" {
		return "", errors.New("empty resource id")
	}

	if c.redis != nil {
		cached, err := c.redis.Get(ctx, keyPrefix+resourceID).Result()
		if err == nil && cached != "" {
			return cached, nil
		}
		// Cache miss and redis failure both fall through to the store;
		// a degraded cache must not take authorization down with it.
	}

	clubID, err := c.resolve(ctx, resourceID)
	if err != nil {
		return "", err
	}

	if c.redis != nil && c.ttl > 0 {
		_ = c.redis.Set(ctx, keyPrefix+resourceID, clubID, c.ttl).Err()
	}

	return clubID, nil
}

// Invalidate drops a cached mapping, for callers that process ownership
// transfers.
func (c *Cache) Invalidate(ctx context.Context, resourceID string) error {
	if c == nil || c.redis == nil {
		return nil
	}
	return c.redis.Del(ctx, keyPrefix+resourceID).Err()
}
