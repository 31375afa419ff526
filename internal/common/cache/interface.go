package cache

import (
	"context"
	"time"
)

// Cache is the key/value surface used by repositories.
type Cache interface {
	// Get returns the value at key, or "" when the key does not exist
	Get(ctx context.Context, key string) (string, error)

	// MGet returns the values at keys; missing keys yield ""
	MGet(ctx context.Context, keys ...string) ([]string, error)

	// Set stores value at key; ttl <= 0 keeps it forever
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Del removes keys
	Del(ctx context.Context, keys ...string) error

	// Ping verifies the connection
	Ping(ctx context.Context) error

	// Close releases the connection
	Close() error
}

// CounterOps backs fixed-window counters.
type CounterOps interface {
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
	Incr(ctx context.Context, key string) (int64, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}
