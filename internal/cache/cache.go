// Package cache provides the key-value store behind the view cache and the
// checkout submission guard, in memory or in Redis.
package cache

import (
	"context"
	"errors"
	"time"
)

var ErrCacheMiss = errors.New("cache miss")

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// SetNX stores value only if key is absent and reports whether it did.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, keys ...string) error
	// Incr adds one to the integer at key, starting from zero, and resets its ttl.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}
