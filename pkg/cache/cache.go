// Package cache is a small expiring key/value store used for pending
// signups and login sessions. Redis backs it in production; an in-process
// LRU backs it for single-node setups and tests.
package cache

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("cache: key not found")

// KeepTTL passed as ttl to Set keeps the key's current expiry.
const KeepTTL time.Duration = -1

type Store interface {
	// Set stores value under key. With KeepTTL an existing expiry is preserved.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Get returns ErrNotFound for missing or expired keys.
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}
