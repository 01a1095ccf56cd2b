// Package cache holds the ephemeral key/value layer: the active-session mirror,
// the revoked-token blacklist and resolved geo locations.
//
// The session mirror is write-only here. It is maintained for other services
// sharing the cache; this service always reads sessions from the store.
package cache

import (
	"context"
	"time"
)

// Backend is a minimal KV contract with per-key TTL. A zero ttl means no expiry.
type Backend interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Get reports found=false for a missing key without an error.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, keys ...string) error
	HSet(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error
	Close() error
}
