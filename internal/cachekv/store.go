// Package cachekv provides a generic TTL key-value store, used by every
// component that needs expiring, JSON-serialized state: the Session Store
// (C3), the Embedding Cache (C5), the Result Cache (C7), and the Enricher's
// per-item cache (C8). Uses a get/set/delete-with-TTL-and-key-prefixing
// shape, applied to an arbitrary JSON payload instead of a single
// streaming-chat record type.
package cachekv

import (
	"context"
	"time"
)

// Store is a namespaced, TTL-bounded byte store. Every method is safe for
// concurrent use.
type Store interface {
	// Get returns the raw value for key, or (nil, false) if absent or
	// expired.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set writes value under key with the given TTL. ttl <= 0 means the
	// store's configured default TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Touch resets key's TTL without rewriting its value, used to extend a
	// session's lifetime on every interaction ( "touch" extends
	// expiry without resetting content).
	Touch(ctx context.Context, key string, ttl time.Duration) error
	Close() error
}
