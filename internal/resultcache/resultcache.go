// Package resultcache implements the Result Cache (C7): a Query-Key-keyed
// cache of ordered Candidate lists, written only after a successful
// retrieval and never re-ranked on read. Uses the same
// cachekv-ahead-of-retrieval pattern as internal/embedcache but with a
// plain single-TTL lookup/store instead of singleflight, since a cache
// miss here simply means "go ask the Retrieval Client", not "run an
// expensive model call".
package resultcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nyx-moment/moment/internal/cachekv"
	"github.com/nyx-moment/moment/internal/types"
)

// maxTTL is the Result Cache's invariant ceiling; callers may configure a
// shorter TTL but never a longer one.
const maxTTL = time.Hour

// Cache wraps a cachekv.Store keyed by types.QueryKey.
type Cache struct {
	kv     cachekv.Store
	ttl    time.Duration
	prefix string
}

// New wraps an already-constructed cachekv.Store. ttl is clamped to
// maxTTL.
func New(kv cachekv.Store, ttl time.Duration) *Cache {
	if ttl <= 0 || ttl > maxTTL {
		ttl = maxTTL
	}
	return &Cache{kv: kv, ttl: ttl, prefix: "resultcache:"}
}

// Get returns the cached candidate list for key, preserving its stored
// order bit-for-bit, or (nil, false) on a miss.
func (c *Cache) Get(ctx context.Context, key types.QueryKey) ([]types.Candidate, bool, error) {
	raw, ok, err := c.kv.Get(ctx, c.prefix+key.String())
	if err != nil {
		return nil, false, fmt.Errorf("resultcache: get: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	var candidates []types.Candidate
	if err := json.Unmarshal(raw, &candidates); err != nil {
		return nil, false, fmt.Errorf("resultcache: decode: %w", err)
	}
	return candidates, true, nil
}

// Put stores candidates under key. Only called after a successful
// retrieval — a failed or degraded retrieval MUST NOT reach this.
func (c *Cache) Put(ctx context.Context, key types.QueryKey, candidates []types.Candidate) error {
	raw, err := json.Marshal(candidates)
	if err != nil {
		return fmt.Errorf("resultcache: encode: %w", err)
	}
	if err := c.kv.Set(ctx, c.prefix+key.String(), raw, c.ttl); err != nil {
		return fmt.Errorf("resultcache: set: %w", err)
	}
	return nil
}
