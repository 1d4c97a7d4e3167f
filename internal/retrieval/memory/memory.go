// Package memory is the last-resort Retrieval Client (C6) backend: a pure
// in-process slice scan over a preloaded catalog snapshot, ordered by
// quality score then vote count and filtered locally. It has no external
// dependency, so the Orchestrator can always fall back to it when both the
// pgvector and Elasticsearch backends report unavailable. Uses a simple
// mutex-guarded sorted slice instead of a map, since ordering is the
// whole point of this tier.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/nyx-moment/moment/internal/retrieval"
	"github.com/nyx-moment/moment/internal/types"
)

// Store is a read-mostly in-memory catalog snapshot, grouped by domain and
// pre-sorted by quality desc, vote count desc.
type Store struct {
	mu    sync.RWMutex
	items map[types.Domain][]types.Candidate
}

// NewStore builds an empty snapshot; call Load to populate it.
func NewStore() *Store {
	return &Store{items: make(map[types.Domain][]types.Candidate)}
}

// Load replaces the snapshot for one domain, sorting it once up front so
// Retrieve never re-sorts on the request path.
func (s *Store) Load(domain types.Domain, items []types.Candidate) {
	sorted := make([]types.Candidate, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].QualityScore != sorted[j].QualityScore {
			return sorted[i].QualityScore > sorted[j].QualityScore
		}
		return sorted[i].VoteCount > sorted[j].VoteCount
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[domain] = sorted
}

// Retrieve implements retrieval.Retriever. It never returns
// retrieval.ErrUnavailable: this backend has no network dependency to fail,
// which is the entire point of its existence as the final fallback tier.
func (s *Store) Retrieve(_ context.Context, req retrieval.Request) ([]types.Candidate, error) {
	req = req.Normalize()

	s.mu.RLock()
	pool := s.items[req.Domain]
	s.mu.RUnlock()

	out := make([]types.Candidate, 0, req.TopK)
	for _, c := range pool {
		if !req.Filter.Matches(c) {
			continue
		}
		out = append(out, c)
		if len(out) == req.TopK {
			break
		}
	}
	return out, nil
}
