package resultcache

import (
	"context"
	"testing"
	"time"

	"github.com/nyx-moment/moment/internal/cachekv"
	"github.com/nyx-moment/moment/internal/types"
)

func TestPutAndGet_PreservesOrder(t *testing.T) {
	c := New(cachekv.NewMemoryStore(time.Hour), 0)
	key := types.QueryKey{QueryFingerprint: "q1", FilterFingerprint: "f1"}
	candidates := []types.Candidate{
		{ID: "c3", SimilarityScore: 0.4},
		{ID: "c1", SimilarityScore: 0.9},
		{ID: "c2", SimilarityScore: 0.7},
	}

	if err := c.Put(context.Background(), key, candidates); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := c.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected a cache hit")
	}
	for i, cand := range got {
		if cand.ID != candidates[i].ID {
			t.Fatalf("order not preserved at index %d: got %s, want %s", i, cand.ID, candidates[i].ID)
		}
	}
}

func TestGet_Miss(t *testing.T) {
	c := New(cachekv.NewMemoryStore(time.Hour), 0)
	_, ok, err := c.Get(context.Background(), types.QueryKey{QueryFingerprint: "none"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("expected a cache miss")
	}
}

func TestNew_ClampsOversizedTTL(t *testing.T) {
	c := New(cachekv.NewMemoryStore(time.Hour), 24*time.Hour)
	if c.ttl != maxTTL {
		t.Errorf("expected TTL clamped to %v, got %v", maxTTL, c.ttl)
	}
}
