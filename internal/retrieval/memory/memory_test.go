package memory

import (
	"context"
	"testing"

	"github.com/nyx-moment/moment/internal/retrieval"
	"github.com/nyx-moment/moment/internal/types"
)

func TestStore_RetrieveOrdersByQualityThenVotes(t *testing.T) {
	s := NewStore()
	s.Load(types.DomainMovies, []types.Candidate{
		{ID: "low-quality-high-votes", QualityScore: 5.0, VoteCount: 10000},
		{ID: "high-quality-low-votes", QualityScore: 9.0, VoteCount: 10},
		{ID: "high-quality-high-votes", QualityScore: 9.0, VoteCount: 500},
	})

	got, err := s.Retrieve(context.Background(), retrieval.Request{Domain: types.DomainMovies, TopK: 3})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(got))
	}
	if got[0].ID != "high-quality-high-votes" || got[1].ID != "high-quality-low-votes" {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestStore_RetrieveAppliesFilter(t *testing.T) {
	s := NewStore()
	s.Load(types.DomainMovies, []types.Candidate{
		{ID: "old", QualityScore: 9, ReleaseYear: 1990},
		{ID: "new", QualityScore: 8, ReleaseYear: 2020},
	})

	got, err := s.Retrieve(context.Background(), retrieval.Request{
		Domain: types.DomainMovies,
		Filter: types.FilterPredicate{MinReleaseYear: 2000},
		TopK:   5,
	})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 1 || got[0].ID != "new" {
		t.Fatalf("expected only 'new', got %+v", got)
	}
}

func TestStore_RetrieveNeverErrors(t *testing.T) {
	s := NewStore()
	got, err := s.Retrieve(context.Background(), retrieval.Request{Domain: types.DomainTVSeries, TopK: 5})
	if err != nil {
		t.Fatalf("expected nil error for empty domain, got %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no candidates, got %+v", got)
	}
}
