package catalogsearch

import (
	"strings"
	"testing"

	"github.com/nyx-moment/moment/internal/retrieval"
	"github.com/nyx-moment/moment/internal/types"
)

func TestBuildQuery_VectorMode(t *testing.T) {
	req := retrieval.Request{
		Domain:         types.DomainMovies,
		QueryEmbedding: []float32{0.1, 0.2, 0.3},
		Filter:         types.FilterPredicate{MinReleaseYear: 2000, IncludeGenres: []string{"noir"}},
		TopK:           10,
	}.Normalize()

	query, err := buildQuery(req)
	if err != nil {
		t.Fatalf("buildQuery: %v", err)
	}
	if !strings.Contains(query, "cosineSimilarity") {
		t.Errorf("expected script_score vector query, got %s", query)
	}
	if !strings.Contains(query, `"domain.keyword":"movies"`) {
		t.Errorf("expected domain filter, got %s", query)
	}
	if !strings.Contains(query, `"release_year":{"gte":2000}`) {
		t.Errorf("expected release year filter, got %s", query)
	}
}

func TestBuildQuery_TextMode(t *testing.T) {
	req := retrieval.Request{
		Domain:    types.DomainTVSeries,
		QueryText: "cozy mystery",
		TopK:      5,
	}.Normalize()

	query, err := buildQuery(req)
	if err != nil {
		t.Fatalf("buildQuery: %v", err)
	}
	if !strings.Contains(query, `"match":{"title":"cozy mystery"}`) {
		t.Errorf("expected title match query, got %s", query)
	}
}

func TestSearchResponse_Candidates(t *testing.T) {
	var parsed searchResponse
	parsed.Hits.Hits = append(parsed.Hits.Hits, struct {
		Score  float64         `json:"_score"`
		Source catalogDocument `json:"_source"`
	}{Score: 1.8, Source: catalogDocument{ID: "abc", Title: "A Movie"}})

	candidates := parsed.candidates()
	if len(candidates) != 1 || candidates[0].ID != "abc" || candidates[0].SimilarityScore != 1.8 {
		t.Fatalf("unexpected candidates: %+v", candidates)
	}
}
