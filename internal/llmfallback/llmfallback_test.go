package llmfallback

import (
	"testing"

	"github.com/nyx-moment/moment/internal/types"
)

func TestParseCandidates_ExtractsArrayAndTruncates(t *testing.T) {
	content := `Sure, here you go:
[
  {"id":"a","title":"A","releaseYear":2020,"genreTags":["drama"],"qualityScore":7.5,"popularityScore":10,"voteCount":500,"runtimeMinutes":110},
  {"id":"b","title":"B","releaseYear":2021,"genreTags":["comedy"],"qualityScore":6.2,"popularityScore":20,"voteCount":300,"runtimeMinutes":95}
]
Hope that helps!`

	candidates, err := parseCandidates(content, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected truncation to 1 candidate, got %d", len(candidates))
	}
	if candidates[0].ID != "a" {
		t.Errorf("expected first candidate id 'a', got %s", candidates[0].ID)
	}
}

func TestParseCandidates_NoArrayIsError(t *testing.T) {
	_, err := parseCandidates("no json here", 5)
	if err == nil {
		t.Fatal("expected error when no JSON array present")
	}
}

func TestUserPrompt_IncludesDomainAndCount(t *testing.T) {
	prompt := userPrompt(types.DomainMovies, "something uplifting", types.FilterPredicate{MinRating: 7}, 3)
	if prompt == "" {
		t.Fatal("expected non-empty prompt")
	}
}
