package validator

import (
	"testing"

	"github.com/nyx-moment/moment/internal/types"
)

func TestScore_EmptyListIsZero(t *testing.T) {
	v := New()
	result := v.Score(nil, types.DefaultEmotionalProfile(), false)
	if result.EmotionalMatch != 0 || result.Diversity != 0 || result.SurpriseQuality != 0 {
		t.Errorf("expected all-zero scores for an empty list, got %+v", result)
	}
	if result.Overall != 0 {
		t.Errorf("expected overall 0, got %d", result.Overall)
	}
}

func TestScore_OverallWithinRange(t *testing.T) {
	v := New()
	items := []types.RecommendationItem{
		{Candidate: types.Candidate{ID: "a", GenreTags: []string{"drama"}, ReleaseYear: 1995, QualityScore: 8.0, RuntimeMinutes: 110}},
		{Candidate: types.Candidate{ID: "b", GenreTags: []string{"comedy"}, ReleaseYear: 2010, QualityScore: 6.0, RuntimeMinutes: 95}},
		{Candidate: types.Candidate{ID: "c", GenreTags: []string{"action"}, ReleaseYear: 2020, QualityScore: 7.2, RuntimeMinutes: 140},
			IsSurprise: true, SurpriseKind: "hidden_gem", SurpriseConfidence: 80},
	}
	result := v.Score(items, types.DefaultEmotionalProfile(), false)
	if result.Overall < 0 || result.Overall > 100 {
		t.Fatalf("overall score out of range: %d", result.Overall)
	}
	if result.Moment.Confidence != result.Overall {
		t.Errorf("expected moment confidence to equal overall score, got %d vs %d", result.Moment.Confidence, result.Overall)
	}
	if len(result.Moment.Radar) != 5 {
		t.Errorf("expected 5 radar axes, got %d", len(result.Moment.Radar))
	}
}

func TestScore_DegradedFlagPassesThrough(t *testing.T) {
	v := New()
	result := v.Score(nil, types.DefaultEmotionalProfile(), true)
	if !result.Degraded {
		t.Error("expected degraded=true to pass through")
	}
}

func TestDiversityScore_MoreDistinctGenresScoresHigher(t *testing.T) {
	uniform := []types.RecommendationItem{
		{Candidate: types.Candidate{ID: "a", GenreTags: []string{"drama"}, ReleaseYear: 2000, QualityScore: 7}},
		{Candidate: types.Candidate{ID: "b", GenreTags: []string{"drama"}, ReleaseYear: 2000, QualityScore: 7}},
	}
	varied := []types.RecommendationItem{
		{Candidate: types.Candidate{ID: "a", GenreTags: []string{"drama"}, ReleaseYear: 1990, QualityScore: 8}},
		{Candidate: types.Candidate{ID: "b", GenreTags: []string{"sci-fi"}, ReleaseYear: 2020, QualityScore: 4}},
	}
	if diversityScore(varied) <= diversityScore(uniform) {
		t.Errorf("expected varied list to score higher diversity: %f vs %f", diversityScore(varied), diversityScore(uniform))
	}
}

func TestSurpriseQualityScore_NoSurprisesIsZero(t *testing.T) {
	items := []types.RecommendationItem{{Candidate: types.Candidate{ID: "a"}}}
	if score := surpriseQualityScore(items); score != 0 {
		t.Errorf("expected 0 with no surprises, got %f", score)
	}
}
