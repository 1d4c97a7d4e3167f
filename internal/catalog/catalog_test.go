package catalog

import (
	"context"
	"testing"

	"github.com/nyx-moment/moment/internal/types"
)

func TestStore_NilDBServesBuiltinFallback(t *testing.T) {
	s := NewStore(nil, 0)
	questions, version := s.GetQuestions(context.Background(), types.DomainMovies)
	if len(questions) == 0 {
		t.Fatal("expected non-empty built-in fallback set")
	}
	if version != 0 {
		t.Errorf("expected fallback version 0, got %d", version)
	}
}

func TestStore_RepeatedCallsServeStableQuestionCount(t *testing.T) {
	s := NewStore(nil, 0)
	first, _ := s.GetQuestions(context.Background(), types.DomainMovies)
	second, _ := s.GetQuestions(context.Background(), types.DomainMovies)
	if len(first) != len(second) {
		t.Fatalf("expected stable question count across calls, got %d then %d", len(first), len(second))
	}
}

func TestBuiltinQuestions_OrdinalsAreStable(t *testing.T) {
	questions := BuiltinQuestions(types.DomainMovies)
	for i, q := range questions {
		if q.Ordinal != i+1 {
			t.Errorf("expected ordinal %d at index %d, got %d", i+1, i, q.Ordinal)
		}
	}
}
