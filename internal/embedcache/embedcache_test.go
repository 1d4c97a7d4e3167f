package embedcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nyx-moment/moment/internal/cachekv"
	"github.com/nyx-moment/moment/internal/types"
)

type stubProvider struct {
	vec []float32
	err error
	n   int
}

func (s *stubProvider) Dimensions() int { return len(s.vec) }

func (s *stubProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	s.n++
	if s.err != nil {
		return nil, s.err
	}
	return s.vec, nil
}

func TestGet_UsesProviderWhenAvailable(t *testing.T) {
	provider := &stubProvider{vec: []float32{0.1, 0.2, 0.3}}
	c := New(cachekv.NewMemoryStore(time.Hour), provider)

	res, err := c.Get(context.Background(), types.DomainMovies, nil, nil, "a cozy film")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if res.Fallback {
		t.Error("expected non-fallback result")
	}
	if len(res.Vector) != 3 {
		t.Fatalf("expected provider vector, got %v", res.Vector)
	}
}

func TestGet_FallsBackWhenProviderErrors(t *testing.T) {
	provider := &stubProvider{err: errors.New("provider down")}
	c := New(cachekv.NewMemoryStore(time.Hour), provider)

	weights := map[string]float64{"bold": 0.8, "energetic": 0.6}
	res, err := c.Get(context.Background(), types.DomainMovies, nil, weights, "bold and energetic")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !res.Fallback {
		t.Error("expected fallback result")
	}
	if len(res.Vector) != vectorDimensions {
		t.Fatalf("expected %d-wide fallback vector, got %d", vectorDimensions, len(res.Vector))
	}
}

func TestGet_CachesAcrossCalls(t *testing.T) {
	provider := &stubProvider{vec: []float32{0.5, 0.5}}
	c := New(cachekv.NewMemoryStore(time.Hour), provider)

	answers := []types.Answer{{QuestionID: "energy_level", OptionID: "energized"}}
	if _, err := c.Get(context.Background(), types.DomainMovies, answers, nil, "energized"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, err := c.Get(context.Background(), types.DomainMovies, answers, nil, "energized"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if provider.n != 1 {
		t.Fatalf("expected provider called once (cache hit on second call), got %d calls", provider.n)
	}
}

func TestFallbackVector_IsDeterministicAndNormalized(t *testing.T) {
	weights := map[string]float64{"bold": 0.8, "quiet": 0.3, "some_unknown_trait": 0.5}

	v1 := FallbackVector(weights)
	v2 := FallbackVector(weights)
	if len(v1) != vectorDimensions || len(v2) != vectorDimensions {
		t.Fatalf("expected %d-wide vectors", vectorDimensions)
	}
	for i := range v1 {
		if v1[i] != v2[i] {
			t.Fatalf("expected deterministic output at index %d: %v vs %v", i, v1[i], v2[i])
		}
	}

	var sumSquares float64
	for _, x := range v1 {
		sumSquares += float64(x) * float64(x)
	}
	if sumSquares < 0.99 || sumSquares > 1.01 {
		t.Errorf("expected L2-normalized vector (sum of squares ~1), got %f", sumSquares)
	}
}

func TestFallbackVector_EmptyWeightsIsZeroVector(t *testing.T) {
	v := FallbackVector(nil)
	for i, x := range v {
		if x != 0 {
			t.Fatalf("expected all-zero vector for no weights, index %d = %f", i, x)
		}
	}
}
