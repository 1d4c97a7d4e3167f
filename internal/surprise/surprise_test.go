package surprise

import (
	"context"
	"math/rand"
	"testing"

	"github.com/nyx-moment/moment/internal/types"
)

func TestSelectStrategy_PrecedenceRules(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	cases := []struct {
		name    string
		profile types.EmotionalProfile
		ctx     types.RequestContext
		want    Strategy
	}{
		{"experimental wins first", types.EmotionalProfile{Openness: types.OpennessExperimental, Energy: types.EnergyDrained}, types.RequestContext{}, StrategyAdventurous},
		{"drained beats weekend", types.EmotionalProfile{Energy: types.EnergyDrained}, types.RequestContext{DayClass: types.DayWeekend}, StrategySafe},
		{"weekend beats default", types.EmotionalProfile{}, types.RequestContext{DayClass: types.DayWeekend}, StrategyAdventurous},
		{"default is safe", types.EmotionalProfile{}, types.RequestContext{}, StrategySafe},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := SelectStrategy(tc.profile, tc.ctx, rng)
			if got != tc.want {
				t.Errorf("SelectStrategy() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCount_FormulaAndCap(t *testing.T) {
	base := Count(types.RequestContext{}, types.EmotionalProfile{}, 100)
	if base != 2 {
		t.Errorf("expected base count 2, got %d", base)
	}

	withSurprise := Count(types.RequestContext{DiscoveryMode: "surprise"}, types.EmotionalProfile{}, 100)
	if withSurprise != 4 {
		t.Errorf("expected 4 with discovery_mode=surprise, got %d", withSurprise)
	}

	withExploring := Count(types.RequestContext{}, types.EmotionalProfile{Openness: types.OpennessExploring}, 100)
	if withExploring != 3 {
		t.Errorf("expected 3 with openness=exploring, got %d", withExploring)
	}

	capped := Count(types.RequestContext{DiscoveryMode: "surprise"}, types.EmotionalProfile{Openness: types.OpennessExploring}, 10)
	if capped != 4 {
		t.Errorf("expected cap at floor(0.4*10)=4, got %d", capped)
	}
}

func buildPool(n int) []types.RecommendationItem {
	items := make([]types.RecommendationItem, n)
	for i := 0; i < n; i++ {
		items[i] = types.RecommendationItem{
			Candidate: types.Candidate{
				ID:              string(rune('a' + i)),
				GenreTags:       []string{"drama"},
				PopularityScore: float64(i),
				QualityScore:    7.0,
			},
		}
	}
	return items
}

func TestApply_NoDuplicatesAndStrategicRanks(t *testing.T) {
	engine := New(nil, rand.New(rand.NewSource(2)))
	expected := buildPool(10)

	out := engine.Apply(context.Background(), expected, expected, StrategySafe, 3)

	seen := map[string]bool{}
	for _, item := range out {
		if seen[item.ID] {
			t.Fatalf("duplicate item %s in merged output", item.ID)
		}
		seen[item.ID] = true
	}

	surpriseRanks := 0
	for _, rank := range []int{3, 6, 8} {
		if rank-1 < len(out) && out[rank-1].IsSurprise {
			surpriseRanks++
		}
	}
	if surpriseRanks == 0 {
		t.Error("expected at least one surprise slot at a strategic-mix rank")
	}
}

func TestApply_ZeroCountReturnsExpectedUnchanged(t *testing.T) {
	engine := New(nil, rand.New(rand.NewSource(3)))
	expected := buildPool(5)

	out := engine.Apply(context.Background(), expected, expected, StrategySafe, 0)
	if len(out) != len(expected) {
		t.Fatalf("expected %d items, got %d", len(expected), len(out))
	}
	for i := range expected {
		if out[i].ID != expected[i].ID {
			t.Fatalf("expected unchanged order at %d: got %s, want %s", i, out[i].ID, expected[i].ID)
		}
	}
}

func TestValidateKind(t *testing.T) {
	if err := ValidateKind("hidden_gem"); err != nil {
		t.Errorf("expected hidden_gem to be valid, got %v", err)
	}
	if err := ValidateKind("not_a_kind"); err == nil {
		t.Error("expected an error for an unknown kind")
	}
}
