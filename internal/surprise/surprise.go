// Package surprise implements the Surprise Engine (C9): strategy
// selection, surprise-slot generation, and deterministic merge into the
// expected candidate order. Uses a closed-set rule-table dispatch idiom,
// selecting by ordered precedence rules, applied to
// recommendation-surprise-strategy selection instead of prompt-strategy
// selection, with internal/surprise/graph supplying the adjacency data
// behind two of the six surprise kinds.
package surprise

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/nyx-moment/moment/internal/surprise/graph"
	"github.com/nyx-moment/moment/internal/types"
)

// Strategy is the closed set of surprise strategies.
type Strategy string

const (
	StrategySafe        Strategy = "safe"
	StrategyAdventurous Strategy = "adventurous"
	StrategyMoodShifter Strategy = "mood_shifter"
)

// Kind is the closed set of surprise kinds.
type Kind string

const (
	KindHiddenGem         Kind = "hidden_gem"
	KindAdjacentDiscovery Kind = "adjacent_discovery"
	KindWildcard          Kind = "wildcard"
	KindTimeCapsule       Kind = "time_capsule"
	KindForeignSurprise   Kind = "foreign_surprise"
	KindGenreBending      Kind = "genre_bending"
)

var allKinds = []Kind{KindHiddenGem, KindAdjacentDiscovery, KindWildcard, KindTimeCapsule, KindForeignSurprise, KindGenreBending}

// strategicMixRanks are the 1-based ranks surprise slots are inserted at,
// before any non-surprise candidate reaches those positions.
var strategicMixRanks = []int{3, 6, 8}

// Engine selects a strategy and produces surprise slots for an enriched
// candidate list.
type Engine struct {
	adjacency graph.AdjacencyLookup
	rng       *rand.Rand
}

// New wraps an AdjacencyLookup (typically graph.Chain(neo4jBackend,
// staticBackend)) and a deterministic random source. Callers that need
// reproducible output (tests) should supply a seeded rand.Rand; production
// callers pass a source seeded from real entropy.
func New(adjacency graph.AdjacencyLookup, rng *rand.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Engine{adjacency: adjacency, rng: rng}
}

// SelectStrategy applies the fixed precedence rules, in order.
func SelectStrategy(profile types.EmotionalProfile, reqCtx types.RequestContext, rng *rand.Rand) Strategy {
	switch {
	case profile.Openness == types.OpennessExperimental:
		return StrategyAdventurous
	case profile.Energy == types.EnergyDrained:
		return StrategySafe
	case reqCtx.TimeOfDay == types.TimeLateNight:
		if rng.Intn(2) == 0 {
			return StrategyMoodShifter
		}
		return StrategyAdventurous
	case reqCtx.DayClass == types.DayWeekend:
		return StrategyAdventurous
	default:
		return StrategySafe
	}
}

// Count applies the closed surprise-count formula, capped at 40% of the
// list length.
func Count(reqCtx types.RequestContext, profile types.EmotionalProfile, listLength int) int {
	count := 2
	if reqCtx.DiscoveryMode == "surprise" {
		count += 2
	}
	if profile.Openness == types.OpennessExploring {
		count++
	}
	capped := int(math.Floor(0.4 * float64(listLength)))
	if count > capped {
		count = capped
	}
	if count < 0 {
		count = 0
	}
	return count
}

// Slot is one surprise candidate merged into the output list.
type Slot struct {
	Item       types.RecommendationItem
	Kind       Kind
	Reason     string
	Confidence int
}

// Apply selects `count` surprise slots from the candidate pool (excluding
// anything already chosen) and merges them into expected at the fixed
// strategic-mix ranks (3, 6, 8), filling remaining positions from expected
// in order. Duplicate items never appear in the output.
func (e *Engine) Apply(ctx context.Context, expected []types.RecommendationItem, pool []types.RecommendationItem, strategy Strategy, count int) []types.RecommendationItem {
	slots := e.buildSlots(ctx, pool, strategy, count)
	return merge(expected, slots)
}

func (e *Engine) buildSlots(ctx context.Context, pool []types.RecommendationItem, strategy Strategy, count int) []Slot {
	used := map[string]bool{}
	slots := make([]Slot, 0, count)

	for slotIndex := 0; slotIndex < count; slotIndex++ {
		kind := kindForSlot(slotIndex, strategy, e.rng)
		item, ok := e.pick(ctx, pool, used, kind)
		if !ok {
			continue
		}
		used[item.ID] = true
		confidence := confidenceFor(kind)
		slots = append(slots, Slot{
			Item:       withSurpriseMetadata(item, kind, confidence),
			Kind:       kind,
			Reason:     reasonFor(kind),
			Confidence: confidence,
		})
	}
	return slots
}

// kindForSlot implements the position-dependent kind-selection rule.
func kindForSlot(slotIndex int, strategy Strategy, rng *rand.Rand) Kind {
	adventurous := strategy == StrategyAdventurous || strategy == StrategyMoodShifter

	switch slotIndex {
	case 0:
		if adventurous {
			return KindAdjacentDiscovery
		}
		return KindHiddenGem
	case 1:
		if adventurous {
			return KindWildcard
		}
		return KindAdjacentDiscovery
	default:
		return allKinds[rng.Intn(len(allKinds))]
	}
}

// pick chooses an unused item from pool matching kind's selection rule.
// adjacent_discovery and genre_bending defer to the adjacency graph;
// everything else falls back to a simple quality/recency heuristic over
// the remaining pool, since those kinds have no graph dependency.
func (e *Engine) pick(ctx context.Context, pool []types.RecommendationItem, used map[string]bool, kind Kind) (types.RecommendationItem, bool) {
	candidates := unusedItems(pool, used)
	if len(candidates) == 0 {
		return types.RecommendationItem{}, false
	}

	switch kind {
	case KindAdjacentDiscovery, KindGenreBending:
		if item, ok := e.pickByAdjacency(ctx, candidates); ok {
			return item, true
		}
		return candidates[0], true
	case KindHiddenGem:
		return pickLowestPopularityHighestQuality(candidates), true
	default:
		return candidates[0], true
	}
}

func (e *Engine) pickByAdjacency(ctx context.Context, candidates []types.RecommendationItem) (types.RecommendationItem, bool) {
	if e.adjacency == nil || len(candidates) == 0 {
		return types.RecommendationItem{}, false
	}
	seed := topGenre(candidates[0])
	if seed == "" {
		return types.RecommendationItem{}, false
	}
	related, err := e.adjacency.Related(ctx, seed, 5)
	if err != nil || len(related) == 0 {
		return types.RecommendationItem{}, false
	}
	relatedSet := map[string]bool{}
	for _, g := range related {
		relatedSet[g] = true
	}
	for _, item := range candidates {
		for _, g := range item.GenreTags {
			if relatedSet[g] {
				return item, true
			}
		}
	}
	return types.RecommendationItem{}, false
}

func topGenre(item types.RecommendationItem) string {
	if len(item.GenreTags) == 0 {
		return ""
	}
	return item.GenreTags[0]
}

func pickLowestPopularityHighestQuality(candidates []types.RecommendationItem) types.RecommendationItem {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.PopularityScore < best.PopularityScore ||
			(c.PopularityScore == best.PopularityScore && c.QualityScore > best.QualityScore) {
			best = c
		}
	}
	return best
}

func unusedItems(pool []types.RecommendationItem, used map[string]bool) []types.RecommendationItem {
	out := make([]types.RecommendationItem, 0, len(pool))
	for _, item := range pool {
		if !used[item.ID] {
			out = append(out, item)
		}
	}
	return out
}

func withSurpriseMetadata(item types.RecommendationItem, kind Kind, confidence int) types.RecommendationItem {
	item.IsSurprise = true
	item.SurpriseKind = string(kind)
	item.SurpriseReason = reasonFor(kind)
	item.SurpriseConfidence = confidence
	return item
}

func reasonFor(kind Kind) string {
	switch kind {
	case KindHiddenGem:
		return "a quality pick that hasn't found its audience yet"
	case KindAdjacentDiscovery:
		return "close to what you like, one step sideways"
	case KindWildcard:
		return "a total departure, for the adventurous"
	case KindTimeCapsule:
		return "an older pick worth rediscovering"
	case KindForeignSurprise:
		return "a well-regarded pick from outside the usual catalog"
	case KindGenreBending:
		return "blends genres in a way you haven't tried"
	default:
		return "worth a look"
	}
}

func confidenceFor(kind Kind) int {
	switch kind {
	case KindHiddenGem:
		return 70
	case KindAdjacentDiscovery:
		return 80
	case KindWildcard:
		return 45
	case KindTimeCapsule:
		return 60
	case KindForeignSurprise:
		return 55
	case KindGenreBending:
		return 65
	default:
		return 50
	}
}

// merge places the first three slots at ranks 3, 6, 8 (1-based) — the
// fixed strategic-mix ranks — before any non-surprise candidate reaches
// those positions. Any slots beyond the first three (count is capped at
// 40% of list length, so this is rare on short lists but possible on long
// ones) are appended immediately after rank 8. Remaining positions are
// filled from expected in order, skipping anything a slot already
// claimed by ID. If expected runs out before a strategic rank is reached,
// the slots still waiting follow the last expected item in rank order.
func merge(expected []types.RecommendationItem, slots []Slot) []types.RecommendationItem {
	claimed := map[string]bool{}
	for _, s := range slots {
		claimed[s.Item.ID] = true
	}

	expectedQueue := make([]types.RecommendationItem, 0, len(expected))
	for _, item := range expected {
		if !claimed[item.ID] {
			expectedQueue = append(expectedQueue, item)
		}
	}

	ranks := append([]int(nil), strategicMixRanks...)
	sort.Ints(ranks)

	slotAtRank := map[int]Slot{}
	numMixed := len(slots)
	if numMixed > len(ranks) {
		numMixed = len(ranks)
	}
	for i := 0; i < numMixed; i++ {
		slotAtRank[ranks[i]] = slots[i]
	}
	overflow := slots[numMixed:]

	total := len(expectedQueue) + len(slots)
	out := make([]types.RecommendationItem, 0, total)
	expectedIdx, overflowIdx := 0, 0
	lastMixRank := 0
	if len(ranks) > 0 {
		lastMixRank = ranks[len(ranks)-1]
	}

	for rank := 1; len(out) < total; rank++ {
		if slot, ok := slotAtRank[rank]; ok {
			out = append(out, slot.Item)
			continue
		}
		if rank == lastMixRank+1 {
			for overflowIdx < len(overflow) {
				out = append(out, overflow[overflowIdx].Item)
				overflowIdx++
			}
		}
		if expectedIdx < len(expectedQueue) {
			out = append(out, expectedQueue[expectedIdx])
			expectedIdx++
			continue
		}
		for r := rank + 1; r <= lastMixRank; r++ {
			if slot, ok := slotAtRank[r]; ok {
				out = append(out, slot.Item)
			}
		}
		for overflowIdx < len(overflow) {
			out = append(out, overflow[overflowIdx].Item)
			overflowIdx++
		}
		break
	}

	return out
}

// ValidateKind reports an error if kind isn't in the closed set — used by
// analytics/logging call sites that receive it as a string from
// configuration or replay data.
func ValidateKind(kind string) error {
	for _, k := range allKinds {
		if string(k) == kind {
			return nil
		}
	}
	return fmt.Errorf("surprise: unknown kind %q", kind)
}
