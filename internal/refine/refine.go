// Package refine implements the Refinement Engine (C11): pattern
// detection over per-item reactions, closed-set strategy selection, and
// the fixed delta table each strategy carries. Uses the same closed-set
// rule-table dispatch idiom as internal/surprise and internal/prefmap,
// applied to feedback-driven filter-and-trait-delta selection.
package refine

import (
	"sort"
	"strings"

	"github.com/nyx-moment/moment/internal/refine/tokenize"
	"github.com/nyx-moment/moment/internal/types"
)

// namedActionOverride maps the four named refine actions directly onto a
// strategy, bypassing pattern detection entirely, per the "named action
// wins if provided" rule.
var namedActionOverride = map[string]types.RefinementStrategy{
	"too_intense":    types.StrategyTooIntense,
	"too_light":      types.StrategyNotIntenseEnough,
	"more_like_this": types.StrategyHiddenDesire,
	"try_different":  types.StrategyNeedVariety,
}

// themeTrigger maps a closed vocabulary of themes (extracted from tags and
// free text by tokenize.Themes) onto the strategy that theme implies,
// checked before falling back to the like/dislike balance rule.
var themeTrigger = map[string]types.RefinementStrategy{
	"too_dark":     types.StrategyTooIntense,
	"too_violent":  types.StrategyTooIntense,
	"too_slow":     types.StrategyNotIntenseEnough,
	"too_boring":   types.StrategyNotIntenseEnough,
	"wrong_mood":   types.StrategyWrongEnergy,
	"wrong_vibe":   types.StrategyWrongEnergy,
	"wrong_genre":  types.StrategyGenreMismatch,
	"more_of_this": types.StrategyHiddenDesire,
	"repetitive":   types.StrategyNeedVariety,
}

// delta is the fixed table of strategy → (filter overlay, trait delta,
// explanation) entries; each strategy carries a deterministic delta.
type delta struct {
	filter      types.FilterPredicate
	traitDelta  map[string]float64
	explanation string
}

var deltaTable = map[types.RefinementStrategy]delta{
	types.StrategyTooIntense: {
		filter:      types.FilterPredicate{ExcludeGenres: []string{"horror", "thriller"}},
		traitDelta:  map[string]float64{"intense": -0.5, "comforting": 0.3},
		explanation: "dialing back the intensity and steering away from horror/thriller",
	},
	types.StrategyNotIntenseEnough: {
		filter:      types.FilterPredicate{MinRating: 7.0},
		traitDelta:  map[string]float64{"intense": 0.5, "bold": 0.3},
		explanation: "turning up the intensity and picking bolder picks",
	},
	types.StrategyWrongEnergy: {
		traitDelta:  map[string]float64{"balanced": 0.4},
		explanation: "recalibrating toward your actual energy level",
	},
	types.StrategyGenreMismatch: {
		traitDelta:  map[string]float64{"familiar": 0.3},
		explanation: "shifting genre mix back toward what's landed with you before",
	},
	types.StrategyHiddenDesire: {
		traitDelta:  map[string]float64{"novel": 0.2},
		explanation: "leaning further into what you've been responding well to",
	},
	types.StrategyNeedVariety: {
		traitDelta:  map[string]float64{"novel": 0.4, "unconventional": 0.3},
		explanation: "widening the mix so it doesn't feel repetitive",
	},
}

// Result is the Refinement Engine's per-call output.
type Result struct {
	Strategy    types.RefinementStrategy
	Delta       types.FilterPredicate
	TraitDelta  map[string]float64
	Confidence  int
	Explanation string
}

// Engine selects a strategy and its fixed delta for one Refine call.
type Engine struct{}

// New returns a stateless Engine.
func New() *Engine {
	return &Engine{}
}

// Select implements the strategy-selection precedence: named action wins,
// else theme-pattern match, else like/dislike balance.
func (e *Engine) Select(reactions []types.Reaction, namedAction string) Result {
	strategy := e.selectStrategy(reactions, namedAction)
	d := deltaTable[strategy]
	return Result{
		Strategy:    strategy,
		Delta:       d.filter,
		TraitDelta:  d.traitDelta,
		Confidence:  confidenceFor(strategy, reactions),
		Explanation: d.explanation,
	}
}

func (e *Engine) selectStrategy(reactions []types.Reaction, namedAction string) types.RefinementStrategy {
	if namedAction != "" {
		if strategy, ok := namedActionOverride[namedAction]; ok {
			return strategy
		}
	}

	if strategy, ok := matchThemeTrigger(reactions); ok {
		return strategy
	}

	return defaultByBalance(reactions)
}

// matchThemeTrigger extracts closed-vocabulary themes from every
// reaction's tags and free text and returns the first triggered strategy,
// checked in a fixed theme order so the result never depends on map or
// input iteration order.
func matchThemeTrigger(reactions []types.Reaction) (types.RefinementStrategy, bool) {
	themes := map[string]bool{}
	for _, r := range reactions {
		for _, t := range tokenize.Themes(r.Tags, r.Text) {
			themes[t] = true
		}
	}

	orderedThemes := make([]string, 0, len(themeTrigger))
	for theme := range themeTrigger {
		orderedThemes = append(orderedThemes, theme)
	}
	sort.Strings(orderedThemes)

	for _, theme := range orderedThemes {
		if themes[theme] {
			return themeTrigger[theme], true
		}
	}
	return "", false
}

// defaultByBalance applies the like/dislike balance fallback: more likes
// → hiddenDesire; more dislikes → genreMismatch; else needVariety.
func defaultByBalance(reactions []types.Reaction) types.RefinementStrategy {
	var likes, dislikes int
	for _, r := range reactions {
		switch r.Reaction {
		case types.ReactionLove, types.ReactionLike:
			likes++
		case types.ReactionDislike, types.ReactionHate:
			dislikes++
		}
	}
	switch {
	case likes > dislikes:
		return types.StrategyHiddenDesire
	case dislikes > likes:
		return types.StrategyGenreMismatch
	default:
		return types.StrategyNeedVariety
	}
}

// confidenceFor scales a base per-strategy confidence by how many
// reactions informed the decision, capped at 95 (refinement is never
// presented as a certainty).
func confidenceFor(strategy types.RefinementStrategy, reactions []types.Reaction) int {
	base := 60
	switch strategy {
	case types.StrategyTooIntense, types.StrategyNotIntenseEnough:
		base = 75
	case types.StrategyGenreMismatch, types.StrategyHiddenDesire:
		base = 65
	}
	boost := len(reactions) * 3
	confidence := base + boost
	if confidence > 95 {
		confidence = 95
	}
	return confidence
}

// GenreSignal aggregates liked-vs-disliked genres across reactions,
// reported on the refinement analytics event; the Refinement Engine's own
// strategy selection only needs themeTrigger/defaultByBalance.
func GenreSignal(reactions []types.Reaction, itemGenres map[string][]string) (liked, disliked map[string]int) {
	liked = map[string]int{}
	disliked = map[string]int{}
	for _, r := range reactions {
		genres := itemGenres[r.ItemID]
		switch r.Reaction {
		case types.ReactionLove, types.ReactionLike:
			for _, g := range genres {
				liked[strings.ToLower(g)]++
			}
		case types.ReactionDislike, types.ReactionHate:
			for _, g := range genres {
				disliked[strings.ToLower(g)]++
			}
		}
	}
	return liked, disliked
}
