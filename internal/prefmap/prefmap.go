// Package prefmap implements the Preference Mapper (C4): a pure,
// deterministic function from an answer set, domain, and context to a
// retrieval query text, a Filter Predicate, and an Emotional Profile.
// Uses an ordered composition of fixed template fragments into one
// string, the same prompt-assembly idiom applied to retrieval-query
// assembly instead of LLM prompts.
package prefmap

import (
	"context"
	"sort"
	"strings"

	"github.com/nyx-moment/moment/internal/catalog"
	"github.com/nyx-moment/moment/internal/types"
)

// serendipityPopularityCeiling is the fixed resolution of the Open
// Question on the serendipity factor: 0.10, documented once here. It widens
// (raises) the discovery_mode=surprise popularity ceiling so low-popularity
// candidates aren't excluded quite as aggressively as the base rule alone
// would exclude them.
const serendipityPopularityCeiling = 50.0 * (1 + 0.10)

// Mapper turns a session's answers into the three artifacts the
// Orchestrator needs for retrieval, filtering, and surprise/validation.
type Mapper struct {
	catalog *catalog.Store
}

// NewMapper wraps the Question Catalog whose options define trait weights
// and filter hints.
func NewMapper(store *catalog.Store) *Mapper {
	return &Mapper{catalog: store}
}

// Output bundles the Preference Mapper's deterministic artifacts.
type Output struct {
	QueryText string
	Filter    types.FilterPredicate
	Profile   types.EmotionalProfile

	// TraitWeights is the sum of every answered option's trait weights,
	// keyed by trait name. The Embedding Cache's fallback vector consumes
	// this directly so it never has to re-resolve answers against the
	// catalog itself.
	TraitWeights map[string]float64
}

// Map is a total function: any combination of present/absent answers
// produces a valid Output.
func (m *Mapper) Map(ctx context.Context, domain types.Domain, answers []types.Answer, reqCtx types.RequestContext) Output {
	questions, _ := m.catalog.GetQuestions(ctx, domain)
	optionsByQuestion := indexOptions(questions)
	answerMap := answerOptionMap(answers)

	return Output{
		QueryText:    buildQueryText(questions, optionsByQuestion, answerMap),
		Filter:       buildFilter(questions, optionsByQuestion, answerMap, reqCtx),
		Profile:      buildProfile(answerMap),
		TraitWeights: aggregateTraitWeights(questions, optionsByQuestion, answerMap),
	}
}

// aggregateTraitWeights sums every answered option's trait weights by
// trait name, iterating in question-ordinal order so float64 summation
// order is stable regardless of the input answers' original order.
func aggregateTraitWeights(questions []types.Question, optionsByQuestion map[string]map[string]types.Option, answerMap map[string]string) map[string]float64 {
	ordered := append([]types.Question(nil), questions...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Ordinal < ordered[j].Ordinal })

	out := map[string]float64{}
	for _, q := range ordered {
		optionID, answered := answerMap[q.ID]
		if !answered {
			continue
		}
		opt, ok := optionsByQuestion[q.ID][optionID]
		if !ok {
			continue
		}
		for trait, weight := range opt.TraitWeights {
			out[trait] += weight
		}
	}
	return out
}

func indexOptions(questions []types.Question) map[string]map[string]types.Option {
	out := make(map[string]map[string]types.Option, len(questions))
	for _, q := range questions {
		opts := make(map[string]types.Option, len(q.Options))
		for _, o := range q.Options {
			opts[o.ID] = o
		}
		out[q.ID] = opts
	}
	return out
}

func answerOptionMap(answers []types.Answer) map[string]string {
	out := make(map[string]string, len(answers))
	for _, a := range answers {
		out[a.QuestionID] = a.OptionID
	}
	return out
}

// buildQueryText composes trait clauses in stable question-ordinal order,
// one clause per answered question.
func buildQueryText(questions []types.Question, optionsByQuestion map[string]map[string]types.Option, answerMap map[string]string) string {
	ordered := append([]types.Question(nil), questions...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Ordinal < ordered[j].Ordinal })

	var clauses []string
	for _, q := range ordered {
		optionID, answered := answerMap[q.ID]
		if !answered {
			continue
		}
		opt, ok := optionsByQuestion[q.ID][optionID]
		if !ok {
			continue
		}
		if clause := traitClause(opt); clause != "" {
			clauses = append(clauses, clause)
		}
	}
	if len(clauses) == 0 {
		return "a great movie to watch right now"
	}
	return "looking for something " + strings.Join(clauses, ", ")
}

// traitClause renders an option's trait weights as a stable, sorted
// comma-joined phrase (e.g. "bold, energetic") so the same option always
// contributes the same text regardless of map iteration order.
func traitClause(opt types.Option) string {
	if len(opt.TraitWeights) == 0 {
		return strings.ToLower(opt.Text)
	}
	traits := make([]string, 0, len(opt.TraitWeights))
	for trait := range opt.TraitWeights {
		traits = append(traits, trait)
	}
	sort.Strings(traits)
	for i, t := range traits {
		traits[i] = strings.ReplaceAll(t, "_", " ")
	}
	return strings.Join(traits, " and ")
}

// buildFilter assembles option-level filter hints and context rules into
// one merged predicate, applied in a fixed order so the result never
// depends on answer submission order.
func buildFilter(questions []types.Question, optionsByQuestion map[string]map[string]types.Option, answerMap map[string]string, reqCtx types.RequestContext) types.FilterPredicate {
	var filter types.FilterPredicate

	for _, q := range questions {
		optionID, answered := answerMap[q.ID]
		if !answered {
			continue
		}
		opt, ok := optionsByQuestion[q.ID][optionID]
		if !ok {
			continue
		}
		filter = filter.Merge(hintsToFilter(opt.FilterHints))
	}

	filter = filter.Merge(contextFilter(reqCtx))
	return filter
}

func hintsToFilter(hints map[string]any) types.FilterPredicate {
	var f types.FilterPredicate
	if hints == nil {
		return f
	}
	if v, ok := asInt(hints["minReleaseYear"]); ok {
		f.MinReleaseYear = v
	}
	if v, ok := asInt(hints["maxReleaseYear"]); ok {
		f.MaxReleaseYear = v
	}
	if v, ok := asFloat(hints["minRating"]); ok {
		f.MinRating = v
	}
	if v, ok := asInt(hints["maxRuntimeMinutes"]); ok {
		f.MaxRuntimeMinutes = v
	}
	if v, ok := asInt(hints["minRuntimeMinutes"]); ok {
		f.MinRuntimeMinutes = v
	}
	if v, ok := asInt(hints["minVoteCount"]); ok {
		f.MinVoteCount = v
	}
	if v, ok := asFloat(hints["minPopularity"]); ok {
		f.MinPopularity = v
	}
	if v, ok := asFloat(hints["maxPopularity"]); ok {
		f.MaxPopularity = v
	}
	if v, ok := hints["excludeGenres"].([]string); ok {
		f.ExcludeGenres = v
	} else if v, ok := hints["excludeGenres"].([]any); ok {
		f.ExcludeGenres = toStringSlice(v)
	}
	if v, ok := hints["includeGenres"].([]string); ok {
		f.IncludeGenres = v
	} else if v, ok := hints["includeGenres"].([]any); ok {
		f.IncludeGenres = toStringSlice(v)
	}
	return f
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

func toStringSlice(v []any) []string {
	out := make([]string, 0, len(v))
	for _, item := range v {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// contextFilter implements the named context rules.
func contextFilter(ctx types.RequestContext) types.FilterPredicate {
	var f types.FilterPredicate

	switch ctx.AttentionLevel {
	case "background":
		f.MaxRuntimeMinutes = 120
	case "full_focus":
		f.MinRating = 7.0
	}

	switch ctx.DiscoveryMode {
	case "reliable":
		f.MinRating = 6.5
		f.MinVoteCount = 100
	case "surprise":
		f.MaxPopularity = serendipityPopularityCeiling
	}

	if ctx.PersonalContext == "escaping" {
		f.ExcludeGenres = []string{"documentary", "biography"}
	}

	if ctx.TimeOfDay == types.TimeLateNight {
		f.MaxRuntimeMinutes = 150
	}

	return f
}

// buildProfile derives each EmotionalProfile axis from a specific answer,
// falling back to the default profile axis when that answer is absent.
func buildProfile(answerMap map[string]string) types.EmotionalProfile {
	profile := types.DefaultEmotionalProfile()

	if opt, ok := answerMap["energy_level"]; ok {
		if e, known := energyFromOption(opt); known {
			profile.Energy = e
		}
	}
	if opt, ok := answerMap["mood_today"]; ok {
		if md, known := moodFromOption(opt); known {
			profile.Mood = md
		}
	}
	if opt, ok := answerMap["openness_today"]; ok {
		if o, known := opennessFromOption(opt); known {
			profile.Openness = o
		}
	}
	if opt, ok := answerMap["attention_level"]; ok {
		if fo, known := focusFromOption(opt); known {
			profile.Focus = fo
		}
	}

	return profile
}

func energyFromOption(optionID string) (types.Energy, bool) {
	switch optionID {
	case "drained":
		return types.EnergyDrained, true
	case "neutral":
		return types.EnergyNeutral, true
	case "energized":
		return types.EnergyEnergized, true
	default:
		return "", false
	}
}

func moodFromOption(optionID string) (types.Mood, bool) {
	switch optionID {
	case "melancholic":
		return types.MoodMelancholic, true
	case "content":
		return types.MoodContent, true
	case "adventurous":
		return types.MoodAdventurous, true
	default:
		return "", false
	}
}

func opennessFromOption(optionID string) (types.Openness, bool) {
	switch optionID {
	case "comfort_zone":
		return types.OpennessComfortZone, true
	case "exploring":
		return types.OpennessExploring, true
	case "experimental":
		return types.OpennessExperimental, true
	default:
		return "", false
	}
}

func focusFromOption(optionID string) (types.Focus, bool) {
	switch optionID {
	case "background":
		return types.FocusScattered, true
	case "casual":
		return types.FocusPresent, true
	case "full_focus":
		return types.FocusImmersed, true
	default:
		return "", false
	}
}
