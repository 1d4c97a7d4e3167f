package catalog

import "github.com/nyx-moment/moment/internal/types"

// BuiltinQuestions returns the built-in fallback question set used when the
// backing store is unavailable. The set is deliberately domain-agnostic —
// every supported domain gets the same five-question standard flow, since
// the fallback exists to keep the pipeline alive, not to be tailored.
func BuiltinQuestions(domain types.Domain) []types.Question {
	_ = domain
	return []types.Question{
		{
			ID:      "energy_level",
			Ordinal: 1,
			Prompt:  "How's your energy right now?",
			Options: []types.Option{
				{ID: "drained", Text: "Running on empty", TraitWeights: map[string]float64{"slow_paced": 0.8, "comforting": 0.6}},
				{ID: "neutral", Text: "Steady", TraitWeights: map[string]float64{"balanced": 0.7}},
				{ID: "energized", Text: "Wide awake", TraitWeights: map[string]float64{"fast_paced": 0.8, "intense": 0.5}},
			},
		},
		{
			ID:      "mood_today",
			Ordinal: 2,
			Prompt:  "What's the vibe?",
			Options: []types.Option{
				{ID: "melancholic", Text: "Reflective", TraitWeights: map[string]float64{"introspective": 0.8, "quiet": 0.5}},
				{ID: "content", Text: "Easygoing", TraitWeights: map[string]float64{"warm": 0.7}},
				{ID: "adventurous", Text: "Restless", TraitWeights: map[string]float64{"bold": 0.8, "energetic": 0.6}},
			},
		},
		{
			ID:      "openness_today",
			Ordinal: 3,
			Prompt:  "Familiar favorite or something new?",
			Options: []types.Option{
				{ID: "comfort_zone", Text: "Give me the familiar", TraitWeights: map[string]float64{"familiar": 0.9}},
				{ID: "exploring", Text: "I'm open to discovering", TraitWeights: map[string]float64{"novel": 0.6}},
				{ID: "experimental", Text: "Surprise me completely", TraitWeights: map[string]float64{"novel": 0.9, "unconventional": 0.8}},
			},
		},
		{
			ID:      "attention_level",
			Ordinal: 4,
			Prompt:  "How much attention can you give this?",
			Options: []types.Option{
				{ID: "background", Text: "Something to have on", TraitWeights: map[string]float64{"light": 0.7}, FilterHints: map[string]any{"maxRuntimeMinutes": 120}},
				{ID: "casual", Text: "Half paying attention", TraitWeights: map[string]float64{"light": 0.4}},
				{ID: "full_focus", Text: "Fully locked in", TraitWeights: map[string]float64{"immersive": 0.8}, FilterHints: map[string]any{"minRating": 7.0}},
			},
		},
		{
			ID:      "discovery_mode",
			Ordinal: 5,
			Prompt:  "Reliable pick or roll the dice?",
			Options: []types.Option{
				{ID: "reliable", Text: "Something I know I'll like", TraitWeights: map[string]float64{"safe": 0.8}, FilterHints: map[string]any{"minRating": 6.5, "minVoteCount": 100}},
				{ID: "balanced", Text: "A mix of both", TraitWeights: map[string]float64{"balanced": 0.6}},
				{ID: "surprise", Text: "Take a chance on me", TraitWeights: map[string]float64{"bold": 0.8}, FilterHints: map[string]any{"maxPopularity": 50.0}},
			},
		},
	}
}
