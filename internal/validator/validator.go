// Package validator implements the Validator (C10): scores an enriched,
// surprise-merged recommendation list against the user's emotional
// profile and produces the moment summary shown alongside it. Uses a
// weighted-scalar scoring idiom: fixed-weight linear combinations applied
// to recommendation-list quality scoring.
package validator

import (
	"math"

	"github.com/nyx-moment/moment/internal/types"
)

// Validator computes the three weighted scalars and the moment summary.
type Validator struct{}

// New returns a stateless Validator.
func New() *Validator {
	return &Validator{}
}

// Score computes the Validator's output for a final recommendation list.
func (v *Validator) Score(items []types.RecommendationItem, profile types.EmotionalProfile, degraded bool) types.ValidationResult {
	emotional := emotionalMatch(items, profile)
	diversity := diversityScore(items)
	surpriseQuality := surpriseQualityScore(items)

	overall := int(math.Round(100 * (0.4*emotional + 0.3*diversity + 0.3*surpriseQuality)))
	overall = clampInt(overall, 0, 100)

	return types.ValidationResult{
		EmotionalMatch:  emotional,
		Diversity:       diversity,
		SurpriseQuality: surpriseQuality,
		Overall:         overall,
		Degraded:        degraded,
		Moment:          momentSummary(profile, overall),
	}
}

// emotionalMatch derives coarse traits from each item's genres and quality
// band, compares them to the profile, and averages the per-item match.
func emotionalMatch(items []types.RecommendationItem, profile types.EmotionalProfile) float64 {
	if len(items) == 0 {
		return 0
	}
	var sum float64
	for _, item := range items {
		sum += itemMatch(item, profile)
	}
	return sum / float64(len(items))
}

// itemMatch scores one item in [0,1] against the profile's four axes,
// using coarse genre/quality-band signals since items have no direct
// trait-weight data of their own (that belongs to catalog questions, not
// catalog items).
func itemMatch(item types.RecommendationItem, profile types.EmotionalProfile) float64 {
	var hits, checks float64

	checks++
	if energyMatches(item, profile.Energy) {
		hits++
	}
	checks++
	if moodMatches(item, profile.Mood) {
		hits++
	}
	checks++
	if opennessMatches(item, profile.Openness) {
		hits++
	}
	checks++
	if focusMatches(item, profile.Focus) {
		hits++
	}

	return hits / checks
}

func hasGenre(item types.RecommendationItem, genres ...string) bool {
	set := map[string]bool{}
	for _, g := range item.GenreTags {
		set[g] = true
	}
	for _, want := range genres {
		if set[want] {
			return true
		}
	}
	return false
}

func energyMatches(item types.RecommendationItem, energy types.Energy) bool {
	switch energy {
	case types.EnergyDrained:
		return item.RuntimeMinutes <= 120 && !hasGenre(item, "action", "thriller")
	case types.EnergyEnergized:
		return hasGenre(item, "action", "adventure", "thriller")
	default:
		return true
	}
}

func moodMatches(item types.RecommendationItem, mood types.Mood) bool {
	switch mood {
	case types.MoodMelancholic:
		return hasGenre(item, "drama", "biography")
	case types.MoodAdventurous:
		return hasGenre(item, "adventure", "action", "sci-fi", "fantasy")
	default:
		return true
	}
}

func opennessMatches(item types.RecommendationItem, openness types.Openness) bool {
	switch openness {
	case types.OpennessExperimental:
		return item.IsSurprise
	case types.OpennessComfortZone:
		return !item.IsSurprise && item.QualityScore >= 7.0
	default:
		return true
	}
}

func focusMatches(item types.RecommendationItem, focus types.Focus) bool {
	switch focus {
	case types.FocusScattered:
		return item.RuntimeMinutes <= 120
	case types.FocusImmersed:
		return item.QualityScore >= 7.5
	default:
		return true
	}
}

// qualityBand buckets a 0-10 quality score into three coarse bands, used
// by diversity's distinct-rating-band axis.
func qualityBand(score float64) string {
	switch {
	case score >= 7.5:
		return "high"
	case score >= 5.5:
		return "mid"
	default:
		return "low"
	}
}

func decadeOf(releaseYear int) int {
	return (releaseYear / 10) * 10
}

// styleOf is a coarse style bucket derived from runtime, a cheap stand-in
// for a dedicated "style" catalog field this domain doesn't model.
func styleOf(item types.RecommendationItem) string {
	switch {
	case item.RuntimeMinutes <= 0:
		return "unknown"
	case item.RuntimeMinutes < 90:
		return "short"
	case item.RuntimeMinutes <= 150:
		return "standard"
	default:
		return "epic"
	}
}

// diversityScore is the weighted combination: distinct-genre (0.3),
// distinct-decade (0.2), distinct-style (0.2), distinct-rating-band
// (0.2), surprise ratio (0.1), each normalized by list length.
func diversityScore(items []types.RecommendationItem) float64 {
	if len(items) == 0 {
		return 0
	}

	genres := map[string]bool{}
	decades := map[int]bool{}
	styles := map[string]bool{}
	bands := map[string]bool{}
	var surprises int

	for _, item := range items {
		for _, g := range item.GenreTags {
			genres[g] = true
		}
		decades[decadeOf(item.ReleaseYear)] = true
		styles[styleOf(item)] = true
		bands[qualityBand(item.QualityScore)] = true
		if item.IsSurprise {
			surprises++
		}
	}

	n := float64(len(items))
	genreScore := normalizedCount(len(genres), n)
	decadeScore := normalizedCount(len(decades), n)
	styleScore := normalizedCount(len(styles), n)
	bandScore := normalizedCount(len(bands), n)
	surpriseRatio := float64(surprises) / n

	score := 0.3*genreScore + 0.2*decadeScore + 0.2*styleScore + 0.2*bandScore + 0.1*surpriseRatio
	return clampFloat(score, 0, 1)
}

func normalizedCount(distinct int, total float64) float64 {
	if total == 0 {
		return 0
	}
	return clampFloat(float64(distinct)/total, 0, 1)
}

// surpriseQualityScore averages per-surprise quality, itself a function of
// confidence (scaled to [0,1]) and a fixed per-kind quality multiplier.
func surpriseQualityScore(items []types.RecommendationItem) float64 {
	var sum float64
	var count int
	for _, item := range items {
		if !item.IsSurprise {
			continue
		}
		count++
		sum += perSurpriseQuality(item.SurpriseConfidence, item.SurpriseKind)
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func perSurpriseQuality(confidence int, kind string) float64 {
	multiplier := kindQualityMultiplier(kind)
	return clampFloat(float64(confidence)/100*multiplier, 0, 1)
}

func kindQualityMultiplier(kind string) float64 {
	switch kind {
	case "hidden_gem", "adjacent_discovery":
		return 1.0
	case "genre_bending", "time_capsule", "foreign_surprise":
		return 0.9
	case "wildcard":
		return 0.75
	default:
		return 0.8
	}
}

// momentSummary produces the short human-facing description, an emoji, the
// confidence percent (the overall score, reused directly), and the
// five-axis radar payload.
func momentSummary(profile types.EmotionalProfile, overall int) types.MomentSummary {
	return types.MomentSummary{
		Description: describeProfile(profile),
		Emoji:       emojiForProfile(profile),
		Confidence:  overall,
		Radar:       radarFor(profile),
	}
}

func describeProfile(p types.EmotionalProfile) string {
	return energyAdjective(p.Energy) + ", " + moodAdjective(p.Mood) + " moment, " + opennessAdjective(p.Openness) + " to something " + focusAdjective(p.Focus)
}

func energyAdjective(e types.Energy) string {
	switch e {
	case types.EnergyDrained:
		return "a low-energy"
	case types.EnergyEnergized:
		return "a high-energy"
	default:
		return "a steady"
	}
}

func moodAdjective(m types.Mood) string {
	switch m {
	case types.MoodMelancholic:
		return "reflective"
	case types.MoodAdventurous:
		return "restless"
	default:
		return "easygoing"
	}
}

func opennessAdjective(o types.Openness) string {
	switch o {
	case types.OpennessComfortZone:
		return "sticking close"
	case types.OpennessExperimental:
		return "wide open"
	default:
		return "open"
	}
}

func focusAdjective(f types.Focus) string {
	switch f {
	case types.FocusScattered:
		return "easy to half-watch"
	case types.FocusImmersed:
		return "worth your full attention"
	default:
		return "easy to settle into"
	}
}

func emojiForProfile(p types.EmotionalProfile) string {
	switch {
	case p.Energy == types.EnergyDrained:
		return "🛋️"
	case p.Mood == types.MoodAdventurous:
		return "🎢"
	case p.Openness == types.OpennessExperimental:
		return "🌀"
	case p.Focus == types.FocusImmersed:
		return "🎬"
	default:
		return "🍿"
	}
}

// radarFor maps the four categorical axes onto five fixed [0,1] radar
// axes (energy, positivity, openness, focus, adventurousness). Two axes
// (positivity, adventurousness) are derived composites since the
// profile's own four axes don't map one-to-one onto five radar axes.
func radarFor(p types.EmotionalProfile) []types.RadarAxis {
	axes := []types.RadarAxis{
		{Axis: "energy", Value: axisValue(string(p.Energy), map[string]float64{
			string(types.EnergyDrained): 0.2, string(types.EnergyNeutral): 0.5, string(types.EnergyEnergized): 0.9,
		})},
		{Axis: "positivity", Value: axisValue(string(p.Mood), map[string]float64{
			string(types.MoodMelancholic): 0.3, string(types.MoodContent): 0.6, string(types.MoodAdventurous): 0.8,
		})},
		{Axis: "openness", Value: axisValue(string(p.Openness), map[string]float64{
			string(types.OpennessComfortZone): 0.2, string(types.OpennessExploring): 0.6, string(types.OpennessExperimental): 0.9,
		})},
		{Axis: "focus", Value: axisValue(string(p.Focus), map[string]float64{
			string(types.FocusScattered): 0.3, string(types.FocusPresent): 0.6, string(types.FocusImmersed): 0.9,
		})},
		{Axis: "adventurousness", Value: axisValue(string(p.Openness)+":"+string(p.Mood), map[string]float64{}, adventurousnessFallback(p))},
	}
	return axes
}

func axisValue(key string, table map[string]float64, fallback ...float64) float64 {
	if v, ok := table[key]; ok {
		return v
	}
	if len(fallback) > 0 {
		return fallback[0]
	}
	return 0.5
}

func adventurousnessFallback(p types.EmotionalProfile) float64 {
	score := 0.4
	if p.Openness == types.OpennessExperimental {
		score += 0.3
	}
	if p.Mood == types.MoodAdventurous {
		score += 0.2
	}
	return clampFloat(score, 0, 1)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
