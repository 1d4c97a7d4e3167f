package types

// FilterPredicate is a conjunction of closed-set constraints used both to
// shape retrieval (translated to the index's metadata-filter dialect) and
// to locally filter the catalog-backed fallback. An empty predicate matches
// everything.
type FilterPredicate struct {
	MinReleaseYear int `json:"minReleaseYear,omitempty"`
	MaxReleaseYear int `json:"maxReleaseYear,omitempty"`

	MinRating float64 `json:"minRating,omitempty"`

	MaxRuntimeMinutes int `json:"maxRuntimeMinutes,omitempty"`
	MinRuntimeMinutes int `json:"minRuntimeMinutes,omitempty"`

	MinVoteCount int `json:"minVoteCount,omitempty"`

	MinPopularity float64 `json:"minPopularity,omitempty"`
	MaxPopularity float64 `json:"maxPopularity,omitempty"`

	IncludeGenres []string `json:"includeGenres,omitempty"`
	ExcludeGenres []string `json:"excludeGenres,omitempty"`
}

// Matches reports whether a Candidate satisfies every constraint in p.
func (p FilterPredicate) Matches(c Candidate) bool {
	if p.MinReleaseYear != 0 && c.ReleaseYear < p.MinReleaseYear {
		return false
	}
	if p.MaxReleaseYear != 0 && c.ReleaseYear > p.MaxReleaseYear {
		return false
	}
	if p.MinRating != 0 && c.QualityScore < p.MinRating {
		return false
	}
	if p.MaxRuntimeMinutes != 0 && c.RuntimeMinutes > p.MaxRuntimeMinutes {
		return false
	}
	if p.MinRuntimeMinutes != 0 && c.RuntimeMinutes < p.MinRuntimeMinutes {
		return false
	}
	if p.MinVoteCount != 0 && c.VoteCount < p.MinVoteCount {
		return false
	}
	if p.MinPopularity != 0 && c.PopularityScore < p.MinPopularity {
		return false
	}
	if p.MaxPopularity != 0 && c.PopularityScore > p.MaxPopularity {
		return false
	}
	if len(p.IncludeGenres) > 0 && !anyGenreMatches(p.IncludeGenres, c.GenreTags) {
		return false
	}
	if len(p.ExcludeGenres) > 0 && anyGenreMatches(p.ExcludeGenres, c.GenreTags) {
		return false
	}
	return true
}

func anyGenreMatches(set []string, genres []string) bool {
	for _, want := range set {
		for _, have := range genres {
			if want == have {
				return true
			}
		}
	}
	return false
}

// Merge overlays non-zero fields of o on top of p, returning a new
// predicate. Used by Refinement and Quick-Adjust to layer deltas onto the
// session's base filter.
func (p FilterPredicate) Merge(o FilterPredicate) FilterPredicate {
	out := p
	if o.MinReleaseYear != 0 {
		out.MinReleaseYear = o.MinReleaseYear
	}
	if o.MaxReleaseYear != 0 {
		out.MaxReleaseYear = o.MaxReleaseYear
	}
	if o.MinRating != 0 {
		out.MinRating = o.MinRating
	}
	if o.MaxRuntimeMinutes != 0 {
		out.MaxRuntimeMinutes = o.MaxRuntimeMinutes
	}
	if o.MinRuntimeMinutes != 0 {
		out.MinRuntimeMinutes = o.MinRuntimeMinutes
	}
	if o.MinVoteCount != 0 {
		out.MinVoteCount = o.MinVoteCount
	}
	if o.MinPopularity != 0 {
		out.MinPopularity = o.MinPopularity
	}
	if o.MaxPopularity != 0 {
		out.MaxPopularity = o.MaxPopularity
	}
	if len(o.IncludeGenres) > 0 {
		out.IncludeGenres = mergeUnique(out.IncludeGenres, o.IncludeGenres)
	}
	if len(o.ExcludeGenres) > 0 {
		out.ExcludeGenres = mergeUnique(out.ExcludeGenres, o.ExcludeGenres)
	}
	return out
}

func mergeUnique(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, v := range append(append([]string{}, a...), b...) {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
