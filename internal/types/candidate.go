package types

// Candidate is a retrieval hit before enrichment. Candidates are immutable
// per request.
type Candidate struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	ReleaseYear     int      `json:"releaseYear"`
	GenreTags       []string `json:"genreTags"`
	QualityScore    float64  `json:"qualityScore"`
	PopularityScore float64  `json:"popularityScore"`
	VoteCount       int      `json:"voteCount"`
	RuntimeMinutes  int      `json:"runtimeMinutes"`
	SimilarityScore float64  `json:"similarityScore"`
}

// StreamingAvailability is a best-effort enrichment field; an empty slice
// means "unknown", not "unavailable anywhere".
type StreamingAvailability struct {
	Provider string `json:"provider"`
	URL      string `json:"url,omitempty"`
}

// Sentinel values used by the Enricher (C8) when the catalog call fails for
// an item but the candidate must still be returned.
const (
	UnknownSynopsis = "synopsis unavailable"
	UnknownPoster   = ""
)

// RecommendationItem is an enriched Candidate plus optional Enricher fields
// and surprise metadata.
type RecommendationItem struct {
	Candidate

	Rank int `json:"rank"`

	PosterURL    string                  `json:"posterUrl,omitempty"`
	BackdropURL  string                  `json:"backdropUrl,omitempty"`
	Synopsis     string                  `json:"synopsis,omitempty"`
	Cast         []string                `json:"cast,omitempty"`
	StreamingOn  []StreamingAvailability `json:"streamingOn,omitempty"`

	IsSurprise         bool    `json:"isSurprise"`
	SurpriseKind       string  `json:"surpriseKind,omitempty"`
	SurpriseReason     string  `json:"surpriseReason,omitempty"`
	SurpriseConfidence int     `json:"surpriseConfidence,omitempty"`
}
