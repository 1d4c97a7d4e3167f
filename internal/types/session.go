package types

import "time"

// Answer is one recorded response to a Question, in submission order.
type Answer struct {
	QuestionID   string    `json:"questionId"`
	OptionID     string    `json:"answer"`
	ResponseTime float64   `json:"responseTime,omitempty"`
	SubmittedAt  time.Time `json:"submittedAt"`
}

// ReactionKind is the closed set of per-item reactions accepted by Refine.
type ReactionKind string

const (
	ReactionLove    ReactionKind = "love"
	ReactionLike    ReactionKind = "like"
	ReactionNeutral ReactionKind = "neutral"
	ReactionDislike ReactionKind = "dislike"
	ReactionHate    ReactionKind = "hate"
)

// Reaction is one item of feedback submitted to Refine.
type Reaction struct {
	ItemID   string       `json:"itemId"`
	Reaction ReactionKind `json:"reaction"`
	Tags     []string     `json:"tags,omitempty"`
	Text     string       `json:"text,omitempty"`
}

// RefinementStrategy is the closed set of strategies the Refinement Engine
// (C11) can select.
type RefinementStrategy string

const (
	StrategyTooIntense       RefinementStrategy = "tooIntense"
	StrategyNotIntenseEnough RefinementStrategy = "notIntenseEnough"
	StrategyWrongEnergy      RefinementStrategy = "wrongEnergy"
	StrategyGenreMismatch    RefinementStrategy = "genreMismatch"
	StrategyHiddenDesire     RefinementStrategy = "hiddenDesire"
	StrategyNeedVariety      RefinementStrategy = "needVariety"
)

// RefinementRecord is one entry of a session's append-only refinement
// history.
type RefinementRecord struct {
	Strategy    RefinementStrategy `json:"strategy"`
	Delta       FilterPredicate    `json:"delta"`
	TraitDelta  map[string]float64 `json:"traitDelta"`
	Confidence  int                `json:"confidence"`
	Explanation string             `json:"explanation"`
	AppliedAt   time.Time          `json:"appliedAt"`
}

// AdjustmentRecord records a quick-adjust call layered the same way as a
// refinement (both rewrite the mapper output that feeds the next pipeline
// run).
type AdjustmentRecord struct {
	AdjustmentType string          `json:"adjustmentType"`
	Delta          FilterPredicate `json:"delta"`
	QuerySuffix    string          `json:"querySuffix,omitempty"`
	AppliedAt      time.Time       `json:"appliedAt"`
}

// Session is the stateful record owned exclusively by the Session Store
// (C3).
type Session struct {
	ID     string `json:"id"`
	Domain Domain `json:"domain"`

	FlowType FlowType       `json:"flowType"`
	Context  RequestContext `json:"context"`

	// CatalogVersion pins the question ordering this session was started
	// under, so reloads of the catalog never reorder an in-flight session.
	CatalogVersion int `json:"catalogVersion"`

	Answers []Answer `json:"answers"`

	Profile        *EmotionalProfile `json:"profile,omitempty"`
	LastQueryText  string            `json:"lastQueryText,omitempty"`
	LastFilter     FilterPredicate   `json:"lastFilter"`

	LastRecommendations []RecommendationItem `json:"lastRecommendations,omitempty"`

	Refinements []RefinementRecord `json:"refinements,omitempty"`
	Adjustments []AdjustmentRecord `json:"adjustments,omitempty"`

	CreatedAt    time.Time `json:"createdAt"`
	LastTouchedAt time.Time `json:"lastTouchedAt"`
	GeneratedAt  time.Time `json:"generatedAt,omitempty"`
}

// HasAnswer reports whether questionID already has a recorded answer.
func (s *Session) HasAnswer(questionID string) bool {
	for _, a := range s.Answers {
		if a.QuestionID == questionID {
			return true
		}
	}
	return false
}

// AnswerMap returns the session's answers keyed by question ID, the shape
// the Preference Mapper consumes.
func (s *Session) AnswerMap() map[string]string {
	out := make(map[string]string, len(s.Answers))
	for _, a := range s.Answers {
		out[a.QuestionID] = a.OptionID
	}
	return out
}

// CompositeFilterDelta merges every layered refinement/adjustment delta in
// application order.
func (s *Session) CompositeFilterDelta() FilterPredicate {
	var delta FilterPredicate
	for _, r := range s.Refinements {
		delta = delta.Merge(r.Delta)
	}
	for _, a := range s.Adjustments {
		delta = delta.Merge(a.Delta)
	}
	return delta
}

// CompositeQuerySuffix concatenates every quick-adjust query suffix applied
// so far, in application order.
func (s *Session) CompositeQuerySuffix() string {
	suffix := ""
	for _, a := range s.Adjustments {
		if a.QuerySuffix != "" {
			suffix += " " + a.QuerySuffix
		}
	}
	return suffix
}
