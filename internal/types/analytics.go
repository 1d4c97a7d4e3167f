package types

import "time"

// AnalyticsEventKind is the closed set of event kinds the Analytics Writer
// (C14) emits.
type AnalyticsEventKind string

const (
	EventSessionEmbedded       AnalyticsEventKind = "session_embedded"
	EventTemporalPreference    AnalyticsEventKind = "temporal_preference"
	EventRecommendationResult  AnalyticsEventKind = "recommendation_result"
	EventRefinement            AnalyticsEventKind = "refinement"
)

// AnalyticsEvent is a single fire-and-forget write to the analytics sink.
// ClusterHint is an opaque passthrough the core never reads back; cluster
// assignment is deliberately excluded from the core recommendation logic.
type AnalyticsEvent struct {
	Kind        AnalyticsEventKind `json:"kind"`
	SessionID   string             `json:"sessionId"`
	Domain      Domain             `json:"domain"`
	Timestamp   time.Time          `json:"timestamp"`
	Payload     map[string]any     `json:"payload"`
	ClusterHint string             `json:"clusterHint,omitempty"`
}
