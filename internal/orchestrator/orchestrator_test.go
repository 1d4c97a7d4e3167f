package orchestrator

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/nyx-moment/moment/internal/adjust"
	"github.com/nyx-moment/moment/internal/cachekv"
	"github.com/nyx-moment/moment/internal/catalog"
	"github.com/nyx-moment/moment/internal/embedcache"
	"github.com/nyx-moment/moment/internal/enrich"
	"github.com/nyx-moment/moment/internal/prefmap"
	"github.com/nyx-moment/moment/internal/refine"
	"github.com/nyx-moment/moment/internal/resultcache"
	"github.com/nyx-moment/moment/internal/retrieval"
	"github.com/nyx-moment/moment/internal/session"
	"github.com/nyx-moment/moment/internal/surprise"
	"github.com/nyx-moment/moment/internal/types"
	"github.com/nyx-moment/moment/internal/validator"
	"github.com/panjf2000/ants/v2"
)

// stubRetriever returns a fixed candidate list, or an error, regardless of
// the request it's given.
type stubRetriever struct {
	candidates []types.Candidate
	err        error
	calls      int
}

func (s *stubRetriever) Retrieve(_ context.Context, _ retrieval.Request) ([]types.Candidate, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.candidates, nil
}

type stubFetcher struct{}

func (stubFetcher) FetchDetail(_ context.Context, candidateID string) (enrich.Detail, error) {
	return enrich.Detail{Synopsis: "synopsis for " + candidateID}, nil
}

type stubAnalytics struct {
	events []types.AnalyticsEvent
}

func (s *stubAnalytics) Emit(_ context.Context, evt types.AnalyticsEvent) {
	s.events = append(s.events, evt)
}

func sampleCandidates(n int) []types.Candidate {
	out := make([]types.Candidate, n)
	for i := 0; i < n; i++ {
		out[i] = types.Candidate{
			ID:              string(rune('a' + i)),
			Title:           "Title " + string(rune('a'+i)),
			GenreTags:       []string{"drama"},
			QualityScore:    7.5,
			PopularityScore: 40,
			VoteCount:       1000,
			RuntimeMinutes:  100,
		}
	}
	return out
}

type fixture struct {
	orch    *Orchestrator
	store   *session.Store
	primary *stubRetriever
	fallbk  *stubRetriever
	memory  *stubRetriever
	analytics *stubAnalytics
}

func newFixture(t *testing.T, primary, fallbk, memory *stubRetriever) fixture {
	t.Helper()

	store := session.NewStore(cachekv.NewMemoryStore(time.Hour), time.Hour)
	catalogStore := catalog.NewStore(nil, time.Hour)
	mapper := prefmap.NewMapper(catalogStore)

	embedding := embedcache.New(cachekv.NewMemoryStore(time.Hour), nil)
	results := resultcache.New(cachekv.NewMemoryStore(time.Hour), time.Hour)

	pool, err := ants.NewPool(8)
	if err != nil {
		t.Fatalf("ants.NewPool: %v", err)
	}
	enricher := enrich.New(stubFetcher{}, nil, cachekv.NewMemoryStore(time.Hour), time.Hour, pool)

	rng := rand.New(rand.NewSource(1))
	surpriseEngine := surprise.New(nil, rng)
	validatorEngine := validator.New()
	refineEngine := refine.New()
	adjustEngine := adjust.New()
	analytics := &stubAnalytics{}

	var primaryR, fallbackR, memoryR retrieval.Retriever
	if primary != nil {
		primaryR = primary
	}
	if fallbk != nil {
		fallbackR = fallbk
	}
	if memory != nil {
		memoryR = memory
	}

	orch := New(store, mapper, embedding, primaryR, fallbackR, memoryR, nil, results, enricher, surpriseEngine, validatorEngine, refineEngine, adjustEngine, analytics, rng)

	return fixture{orch: orch, store: store, primary: primary, fallbk: fallbk, memory: memory, analytics: analytics}
}

func newAnsweredSession(t *testing.T, store *session.Store) string {
	t.Helper()
	ctx := context.Background()
	sess, err := store.Create(ctx, types.DomainMovies, types.FlowStandard, types.RequestContext{}, 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	answers := []types.Answer{
		{QuestionID: "energy_level", OptionID: "neutral", SubmittedAt: time.Now()},
		{QuestionID: "mood_today", OptionID: "content", SubmittedAt: time.Now()},
		{QuestionID: "openness_today", OptionID: "exploring", SubmittedAt: time.Now()},
		{QuestionID: "attention_level", OptionID: "casual", SubmittedAt: time.Now()},
		{QuestionID: "discovery_mode", OptionID: "balanced", SubmittedAt: time.Now()},
	}
	for _, a := range answers {
		if _, err := store.Update(ctx, sess.ID, session.RecordAnswer(a)); err != nil {
			t.Fatalf("RecordAnswer: %v", err)
		}
	}
	return sess.ID
}

func TestRecommend_HappyPath(t *testing.T) {
	primary := &stubRetriever{candidates: sampleCandidates(12)}
	f := newFixture(t, primary, nil, nil)
	sessionID := newAnsweredSession(t, f.store)

	result, err := f.orch.Recommend(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(result.Recommendations) == 0 {
		t.Fatal("expected at least one recommendation")
	}
	if len(result.Recommendations) > displayLength+4 {
		t.Fatalf("recommendation list implausibly large: %d", len(result.Recommendations))
	}
	if result.Validation.Degraded {
		t.Error("expected a healthy primary retriever to produce a non-degraded result")
	}
	if primary.calls == 0 {
		t.Error("expected primary retriever to be called")
	}

	sess, err := f.store.Get(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(sess.LastRecommendations) == 0 {
		t.Error("expected recommendations to be persisted onto the session")
	}
	if sess.Profile == nil {
		t.Error("expected a profile to be persisted onto the session")
	}

	if len(f.analytics.events) == 0 {
		t.Error("expected at least one analytics event to be emitted")
	}
}

func TestRecommend_FallsBackThroughTiersAndMarksDegraded(t *testing.T) {
	primary := &stubRetriever{err: retrieval.ErrUnavailable}
	fallbk := &stubRetriever{err: retrieval.ErrUnavailable}
	memory := &stubRetriever{candidates: sampleCandidates(5)}
	f := newFixture(t, primary, fallbk, memory)
	sessionID := newAnsweredSession(t, f.store)

	result, err := f.orch.Recommend(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(result.Recommendations) == 0 {
		t.Fatal("expected the in-process snapshot tier to still produce recommendations")
	}
	if !result.Validation.Degraded {
		t.Error("expected degraded=true when primary and fallback both failed")
	}
	if primary.calls == 0 || fallbk.calls == 0 {
		t.Error("expected both primary and fallback to have been tried")
	}
}

func TestRecommend_EveryTierEmptyStillReturnsWithoutError(t *testing.T) {
	primary := &stubRetriever{err: errors.New("boom")}
	f := newFixture(t, primary, nil, nil)
	sessionID := newAnsweredSession(t, f.store)

	result, err := f.orch.Recommend(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(result.Recommendations) != 0 {
		t.Fatalf("expected no recommendations when every tier fails, got %d", len(result.Recommendations))
	}
	if !result.Validation.Degraded {
		t.Error("expected degraded=true")
	}
}

func TestRecommend_UnknownSessionReturnsError(t *testing.T) {
	f := newFixture(t, &stubRetriever{candidates: sampleCandidates(3)}, nil, nil)
	_, err := f.orch.Recommend(context.Background(), "does-not-exist")
	if err == nil {
		t.Fatal("expected an error for an unknown session")
	}
}

func TestRefine_LayersDeltaAndRerunsPipeline(t *testing.T) {
	primary := &stubRetriever{candidates: sampleCandidates(12)}
	f := newFixture(t, primary, nil, nil)
	sessionID := newAnsweredSession(t, f.store)

	if _, err := f.orch.Recommend(context.Background(), sessionID); err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	callsBeforeRefine := primary.calls

	reactions := []types.Reaction{
		{ItemID: "a", Reaction: types.ReactionDislike},
		{ItemID: "b", Reaction: types.ReactionDislike},
		{ItemID: "c", Reaction: types.ReactionLike},
	}
	result, selection, err := f.orch.Refine(context.Background(), sessionID, reactions, "")
	if err != nil {
		t.Fatalf("Refine: %v", err)
	}
	if selection.Strategy == "" {
		t.Error("expected a non-empty strategy selection")
	}
	if len(result.Recommendations) == 0 {
		t.Fatal("expected recommendations from the re-run pipeline")
	}
	if primary.calls <= callsBeforeRefine {
		t.Error("expected Refine to re-invoke retrieval")
	}

	sess, err := f.store.Get(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(sess.Refinements) != 1 {
		t.Fatalf("expected exactly one layered refinement record, got %d", len(sess.Refinements))
	}
}

func TestAdjust_UnknownTypeIsValidationError(t *testing.T) {
	f := newFixture(t, &stubRetriever{candidates: sampleCandidates(5)}, nil, nil)
	sessionID := newAnsweredSession(t, f.store)

	_, _, err := f.orch.Adjust(context.Background(), sessionID, "spicier")
	if err == nil {
		t.Fatal("expected an error for an unknown adjustment type")
	}
}

func TestAdjust_KnownTypeLayersAndRerunsPipeline(t *testing.T) {
	primary := &stubRetriever{candidates: sampleCandidates(12)}
	f := newFixture(t, primary, nil, nil)
	sessionID := newAnsweredSession(t, f.store)

	if _, err := f.orch.Recommend(context.Background(), sessionID); err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	result, selection, err := f.orch.Adjust(context.Background(), sessionID, "shorter")
	if err != nil {
		t.Fatalf("Adjust: %v", err)
	}
	if selection.AdjustmentType != "shorter" {
		t.Errorf("expected adjustment type 'shorter', got %q", selection.AdjustmentType)
	}
	if len(result.Recommendations) == 0 {
		t.Fatal("expected recommendations from the re-run pipeline")
	}

	sess, err := f.store.Get(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(sess.Adjustments) != 1 {
		t.Fatalf("expected exactly one layered adjustment record, got %d", len(sess.Adjustments))
	}
}
