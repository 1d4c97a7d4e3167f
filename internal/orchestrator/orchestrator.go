// Package orchestrator implements the Pipeline Orchestrator (C13): the
// serial ordering of every other component into one recommendation call,
// plus the re-run-from-C5-or-C4-onward paths Refine and Quick-Adjust need.
// Uses a service-layer orchestration shape: one method assembling
// repository/model calls behind its own per-stage error handling and
// degraded-result semantics.
package orchestrator

import (
	"context"
	"math/rand"
	"time"

	"github.com/nyx-moment/moment/internal/adjust"
	"github.com/nyx-moment/moment/internal/embedcache"
	"github.com/nyx-moment/moment/internal/enrich"
	"github.com/nyx-moment/moment/internal/fingerprint"
	"github.com/nyx-moment/moment/internal/llmfallback"
	"github.com/nyx-moment/moment/internal/logger"
	"github.com/nyx-moment/moment/internal/prefmap"
	"github.com/nyx-moment/moment/internal/refine"
	"github.com/nyx-moment/moment/internal/resultcache"
	"github.com/nyx-moment/moment/internal/retrieval"
	"github.com/nyx-moment/moment/internal/session"
	"github.com/nyx-moment/moment/internal/surprise"
	"github.com/nyx-moment/moment/internal/types"
	"github.com/nyx-moment/moment/internal/validator"
)

// displayLength bounds the final recommendation list (this service's "length in
// [1,10]" acceptance criterion).
const displayLength = 10

// Per-stage and total deadlines.
const (
	retrievalDeadline   = 2 * time.Second
	embeddingDeadline   = 3 * time.Second
	enrichPerItem       = 1500 * time.Millisecond
	enrichConcurrency   = 8
	totalRequestBudget  = 8 * time.Second
)

// Orchestrator wires every pipeline component into its fixed serial
// ordering: mapper, embedding cache, retrieval (with catalog and LLM
// fallbacks), result cache, enricher, surprise, validator.
type Orchestrator struct {
	sessions *session.Store
	mapper   *prefmap.Mapper

	embedding *embedcache.Cache
	primary   retrieval.Retriever // vector mode (D1)
	fallback  retrieval.Retriever // catalog-backed, text mode (D2), used when primary fails
	memory    retrieval.Retriever // pure in-process tier, no external dependency, used when fallback also fails
	generator llmfallback.Generator // last resort (D5), used when every retrieval tier returns nothing usable
	results   *resultcache.Cache

	enricher  *enrich.Enricher
	surprise  *surprise.Engine
	validator *validator.Validator
	refine    *refine.Engine
	adjust    *adjust.Engine

	analytics Analytics
	rng       *rand.Rand
}

// Analytics is the narrow seam this package needs from the Analytics
// Writer (C14): fire-and-forget event emission, never on the critical path.
type Analytics interface {
	Emit(ctx context.Context, evt types.AnalyticsEvent)
}

// New wires an Orchestrator from its already-constructed collaborators.
// fallback and generator may be nil, in which case their respective
// degrade-further steps are skipped.
func New(
	sessions *session.Store,
	mapper *prefmap.Mapper,
	embedding *embedcache.Cache,
	primary retrieval.Retriever,
	fallback retrieval.Retriever,
	memory retrieval.Retriever,
	generator llmfallback.Generator,
	results *resultcache.Cache,
	enricher *enrich.Enricher,
	surpriseEngine *surprise.Engine,
	validatorEngine *validator.Validator,
	refineEngine *refine.Engine,
	adjustEngine *adjust.Engine,
	analytics Analytics,
	rng *rand.Rand,
) *Orchestrator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Orchestrator{
		sessions:  sessions,
		mapper:    mapper,
		embedding: embedding,
		primary:   primary,
		fallback:  fallback,
		memory:    memory,
		generator: generator,
		results:   results,
		enricher:  enricher,
		surprise:  surpriseEngine,
		validator: validatorEngine,
		refine:    refineEngine,
		adjust:    adjustEngine,
		analytics: analytics,
		rng:       rng,
	}
}

// Result is what every public entry point returns: the ranked list plus
// its validation scoring.
type Result struct {
	Recommendations []types.RecommendationItem
	Validation      types.ValidationResult
}

// Recommend runs the full pipeline for a session that has just finished
// its questionnaire.
func (o *Orchestrator) Recommend(ctx context.Context, sessionID string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, totalRequestBudget)
	defer cancel()

	sess, err := o.sessions.Get(ctx, sessionID)
	if err != nil {
		return Result{}, err
	}

	mapped := o.mapper.Map(ctx, sess.Domain, sess.Answers, sess.Context)
	result, degraded := o.runPipeline(ctx, sess, mapped.QueryText, mapped.Filter, mapped.TraitWeights, mapped.Profile)

	if _, err := o.sessions.Update(ctx, sessionID, persistRecommendation(mapped, result.Recommendations)); err != nil {
		logger.Warnf(ctx, "orchestrator: failed to persist recommendation for session %s: %v", sessionID, err)
	}

	o.emitRecommendationResult(ctx, sess, result, degraded)
	return result, nil
}

// Refine applies the Refinement Engine's (C11) selected strategy and
// re-runs the pipeline from the Preference Mapper's output onward (the
// composite delta folds in every prior refinement/adjustment too).
func (o *Orchestrator) Refine(ctx context.Context, sessionID string, reactions []types.Reaction, namedAction string) (Result, refine.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, totalRequestBudget)
	defer cancel()

	selection := o.refine.Select(reactions, namedAction)

	var liked, disliked map[string]int
	sess, err := o.sessions.Update(ctx, sessionID, func(s *types.Session) error {
		liked, disliked = refine.GenreSignal(reactions, itemGenresOf(s.LastRecommendations))
		s.Refinements = append(s.Refinements, types.RefinementRecord{
			Strategy:    selection.Strategy,
			Delta:       selection.Delta,
			TraitDelta:  selection.TraitDelta,
			Confidence:  selection.Confidence,
			Explanation: selection.Explanation,
			AppliedAt:   time.Now(),
		})
		return nil
	})
	if err != nil {
		return Result{}, refine.Result{}, err
	}

	mapped := o.mapper.Map(ctx, sess.Domain, sess.Answers, sess.Context)
	queryText := mapped.QueryText + sess.CompositeQuerySuffix()
	filter := mapped.Filter.Merge(sess.CompositeFilterDelta())
	traitWeights := mergeTraitWeights(mapped.TraitWeights, accumulatedTraitDelta(sess))

	result, degraded := o.runPipeline(ctx, sess, queryText, filter, traitWeights, mapped.Profile)

	if _, err := o.sessions.Update(ctx, sessionID, persistRecommendation(mapped, result.Recommendations)); err != nil {
		logger.Warnf(ctx, "orchestrator: failed to persist refined recommendation for session %s: %v", sessionID, err)
	}

	o.emitRefinement(ctx, sess, selection, liked, disliked)
	o.emitRecommendationResult(ctx, sess, result, degraded)
	return result, selection, nil
}

// itemGenresOf indexes a recommendation list's genre tags by item ID, the
// shape refine.GenreSignal needs to aggregate liked-vs-disliked genres
// across a reaction set.
func itemGenresOf(items []types.RecommendationItem) map[string][]string {
	out := make(map[string][]string, len(items))
	for _, item := range items {
		out[item.ID] = item.GenreTags
	}
	return out
}

// Adjust applies a Quick-Adjust Engine (C12) delta and re-runs the
// pipeline from the Preference Mapper's output onward, the same way
// Refine does.
func (o *Orchestrator) Adjust(ctx context.Context, sessionID string, adjustmentType string) (Result, adjust.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, totalRequestBudget)
	defer cancel()

	selection, err := o.adjust.Resolve(adjustmentType)
	if err != nil {
		return Result{}, adjust.Result{}, err
	}

	sess, err := o.sessions.Update(ctx, sessionID, func(s *types.Session) error {
		s.Adjustments = append(s.Adjustments, types.AdjustmentRecord{
			AdjustmentType: selection.AdjustmentType,
			Delta:          selection.Delta,
			QuerySuffix:    selection.QuerySuffix,
			AppliedAt:      time.Now(),
		})
		return nil
	})
	if err != nil {
		return Result{}, adjust.Result{}, err
	}

	mapped := o.mapper.Map(ctx, sess.Domain, sess.Answers, sess.Context)
	queryText := mapped.QueryText + sess.CompositeQuerySuffix()
	filter := mapped.Filter.Merge(sess.CompositeFilterDelta())

	result, degraded := o.runPipeline(ctx, sess, queryText, filter, mapped.TraitWeights, mapped.Profile)

	if _, err := o.sessions.Update(ctx, sessionID, persistRecommendation(mapped, result.Recommendations)); err != nil {
		logger.Warnf(ctx, "orchestrator: failed to persist adjusted recommendation for session %s: %v", sessionID, err)
	}

	o.emitRecommendationResult(ctx, sess, result, degraded)
	return result, selection, nil
}

// runPipeline is the shared embed-retrieve-cache-enrich-surprise-validate
// sequence every public entry point re-runs from the Preference Mapper's
// output onward.
func (o *Orchestrator) runPipeline(ctx context.Context, sess *types.Session, queryText string, filter types.FilterPredicate, traitWeights map[string]float64, profile types.EmotionalProfile) (Result, bool) {
	degraded := false

	embedCtx, cancel := context.WithTimeout(ctx, embeddingDeadline)
	embedded, err := o.embedding.Get(embedCtx, sess.Domain, sess.Answers, traitWeights, queryText)
	cancel()
	if err != nil {
		logger.Warnf(ctx, "orchestrator: embedding cache error, proceeding with text-only retrieval: %v", err)
		degraded = true
	}
	if embedded.Fallback {
		degraded = true
	}

	key := queryKeyFor(sess.Domain, queryText, filter)
	candidates, fromCache, err := o.results.Get(ctx, key)
	if err != nil {
		logger.Warnf(ctx, "orchestrator: result cache lookup error: %v", err)
	}

	if !fromCache {
		candidates, degraded = o.retrieveWithFallbacks(ctx, sess.Domain, queryText, embedded.Vector, filter, degraded)
		if err := o.results.Put(ctx, key, candidates); err != nil {
			logger.Warnf(ctx, "orchestrator: result cache write error: %v", err)
		}
	}

	enrichCtx, cancel := context.WithTimeout(ctx, enrichDeadline(len(candidates)))
	enriched := o.enricher.Enrich(enrichCtx, candidates)
	cancel()

	expected := enriched
	if len(expected) > displayLength {
		expected = expected[:displayLength]
	}

	strategy := surprise.SelectStrategy(profile, sess.Context, o.rng)
	count := surprise.Count(sess.Context, profile, len(expected))
	merged := o.surprise.Apply(ctx, expected, enriched, strategy, count)

	for i := range merged {
		merged[i].Rank = i + 1
	}

	validation := o.validator.Score(merged, profile, degraded)

	return Result{Recommendations: merged, Validation: validation}, degraded
}

// retrieveWithFallbacks walks the retrieval tiers in order: vector-mode
// primary (D1), text-mode catalog search (D2), a pure in-process snapshot
// with no external dependency, and finally the LLM generator (D5). A tier
// that returns no error but zero candidates (an empty or unloaded
// snapshot) is treated the same as an unavailable tier, since an empty
// list is never a usable result to hand the enricher.
func (o *Orchestrator) retrieveWithFallbacks(ctx context.Context, domain types.Domain, queryText string, embedding []float32, filter types.FilterPredicate, degraded bool) ([]types.Candidate, bool) {
	vectorReq := retrieval.Request{Domain: domain, QueryEmbedding: embedding, Filter: filter}.Normalize()
	textReq := retrieval.Request{Domain: domain, QueryText: queryText, Filter: filter}.Normalize()

	if candidates, ok := o.tryRetrieve(ctx, o.primary, vectorReq, "primary vector retrieval"); ok {
		return candidates, degraded
	}
	degraded = true

	if candidates, ok := o.tryRetrieve(ctx, o.fallback, textReq, "catalog-backed fallback"); ok {
		return candidates, degraded
	}

	if candidates, ok := o.tryRetrieve(ctx, o.memory, textReq, "in-process snapshot fallback"); ok {
		return candidates, degraded
	}

	if o.generator != nil {
		candidates, err := o.generator.Generate(ctx, domain, queryText, filter, retrieval.DefaultTopK)
		if err == nil {
			return candidates, degraded
		}
		logger.Errorf(ctx, "orchestrator: llm fallback also unavailable: %v", err)
	}

	return nil, degraded
}

// tryRetrieve runs one retrieval tier under its own deadline. A nil
// retriever, an error, or a zero-length result all count as "this tier
// didn't produce anything usable".
func (o *Orchestrator) tryRetrieve(ctx context.Context, retriever retrieval.Retriever, req retrieval.Request, label string) ([]types.Candidate, bool) {
	if retriever == nil {
		return nil, false
	}
	tierCtx, cancel := context.WithTimeout(ctx, retrievalDeadline)
	candidates, err := retriever.Retrieve(tierCtx, req)
	cancel()
	if err != nil {
		logger.Warnf(ctx, "orchestrator: %s unavailable: %v", label, err)
		return nil, false
	}
	if len(candidates) == 0 {
		return nil, false
	}
	return candidates, true
}

func enrichDeadline(itemCount int) time.Duration {
	if itemCount == 0 {
		return enrichPerItem
	}
	rounds := (itemCount + enrichConcurrency - 1) / enrichConcurrency
	return time.Duration(rounds) * enrichPerItem
}

func queryKeyFor(domain types.Domain, queryText string, filter types.FilterPredicate) types.QueryKey {
	queryFp := fingerprint.MustOf(struct {
		Domain types.Domain
		Query  string
	}{Domain: domain, Query: queryText})
	filterFp := fingerprint.MustOf(filter)
	return types.QueryKey{QueryFingerprint: queryFp, FilterFingerprint: filterFp}
}

func persistRecommendation(mapped prefmap.Output, items []types.RecommendationItem) session.Mutator {
	return func(s *types.Session) error {
		s.Profile = &mapped.Profile
		s.LastQueryText = mapped.QueryText
		s.LastFilter = mapped.Filter
		s.LastRecommendations = items
		s.GeneratedAt = time.Now()
		return nil
	}
}

// mergeTraitWeights sums base trait weights with every accumulated
// refinement trait delta, so the embedding fallback vector reflects the
// session's full refinement history.
func mergeTraitWeights(base map[string]float64, delta map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(base)+len(delta))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range delta {
		out[k] += v
	}
	return out
}

func accumulatedTraitDelta(sess *types.Session) map[string]float64 {
	out := map[string]float64{}
	for _, r := range sess.Refinements {
		for trait, weight := range r.TraitDelta {
			out[trait] += weight
		}
	}
	return out
}

func (o *Orchestrator) emitRecommendationResult(ctx context.Context, sess *types.Session, result Result, degraded bool) {
	if o.analytics == nil {
		return
	}
	o.analytics.Emit(ctx, types.AnalyticsEvent{
		Kind:      types.EventRecommendationResult,
		SessionID: sess.ID,
		Domain:    sess.Domain,
		Timestamp: time.Now(),
		Payload: map[string]any{
			"count":    len(result.Recommendations),
			"degraded": degraded,
			"overall":  result.Validation.Overall,
		},
	})
}

func (o *Orchestrator) emitRefinement(ctx context.Context, sess *types.Session, selection refine.Result, likedGenres, dislikedGenres map[string]int) {
	if o.analytics == nil {
		return
	}
	o.analytics.Emit(ctx, types.AnalyticsEvent{
		Kind:      types.EventRefinement,
		SessionID: sess.ID,
		Domain:    sess.Domain,
		Timestamp: time.Now(),
		Payload: map[string]any{
			"strategy":       selection.Strategy,
			"confidence":     selection.Confidence,
			"likedGenres":    likedGenres,
			"dislikedGenres": dislikedGenres,
		},
	})
}
