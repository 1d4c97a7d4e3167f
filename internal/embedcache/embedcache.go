// Package embedcache implements the Embedding Cache (C5): a
// singleflight-deduplicated, fingerprint-keyed cache in front of an
// embedprovider.Provider, with a deterministic, network-free fallback
// vector for when the provider is unavailable. Uses a cachekv store ahead
// of a model call, combined with golang.org/x/sync/singleflight for
// request-coalescing ahead of a shared backend.
package embedcache

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/nyx-moment/moment/internal/cachekv"
	"github.com/nyx-moment/moment/internal/embedprovider"
	"github.com/nyx-moment/moment/internal/fingerprint"
	"github.com/nyx-moment/moment/internal/logger"
	"github.com/nyx-moment/moment/internal/types"
)

// vectorDimensions is the fallback vector's width. It is fixed and does
// not follow the configured provider's Dimensions() (768 by default).
const vectorDimensions = 1536

// entryTTL is the cache entry lifetime fixed.
const entryTTL = 24 * time.Hour

// fallbackTraitDims is the fixed, ordered catalog of named trait
// dimensions each given its own contiguous index range within the
// fallback vector. A trait name outside this catalog still gets a stable
// slot: it hashes into the shared "other" range rather than being
// dropped, so no trait weight is ever silently discarded.
var fallbackTraitDims = []string{
	"slow_paced", "fast_paced", "balanced", "comforting", "intense",
	"introspective", "quiet", "warm", "bold", "energetic",
	"familiar", "novel", "unconventional", "light", "immersive", "safe",
}

const fallbackOtherDim = "__other__"

// Cache wraps a cachekv.Store and an embedprovider.Provider to serve
// embedding vectors for a (domain, answer set) pair.
type Cache struct {
	kv       cachekv.Store
	provider embedprovider.Provider
	group    singleflight.Group
	prefix   string
}

// New wraps an already-constructed cachekv.Store and embedding provider.
// provider may be nil, in which case every request resolves to the
// deterministic fallback vector.
func New(kv cachekv.Store, provider embedprovider.Provider) *Cache {
	return &Cache{kv: kv, provider: provider, prefix: "embedcache:"}
}

// Result bundles the vector returned for a query with whether it came
// from the live provider or the network-free fallback path.
type Result struct {
	Vector   []float32
	Fallback bool
}

// Get resolves the embedding vector for queryText, keyed by the
// fingerprint of (domain, answers). Concurrent Get calls sharing a key
// coalesce into a single provider call. traitWeights is the Preference
// Mapper's aggregated trait-weight map (prefmap.Output.TraitWeights),
// consumed only if the provider is unavailable.
func (c *Cache) Get(ctx context.Context, domain types.Domain, answers []types.Answer, traitWeights map[string]float64, queryText string) (Result, error) {
	key, err := c.cacheKey(domain, answers)
	if err != nil {
		return Result{}, fmt.Errorf("embedcache: build key: %w", err)
	}

	if cached, ok, err := c.lookup(ctx, key); err == nil && ok {
		return cached, nil
	} else if err != nil {
		logger.Warnf(ctx, "embedcache: lookup error for %s: %v", key, err)
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		result := c.resolve(ctx, traitWeights, queryText)
		if storeErr := c.store(ctx, key, result); storeErr != nil {
			logger.Warnf(ctx, "embedcache: store error for %s: %v", key, storeErr)
		}
		return result, nil
	})
	if err != nil {
		return Result{}, err
	}
	return v.(Result), nil
}

func (c *Cache) resolve(ctx context.Context, traitWeights map[string]float64, queryText string) Result {
	if c.provider != nil {
		vec, err := c.provider.Embed(ctx, queryText)
		if err == nil {
			return Result{Vector: vec}
		}
		logger.Warnf(ctx, "embedcache: provider unavailable, using fallback vector: %v", err)
	}
	return Result{Vector: FallbackVector(traitWeights), Fallback: true}
}

func (c *Cache) cacheKey(domain types.Domain, answers []types.Answer) (string, error) {
	canonical := struct {
		Domain  types.Domain      `json:"domain"`
		Answers map[string]string `json:"answers"`
	}{Domain: domain, Answers: make(map[string]string, len(answers))}
	for _, a := range answers {
		canonical.Answers[a.QuestionID] = a.OptionID
	}
	fp, err := fingerprint.Of(canonical)
	if err != nil {
		return "", err
	}
	return c.prefix + fp, nil
}

func (c *Cache) lookup(ctx context.Context, key string) (Result, bool, error) {
	raw, ok, err := c.kv.Get(ctx, key)
	if err != nil || !ok {
		return Result{}, false, err
	}
	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return Result{}, false, fmt.Errorf("decode cached vector: %w", err)
	}
	return result, true, nil
}

func (c *Cache) store(ctx context.Context, key string, result Result) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode vector: %w", err)
	}
	return c.kv.Set(ctx, key, raw, entryTTL)
}

// FallbackVector deterministically computes a 1536-wide, L2-normalized
// vector from an aggregated trait-weight map (prefmap.Output.TraitWeights),
// reachable without any network call. Each named trait in
// fallbackTraitDims owns a fixed contiguous index range of the vector;
// its weight spreads uniformly across that range. Trait names outside
// the fixed catalog accumulate into a shared trailing range instead of
// being dropped.
func FallbackVector(traitWeights map[string]float64) []float32 {
	vec := make([]float64, vectorDimensions)
	dims := append(append([]string(nil), fallbackTraitDims...), fallbackOtherDim)
	rangeWidth := vectorDimensions / len(dims)

	rangeFor := func(trait string) (int, int) {
		idx := indexOf(dims, trait)
		if idx < 0 {
			idx = len(dims) - 1
		}
		start := idx * rangeWidth
		end := start + rangeWidth
		if idx == len(dims)-1 {
			end = vectorDimensions
		}
		return start, end
	}

	traits := make([]string, 0, len(traitWeights))
	for trait := range traitWeights {
		traits = append(traits, trait)
	}
	sort.Strings(traits)
	for _, trait := range traits {
		weight := traitWeights[trait]
		start, end := rangeFor(trait)
		spread := weight / float64(end-start)
		for i := start; i < end; i++ {
			vec[i] += spread
		}
	}

	return l2Normalize(vec)
}

func indexOf(haystack []string, needle string) int {
	for i, s := range haystack {
		if s == needle {
			return i
		}
	}
	return -1
}

func l2Normalize(v []float64) []float32 {
	var sumSquares float64
	for _, x := range v {
		sumSquares += x * x
	}
	norm := math.Sqrt(sumSquares)
	out := make([]float32, len(v))
	if norm == 0 {
		return out
	}
	for i, x := range v {
		out[i] = float32(x / norm)
	}
	return out
}
