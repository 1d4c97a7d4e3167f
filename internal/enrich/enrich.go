// Package enrich implements the Enricher (C8): turns retrieval Candidates
// into RecommendationItems by fetching detail fields from a catalog
// detail-lookup collaborator, bounded to 8 concurrent fetches via an
// ants.Pool, with a per-item TTL cache in front. Uses the usual
// wg/mu/worker-pool fan-out shape applied to per-item detail fetches
// instead of batch embedding, enriched with a cachekv-backed per-item
// cache the way internal/embedcache and internal/resultcache front their
// own upstreams.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/nyx-moment/moment/internal/cachekv"
	"github.com/nyx-moment/moment/internal/enrich/assets"
	"github.com/nyx-moment/moment/internal/logger"
	"github.com/nyx-moment/moment/internal/types"
)

// maxItemTTL is the Enricher's per-item cache ceiling.
const maxItemTTL = 24 * time.Hour

// Detail is the catalog's per-item detail payload, field-named the way the
// catalog/vector-index metadata itself is named (title, release_year,
// genres, rating, runtime, vote_count, popularity, poster_path,
// backdrop_path, release_date, overview) before being mapped onto a
// RecommendationItem's canonical field names.
type Detail struct {
	Synopsis     string   `json:"overview"`
	Cast         []string `json:"cast"`
	PosterPath   string   `json:"poster_path"`
	BackdropPath string   `json:"backdrop_path"`
}

// DetailFetcher looks up one candidate's catalog detail record. A failed
// fetch for one item must never fail the whole Enrich call.
type DetailFetcher interface {
	FetchDetail(ctx context.Context, candidateID string) (Detail, error)
}

// Enricher bounds concurrent detail fetches and caches their results.
type Enricher struct {
	fetcher DetailFetcher
	mirror  *assets.Mirror // may be nil: poster/backdrop mirroring is optional
	kv      cachekv.Store
	ttl     time.Duration
	pool    *ants.Pool
}

// New wraps a DetailFetcher, an optional asset Mirror, a cachekv.Store,
// and an already-sized ants.Pool (capacity bounded to 8 by the caller,
// matching the concurrency ceiling this component is required to honor).
func New(fetcher DetailFetcher, mirror *assets.Mirror, kv cachekv.Store, ttl time.Duration, pool *ants.Pool) *Enricher {
	if ttl <= 0 || ttl > maxItemTTL {
		ttl = maxItemTTL
	}
	return &Enricher{fetcher: fetcher, mirror: mirror, kv: kv, ttl: ttl, pool: pool}
}

// Enrich fetches detail for every candidate, merging it onto the
// candidate's RecommendationItem. A fetch failure for one item still
// returns that item, populated with missing-field sentinels instead of
// being dropped. Output order matches the input candidate order.
func (e *Enricher) Enrich(ctx context.Context, candidates []types.Candidate) []types.RecommendationItem {
	items := make([]types.RecommendationItem, len(candidates))
	for i, c := range candidates {
		items[i] = types.RecommendationItem{Candidate: c, Synopsis: types.UnknownSynopsis, PosterURL: types.UnknownPoster}
	}

	var wg sync.WaitGroup
	for i, c := range candidates {
		i, c := i, c
		wg.Add(1)
		task := func() {
			defer wg.Done()
			detail, err := e.detailFor(ctx, c.ID)
			if err != nil {
				logger.Warnf(ctx, "enrich: detail fetch failed for %s: %v", c.ID, err)
				return
			}
			items[i].Synopsis = orSentinel(detail.Synopsis, types.UnknownSynopsis)
			items[i].Cast = detail.Cast
			items[i].PosterURL = e.mirroredOrOriginal(ctx, detail.PosterPath)
			items[i].BackdropURL = e.mirroredOrOriginal(ctx, detail.BackdropPath)
		}
		if err := e.pool.Submit(task); err != nil {
			logger.Warnf(ctx, "enrich: pool submit failed for %s, running inline: %v", c.ID, err)
			task()
		}
	}
	wg.Wait()

	return items
}

func (e *Enricher) detailFor(ctx context.Context, candidateID string) (Detail, error) {
	key := "enrich:detail:" + candidateID

	if raw, ok, err := e.kv.Get(ctx, key); err == nil && ok {
		var cached Detail
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
	}

	detail, err := e.fetcher.FetchDetail(ctx, candidateID)
	if err != nil {
		return Detail{}, fmt.Errorf("fetch detail for %s: %w", candidateID, err)
	}

	if raw, err := json.Marshal(detail); err == nil {
		if setErr := e.kv.Set(ctx, key, raw, e.ttl); setErr != nil {
			logger.Warnf(ctx, "enrich: cache store failed for %s: %v", candidateID, setErr)
		}
	}
	return detail, nil
}

func (e *Enricher) mirroredOrOriginal(ctx context.Context, originalURL string) string {
	if originalURL == "" {
		return types.UnknownPoster
	}
	if e.mirror == nil {
		return originalURL
	}
	mirrored, err := e.mirror.Ensure(ctx, originalURL)
	if err != nil {
		logger.Warnf(ctx, "enrich: asset mirror failed for %s: %v", originalURL, err)
		return originalURL
	}
	return mirrored
}

func orSentinel(value, sentinel string) string {
	if value == "" {
		return sentinel
	}
	return value
}
