// Package catalogsearch is the Retrieval Client (C6) backend over
// Elasticsearch, wired as the text-mode fallback tier behind pgvectorstore
// whenever Elasticsearch addresses are configured. It supports both the
// v7 and v8 client generations side by side (chosen by
// ElasticsearchConfig.APIVersion), applied to catalog-item search.
package catalogsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/nyx-moment/moment/internal/logger"
	"github.com/nyx-moment/moment/internal/retrieval"
	"github.com/nyx-moment/moment/internal/types"
	"github.com/elastic/go-elasticsearch/v7"
)

// V7Store is the Elasticsearch v7 Retriever backend.
type V7Store struct {
	client *elasticsearch.Client
	index  string
}

// NewV7Store wraps an already-constructed v7 client.
func NewV7Store(client *elasticsearch.Client, index string) *V7Store {
	return &V7Store{client: client, index: index}
}

func (s *V7Store) Retrieve(ctx context.Context, req retrieval.Request) ([]types.Candidate, error) {
	req = req.Normalize()
	attempt := func(ctx context.Context) ([]types.Candidate, error) {
		query, err := buildQuery(req)
		if err != nil {
			return nil, err
		}
		return s.search(ctx, query)
	}
	return retrieval.WithJitteredRetry(ctx, attempt, jitteredBackoff)
}

func (s *V7Store) search(ctx context.Context, query string) ([]types.Candidate, error) {
	resp, err := s.client.Search(
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(strings.NewReader(query)),
		s.client.Search.WithContext(ctx),
	)
	if err != nil {
		logger.Errorf(ctx, "catalogsearch(v7): search failed: %v", err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return nil, fmt.Errorf("catalogsearch(v7): %s", resp.String())
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("catalogsearch(v7): decode response: %w", err)
	}
	return parsed.candidates(), nil
}

// searchResponse is the minimal shape shared by both client generations'
// JSON response bodies; V7Store and V8Store both decode their raw
// response bodies into it.
type searchResponse struct {
	Hits struct {
		Hits []struct {
			Score  float64         `json:"_score"`
			Source catalogDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (r searchResponse) candidates() []types.Candidate {
	out := make([]types.Candidate, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		out = append(out, hit.Source.toCandidate(hit.Score))
	}
	return out
}

// catalogDocument is the indexed document shape for one catalog item.
type catalogDocument struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	ReleaseYear     int       `json:"release_year"`
	GenreTags       []string  `json:"genre_tags"`
	QualityScore    float64   `json:"quality_score"`
	PopularityScore float64   `json:"popularity_score"`
	VoteCount       int       `json:"vote_count"`
	RuntimeMinutes  int       `json:"runtime_minutes"`
	Embedding       []float32 `json:"embedding,omitempty"`
}

func (d catalogDocument) toCandidate(score float64) types.Candidate {
	return types.Candidate{
		ID:              d.ID,
		Title:           d.Title,
		ReleaseYear:     d.ReleaseYear,
		GenreTags:       d.GenreTags,
		QualityScore:    d.QualityScore,
		PopularityScore: d.PopularityScore,
		VoteCount:       d.VoteCount,
		RuntimeMinutes:  d.RuntimeMinutes,
		SimilarityScore: score,
	}
}

// buildQuery constructs the Elasticsearch query body for either mode,
// shared by the v7 and v8 backends since both accept a raw JSON body.
func buildQuery(req retrieval.Request) (string, error) {
	filter := buildFilterConds(req.Filter, req.Domain)

	if len(req.QueryEmbedding) > 0 {
		vecJSON, err := json.Marshal(req.QueryEmbedding)
		if err != nil {
			return "", fmt.Errorf("catalogsearch: marshal query embedding: %w", err)
		}
		return fmt.Sprintf(
			`{"query":{"script_score":{"query":{"bool":{"filter":[%s]}},`+
				`"script":{"source":"cosineSimilarity(params.query_vector,'embedding')+1.0",`+
				`"params":{"query_vector":%s}}}},"size":%d}`,
			strings.Join(filter, ","), string(vecJSON), req.TopK,
		), nil
	}

	queryText, err := json.Marshal(req.QueryText)
	if err != nil {
		return "", fmt.Errorf("catalogsearch: marshal query text: %w", err)
	}
	return fmt.Sprintf(
		`{"query":{"bool":{"must":[{"match":{"title":%s}}],"filter":[%s]}},`+
			`"sort":[{"quality_score":"desc"},{"vote_count":"desc"}],"size":%d}`,
		string(queryText), strings.Join(filter, ","), req.TopK,
	), nil
}

func buildFilterConds(f types.FilterPredicate, domain types.Domain) []string {
	conds := []string{fmt.Sprintf(`{"term":{"domain.keyword":%q}}`, string(domain))}
	if f.MinReleaseYear != 0 {
		conds = append(conds, fmt.Sprintf(`{"range":{"release_year":{"gte":%d}}}`, f.MinReleaseYear))
	}
	if f.MaxReleaseYear != 0 {
		conds = append(conds, fmt.Sprintf(`{"range":{"release_year":{"lte":%d}}}`, f.MaxReleaseYear))
	}
	if f.MinRating != 0 {
		conds = append(conds, fmt.Sprintf(`{"range":{"quality_score":{"gte":%f}}}`, f.MinRating))
	}
	if f.MinRuntimeMinutes != 0 {
		conds = append(conds, fmt.Sprintf(`{"range":{"runtime_minutes":{"gte":%d}}}`, f.MinRuntimeMinutes))
	}
	if f.MaxRuntimeMinutes != 0 {
		conds = append(conds, fmt.Sprintf(`{"range":{"runtime_minutes":{"lte":%d}}}`, f.MaxRuntimeMinutes))
	}
	if f.MinVoteCount != 0 {
		conds = append(conds, fmt.Sprintf(`{"range":{"vote_count":{"gte":%d}}}`, f.MinVoteCount))
	}
	if f.MinPopularity != 0 {
		conds = append(conds, fmt.Sprintf(`{"range":{"popularity_score":{"gte":%f}}}`, f.MinPopularity))
	}
	if f.MaxPopularity != 0 {
		conds = append(conds, fmt.Sprintf(`{"range":{"popularity_score":{"lte":%f}}}`, f.MaxPopularity))
	}
	for _, g := range f.IncludeGenres {
		conds = append(conds, fmt.Sprintf(`{"term":{"genre_tags.keyword":%q}}`, g))
	}
	for _, g := range f.ExcludeGenres {
		conds = append(conds, fmt.Sprintf(`{"bool":{"must_not":{"term":{"genre_tags.keyword":%q}}}}`, g))
	}
	return conds
}

func jitteredBackoff() time.Duration {
	return time.Duration(50+rand.Intn(100)) * time.Millisecond
}
