package catalogsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nyx-moment/moment/internal/logger"
	"github.com/nyx-moment/moment/internal/retrieval"
	"github.com/nyx-moment/moment/internal/types"
	"github.com/elastic/go-elasticsearch/v8"
)

// V8Store is the Elasticsearch v8 Retriever backend. It calls the v8
// client's functional-option Search API with a raw JSON body rather than
// the typed query DSL builder, since the hand-built JSON bodies in
// buildQuery are shared verbatim with V7Store.
type V8Store struct {
	client *elasticsearch.Client
	index  string
}

// NewV8Store wraps an already-constructed v8 client.
func NewV8Store(client *elasticsearch.Client, index string) *V8Store {
	return &V8Store{client: client, index: index}
}

func (s *V8Store) Retrieve(ctx context.Context, req retrieval.Request) ([]types.Candidate, error) {
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

func (s *V8Store) search(ctx context.Context, query string) ([]types.Candidate, error) {
	resp, err := s.client.Search(
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(strings.NewReader(query)),
		s.client.Search.WithContext(ctx),
	)
	if err != nil {
		logger.Errorf(ctx, "catalogsearch(v8): search failed: %v", err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return nil, fmt.Errorf("catalogsearch(v8): %s", resp.String())
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("catalogsearch(v8): decode response: %w", err)
	}
	return parsed.candidates(), nil
}
