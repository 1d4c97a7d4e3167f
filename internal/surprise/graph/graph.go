// Package graph supplies the genre-adjacency lookups behind the Surprise
// Engine's (C9) adjacent_discovery and genre_bending slots: "what genre is
// related to the session's dominant signal, but not identical to it".
// Uses the usual neo4j-go-driver-backed repository shape, applied to a
// small static genre-adjacency graph instead of knowledge-graph entity
// traversal, plus a dependency-free static fallback so the Surprise
// Engine can never fail just because the graph store is down.
package graph

import (
	"context"
	"fmt"

	"github.com/nyx-moment/moment/internal/logger"
	"github.com/neo4j/neo4j-go-driver/v6/neo4j"
)

// AdjacencyLookup is the Surprise Engine's seam onto a genre-adjacency
// source: given a genre, return related-but-distinct genres ordered by
// strength of relation.
type AdjacencyLookup interface {
	Related(ctx context.Context, genre string, limit int) ([]string, error)
}

// Neo4jBackend queries a small `(:Genre)-[:RELATED_TO {weight}]-(:Genre)`
// graph, scoped to a single "Genre" label since there is no multi-tenant
// namespace concept in this domain.
type Neo4jBackend struct {
	driver neo4j.Driver
}

// NewNeo4jBackend wraps an already-constructed driver. A nil driver is
// accepted so callers can construct the backend optimistically and let
// Related report the "not supported" case uniformly with a real driver
// that happens to be unreachable.
func NewNeo4jBackend(driver neo4j.Driver) *Neo4jBackend {
	return &Neo4jBackend{driver: driver}
}

func (n *Neo4jBackend) Related(ctx context.Context, genre string, limit int) ([]string, error) {
	if n.driver == nil {
		return nil, fmt.Errorf("graph: neo4j driver not configured")
	}

	session := n.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		query := `
			MATCH (g:Genre {name: $genre})-[r:RELATED_TO]-(o:Genre)
			RETURN o.name AS name
			ORDER BY r.weight DESC
			LIMIT $limit
		`
		rows, err := tx.Run(ctx, query, map[string]interface{}{"genre": genre, "limit": limit})
		if err != nil {
			return nil, fmt.Errorf("graph: query related genres: %w", err)
		}

		names := make([]string, 0, limit)
		for rows.Next(ctx) {
			if name, ok := rows.Record().Get("name"); ok {
				names = append(names, name.(string))
			}
		}
		return names, rows.Err()
	})
	if err != nil {
		logger.Errorf(ctx, "graph: neo4j related-genre lookup failed: %v", err)
		return nil, err
	}
	return result.([]string), nil
}

// StaticBackend is the built-in adjacency table used when Neo4j is
// unavailable: the same relation shape with far fewer edges, enough to
// keep the Surprise Engine's slot-filling unblocked.
type StaticBackend struct {
	table map[string][]string
}

// NewStaticBackend returns a backend pre-seeded with a small, hand-curated
// adjacency table covering the domains' common genre tags.
func NewStaticBackend() *StaticBackend {
	return &StaticBackend{table: defaultAdjacency}
}

func (s *StaticBackend) Related(_ context.Context, genre string, limit int) ([]string, error) {
	related := s.table[genre]
	if len(related) > limit {
		related = related[:limit]
	}
	return related, nil
}

var defaultAdjacency = map[string][]string{
	"horror":        {"thriller", "mystery", "dark comedy"},
	"thriller":      {"horror", "crime", "mystery"},
	"comedy":        {"dark comedy", "romance", "satire"},
	"dark comedy":   {"comedy", "drama", "satire"},
	"romance":       {"comedy", "drama"},
	"drama":         {"dark comedy", "romance", "biography"},
	"crime":         {"thriller", "mystery", "noir"},
	"mystery":       {"thriller", "crime", "noir"},
	"noir":          {"crime", "mystery", "thriller"},
	"sci-fi":        {"fantasy", "thriller", "adventure"},
	"fantasy":       {"sci-fi", "adventure", "animation"},
	"adventure":     {"fantasy", "sci-fi", "action"},
	"action":        {"adventure", "thriller"},
	"documentary":   {"biography", "history"},
	"biography":     {"drama", "history", "documentary"},
	"history":       {"biography", "documentary", "war"},
	"animation":     {"fantasy", "family"},
	"family":        {"animation", "comedy"},
	"satire":        {"dark comedy", "comedy"},
	"war":           {"history", "drama"},
}

// Chain returns a lookup that tries primary first and falls back to
// secondary whenever primary errors, so the Surprise Engine's caller never
// has to reason about which tier answered.
func Chain(primary, secondary AdjacencyLookup) AdjacencyLookup {
	return chainLookup{primary: primary, secondary: secondary}
}

type chainLookup struct {
	primary   AdjacencyLookup
	secondary AdjacencyLookup
}

func (c chainLookup) Related(ctx context.Context, genre string, limit int) ([]string, error) {
	related, err := c.primary.Related(ctx, genre, limit)
	if err == nil && len(related) > 0 {
		return related, nil
	}
	return c.secondary.Related(ctx, genre, limit)
}
