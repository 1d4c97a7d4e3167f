// Package pgvectorstore is the default Retrieval Client (C6) backend: a
// Postgres table of catalog items with a pgvector halfvec embedding column,
// searched by cosine distance, using a gorm+pgvector halfvec `<=>`
// cosine-operator query shape against catalog-item embeddings.
package pgvectorstore

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/nyx-moment/moment/internal/logger"
	"github.com/nyx-moment/moment/internal/retrieval"
	"github.com/nyx-moment/moment/internal/types"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// itemRow is the Postgres row backing one catalog item's retrieval index.
type itemRow struct {
	ID              string              `gorm:"column:id;primarykey"`
	Domain          string              `gorm:"column:domain;not null"`
	Title           string              `gorm:"column:title;not null"`
	ReleaseYear     int                 `gorm:"column:release_year"`
	GenreTags       pq                  `gorm:"column:genre_tags;type:text[]"`
	QualityScore    float64             `gorm:"column:quality_score"`
	PopularityScore float64             `gorm:"column:popularity_score"`
	VoteCount       int                 `gorm:"column:vote_count"`
	RuntimeMinutes  int                 `gorm:"column:runtime_minutes"`
	Dimension       int                 `gorm:"column:dimension;not null"`
	Embedding       pgvector.HalfVector `gorm:"column:embedding;not null"`
}

func (itemRow) TableName() string { return "catalog_items" }

// itemRowWithScore is itemRow plus the cosine similarity computed in the
// SELECT clause.
type itemRowWithScore struct {
	itemRow
	Score float64 `gorm:"column:score"`
}

// pq is a minimal text[] scanner/valuer, avoiding a dependency on
// lib/pq solely for array support gorm's Postgres driver doesn't provide
// out of the box.
type pq []string

// Store is the pgvector-backed Retriever.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an already-opened gorm Postgres connection.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Retrieve implements retrieval.Retriever. Vector mode runs a cosine
// `<=>` nearest-neighbor search; text mode is not supported directly by
// this backend (the caller's Embedding Cache always supplies a vector
// before reaching here.6 "Text mode forwards to the index
// service" — for pgvector that index service is the embedding provider
// upstream of this call, not this store).
func (s *Store) Retrieve(ctx context.Context, req retrieval.Request) ([]types.Candidate, error) {
	req = req.Normalize()
	if len(req.QueryEmbedding) == 0 {
		return nil, fmt.Errorf("pgvectorstore: vector mode requires a query embedding")
	}

	attempt := func(ctx context.Context) ([]types.Candidate, error) {
		return s.search(ctx, req)
	}
	return retrieval.WithJitteredRetry(ctx, attempt, jitteredBackoff)
}

func (s *Store) search(ctx context.Context, req retrieval.Request) ([]types.Candidate, error) {
	dimension := len(req.QueryEmbedding)
	vec := pgvector.NewHalfVector(req.QueryEmbedding)

	conds := []clause.Expression{
		clause.Eq{Column: "domain", Value: string(req.Domain)},
		clause.Expr{SQL: "dimension = ?", Vars: []interface{}{dimension}},
	}
	conds = appendFilterConds(conds, req.Filter)
	conds = append(conds, clause.OrderBy{Expression: clause.Expr{
		SQL:  fmt.Sprintf("embedding::halfvec(%d) <=> ?::halfvec", dimension),
		Vars: []interface{}{vec},
	}})

	var rows []itemRowWithScore
	err := s.db.WithContext(ctx).Clauses(conds...).
		Select(fmt.Sprintf(
			"id, domain, title, release_year, genre_tags, quality_score, popularity_score, "+
				"vote_count, runtime_minutes, dimension, embedding, "+
				"(1 - (embedding::halfvec(%d) <=> ?::halfvec)) as score",
			dimension,
		), vec).
		Limit(req.TopK).
		Find(&rows).Error
	if err != nil {
		logger.Errorf(ctx, "pgvectorstore: vector search failed: %v", err)
		return nil, err
	}

	candidates := make([]types.Candidate, len(rows))
	for i, row := range rows {
		candidates[i] = toCandidate(row.itemRow, row.Score)
	}
	return candidates, nil
}

func appendFilterConds(conds []clause.Expression, f types.FilterPredicate) []clause.Expression {
	if f.MinReleaseYear != 0 {
		conds = append(conds, clause.Gte{Column: "release_year", Value: f.MinReleaseYear})
	}
	if f.MaxReleaseYear != 0 {
		conds = append(conds, clause.Lte{Column: "release_year", Value: f.MaxReleaseYear})
	}
	if f.MinRating != 0 {
		conds = append(conds, clause.Gte{Column: "quality_score", Value: f.MinRating})
	}
	if f.MaxRuntimeMinutes != 0 {
		conds = append(conds, clause.Lte{Column: "runtime_minutes", Value: f.MaxRuntimeMinutes})
	}
	if f.MinRuntimeMinutes != 0 {
		conds = append(conds, clause.Gte{Column: "runtime_minutes", Value: f.MinRuntimeMinutes})
	}
	if f.MinVoteCount != 0 {
		conds = append(conds, clause.Gte{Column: "vote_count", Value: f.MinVoteCount})
	}
	if f.MinPopularity != 0 {
		conds = append(conds, clause.Gte{Column: "popularity_score", Value: f.MinPopularity})
	}
	if f.MaxPopularity != 0 {
		conds = append(conds, clause.Lte{Column: "popularity_score", Value: f.MaxPopularity})
	}
	if len(f.IncludeGenres) > 0 {
		conds = append(conds, clause.Expr{SQL: "genre_tags && ?", Vars: []interface{}{pqArray(f.IncludeGenres)}})
	}
	if len(f.ExcludeGenres) > 0 {
		conds = append(conds, clause.Expr{SQL: "NOT (genre_tags && ?)", Vars: []interface{}{pqArray(f.ExcludeGenres)}})
	}
	return conds
}

func toCandidate(row itemRow, score float64) types.Candidate {
	return types.Candidate{
		ID:              row.ID,
		Title:           row.Title,
		ReleaseYear:     row.ReleaseYear,
		GenreTags:       []string(row.GenreTags),
		QualityScore:    row.QualityScore,
		PopularityScore: row.PopularityScore,
		VoteCount:       row.VoteCount,
		RuntimeMinutes:  row.RuntimeMinutes,
		SimilarityScore: score,
	}
}

func jitteredBackoff() time.Duration {
	return time.Duration(50+rand.Intn(100)) * time.Millisecond
}
