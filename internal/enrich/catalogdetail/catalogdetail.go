// Package catalogdetail is the default per-item detail fetch collaborator
// the Enricher (C8) draws from. Grounded on the same gorm row-plus-
// TableName repository shape as internal/catalog and
// internal/retrieval/pgvectorstore, generalized to a single-row lookup by
// catalog item ID instead of a domain-scoped list query.
package catalogdetail

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/nyx-moment/moment/internal/enrich"
)

// detailRow is the Postgres row carrying the descriptive fields the
// retrieval index's own catalog_items row doesn't: synopsis, cast, and
// the two image paths.
type detailRow struct {
	ID           string         `gorm:"column:id;primarykey"`
	Overview     string         `gorm:"column:overview"`
	Cast         detailStrArray `gorm:"column:cast_list;type:text[]"`
	PosterPath   string         `gorm:"column:poster_path"`
	BackdropPath string         `gorm:"column:backdrop_path"`
}

func (detailRow) TableName() string { return "catalog_item_details" }

// Store looks up one catalog item's descriptive detail row by ID.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an already-opened gorm Postgres connection.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// FetchDetail implements enrich.DetailFetcher.
func (s *Store) FetchDetail(ctx context.Context, candidateID string) (enrich.Detail, error) {
	var row detailRow
	if err := s.db.WithContext(ctx).Where("id = ?", candidateID).First(&row).Error; err != nil {
		return enrich.Detail{}, fmt.Errorf("catalogdetail: fetch %s: %w", candidateID, err)
	}
	return enrich.Detail{
		Synopsis:     row.Overview,
		Cast:         []string(row.Cast),
		PosterPath:   row.PosterPath,
		BackdropPath: row.BackdropPath,
	}, nil
}
