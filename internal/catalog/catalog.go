// Package catalog implements the Question Catalog (C1): the ordered
// question set for a domain, backed by Postgres with a warm in-memory
// cache and a built-in fallback set. Uses a gorm repository pattern
// (simple struct + TableName + Find/Save methods) applied to
// question/option rows.
package catalog

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nyx-moment/moment/internal/logger"
	"github.com/nyx-moment/moment/internal/types"
	"gorm.io/gorm"
)

// Store serves Question Catalog reads, consulting a warm cache first and
// falling back to a built-in question set if the backing store is
// unavailable. Returning an empty list is never acceptable, per the
// catalog's "fatal error" clause — GetQuestions always returns at least
// the built-in set.
type Store struct {
	db      *gorm.DB
	warmTTL time.Duration

	mu       sync.RWMutex
	warm     map[types.Domain]warmEntry
}

type warmEntry struct {
	questions []types.Question
	version   int
	expiresAt time.Time
}

// NewStore wraps an already-opened gorm Postgres connection. db may be nil,
// in which case the store always serves the built-in fallback set.
func NewStore(db *gorm.DB, warmTTL time.Duration) *Store {
	if warmTTL <= 0 {
		warmTTL = time.Hour
	}
	return &Store{db: db, warmTTL: warmTTL, warm: make(map[types.Domain]warmEntry)}
}

// questionRow and optionRow are the Postgres rows backing the catalog.
// Options are stored as a child table keyed by question ID so ordinal
// ordering survives independently of insertion order.
type questionRow struct {
	ID          string `gorm:"column:id;primarykey"`
	Domain      string `gorm:"column:domain;not null"`
	Ordinal     int    `gorm:"column:ordinal;not null"`
	Prompt      string `gorm:"column:prompt;not null"`
	Description string `gorm:"column:description"`
	Version     int    `gorm:"column:version;not null"`
}

func (questionRow) TableName() string { return "catalog_questions" }

type optionRow struct {
	ID           string         `gorm:"column:id;primarykey"`
	QuestionID   string         `gorm:"column:question_id;not null"`
	Text         string         `gorm:"column:text;not null"`
	TraitWeights datatypeJSON   `gorm:"column:trait_weights;type:jsonb"`
	FilterHints  datatypeJSON   `gorm:"column:filter_hints;type:jsonb"`
	Ordinal      int            `gorm:"column:ordinal"`
}

func (optionRow) TableName() string { return "catalog_options" }

// GetQuestions returns the ordered question list for domain, consulting the
// warm cache first (TTL ≤ warmTTL). On backend unavailability or an empty
// result, the built-in fallback set is returned instead of a fatal error.
func (s *Store) GetQuestions(ctx context.Context, domain types.Domain) (questions []types.Question, version int) {
	if entry, ok := s.lookupWarm(domain); ok {
		return entry.questions, entry.version
	}

	loaded, version, err := s.loadFromStore(ctx, domain)
	if err != nil || len(loaded) == 0 {
		if err != nil {
			logger.Warnf(ctx, "catalog: store unavailable for domain %s, serving built-in fallback: %v", domain, err)
		}
		fallback := BuiltinQuestions(domain)
		s.storeWarm(domain, fallback, 0)
		return fallback, 0
	}

	s.storeWarm(domain, loaded, version)
	return loaded, version
}

func (s *Store) lookupWarm(domain types.Domain) (warmEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.warm[domain]
	if !ok || time.Now().After(entry.expiresAt) {
		return warmEntry{}, false
	}
	return entry, true
}

func (s *Store) storeWarm(domain types.Domain, questions []types.Question, version int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warm[domain] = warmEntry{questions: questions, version: version, expiresAt: time.Now().Add(s.warmTTL)}
}

func (s *Store) loadFromStore(ctx context.Context, domain types.Domain) ([]types.Question, int, error) {
	if s.db == nil {
		return nil, 0, nil
	}

	var qRows []questionRow
	if err := s.db.WithContext(ctx).Where("domain = ?", string(domain)).Order("ordinal").Find(&qRows).Error; err != nil {
		return nil, 0, err
	}
	if len(qRows) == 0 {
		return nil, 0, nil
	}

	questionIDs := make([]string, len(qRows))
	for i, q := range qRows {
		questionIDs[i] = q.ID
	}

	var oRows []optionRow
	if err := s.db.WithContext(ctx).Where("question_id IN ?", questionIDs).Order("ordinal").Find(&oRows).Error; err != nil {
		return nil, 0, err
	}

	optionsByQuestion := make(map[string][]types.Option, len(qRows))
	for _, o := range oRows {
		optionsByQuestion[o.QuestionID] = append(optionsByQuestion[o.QuestionID], types.Option{
			ID:           o.ID,
			Text:         o.Text,
			TraitWeights: o.TraitWeights.asFloatMap(),
			FilterHints:  o.FilterHints.asAnyMap(),
		})
	}

	version := 0
	questions := make([]types.Question, len(qRows))
	for i, q := range qRows {
		if q.Version > version {
			version = q.Version
		}
		questions[i] = types.Question{
			ID:          q.ID,
			Ordinal:     q.Ordinal,
			Prompt:      q.Prompt,
			Description: q.Description,
			Options:     optionsByQuestion[q.ID],
		}
	}
	sort.Slice(questions, func(i, j int) bool { return questions[i].Ordinal < questions[j].Ordinal })
	return questions, version, nil
}
