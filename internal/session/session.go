// Package session implements the Session Store (C3): TTL-backed session
// persistence with a per-session in-process lock serializing concurrent
// mutations to the same session: a process-local striped mutex keyed by
// session ID, not a distributed lock. Uses the internal/cachekv.Store
// abstraction plus a hand-rolled striped-lock helper in the same spirit
// as the per-resource mutex usage in the cleanup registry.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nyx-moment/moment/internal/cachekv"
	apperrors "github.com/nyx-moment/moment/internal/errors"
	"github.com/nyx-moment/moment/internal/types"
)

// stripeCount bounds the number of independent locks; session IDs hash
// into one of these stripes so arbitrarily many sessions share a small,
// fixed set of mutexes.
const stripeCount = 256

// Store persists Sessions in a cachekv.Store with a striped in-process
// lock serializing Update calls per session ID.
type Store struct {
	kv     cachekv.Store
	ttl    time.Duration
	prefix string

	stripes [stripeCount]sync.Mutex
}

// NewStore wraps an already-constructed cachekv.Store (Redis or memory).
func NewStore(kv cachekv.Store, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{kv: kv, ttl: ttl, prefix: "session:"}
}

func (s *Store) stripe(id string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &s.stripes[h.Sum32()%stripeCount]
}

func (s *Store) key(id string) string { return s.prefix + id }

// Create allocates a fresh session identifier and persists an empty
// session for domain/flow/context.
func (s *Store) Create(ctx context.Context, domain types.Domain, flow types.FlowType, reqCtx types.RequestContext, catalogVersion int) (*types.Session, error) {
	now := time.Now()
	sess := &types.Session{
		ID:             uuid.New().String(),
		Domain:         domain,
		FlowType:       flow,
		Context:        reqCtx,
		CatalogVersion: catalogVersion,
		CreatedAt:      now,
		LastTouchedAt:  now,
	}
	if err := s.write(ctx, sess); err != nil {
		return nil, apperrors.NewUnavailableError("failed to persist new session")
	}
	return sess, nil
}

// Get loads a session snapshot by ID. A missing or expired entry returns
// errors.ErrSessionExpired.
func (s *Store) Get(ctx context.Context, id string) (*types.Session, error) {
	raw, ok, err := s.kv.Get(ctx, s.key(id))
	if err != nil {
		return nil, apperrors.NewUnavailableError("session store unavailable")
	}
	if !ok {
		return nil, apperrors.NewSessionExpiredError()
	}

	var sess types.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("session: decode stored session %s: %w", id, err)
	}
	return &sess, nil
}

// Mutator mutates a session snapshot in place; Update persists the result
// only if mutator returns nil.
type Mutator func(*types.Session) error

// Update loads, mutates under the session's stripe lock, and persists a
// session. Concurrent Update calls for the same session ID serialize;
// different sessions contend only when their IDs hash to the same stripe.
func (s *Store) Update(ctx context.Context, id string, mutate Mutator) (*types.Session, error) {
	lock := s.stripe(id)
	lock.Lock()
	defer lock.Unlock()

	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := mutate(sess); err != nil {
		return nil, err
	}
	sess.LastTouchedAt = time.Now()
	if err := s.write(ctx, sess); err != nil {
		return nil, apperrors.NewUnavailableError("failed to persist session update")
	}
	return sess, nil
}

// Touch resets the TTL without mutating the stored session.
func (s *Store) Touch(ctx context.Context, id string) error {
	if err := s.kv.Touch(ctx, s.key(id), s.ttl); err != nil {
		return apperrors.NewUnavailableError("failed to touch session TTL")
	}
	return nil
}

func (s *Store) write(ctx context.Context, sess *types.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session: encode session %s: %w", sess.ID, err)
	}
	return s.kv.Set(ctx, s.key(sess.ID), raw, s.ttl)
}

// RecordAnswer is the idempotent answer-recording mutator: a resubmission
// of an already-present question ID is a no-op.
func RecordAnswer(answer types.Answer) Mutator {
	return func(sess *types.Session) error {
		if sess.HasAnswer(answer.QuestionID) {
			return nil
		}
		sess.Answers = append(sess.Answers, answer)
		return nil
	}
}
