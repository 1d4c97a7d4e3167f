// Package retrieval implements the Retrieval Client (C6): text- or
// vector-mode nearest-neighbor search against a catalog index, with the
// Filter Predicate translated into each backend's own metadata-filter
// dialect, via a multi-backend retriever-engine registry applied to
// catalog-item retrieval.
package retrieval

import (
	"context"
	"errors"
	"time"

	"github.com/nyx-moment/moment/internal/types"
)

// DefaultTopK and MaxTopK bound every request.
const (
	DefaultTopK = 20
	MaxTopK     = 50
)

// ErrUnavailable is returned by a backend after its retry budget is spent;
// the Orchestrator logs it and falls back to the next retrieval tier.
var ErrUnavailable = errors.New("retrieval backend unavailable")

// Request describes one retrieval call. Exactly one of QueryText or
// QueryEmbedding should be set, selecting text mode or vector mode.
type Request struct {
	Domain        types.Domain
	QueryText     string
	QueryEmbedding []float32
	Filter        types.FilterPredicate
	TopK          int
}

// Normalize clamps TopK into [1, MaxTopK], defaulting to DefaultTopK.
func (r Request) Normalize() Request {
	out := r
	if out.TopK <= 0 {
		out.TopK = DefaultTopK
	}
	if out.TopK > MaxTopK {
		out.TopK = MaxTopK
	}
	return out
}

// Retriever is the Retrieval Client's backend seam. Implementations own
// their own retry policy internally and must return ErrUnavailable (never
// a raw transport error) once that policy is exhausted: a single retry
// with jittered backoff, then report RetrievalUnavailable on the second
// failure.
type Retriever interface {
	Retrieve(ctx context.Context, req Request) ([]types.Candidate, error)
}

// WithJitteredRetry wraps a single attempt function with the Retriever's
// retry policy: one retry after a jittered backoff, then ErrUnavailable.
func WithJitteredRetry(ctx context.Context, attempt func(ctx context.Context) ([]types.Candidate, error), jitter func() time.Duration) ([]types.Candidate, error) {
	results, err := attempt(ctx)
	if err == nil {
		return results, nil
	}
	if ctx.Err() != nil {
		return nil, ErrUnavailable
	}

	select {
	case <-ctx.Done():
		return nil, ErrUnavailable
	case <-time.After(jitter()):
	}

	results, err = attempt(ctx)
	if err != nil {
		return nil, ErrUnavailable
	}
	return results, nil
}
