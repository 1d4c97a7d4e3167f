package session

import (
	"context"
	"testing"
	"time"

	"github.com/nyx-moment/moment/internal/cachekv"
	apperrors "github.com/nyx-moment/moment/internal/errors"
	"github.com/nyx-moment/moment/internal/types"
)

func newTestStore() *Store {
	return NewStore(cachekv.NewMemoryStore(time.Hour), time.Hour)
}

func TestCreateAndGet(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	sess, err := s.Create(ctx, types.DomainMovies, types.FlowStandard, types.RequestContext{}, 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sess.ID == "" {
		t.Fatal("expected a generated session ID")
	}

	got, err := s.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != sess.ID || got.Domain != types.DomainMovies {
		t.Fatalf("unexpected session: %+v", got)
	}
}

func TestGet_MissingReturnsExpired(t *testing.T) {
	s := newTestStore()
	_, err := s.Get(context.Background(), "does-not-exist")
	appErr, ok := apperrors.IsAppError(err)
	if !ok || appErr.Code != apperrors.ErrSessionExpired {
		t.Fatalf("expected SESSION_EXPIRED, got %v", err)
	}
}

func TestUpdate_RecordAnswerIsIdempotent(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	sess, _ := s.Create(ctx, types.DomainMovies, types.FlowStandard, types.RequestContext{}, 1)

	answer := types.Answer{QuestionID: "q1", OptionID: "a", SubmittedAt: time.Now()}
	if _, err := s.Update(ctx, sess.ID, RecordAnswer(answer)); err != nil {
		t.Fatalf("Update: %v", err)
	}

	duplicate := types.Answer{QuestionID: "q1", OptionID: "b", SubmittedAt: time.Now()}
	updated, err := s.Update(ctx, sess.ID, RecordAnswer(duplicate))
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(updated.Answers) != 1 || updated.Answers[0].OptionID != "a" {
		t.Fatalf("expected resubmission to be ignored, got %+v", updated.Answers)
	}
}

func TestUpdate_ConcurrentAnswersSerialize(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	sess, _ := s.Create(ctx, types.DomainMovies, types.FlowStandard, types.RequestContext{}, 1)

	const n = 20
	done := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer func() { done <- struct{}{} }()
			answer := types.Answer{QuestionID: string(rune('a' + i)), OptionID: "x", SubmittedAt: time.Now()}
			_, _ = s.Update(ctx, sess.ID, RecordAnswer(answer))
		}(i)
	}
	for i := 0; i < n; i++ {
		<-done
	}

	final, err := s.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(final.Answers) != n {
		t.Fatalf("expected %d answers recorded without loss, got %d", n, len(final.Answers))
	}
}
