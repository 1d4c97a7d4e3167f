package analytics

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nyx-moment/moment/internal/types"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	events []types.AnalyticsEvent
}

func (r *recordingSink) Write(_ context.Context, evt types.AnalyticsEvent) error {
	r.events = append(r.events, evt)
	return nil
}

func TestHandlerFunc_DecodesAndForwards(t *testing.T) {
	sink := &recordingSink{}
	handler := HandlerFunc(sink)

	evt := types.AnalyticsEvent{
		Kind:      types.EventRecommendationResult,
		SessionID: "sess-1",
		Domain:    types.DomainMovies,
		Timestamp: time.Unix(0, 0).UTC(),
		Payload:   map[string]any{"count": float64(5)},
	}
	payload, err := json.Marshal(evt)
	require.NoError(t, err)

	task := asynq.NewTask(TaskTypeEvent, payload)
	err = handler(context.Background(), task)
	require.NoError(t, err)

	require.Len(t, sink.events, 1)
	assert.Equal(t, evt.SessionID, sink.events[0].SessionID)
	assert.Equal(t, evt.Kind, sink.events[0].Kind)
}

func TestHandlerFunc_InvalidPayload(t *testing.T) {
	sink := &recordingSink{}
	handler := HandlerFunc(sink)

	task := asynq.NewTask(TaskTypeEvent, []byte("not json"))
	err := handler(context.Background(), task)
	assert.Error(t, err)
	assert.Empty(t, sink.events)
}

func TestWriter_EmitWithoutClientDoesNotPanic(t *testing.T) {
	w := NewWriter("low")
	assert.NotPanics(t, func() {
		w.Emit(context.Background(), types.AnalyticsEvent{Kind: types.EventSessionEmbedded})
	})
}
