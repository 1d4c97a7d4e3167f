// Package analytics implements the Analytics Writer (C14): a
// fire-and-forget sink for session lifecycle events, never on the request
// hot path . Events are enqueued onto an asynq-backed Redis
// queue and drained by a background task handler into periodic parquet
// batches (internal/analytics/export).
package analytics

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nyx-moment/moment/internal/logger"
	"github.com/nyx-moment/moment/internal/types"
	"github.com/hibiken/asynq"
)

const TaskTypeEvent = "analytics:event"

// Writer emits AnalyticsEvent records without blocking its caller. Emit
// never returns an error the caller must act on — a failed enqueue is
// logged and dropped, matching this service's "never blocks, never fails the
// request" requirement for this component.
type Writer struct {
	queue string
}

// NewWriter builds a Writer that enqueues onto queue ("critical", "default",
// or "low" in the asynq server's priority map).
func NewWriter(queue string) *Writer {
	if queue == "" {
		queue = "low"
	}
	return &Writer{queue: queue}
}

// Emit enqueues evt for asynchronous processing. The enqueue itself runs
// under the caller's ctx.
func (w *Writer) Emit(ctx context.Context, evt types.AnalyticsEvent) {
	payload, err := json.Marshal(evt)
	if err != nil {
		logger.Errorf(ctx, "analytics: marshal event: %v", err)
		return
	}

	client := GetAsynqClient()
	if client == nil {
		logger.Warn(ctx, "analytics: no asynq client configured, dropping event")
		return
	}

	task := asynq.NewTask(TaskTypeEvent, payload)
	if _, err := client.EnqueueContext(ctx, task, asynq.Queue(w.queue)); err != nil {
		logger.Errorf(ctx, "analytics: enqueue event: %v", err)
	}
}

// Sink receives decoded events as they're drained from the queue, the
// seam the parquet exporter (internal/analytics/export) implements.
type Sink interface {
	Write(ctx context.Context, evt types.AnalyticsEvent) error
}

// HandlerFunc builds the asynq.HandlerFunc that decodes a task payload and
// forwards it to sink. Registered via RegisterHandlerFunc during container
// wiring.
func HandlerFunc(sink Sink) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var evt types.AnalyticsEvent
		if err := json.Unmarshal(task.Payload(), &evt); err != nil {
			return fmt.Errorf("decode analytics event: %w", err)
		}
		return sink.Write(ctx, evt)
	}
}
