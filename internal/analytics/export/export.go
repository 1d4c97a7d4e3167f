// Package export periodically flushes buffered analytics events to parquet
// files on disk, the Analytics Writer's (C14) batch-export path. Uses
// parquet-go's generic parquet.WriteFile[T] to flush the typed row slice
// directly.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/nyx-moment/moment/internal/logger"
	"github.com/nyx-moment/moment/internal/types"
	"github.com/parquet-go/parquet-go"
)

// eventRow is the flat, parquet-friendly projection of an AnalyticsEvent.
// Payload is re-encoded to a JSON string since parquet-go has no native map
// column type usable across arbitrary event kinds.
type eventRow struct {
	Kind        string `parquet:"kind"`
	SessionID   string `parquet:"session_id"`
	Domain      string `parquet:"domain"`
	TimestampNS int64  `parquet:"timestamp_ns"`
	PayloadJSON string `parquet:"payload_json"`
	ClusterHint string `parquet:"cluster_hint"`
}

// BatchExporter buffers events in memory and flushes them to a timestamped
// parquet file under dir every interval, implementing analytics.Sink.
type BatchExporter struct {
	mu       sync.Mutex
	buffer   []eventRow
	dir      string
	interval time.Duration
	stop     chan struct{}
}

// NewBatchExporter creates a BatchExporter writing to dir every interval.
// Call Run in a goroutine to start the flush loop.
func NewBatchExporter(dir string, interval time.Duration) *BatchExporter {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &BatchExporter{dir: dir, interval: interval, stop: make(chan struct{})}
}

// Write buffers evt for the next flush. Never blocks on I/O.
func (b *BatchExporter) Write(_ context.Context, evt types.AnalyticsEvent) error {
	row := eventRow{
		Kind:        string(evt.Kind),
		SessionID:   evt.SessionID,
		Domain:      string(evt.Domain),
		TimestampNS: evt.Timestamp.UnixNano(),
		ClusterHint: evt.ClusterHint,
	}
	if evt.Payload != nil {
		if encoded, err := json.Marshal(evt.Payload); err == nil {
			row.PayloadJSON = string(encoded)
		}
	}

	b.mu.Lock()
	b.buffer = append(b.buffer, row)
	b.mu.Unlock()
	return nil
}

// Run blocks, flushing on every interval tick until ctx is cancelled.
func (b *BatchExporter) Run(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			b.flush(ctx)
			return
		case <-b.stop:
			b.flush(ctx)
			return
		case <-ticker.C:
			b.flush(ctx)
		}
	}
}

// Stop signals Run to flush once more and return.
func (b *BatchExporter) Stop() {
	close(b.stop)
}

func (b *BatchExporter) flush(ctx context.Context) {
	b.mu.Lock()
	rows := b.buffer
	b.buffer = nil
	b.mu.Unlock()

	if len(rows) == 0 {
		return
	}

	filename := filepath.Join(b.dir, fmt.Sprintf("events-%d.parquet", time.Now().UnixNano()))
	if err := parquet.WriteFile(filename, rows); err != nil {
		logger.Errorf(ctx, "analytics export: write %s: %v", filename, err)
		return
	}
	logger.Infof(ctx, "analytics export: wrote %d events to %s", len(rows), filename)
}
