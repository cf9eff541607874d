package worker

import (
	"context"
	"sync"
	"time"

	"github.com/creatorpulse/creatorpulse/internal/domain"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/logging"
)

// ContentSink receives archived content in batches.
// implemented by the kafka stream writer.
type ContentSink interface {
	WriteRecords(ctx context.Context, records []domain.ContentRecord) error
}

// ArchiveMetricsRecorder abstracts prometheus metrics for the archive worker.
// keeps worker decoupled from metrics package.
type ArchiveMetricsRecorder interface {
	SetBufferSize(size int)
	RecordUpstreamError(service string)
}

// ContentArchiveConfig holds configuration for the archive worker.
type ContentArchiveConfig struct {
	// BufferSize is the size of the record channel buffer.
	// a full buffer makes detection drop records instead of blocking
	BufferSize int

	// BatchSize is the number of records to accumulate before flushing.
	BatchSize int

	// FlushInterval is the maximum time to wait before flushing a partial batch.
	FlushInterval time.Duration

	// WorkerCount is the number of concurrent flushers.
	WorkerCount int
}

// DefaultContentArchiveConfig returns sensible defaults for the worker.
func DefaultContentArchiveConfig() ContentArchiveConfig {
	return ContentArchiveConfig{
		BufferSize:    10000,
		BatchSize:     100,
		FlushInterval: 500 * time.Millisecond,
		WorkerCount:   2,
	}
}

// ContentArchiveWorker ships fetched content from a buffered channel to the sink.
// batches writes to reduce broker roundtrips.
type ContentArchiveWorker struct {
	records chan domain.ContentRecord
	sink    ContentSink
	config  ContentArchiveConfig
	logger  *logging.Logger
	metrics ArchiveMetricsRecorder

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopped  chan struct{}
}

// NewContentArchiveWorker creates a new content archive worker.
func NewContentArchiveWorker(
	sink ContentSink,
	config ContentArchiveConfig,
	logger *logging.Logger,
) *ContentArchiveWorker {
	return &ContentArchiveWorker{
		records: make(chan domain.ContentRecord, config.BufferSize),
		sink:    sink,
		config:  config,
		logger:  logger.WithComponent("content_archive_worker"),
		stopped: make(chan struct{}),
	}
}

// WithMetrics sets the metrics recorder for observability.
func (w *ContentArchiveWorker) WithMetrics(m ArchiveMetricsRecorder) *ContentArchiveWorker {
	w.metrics = m
	return w
}

// Channel returns the channel for submitting records.
// handed to the detection use case.
func (w *ContentArchiveWorker) Channel() chan<- domain.ContentRecord {
	return w.records
}

// Start begins the worker goroutines.
func (w *ContentArchiveWorker) Start(ctx context.Context) {
	w.logger.Info("content archive worker starting",
		"buffer_size", w.config.BufferSize,
		"batch_size", w.config.BatchSize,
		"flush_interval", w.config.FlushInterval.String(),
		"worker_count", w.config.WorkerCount,
	)

	for i := 0; i < w.config.WorkerCount; i++ {
		w.wg.Add(1)
		go w.runWorker(ctx, i)
	}
}

// Stop gracefully shuts down the worker, draining remaining records.
// nothing may send on Channel after Stop.
func (w *ContentArchiveWorker) Stop() {
	w.stopOnce.Do(func() {
		w.logger.Info("content archive worker stopping, draining buffer...")
		close(w.records)
		w.wg.Wait()
		close(w.stopped)
		w.logger.Info("content archive worker stopped")
	})
}

// Stopped returns a channel that closes when the worker has fully stopped.
func (w *ContentArchiveWorker) Stopped() <-chan struct{} {
	return w.stopped
}

// QueueSize returns the current number of records waiting in the buffer.
func (w *ContentArchiveWorker) QueueSize() int {
	return len(w.records)
}

func (w *ContentArchiveWorker) runWorker(ctx context.Context, workerID int) {
	defer w.wg.Done()

	batch := make([]domain.ContentRecord, 0, w.config.BatchSize)
	ticker := time.NewTicker(w.config.FlushInterval)
	defer ticker.Stop()

	flush := func(ctx context.Context) {
		if len(batch) == 0 {
			return
		}
		w.flushBatch(ctx, batch, workerID)
		batch = batch[:0]
	}

	for {
		select {
		case rec, ok := <-w.records:
			if !ok {
				// channel closed, flush remaining and exit
				flush(context.WithoutCancel(ctx))
				return
			}

			batch = append(batch, rec)
			if len(batch) >= w.config.BatchSize {
				flush(ctx)
			}

		case <-ticker.C:
			flush(ctx)

		case <-ctx.Done():
			// the broker call needs a live context to drain
			flush(context.WithoutCancel(ctx))
			return
		}
	}
}

func (w *ContentArchiveWorker) flushBatch(ctx context.Context, batch []domain.ContentRecord, workerID int) {
	start := time.Now()
	err := w.sink.WriteRecords(ctx, batch)
	duration := time.Since(start)

	if w.metrics != nil {
		w.metrics.SetBufferSize(len(w.records))
	}

	if err != nil {
		if w.metrics != nil {
			w.metrics.RecordUpstreamError("kafka")
		}
		w.logger.Error("archive batch failed",
			"worker_id", workerID,
			"batch_size", len(batch),
			"error", err.Error(),
			"duration_ms", duration.Milliseconds(),
		)
		return
	}

	w.logger.Debug("archive batch flushed",
		"worker_id", workerID,
		"batch_size", len(batch),
		"duration_ms", duration.Milliseconds(),
	)
}
