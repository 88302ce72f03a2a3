package ledger

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/dex-indexer/internal/model"
	"github.com/rickgao/dex-indexer/internal/router"
)

// WriterConfig holds batch writer settings.
type WriterConfig struct {
	BatchSize     int           // Flush when this many trades are pending
	FlushInterval time.Duration // Flush at least this often
	BufferSize    int           // Queue capacity; Submit drops when full
	FlushTimeout  time.Duration // Per-flush deadline
}

// DefaultWriterConfig returns sensible defaults.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		BatchSize:     100,
		FlushInterval: time.Second,
		BufferSize:    10000,
		FlushTimeout:  10 * time.Second,
	}
}

// WriterMetrics counts writer activity.
type WriterMetrics struct {
	Submitted int64 `json:"submitted"`
	Dropped   int64 `json:"dropped"`
	Inserts   int64 `json:"inserts"`
	Conflicts int64 `json:"conflicts"`
	Errors    int64 `json:"errors"`
	Flushes   int64 `json:"flushes"`
}

// Writer queues trades and appends them to a Ledger in batches.
// Failed batches are logged and counted, never retried.
type Writer struct {
	cfg    WriterConfig
	logger *slog.Logger

	// Queue fed by Submit
	input *router.GrowableBuffer[model.Trade]

	ledger Ledger

	// Batching
	batch       []model.Trade
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Metrics
	metrics WriterMetrics
}

// NewWriter creates a new Writer.
func NewWriter(cfg WriterConfig, ledger Ledger, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}
	if cfg.FlushTimeout <= 0 {
		cfg.FlushTimeout = 10 * time.Second
	}
	initial := cfg.BufferSize
	if initial > 1024 {
		initial = 1024
	}
	return &Writer{
		cfg:    cfg,
		ledger: ledger,
		logger: logger,
		input:  router.NewBoundedBuffer[model.Trade](initial, cfg.BufferSize),
		batch:  make([]model.Trade, 0, cfg.BatchSize),
	}
}

// Submit queues a trade without blocking. It reports false when the trade
// was dropped because the queue is full or the writer stopped.
func (w *Writer) Submit(t model.Trade) bool {
	ok := w.input.Send(t)

	w.batchMu.Lock()
	if ok {
		w.metrics.Submitted++
	} else {
		w.metrics.Dropped++
	}
	w.batchMu.Unlock()

	if !ok {
		w.logger.Warn("ledger queue full, dropping trade", "hash", t.Hash)
	}
	return ok
}

// Start begins consuming trades and writing to the ledger.
func (w *Writer) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.flushTicker = time.NewTicker(w.cfg.FlushInterval)

	// Consumer goroutine
	w.wg.Add(1)
	go w.consumeLoop()

	// Flush ticker goroutine
	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("ledger writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
		"buffer_size", w.cfg.BufferSize,
	)
	return nil
}

// Stop drains queued trades, flushes them and shuts down.
func (w *Writer) Stop(ctx context.Context) error {
	w.logger.Info("stopping ledger writer")

	if w.cancel != nil {
		w.cancel()
	}

	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}

	// Wait for goroutines
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		w.logger.Warn("ledger writer stop timed out")
	}

	// Anything still queued goes out with the final flush
	w.input.Close()
	for {
		t, ok := w.input.TryReceive()
		if !ok {
			break
		}
		w.batchMu.Lock()
		w.batch = append(w.batch, t)
		w.batchMu.Unlock()
	}
	w.flush()

	w.logger.Info("ledger writer stopped")
	return nil
}

// Stats returns current metrics.
func (w *Writer) Stats() WriterMetrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.metrics
}

// Pending returns the number of trades queued or batched but not yet flushed.
func (w *Writer) Pending() int {
	w.batchMu.Lock()
	n := len(w.batch)
	w.batchMu.Unlock()
	return n + w.input.Len()
}

// consumeLoop reads from the queue and accumulates batches.
func (w *Writer) consumeLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
			// Use TryReceive with context check for responsiveness
			t, ok := w.input.TryReceive()
			if !ok {
				// Queue empty, wait a bit before trying again
				select {
				case <-w.ctx.Done():
					return
				case <-time.After(10 * time.Millisecond):
					continue
				}
			}

			w.handleTrade(t)
		}
	}
}

// flushLoop periodically flushes the batch.
func (w *Writer) flushLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.flushTicker.C:
			w.flush()
		}
	}
}

// handleTrade adds a trade to the batch.
func (w *Writer) handleTrade(t model.Trade) {
	w.batchMu.Lock()
	w.batch = append(w.batch, t)
	shouldFlush := len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()

	if shouldFlush {
		w.flush()
	}
}

// flush writes the current batch to the ledger.
func (w *Writer) flush() {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}

	// Take ownership of current batch
	batch := w.batch
	w.batch = make([]model.Trade, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	// Outlives Stop's cancel so the final flush still reaches the ledger
	base := context.Background()
	if w.ctx != nil {
		base = context.WithoutCancel(w.ctx)
	}
	ctx, cancel := context.WithTimeout(base, w.cfg.FlushTimeout)
	defer cancel()

	start := time.Now()
	inserted, failed := w.write(ctx, batch)

	w.batchMu.Lock()
	w.metrics.Inserts += int64(inserted)
	w.metrics.Conflicts += int64(len(batch) - inserted - failed)
	w.metrics.Errors += int64(failed)
	w.metrics.Flushes++
	w.batchMu.Unlock()

	w.logger.Debug("flushed trades",
		"count", len(batch),
		"inserted", inserted,
		"failed", failed,
		"duration", time.Since(start),
	)
}

// write appends a batch, preferring BatchAppender. It returns the number of
// new rows and the number of trades that could not be written.
func (w *Writer) write(ctx context.Context, batch []model.Trade) (inserted, failed int) {
	if ba, ok := w.ledger.(BatchAppender); ok {
		n, err := ba.AppendTrades(ctx, batch)
		if err != nil {
			w.logger.Error("batch append failed", "error", err, "count", len(batch))
			return 0, len(batch)
		}
		return n, 0
	}

	for _, t := range batch {
		if err := w.ledger.AppendTrade(ctx, t); err != nil {
			w.logger.Error("append trade failed", "error", err, "hash", t.Hash)
			failed++
			continue
		}
		inserted++
	}
	return inserted, failed
}
