package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"biblos/internal/checkpoint"
	"biblos/internal/metrics"

	"go.uber.org/zap"
)

// ProcessFunc processes one work item end to end. It must be
// idempotent: after a crash a verse may be re-invoked in an
// intermediate state.
type ProcessFunc func(ctx context.Context, item WorkItem) error

// Processor executes a stream of work items against a processing
// function with bounded concurrency, periodic checkpointing, and
// cooperative cancellation. One Run at a time per Processor; Progress,
// Pause and Resume may be called from other goroutines while Run is
// active.
type Processor struct {
	cfg         Config
	checkpoints checkpoint.Store
	metrics     *metrics.Collector
	logger      *zap.Logger

	tracker atomic.Pointer[tracker]
	paused  atomic.Bool
}

// New creates a batch processor
func New(cfg Config, checkpoints checkpoint.Store, collector *metrics.Collector, logger *zap.Logger) *Processor {
	return &Processor{
		cfg:         cfg,
		checkpoints: checkpoints,
		metrics:     collector,
		logger:      logger,
	}
}

type unit struct {
	idx  int
	item WorkItem
}

type result struct {
	idx  int
	item WorkItem
	err  error
}

// Run processes items in order with cfg.MaxWorkers workers. Item
// failures are counted, never fatal. A cancelled context stops
// dispatch, lets in-flight items finish, and returns partial progress
// with status cancelled.
//
// When resume is true and a checkpoint exists, items at or before the
// checkpoint marker are skipped. This requires the caller to deliver
// the same deterministic stream order as the run that wrote the
// checkpoint; that stability is a hard precondition, not something the
// processor can verify.
func (p *Processor) Run(ctx context.Context, batchID string, items []WorkItem, fn ProcessFunc, resume bool) (Progress, error) {
	if err := p.cfg.Validate(); err != nil {
		return Progress{}, fmt.Errorf("invalid batch config: %w", err)
	}

	start := 0
	tr := newTracker(batchID, len(items))
	cp := newCheckpointState(batchID, items)

	if resume {
		rec, err := p.checkpoints.Load(batchID)
		if err != nil {
			p.logger.Warn("Failed to load checkpoint", zap.String("batch_id", batchID), zap.Error(err))
		}
		if rec != nil {
			if rec.LastProcessedID != 0 {
				for i, it := range items {
					if it.ID == rec.LastProcessedID {
						start = i + 1
						break
					}
				}
			}

			// Aggregate totals span both runs, whether the caller
			// replays the full stream or only the remainder.
			tr = newTracker(batchID, rec.Processed+len(items)-start)
			tr.seed(rec.Processed, rec.Successful, rec.Failed, rec.Skipped)
			cp.restore(start, rec.LastProcessedID, rec.LastRef)

			p.logger.Info("Resuming from checkpoint",
				zap.String("batch_id", batchID),
				zap.Int("already_processed", rec.Processed),
				zap.Int("remaining", len(items)-start))
		} else {
			p.logger.Info("No checkpoint found, starting fresh",
				zap.String("batch_id", batchID))
		}
	}

	p.tracker.Store(tr)

	// Honor a pause requested before the run started.
	if p.paused.Load() {
		tr.setStatus(StatusPaused)
	} else {
		tr.setStatus(StatusRunning)
	}
	p.logger.Info("Starting batch",
		zap.String("batch_id", batchID),
		zap.Int("items", len(items)-start),
		zap.Int("workers", p.cfg.MaxWorkers),
		zap.Int("batch_size", p.cfg.BatchSize))

	dispatch := make(chan unit, p.cfg.MaxWorkers*2)
	results := make(chan result, p.cfg.MaxWorkers*2)

	var wg sync.WaitGroup
	for i := 0; i < p.cfg.MaxWorkers; i++ {
		wg.Add(1)
		go p.worker(ctx, i, fn, dispatch, results, &wg)
	}

	collectorDone := make(chan struct{})
	go p.collect(tr, cp, results, collectorDone)

	interrupted := false
dispatchLoop:
	for i := start; i < len(items); i++ {
		p.waitWhilePaused(ctx)

		select {
		case <-ctx.Done():
			interrupted = true
			break dispatchLoop
		case dispatch <- unit{idx: i, item: items[i]}:
		}
	}

	close(dispatch)
	wg.Wait()
	close(results)
	<-collectorDone

	if interrupted || ctx.Err() != nil {
		tr.setStatus(StatusCancelled)
		p.logger.Warn("Batch cancelled, in-flight items were allowed to finish",
			zap.String("batch_id", batchID))
	} else {
		// Completion means the stream was exhausted; the caller decides
		// what a non-zero failure count means.
		tr.setStatus(StatusCompleted)
	}

	p.writeCheckpoint(tr, cp)

	final := tr.snapshot()
	if final.Status == StatusCompleted {
		if err := p.checkpoints.Clear(batchID); err != nil {
			p.logger.Warn("Failed to clear checkpoint", zap.String("batch_id", batchID), zap.Error(err))
		}
	}

	p.logger.Info("Batch finished",
		zap.String("batch_id", batchID),
		zap.String("status", string(final.Status)),
		zap.Int("processed", final.Processed),
		zap.Int("successful", final.Successful),
		zap.Int("failed", final.Failed))

	return final, nil
}

// Progress returns a live snapshot of the current run
func (p *Processor) Progress() Progress {
	tr := p.tracker.Load()
	if tr == nil {
		return Progress{}
	}
	return tr.snapshot()
}

// Pause suspends dispatch of new items. In-flight items finish.
func (p *Processor) Pause() {
	if p.paused.CompareAndSwap(false, true) {
		if tr := p.tracker.Load(); tr != nil {
			tr.setStatus(StatusPaused)
		}
		p.logger.Info("Batch paused")
	}
}

// Resume lifts a pause
func (p *Processor) Resume() {
	if p.paused.CompareAndSwap(true, false) {
		if tr := p.tracker.Load(); tr != nil {
			tr.setStatus(StatusRunning)
		}
		p.logger.Info("Batch resumed")
	}
}

func (p *Processor) waitWhilePaused(ctx context.Context) {
	for p.paused.Load() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func (p *Processor) worker(ctx context.Context, id int, fn ProcessFunc, dispatch <-chan unit, results chan<- result, wg *sync.WaitGroup) {
	defer wg.Done()

	logger := p.logger.With(zap.Int("worker_id", id))
	logger.Debug("Worker started")

	for u := range dispatch {
		p.metrics.WorkerBusy()
		started := time.Now()
		err := p.processItem(ctx, logger, fn, u.item)
		p.metrics.ObserveDuration(time.Since(started))
		p.metrics.WorkerIdle()

		results <- result{idx: u.idx, item: u.item, err: err}
	}

	logger.Debug("Worker finished")
}

// processItem retries transient failures with exponential backoff.
// Timed-out and permanent failures surface immediately.
func (p *Processor) processItem(ctx context.Context, logger *zap.Logger, fn ProcessFunc, item WorkItem) error {
	var lastErr error
	for attempt := 1; attempt <= p.cfg.MaxRetries; attempt++ {
		err := p.invoke(ctx, fn, item)
		if err == nil {
			return nil
		}
		lastErr = err

		if errors.Is(err, ErrItemTimeout) || !IsTransient(err) {
			break
		}
		if attempt == p.cfg.MaxRetries {
			break
		}

		backoff := p.cfg.RetryDelay * (1 << uint(attempt-1))
		logger.Warn("Item attempt failed, retrying",
			zap.String("ref", item.Ref),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err))

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return lastErr
		}
	}

	return lastErr
}

// invoke applies the soft per-item timeout. An abandoned call keeps
// running in its goroutine; cancellation of the underlying work is up
// to the processing function's own context handling.
func (p *Processor) invoke(ctx context.Context, fn ProcessFunc, item WorkItem) error {
	if p.cfg.ItemTimeout <= 0 {
		return fn(ctx, item)
	}

	done := make(chan error, 1)
	go func() {
		done <- fn(ctx, item)
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(p.cfg.ItemTimeout):
		return fmt.Errorf("%w: %s after %s", ErrItemTimeout, item.Ref, p.cfg.ItemTimeout)
	}
}

// collect serializes all progress accounting and checkpoint writes
func (p *Processor) collect(tr *tracker, cp *checkpointState, results <-chan result, done chan<- struct{}) {
	defer close(done)

	for res := range results {
		if res.err != nil {
			tr.addFailed(res.item.Ref)
			p.metrics.IncFailed()
			p.logger.Error("Verse processing failed",
				zap.Int64("verse_id", res.item.ID),
				zap.String("ref", res.item.Ref),
				zap.Error(res.err))
		} else {
			tr.addSuccess(res.item.Ref)
			p.metrics.IncSuccess()
		}

		cp.settle(res.idx)
		cp.sinceWrite++
		if cp.sinceWrite >= p.cfg.BatchSize {
			p.writeCheckpoint(tr, cp)
			cp.sinceWrite = 0
		}
	}
}

// writeCheckpoint persists a snapshot. Failures are warnings: the run
// continues in memory and the next interval retries.
func (p *Processor) writeCheckpoint(tr *tracker, cp *checkpointState) {
	snap := tr.snapshot()

	rec := &checkpoint.Record{
		BatchID:    cp.batchID,
		Total:      snap.Total,
		Processed:  snap.Processed,
		Successful: snap.Successful,
		Failed:     snap.Failed,
		Skipped:    snap.Skipped,
		Status:     string(snap.Status),
		StartedAt:  snap.StartTime,
	}
	rec.LastProcessedID, rec.LastRef = cp.marker()

	if err := p.checkpoints.Save(rec); err != nil {
		p.logger.Warn("Checkpoint write failed",
			zap.String("batch_id", cp.batchID),
			zap.Error(err))
		return
	}
	p.metrics.IncCheckpointWrite()
}

// checkpointState tracks which stream positions have settled. The
// persisted marker is the contiguous watermark: the highest position
// at or below which every item has settled. Recording anything later
// could skip an unfinished earlier item on resume.
type checkpointState struct {
	batchID    string
	items      []WorkItem
	settled    []bool
	watermark  int
	sinceWrite int

	// marker carried over from a loaded checkpoint, used until the
	// watermark first advances in this run
	seedID  int64
	seedRef string
}

func newCheckpointState(batchID string, items []WorkItem) *checkpointState {
	return &checkpointState{
		batchID:   batchID,
		items:     items,
		settled:   make([]bool, len(items)),
		watermark: -1,
	}
}

// restore marks positions before start as settled and carries the old marker
func (cp *checkpointState) restore(start int, seedID int64, seedRef string) {
	for i := 0; i < start; i++ {
		cp.settled[i] = true
	}
	cp.watermark = start - 1
	cp.seedID = seedID
	cp.seedRef = seedRef
}

func (cp *checkpointState) settle(idx int) {
	cp.settled[idx] = true
	for cp.watermark+1 < len(cp.settled) && cp.settled[cp.watermark+1] {
		cp.watermark++
	}
}

func (cp *checkpointState) marker() (int64, string) {
	if cp.watermark < 0 {
		return cp.seedID, cp.seedRef
	}
	it := cp.items[cp.watermark]
	return it.ID, it.Ref
}
