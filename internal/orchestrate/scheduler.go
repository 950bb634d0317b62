package orchestrate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"biblos/internal/batch"
	"biblos/internal/checkpoint"
	"biblos/internal/metrics"
	"biblos/internal/planner"
	"biblos/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Scheduler drives batch processors over the items of a processing
// plan, one plan item at a time so the shared store is never hit by
// more than one worker pool.
type Scheduler struct {
	store       *store.Store
	planner     *planner.Planner
	checkpoints checkpoint.Store
	metrics     *metrics.Collector
	process     batch.ProcessFunc
	logger      *zap.Logger
}

// NewScheduler wires a scheduler
func NewScheduler(s *store.Store, p *planner.Planner, cps checkpoint.Store, mc *metrics.Collector, process batch.ProcessFunc, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		store:       s,
		planner:     p,
		checkpoints: cps,
		metrics:     mc,
		process:     process,
		logger:      logger,
	}
}

// ItemResult records the outcome of one plan item
type ItemResult struct {
	Item       planner.PlanItem
	BatchID    string
	Status     batch.Status
	Processed  int
	Successful int
	Failed     int
	Err        error
}

// PlanResult aggregates one plan execution
type PlanResult struct {
	ExecutionID string
	PlanItems   int
	Completed   int
	Failed      int
	StartedAt   time.Time
	FinishedAt  time.Time
	Details     []ItemResult
}

// FailedVerses sums item-level failure counts across the plan
func (r *PlanResult) FailedVerses() int {
	n := 0
	for _, d := range r.Details {
		n += d.Failed
	}
	return n
}

// BatchID derives the stable batch id for a plan item. Stability
// within a day is what makes --resume find the right checkpoint.
func BatchID(kind, name string) string {
	slug := strings.ToLower(name)
	slug = strings.ReplaceAll(slug, " ", "-")
	return fmt.Sprintf("%s-%s-%s", kind, slug, time.Now().Format("20060102"))
}

// ExecutePlan runs every plan item in order. One item's failure never
// stops the remaining items; only context cancellation does. An item
// counts as completed only when its batch finished with zero failures.
func (s *Scheduler) ExecutePlan(ctx context.Context, plan []planner.PlanItem, cfg batch.Config) (*PlanResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid batch config: %w", err)
	}
	if len(plan) == 0 {
		return nil, fmt.Errorf("empty plan: nothing to process")
	}

	result := &PlanResult{
		ExecutionID: uuid.NewString(),
		PlanItems:   len(plan),
		StartedAt:   time.Now(),
	}

	s.logger.Info("Executing plan",
		zap.String("execution_id", result.ExecutionID),
		zap.Int("plan_items", len(plan)))

	for _, item := range plan {
		if ctx.Err() != nil {
			s.logger.Warn("Plan execution cancelled",
				zap.String("execution_id", result.ExecutionID),
				zap.Int("items_done", len(result.Details)))
			break
		}

		detail := s.executeItem(ctx, item, cfg)
		result.Details = append(result.Details, detail)

		if detail.Status == batch.StatusCompleted && detail.Failed == 0 && detail.Err == nil {
			result.Completed++
		} else {
			result.Failed++
		}
	}

	result.FinishedAt = time.Now()
	s.logger.Info("Plan execution finished",
		zap.String("execution_id", result.ExecutionID),
		zap.Int("completed", result.Completed),
		zap.Int("failed", result.Failed))

	return result, nil
}

func (s *Scheduler) executeItem(ctx context.Context, item planner.PlanItem, cfg batch.Config) ItemResult {
	batchID := BatchID(item.Kind, item.Name)
	detail := ItemResult{Item: item, BatchID: batchID}

	s.logger.Info("Processing plan item",
		zap.String("kind", item.Kind),
		zap.String("name", item.Name),
		zap.Int("verse_count", item.VerseCount),
		zap.String("batch_id", batchID))

	items, err := s.planner.WorkItems(item)
	if err != nil {
		detail.Err = err
		s.logger.Error("Plan item failed before dispatch",
			zap.String("name", item.Name), zap.Error(err))
		return detail
	}

	started := time.Now()
	processor := batch.New(cfg, s.checkpoints, s.metrics, s.logger)
	progress, err := processor.Run(ctx, batchID, items, s.process, cfg.Resume)
	if err != nil {
		detail.Err = err
		s.logger.Error("Plan item failed",
			zap.String("name", item.Name), zap.Error(err))
		return detail
	}

	detail.Status = progress.Status
	detail.Processed = progress.Processed
	detail.Successful = progress.Successful
	detail.Failed = progress.Failed

	rec := &store.BatchRecord{
		BatchID:     batchID,
		Kind:        item.Kind,
		Name:        item.Name,
		VerseCount:  progress.Total,
		Status:      string(progress.Status),
		Successful:  progress.Successful,
		Failed:      progress.Failed,
		StartedAt:   started,
		CompletedAt: time.Now(),
	}
	if err := s.store.RecordBatch(rec); err != nil {
		s.logger.Warn("Failed to record batch",
			zap.String("batch_id", batchID), zap.Error(err))
	}

	return detail
}
