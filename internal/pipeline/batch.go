package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garyjia/timecard-reconciler/internal/domain/timesheet"
	"github.com/garyjia/timecard-reconciler/internal/worker"
)

// BatchResult collects the outcome of one run. Timesheets and failures keep
// the input order.
type BatchResult struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Documents  int
	Timesheets []*timesheet.MonthlyTimesheet
	Failures   []timesheet.DocumentFailure
}

// Batch runs a processor over many documents with a bounded pool.
type Batch struct {
	processor *Processor
	workers   int
	logger    *zap.Logger
}

// NewBatch creates a batch runner.
func NewBatch(processor *Processor, workers int, logger *zap.Logger) *Batch {
	return &Batch{processor: processor, workers: workers, logger: logger}
}

// Run processes every path. One failed document never aborts the run; only
// cancellation of ctx does, in which case unprocessed paths are reported as
// failures.
func (b *Batch) Run(ctx context.Context, paths []string) (*BatchResult, error) {
	res := &BatchResult{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Documents: len(paths),
	}
	logger := b.logger.With(zap.String("run_id", res.RunID))
	logger.Info("Batch started", zap.Int("documents", len(paths)))

	outcomes := make([]Outcome, len(paths))
	pool := worker.NewPool(b.workers, logger)
	runErr := pool.Run(ctx, len(paths), func(ctx context.Context, i int) error {
		outcomes[i] = b.processor.Process(ctx, paths[i])
		if f := outcomes[i].Failure; f != nil {
			return errors.New(f.Reason)
		}
		return nil
	})

	for i, out := range outcomes {
		switch {
		case out.Timesheet != nil:
			res.Timesheets = append(res.Timesheets, out.Timesheet)
		case out.Failure != nil:
			res.Failures = append(res.Failures, *out.Failure)
		default:
			err := ctx.Err()
			if err == nil {
				err = errors.New("not processed")
			}
			res.Failures = append(res.Failures, timesheet.NewDocumentFailure(paths[i], err))
		}
	}
	res.FinishedAt = time.Now().UTC()

	logger.Info("Batch finished",
		zap.Int("succeeded", len(res.Timesheets)),
		zap.Int("failed", len(res.Failures)),
		zap.Duration("elapsed", res.FinishedAt.Sub(res.StartedAt)))
	return res, runErr
}
