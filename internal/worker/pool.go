package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Task processes item i of a batch. A returned error marks the item failed
// but does not stop the batch.
type Task func(ctx context.Context, i int) error

// PoolStatus reports the counters of the last or current run.
type PoolStatus struct {
	IsRunning      bool
	Workers        int
	ProcessedCount int
	FailedCount    int
	StartedAt      time.Time
	Elapsed        time.Duration
	LastError      error
}

// Pool runs batch items with bounded concurrency.
type Pool struct {
	workers int
	logger  *zap.Logger

	mu             sync.RWMutex
	isRunning      bool
	processedCount int
	failedCount    int
	startTime      time.Time
	finishTime     time.Time
	lastError      error
}

// NewPool creates a pool running at most workers tasks at once.
func NewPool(workers int, logger *zap.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{workers: workers, logger: logger}
}

// Run executes task for every index in [0, n). It waits for all started
// tasks and returns the context error when the batch was cancelled.
func (p *Pool) Run(ctx context.Context, n int, task Task) error {
	p.mu.Lock()
	p.isRunning = true
	p.processedCount, p.failedCount, p.lastError = 0, 0, nil
	p.startTime = time.Now()
	p.mu.Unlock()

	p.logger.Info("Worker pool started", zap.Int("items", n), zap.Int("workers", p.workers))

	var g errgroup.Group
	g.SetLimit(p.workers)
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			err := task(ctx, i)
			p.record(err)
			return nil
		})
	}
	_ = g.Wait()

	p.mu.Lock()
	p.isRunning = false
	p.finishTime = time.Now()
	processed, failed := p.processedCount, p.failedCount
	p.mu.Unlock()

	p.logger.Info("Worker pool finished",
		zap.Int("processed_count", processed),
		zap.Int("failed_count", failed),
		zap.Duration("elapsed", time.Since(p.startTime)))

	return ctx.Err()
}

func (p *Pool) record(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.processedCount++
	if err != nil {
		p.failedCount++
		p.lastError = err
	}
}

// Status returns a snapshot of the pool counters.
func (p *Pool) Status() PoolStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()

	elapsed := p.finishTime.Sub(p.startTime)
	if p.isRunning {
		elapsed = time.Since(p.startTime)
	}
	return PoolStatus{
		IsRunning:      p.isRunning,
		Workers:        p.workers,
		ProcessedCount: p.processedCount,
		FailedCount:    p.failedCount,
		StartedAt:      p.startTime,
		Elapsed:        elapsed,
		LastError:      p.lastError,
	}
}
