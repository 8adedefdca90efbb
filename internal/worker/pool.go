// Package worker runs parse tasks concurrently with a bounded number of
// workers.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JNZader/diffparse/internal/metrics"
)

// Task represents a task to be executed by a worker.
type Task interface {
	Execute(ctx context.Context) error
	ID() string
}

// Result contains the result of a task execution.
type Result struct {
	TaskID   string
	Error    error
	Duration time.Duration

	// Skipped is set for tasks that never ran because the batch was canceled.
	Skipped bool
}

// Config configures the worker pool.
type Config struct {
	Workers  int  // Number of workers (default: GOMAXPROCS)
	FailFast bool // Cancel remaining tasks after the first failure

	// Metrics receives the inflight gauge, when set.
	Metrics *metrics.Collector
}

// Pool runs batches of tasks. A Pool may be reused for several Run calls;
// Stats accumulate across them.
type Pool struct {
	workers   int
	failFast  bool
	metrics   *metrics.Collector
	processed atomic.Int64
	errors    atomic.Int64
	skipped   atomic.Int64
}

// NewPool creates a new worker pool.
func NewPool(cfg Config) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	return &Pool{workers: cfg.Workers, failFast: cfg.FailFast, metrics: cfg.Metrics}
}

// Run executes tasks and returns one Result per task, in input order.
//
// Without FailFast every task runs and the returned error is nil; failures
// are reported in the results. With FailFast the first failure cancels the
// tasks not yet started, which get the context error as their result, and
// that failure is returned.
func (p *Pool) Run(ctx context.Context, tasks []Task) ([]Result, error) {
	results := make([]Result, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, task := range tasks {
		if err := gctx.Err(); err != nil {
			p.skip(results[i:], tasks[i:], err)
			break
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				p.skip(results[i:i+1], tasks[i:i+1], err)
				return nil
			}

			res := p.execute(gctx, task)
			results[i] = res
			if res.Error != nil && p.failFast {
				return fmt.Errorf("%s: %w", task.ID(), res.Error)
			}
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		// The caller's context may have been canceled with no task failing.
		err = ctx.Err()
	}
	return results, err
}

func (p *Pool) execute(ctx context.Context, task Task) Result {
	if p.metrics != nil {
		g := p.metrics.Gauge(metrics.MetricInflight)
		g.Inc()
		defer g.Dec()
	}

	start := time.Now()
	err := task.Execute(ctx)

	p.processed.Add(1)
	if err != nil {
		p.errors.Add(1)
	}
	return Result{TaskID: task.ID(), Error: err, Duration: time.Since(start)}
}

func (p *Pool) skip(results []Result, tasks []Task, err error) {
	for i, task := range tasks {
		results[i] = Result{TaskID: task.ID(), Error: err, Skipped: true}
		p.skipped.Add(1)
	}
}

// Failed returns the results carrying an error, context errors included.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Error != nil {
			out = append(out, r)
		}
	}
	return out
}

// Stats returns pool statistics.
func (p *Pool) Stats() Stats {
	return Stats{
		Workers:   p.workers,
		Processed: p.processed.Load(),
		Errors:    p.errors.Load(),
		Skipped:   p.skipped.Load(),
	}
}

// Stats contains pool statistics.
type Stats struct {
	Workers   int
	Processed int64
	Errors    int64
	Skipped   int64
}

// String returns a string representation of the stats.
func (s Stats) String() string {
	return fmt.Sprintf("workers=%d processed=%d errors=%d skipped=%d",
		s.Workers, s.Processed, s.Errors, s.Skipped)
}
