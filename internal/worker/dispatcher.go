package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Backend is the indexing service the dispatcher feeds. Implemented by
// indexer.Client; faked in tests.
type Backend interface {
	Index(ctx context.Context, path string, content []byte) error
	Delete(ctx context.Context, path string) error
}

// Dispatcher runs a batch of index tasks on a bounded worker pool. Pool
// size caps concurrent backend calls. Each worker waits at the shared
// throttle immediately before its backend call, so successive dispatch
// starts are never spaced closer than the throttle interval even when
// the pool was saturated, while the calls themselves overlap up to the
// pool size. The dispatcher reports per-task outcomes and never decides
// to halt — that is the failure tracker's job.
type Dispatcher struct {
	backend     Backend
	throttle    *Throttle
	concurrency int
	callTimeout time.Duration
	logger      *slog.Logger
}

// NewDispatcher creates a dispatcher with the given pool size, throttle
// and per-call timeout.
func NewDispatcher(backend Backend, throttle *Throttle, concurrency int, callTimeout time.Duration, logger *slog.Logger) *Dispatcher {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Dispatcher{
		backend:     backend,
		throttle:    throttle,
		concurrency: concurrency,
		callTimeout: callTimeout,
		logger:      logger,
	}
}

// Run dispatches tasks in order and streams results as tasks complete.
// Tasks are handed to the pool in slice order; completion order is not
// guaranteed. The returned channel closes once every task has a result.
// Cancelling ctx stops new dispatches; tasks already in flight finish
// within their call timeout. Cancelled tasks are reported with ctx's
// error and stay pending for the next cycle.
func (d *Dispatcher) Run(ctx context.Context, tasks []IndexTask) <-chan Result {
	taskCh := make(chan IndexTask)
	results := make(chan Result, len(tasks))

	var wg sync.WaitGroup
	for i := 0; i < d.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range taskCh {
				// The slot is claimed here, right before the call:
				// a slot reserved any earlier would silently expire
				// while the worker was still busy with its previous
				// task, letting later dispatches start back-to-back.
				if err := d.throttle.Wait(ctx); err != nil {
					results <- Result{Task: task, Err: err}
					continue
				}
				results <- d.call(ctx, task)
			}
		}()
	}

	go func() {
		next := 0
	feed:
		for ; next < len(tasks); next++ {
			select {
			case taskCh <- tasks[next]:
			case <-ctx.Done():
				break feed
			}
		}
		close(taskCh)

		// Tasks never handed to a worker are reported as cancelled;
		// their files simply stay pending for the next cycle.
		for ; next < len(tasks); next++ {
			results <- Result{Task: tasks[next], Err: ctx.Err()}
		}

		wg.Wait()
		close(results)
	}()

	return results
}

// call runs one backend call with a bounded timeout.
func (d *Dispatcher) call(ctx context.Context, task IndexTask) Result {
	callCtx, cancel := context.WithTimeout(ctx, d.callTimeout)
	defer cancel()

	start := time.Now()
	var err error
	switch task.Op {
	case OpDelete:
		err = d.backend.Delete(callCtx, task.Path)
	default:
		err = d.backend.Index(callCtx, task.Path, task.Content)
	}

	if err != nil {
		d.logger.Warn("dispatch failed",
			"op", string(task.Op), "path", task.Path,
			"duration_ms", time.Since(start).Milliseconds(), "error", err)
	} else {
		d.logger.Debug("dispatch completed",
			"op", string(task.Op), "path", task.Path,
			"duration_ms", time.Since(start).Milliseconds())
	}
	return Result{Task: task, Err: err}
}
