package trix

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// TaskRunner fans tasks out to a bounded set of goroutines. Unlike a plain
// errgroup with a limit, Go never blocks: when all slots are occupied the task
// runs inline on the caller's goroutine. This makes it safe to call Go from
// within a running task (fork/join style recursion), which is how the rtree
// parallel traversals use it.
type TaskRunner struct {
	maxThreadCount int
	eg             *errgroup.Group
	slots          *semaphore.Weighted
	context        context.Context
}

// NewTaskRunner returns a runner capped at maxThreadCount concurrent tasks.
// A maxThreadCount <= 0 selects runtime.NumCPU().
func NewTaskRunner(ctx context.Context, maxThreadCount int) *TaskRunner {
	if maxThreadCount <= 0 {
		maxThreadCount = runtime.NumCPU()
	}
	eg, ctx2 := errgroup.WithContext(ctx)
	return &TaskRunner{
		maxThreadCount: maxThreadCount,
		slots:          semaphore.NewWeighted(int64(maxThreadCount)),
		eg:             eg,
		context:        ctx2,
	}
}

func (tr *TaskRunner) GetContext() context.Context {
	return tr.context
}

// Go runs task on a fresh goroutine when a slot is free, inline otherwise.
// Inline task errors are returned directly; goroutine task errors surface
// from Wait.
func (tr *TaskRunner) Go(task func() error) error {
	if tr.slots.TryAcquire(1) {
		tr.eg.Go(func() error {
			// Free up this thread slot.
			defer tr.slots.Release(1)
			return task()
		})
		return nil
	}
	return task()
}

// Wrapper to errgroup.Wait.
func (tr *TaskRunner) Wait() error {
	return tr.eg.Wait()
}
