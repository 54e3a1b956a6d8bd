package runner

import (
	"context"
	"fmt"
	"sync"
)

// Task is one unit of work for RunParallel.
type Task[T any] struct {
	ID  string
	Run func(ctx context.Context) (T, error)
}

// Result is the outcome of a task. Results are returned at the same index
// as their task, independent of completion order.
type Result[T any] struct {
	TaskID string
	Value  T
	Err    error
}

// ParallelRunner executes tasks concurrently under a concurrency limit.
type ParallelRunner struct {
	semaphore chan struct{}
}

// NewParallelRunner creates a runner allowing maxConcurrency tasks in
// flight. Non-positive values default to 10.
func NewParallelRunner(maxConcurrency int) *ParallelRunner {
	if maxConcurrency <= 0 {
		maxConcurrency = 10
	}
	return &ParallelRunner{semaphore: make(chan struct{}, maxConcurrency)}
}

// RunParallel executes tasks and waits for all of them. A panicking task
// yields an error result instead of crashing the caller. Tasks that never
// acquire a slot before ctx is done get ctx.Err().
func RunParallel[T any](ctx context.Context, pr *ParallelRunner, tasks []Task[T]) []Result[T] {
	results := make([]Result[T], len(tasks))
	var wg sync.WaitGroup

	for i, task := range tasks {
		wg.Add(1)
		go func(index int, t Task[T]) {
			defer wg.Done()
			results[index].TaskID = t.ID

			select {
			case pr.semaphore <- struct{}{}:
				defer func() { <-pr.semaphore }()
			case <-ctx.Done():
				results[index].Err = ctx.Err()
				return
			}

			defer func() {
				if r := recover(); r != nil {
					results[index].Err = fmt.Errorf("panic in task %s: %v", t.ID, r)
				}
			}()
			if t.Run == nil {
				results[index].Err = fmt.Errorf("task %s has no run function", t.ID)
				return
			}
			v, err := t.Run(ctx)
			results[index].Value = v
			results[index].Err = err
		}(i, task)
	}

	wg.Wait()
	return results
}
