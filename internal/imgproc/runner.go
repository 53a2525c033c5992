package imgproc

import (
	"context"
	"fmt"
	"sync"
)

// Task is one unit of asynchronous work submitted to RunLimited.
type Task func(ctx context.Context) (any, error)

// Result holds the outcome of one task, in submission order.
type Result struct {
	Value any
	Err   error
}

// DefaultConcurrency bounds simultaneous uploads so a large batch does
// not saturate the network or the backing store.
const DefaultConcurrency = 3

// RunLimited executes tasks with at most limit in flight at a time.
// Results are returned in submission order; a failing task records its
// error in its own slot and never prevents the remaining tasks from
// running. A panicking task is captured the same way.
func RunLimited(ctx context.Context, tasks []Task, limit int) []Result {
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	results := make([]Result, len(tasks))
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup

	for i, task := range tasks {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, task Task) {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					results[i] = Result{Err: fmt.Errorf("task panicked: %v", r)}
				}
			}()
			value, err := task(ctx)
			results[i] = Result{Value: value, Err: err}
		}(i, task)
	}

	wg.Wait()
	return results
}
