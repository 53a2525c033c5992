package imgproc

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunLimitedBoundsConcurrency(t *testing.T) {
	const (
		taskCount = 20
		limit     = 3
	)

	var inFlight, peak int64
	tasks := make([]Task, taskCount)
	for i := range tasks {
		i := i
		tasks[i] = func(ctx context.Context) (any, error) {
			n := atomic.AddInt64(&inFlight, 1)
			for {
				old := atomic.LoadInt64(&peak)
				if n <= old || atomic.CompareAndSwapInt64(&peak, old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&inFlight, -1)
			return i, nil
		}
	}

	results := RunLimited(context.Background(), tasks, limit)

	if len(results) != taskCount {
		t.Fatalf("got %d results, want %d", len(results), taskCount)
	}
	if p := atomic.LoadInt64(&peak); p > limit {
		t.Errorf("peak concurrency %d exceeded limit %d", p, limit)
	}
}

func TestRunLimitedPreservesSubmissionOrder(t *testing.T) {
	tasks := make([]Task, 10)
	for i := range tasks {
		i := i
		tasks[i] = func(ctx context.Context) (any, error) {
			// Later tasks finish first to exercise ordering.
			time.Sleep(time.Duration(10-i) * time.Millisecond)
			return i, nil
		}
	}

	results := RunLimited(context.Background(), tasks, 4)
	for i, r := range results {
		if r.Err != nil {
			t.Fatalf("task %d failed: %v", i, r.Err)
		}
		if r.Value.(int) != i {
			t.Errorf("slot %d holds result %v", i, r.Value)
		}
	}
}

func TestRunLimitedIsolatesFailures(t *testing.T) {
	boom := errors.New("boom")
	tasks := []Task{
		func(ctx context.Context) (any, error) { return "a", nil },
		func(ctx context.Context) (any, error) { return nil, boom },
		func(ctx context.Context) (any, error) { panic("bad task") },
		func(ctx context.Context) (any, error) { return "d", nil },
	}

	results := RunLimited(context.Background(), tasks, 2)

	if results[0].Err != nil || results[0].Value != "a" {
		t.Errorf("slot 0 = %+v", results[0])
	}
	if !errors.Is(results[1].Err, boom) {
		t.Errorf("slot 1 err = %v, want boom", results[1].Err)
	}
	if results[2].Err == nil {
		t.Error("slot 2 should capture the panic")
	}
	if results[3].Err != nil || results[3].Value != "d" {
		t.Errorf("slot 3 = %+v", results[3])
	}
}

func TestRunLimitedEmptyAndDefaultLimit(t *testing.T) {
	if got := RunLimited(context.Background(), nil, 0); len(got) != 0 {
		t.Fatalf("expected no results, got %d", len(got))
	}

	tasks := []Task{func(ctx context.Context) (any, error) { return 1, nil }}
	got := RunLimited(context.Background(), tasks, 0) // falls back to DefaultConcurrency
	if len(got) != 1 || got[0].Err != nil {
		t.Fatalf("unexpected results %+v", got)
	}
}
