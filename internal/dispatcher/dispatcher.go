// Package dispatcher fans a batch of independent tasks out to a fixed-size
// worker pool and gathers whatever succeeds.
package dispatcher

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"go.uber.org/zap"

	"github.com/hydavinci/formula-1-schedule/internal/metrics"
)

// DefaultSize is the pool size used when none is configured.
const DefaultSize = 5

// Pool runs tasks on at most Size goroutines.
type Pool struct {
	Size   int
	Name   string
	Logger *zap.Logger
}

// New creates a Pool.
func New(name string, size int, logger *zap.Logger) Pool {
	return Pool{Size: size, Name: name, Logger: logger}
}

// Task is one unit of work. Label identifies it in logs.
type Task[T any] struct {
	Label string
	Run   func(ctx context.Context) (T, error)
}

// Batch is what survived a Collect call.
type Batch[T any] struct {
	Values  []T
	Dropped int
}

type outcome[T any] struct {
	value T
	ok    bool
}

// Collect submits every task at once and blocks until all of them finish. A
// task that errors or panics is logged and dropped; it never cancels its
// siblings. Values arrive in completion order.
func Collect[T any](ctx context.Context, pool Pool, tasks []Task[T]) Batch[T] {
	var batch Batch[T]
	if len(tasks) == 0 {
		return batch
	}

	size := pool.Size
	if size <= 0 {
		size = DefaultSize
	}
	if size > len(tasks) {
		size = len(tasks)
	}
	logger := pool.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	work := make(chan Task[T], len(tasks))
	for _, task := range tasks {
		work <- task
	}
	close(work)

	results := make(chan outcome[T], len(tasks))
	var wg sync.WaitGroup
	for i := 0; i < size; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range work {
				metrics.IncActiveWorkers()
				value, err := runTask(ctx, task)
				metrics.DecActiveWorkers()
				if err != nil {
					metrics.ObserveDrop(pool.Name)
					logger.Warn("task dropped",
						zap.String("pool", pool.Name),
						zap.String("task", task.Label),
						zap.Error(err),
					)
					results <- outcome[T]{}
					continue
				}
				results <- outcome[T]{value: value, ok: true}
			}
		}()
	}

	wg.Wait()
	close(results)

	for res := range results {
		if !res.ok {
			batch.Dropped++
			continue
		}
		batch.Values = append(batch.Values, res.value)
	}
	return batch
}

func runTask[T any](ctx context.Context, task Task[T]) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	if task.Run == nil {
		return value, fmt.Errorf("task %q has no run function", task.Label)
	}
	return task.Run(ctx)
}
