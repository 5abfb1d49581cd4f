package worker

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Task is one input together with its outcome.
type Task[T any, R any] struct {
	Input  T
	Result R
	Err    error
}

// ProcessFunc handles a single input.
type ProcessFunc[T any, R any] func(ctx context.Context, input T) (R, error)

// Pool runs a ProcessFunc over a slice of inputs with bounded concurrency.
// It is meant for read-only work; callers consume the results in input order.
type Pool[T any, R any] struct {
	workers int
	process ProcessFunc[T, R]
	// OnDone, when set, is called once per finished task from the worker goroutine.
	OnDone func()
}

// NewPool creates a new worker pool.
func NewPool[T any, R any](workers int, fn ProcessFunc[T, R]) *Pool[T, R] {
	if workers < 1 {
		workers = 1
	}
	return &Pool[T, R]{
		workers: workers,
		process: fn,
	}
}

// Execute processes all inputs and returns one Task per input, in input order.
// Inputs not started before ctx is cancelled carry ctx.Err().
func (p *Pool[T, R]) Execute(ctx context.Context, inputs []T) []Task[T, R] {
	results := make([]Task[T, R], len(inputs))
	started := make([]bool, len(inputs))
	inputCh := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for idx := range inputCh {
				result, err := p.process(ctx, inputs[idx])
				results[idx] = Task[T, R]{Input: inputs[idx], Result: result, Err: err}
				if err != nil {
					log.Debug().Err(err).Int("worker", workerID).Int("index", idx).Msg("Task failed")
				}
				if p.OnDone != nil {
					p.OnDone()
				}
			}
		}(w)
	}

send:
	for i := range inputs {
		select {
		case <-ctx.Done():
			break send
		case inputCh <- i:
			started[i] = true
		}
	}
	close(inputCh)
	wg.Wait()

	for i, ok := range started {
		if !ok {
			results[i] = Task[T, R]{Input: inputs[i], Err: ctx.Err()}
		}
	}
	return results
}

// Batch splits items into consecutive slices of at most batchSize.
func Batch[T any](items []T, batchSize int) [][]T {
	if batchSize <= 0 {
		batchSize = 1
	}
	var batches [][]T
	for i := 0; i < len(items); i += batchSize {
		end := i + batchSize
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[i:end])
	}
	return batches
}
