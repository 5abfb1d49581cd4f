package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_PreservesOrder(t *testing.T) {
	var done atomic.Int32
	p := NewPool(4, func(ctx context.Context, n int) (int, error) {
		if n == 3 {
			return 0, errors.New("boom")
		}
		return n * n, nil
	})
	p.OnDone = func() { done.Add(1) }

	tasks := p.Execute(context.Background(), []int{1, 2, 3, 4, 5})
	require.Len(t, tasks, 5)
	assert.Equal(t, 1, tasks[0].Result)
	assert.Equal(t, 4, tasks[1].Result)
	assert.Error(t, tasks[2].Err)
	assert.Equal(t, 25, tasks[4].Result)
	assert.Equal(t, int32(5), done.Load())
}

func TestPool_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPool(2, func(ctx context.Context, n int) (int, error) { return n, nil })
	tasks := p.Execute(ctx, []int{1, 2, 3})
	require.Len(t, tasks, 3)

	// Whatever was not handed to a worker reports the cancellation.
	for _, task := range tasks {
		if task.Err != nil {
			assert.ErrorIs(t, task.Err, context.Canceled)
		}
	}
}

func TestBatch(t *testing.T) {
	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, Batch([]int{1, 2, 3, 4, 5}, 2))
	assert.Equal(t, [][]int{{1}, {2}}, Batch([]int{1, 2}, 0))
	assert.Nil(t, Batch([]int{}, 3))
}
