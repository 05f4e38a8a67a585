package batch

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeItems(n int) []WorkItem {
	items := make([]WorkItem, n)
	for i := range items {
		items[i] = WorkItem{ID: strconv.Itoa(i), Op: "test"}
	}
	return items
}

func TestRunFoldsAllBatches(t *testing.T) {
	items := makeItems(25)

	res := Run(context.Background(), items, 10, 2, func(_ context.Context, batch []WorkItem) BatchOutcome {
		return BatchOutcome{Successful: len(batch)}
	})

	assert.Equal(t, 25, res.TotalItems)
	assert.Equal(t, 25, res.ProcessedItems)
	assert.Equal(t, 25, res.SuccessfulItems)
	assert.Equal(t, StatusCompleted, res.Status)
}

func TestRunFoldingIsPartitionIndependent(t *testing.T) {
	// The same per-item outcomes must produce identical counts regardless of
	// how items are partitioned into batches.
	items := makeItems(60)
	failing := map[string]bool{"3": true, "17": true, "42": true}

	process := func(_ context.Context, batch []WorkItem) BatchOutcome {
		var out BatchOutcome
		for _, item := range batch {
			if failing[item.ID] {
				out.Failed++
				out.Errors = append(out.Errors, "item "+item.ID+" failed")
			} else {
				out.Successful++
			}
		}
		return out
	}

	single := Run(context.Background(), items, len(items), 1, process)

	for _, batchSize := range []int{1, 7, 10, 33} {
		chunked := Run(context.Background(), items, batchSize, 4, process)
		assert.Equal(t, single.SuccessfulItems, chunked.SuccessfulItems, "batchSize=%d", batchSize)
		assert.Equal(t, single.FailedItems, chunked.FailedItems, "batchSize=%d", batchSize)
		assert.Equal(t, single.Status, chunked.Status, "batchSize=%d", batchSize)
	}
}

func TestRunRespectsConcurrencyBound(t *testing.T) {
	const maxConcurrent = 3

	var active, peak int64
	var mu sync.Mutex

	res := Run(context.Background(), makeItems(100), 10, maxConcurrent, func(_ context.Context, batch []WorkItem) BatchOutcome {
		cur := atomic.AddInt64(&active, 1)
		mu.Lock()
		if cur > peak {
			peak = cur
		}
		mu.Unlock()

		time.Sleep(10 * time.Millisecond)
		atomic.AddInt64(&active, -1)
		return BatchOutcome{Successful: len(batch)}
	})

	require.Equal(t, 100, res.ProcessedItems)
	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, peak, int64(maxConcurrent))
	assert.Greater(t, peak, int64(1), "batches should actually overlap")
}

func TestRunConvertsPanicToFailedBatch(t *testing.T) {
	items := makeItems(20)

	res := Run(context.Background(), items, 10, 2, func(_ context.Context, batch []WorkItem) BatchOutcome {
		if batch[0].ID == "0" {
			panic("storage exploded")
		}
		return BatchOutcome{Successful: len(batch)}
	})

	assert.Equal(t, 10, res.SuccessfulItems)
	assert.Equal(t, 10, res.FailedItems)
	assert.Equal(t, StatusPartialSuccess, res.Status)
	require.NotEmpty(t, res.Errors)
	assert.Contains(t, res.Errors[0], "failed unexpectedly")
}

func TestRunStopsSchedulingOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var processed int64
	res := Run(ctx, makeItems(50), 5, 1, func(_ context.Context, batch []WorkItem) BatchOutcome {
		if atomic.AddInt64(&processed, 1) == 2 {
			cancel()
		}
		time.Sleep(5 * time.Millisecond)
		return BatchOutcome{Successful: len(batch)}
	})

	// Dispatched batches finish; the rest are never scheduled.
	assert.Less(t, res.ProcessedItems, res.TotalItems)
	assert.Equal(t, res.ProcessedItems, res.SuccessfulItems+res.FailedItems)
}

func TestRunAppliesDefaults(t *testing.T) {
	res := Run(context.Background(), makeItems(5), 0, 0, func(_ context.Context, batch []WorkItem) BatchOutcome {
		return BatchOutcome{Successful: len(batch)}
	})
	assert.Equal(t, 5, res.SuccessfulItems)
}
