package batch

// executor.go implements the bounded-concurrency batch executor.
//
// Items are partitioned into contiguous batches of batchSize (the last batch
// may be smaller). Batches are dispatched in input order; up to maxConcurrent
// batches run at once. Completion order is unspecified, but the aggregator's
// folding is order-independent so final counts are deterministic.
//
// A BatchFn that panics is converted into a fully-failed batch outcome; no
// single batch failure aborts the run.

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// DefaultBatchSize is used when the caller passes a non-positive batch size.
const DefaultBatchSize = 100

// DefaultMaxConcurrentBatches is used when the caller passes a non-positive
// concurrency limit.
const DefaultMaxConcurrentBatches = 3

// BatchFn processes one batch of work items and reports its outcome.
// Expected per-item failures belong in the outcome; the executor only
// handles genuinely unexpected faults (panics).
type BatchFn func(ctx context.Context, items []WorkItem) BatchOutcome

// Run executes items in batches and folds all outcomes into one result.
//
// Cancelling ctx stops the scheduling of new batches; batches already
// dispatched run to completion. Unscheduled items are left unprocessed, which
// is visible as ProcessedItems < TotalItems in the result.
func Run(ctx context.Context, items []WorkItem, batchSize, maxConcurrent int, process BatchFn) OperationResult {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentBatches
	}

	agg := NewAggregator(len(items))

	var g errgroup.Group
	g.SetLimit(maxConcurrent)

	for start := 0; start < len(items); start += batchSize {
		if ctx.Err() != nil {
			break
		}

		end := start + batchSize
		if end > len(items) {
			end = len(items)
		}
		chunk := items[start:end]

		g.Go(func() error {
			agg.Fold(runBatch(ctx, chunk, process))
			return nil
		})
	}

	// Group funcs never return errors; Wait only synchronizes.
	_ = g.Wait()

	return agg.Result()
}

// runBatch invokes process, converting a panic into a fully-failed outcome.
func runBatch(ctx context.Context, items []WorkItem, process BatchFn) (out BatchOutcome) {
	defer func() {
		if r := recover(); r != nil {
			out = BatchOutcome{
				Failed: len(items),
				Errors: []string{fmt.Sprintf("batch of %d items failed unexpectedly: %v", len(items), r)},
			}
		}
	}()

	return process(ctx, items)
}
