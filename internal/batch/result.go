// Package batch provides bounded-concurrency batch execution for bulk
// operations. Work items are partitioned into fixed-size batches, batches run
// under a concurrency limit, and per-batch outcomes fold into a single
// operation result with partial-success semantics.
package batch

import (
	"sync"
	"time"
)

// MaxSampledMessages caps how many error/warning strings an operation result
// retains. Counts are always exact; only the samples are bounded.
const MaxSampledMessages = 10

// Status is the terminal state of a bulk operation.
type Status string

const (
	StatusCompleted      Status = "completed"
	StatusPartialSuccess Status = "partial_success"
	StatusFailed         Status = "failed"
)

// WorkItem is one unit of bulk work: an opaque entity identifier plus the
// operation it belongs to. Immutable once created.
type WorkItem struct {
	ID string
	Op string
}

// BatchOutcome is the result of processing one batch.
// Outcomes combine associatively: counts sum, message samples concatenate.
type BatchOutcome struct {
	Successful int
	Failed     int
	Errors     []string
	Warnings   []string
}

// OperationResult is the caller-visible summary of a bulk operation.
//
// Invariant: ProcessedItems == SuccessfulItems + FailedItems <= TotalItems.
type OperationResult struct {
	TotalItems      int       `json:"totalItems"`
	ProcessedItems  int       `json:"processedItems"`
	SuccessfulItems int       `json:"successfulItems"`
	FailedItems     int       `json:"failedItems"`
	SuccessRate     float64   `json:"successRate"`
	Errors          []string  `json:"errors,omitempty"`
	Warnings        []string  `json:"warnings,omitempty"`
	Status          Status    `json:"status"`
	StartedAt       time.Time `json:"startedAt"`
	CompletedAt     time.Time `json:"completedAt"`
}

// Aggregator accumulates batch outcomes into an OperationResult.
// It is safe for concurrent use by multiple batch goroutines.
type Aggregator struct {
	mu         sync.Mutex
	total      int
	successful int
	failed     int
	errors     []string
	warnings   []string
	startedAt  time.Time
}

// NewAggregator creates an aggregator for an operation over total items.
func NewAggregator(total int) *Aggregator {
	return &Aggregator{
		total:     total,
		startedAt: time.Now().UTC(),
	}
}

// Fold merges one batch outcome into the running totals.
// Folding is commutative and associative, so final counts do not depend on
// batch completion order.
func (a *Aggregator) Fold(out BatchOutcome) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.successful += out.Successful
	a.failed += out.Failed
	a.errors = appendBounded(a.errors, out.Errors)
	a.warnings = appendBounded(a.warnings, out.Warnings)
}

// Result finalizes the aggregation into an OperationResult.
//
// Status derivation: completed when nothing failed, failed when nothing
// succeeded (and there was work to do), partial_success otherwise.
func (a *Aggregator) Result() OperationResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	processed := a.successful + a.failed
	res := OperationResult{
		TotalItems:      a.total,
		ProcessedItems:  processed,
		SuccessfulItems: a.successful,
		FailedItems:     a.failed,
		Errors:          a.errors,
		Warnings:        a.warnings,
		StartedAt:       a.startedAt,
		CompletedAt:     time.Now().UTC(),
	}
	if processed > 0 {
		res.SuccessRate = float64(a.successful) / float64(processed)
	}

	switch {
	case a.failed == 0:
		res.Status = StatusCompleted
	case a.successful == 0 && a.total > 0:
		res.Status = StatusFailed
	default:
		res.Status = StatusPartialSuccess
	}

	return res
}

// appendBounded appends messages keeping only the last MaxSampledMessages,
// in encounter order.
func appendBounded(dst, src []string) []string {
	dst = append(dst, src...)
	if len(dst) > MaxSampledMessages {
		dst = dst[len(dst)-MaxSampledMessages:]
	}
	return dst
}
