package mutate

// service.go drives bulk mutations: preflight validation with no side
// effects, then batched execution. Status changes take the fast path (one
// bulk store call per batch); price and quantity changes fetch each listing
// to apply business rules before updating.

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/ormside/listflow/internal/batch"
	"github.com/ormside/listflow/internal/logging"
	"github.com/ormside/listflow/internal/metrics"
	"github.com/ormside/listflow/internal/store"
)

// ValidationError carries the preflight violations of a rejected request.
// Nothing has been executed when it is returned.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid bulk mutation request: %s", strings.Join(e.Violations, "; "))
}

// Options tunes batch execution.
type Options struct {
	// BatchSize is the number of items per batch. Zero means
	// batch.DefaultBatchSize.
	BatchSize int

	// MaxConcurrentBatches bounds parallel batches. Zero means
	// batch.DefaultMaxConcurrentBatches.
	MaxConcurrentBatches int
}

// Service executes bulk mutations against the listing store.
type Service struct {
	listings store.ListingStore
	opts     Options
}

// NewService wires a bulk mutation service.
func NewService(listings store.ListingStore, opts Options) *Service {
	return &Service{listings: listings, opts: opts}
}

// Validate preflights a bulk mutation request and returns its violations.
// An empty result means the request may execute. No side effects.
func (s *Service) Validate(entity EntityType, ids []string, op Operation) []string {
	var violations []string

	if _, err := ParseEntityType(string(entity)); err != nil {
		violations = append(violations, err.Error())
	}
	if len(ids) == 0 {
		violations = append(violations, "at least one ID is required")
	} else if max := entity.MaxIDs(); len(ids) > max {
		violations = append(violations,
			fmt.Sprintf("too many IDs: %d exceeds the %s ceiling of %d", len(ids), entity, max))
	}
	for i, id := range ids {
		if strings.TrimSpace(id) == "" {
			violations = append(violations, fmt.Sprintf("ID at position %d is empty", i))
		}
	}

	if op == nil {
		violations = append(violations, "operation is required")
	} else if err := op.Validate(); err != nil {
		violations = append(violations, flattenViolations(err)...)
	}

	return violations
}

// Execute runs a validated bulk mutation. Requests failing preflight return
// a *ValidationError with nothing executed; otherwise the terminal
// OperationResult summarizes every item, including partial failure.
func (s *Service) Execute(ctx context.Context, entity EntityType, ids []string, op Operation) (batch.OperationResult, error) {
	if violations := s.Validate(entity, ids, op); len(violations) > 0 {
		return batch.OperationResult{}, &ValidationError{Violations: violations}
	}

	logger := logging.WithFields(ctx,
		"operation", op.Name(),
		"entity", string(entity),
		"items", len(ids),
	)
	logger.Info("bulk mutation started")

	items := make([]batch.WorkItem, len(ids))
	for i, id := range ids {
		items[i] = batch.WorkItem{ID: id, Op: op.Name()}
	}

	start := time.Now()
	result := batch.Run(ctx, items, s.opts.BatchSize, s.opts.MaxConcurrentBatches, s.batchFn(op))
	metrics.ObserveOperation(op.Name(), start)
	metrics.MutationItemsTotal.WithLabelValues(string(entity), "successful").Add(float64(result.SuccessfulItems))
	metrics.MutationItemsTotal.WithLabelValues(string(entity), "failed").Add(float64(result.FailedItems))

	logger.Info("bulk mutation finished",
		"status", string(result.Status),
		"successful", result.SuccessfulItems,
		"failed", result.FailedItems,
	)
	return result, nil
}

// batchFn selects the per-batch processor for an operation.
func (s *Service) batchFn(op Operation) batch.BatchFn {
	switch c := op.(type) {
	case StatusChange:
		return s.statusBatch(c)
	case *StatusChange:
		return s.statusBatch(*c)
	case PriceChange:
		return s.perItemBatch(s.priceItem(c))
	case *PriceChange:
		return s.perItemBatch(s.priceItem(*c))
	case QuantityChange:
		return s.perItemBatch(s.quantityItem(c))
	case *QuantityChange:
		return s.perItemBatch(s.quantityItem(*c))
	default:
		return func(_ context.Context, items []batch.WorkItem) batch.BatchOutcome {
			return batch.BatchOutcome{
				Failed: len(items),
				Errors: []string{fmt.Sprintf("unsupported operation %q", op.Name())},
			}
		}
	}
}

// statusBatch is the fast path: one bulk store call per batch. IDs the store
// did not match are counted failed with a summary error.
func (s *Service) statusBatch(c StatusChange) batch.BatchFn {
	return func(ctx context.Context, items []batch.WorkItem) batch.BatchOutcome {
		ids := make([]string, len(items))
		for i, item := range items {
			ids[i] = item.ID
		}

		updated, err := s.listings.BulkUpdateStatus(ctx, ids, c.Status)
		if err != nil {
			return batch.BatchOutcome{
				Failed: len(items),
				Errors: []string{fmt.Sprintf("status update of %d items: %v", len(items), err)},
			}
		}

		out := batch.BatchOutcome{Successful: int(updated), Failed: len(items) - int(updated)}
		if out.Failed > 0 {
			out.Errors = append(out.Errors,
				fmt.Sprintf("%d of %d items not found", out.Failed, len(items)))
		}
		return out
	}
}

// itemFn mutates one listing and reports success plus an optional warning.
type itemFn func(ctx context.Context, id string) (warning string, err error)

// perItemBatch folds an itemFn over a batch; item failures are recorded and
// do not abort the batch.
func (s *Service) perItemBatch(fn itemFn) batch.BatchFn {
	return func(ctx context.Context, items []batch.WorkItem) batch.BatchOutcome {
		var out batch.BatchOutcome

		for _, item := range items {
			warning, err := fn(ctx, item.ID)
			if err != nil {
				out.Failed++
				out.Errors = append(out.Errors, fmt.Sprintf("%s: %v", item.ID, err))
				continue
			}
			out.Successful++
			if warning != "" {
				out.Warnings = append(out.Warnings, fmt.Sprintf("%s: %s", item.ID, warning))
			}
		}
		return out
	}
}

// priceItem applies a price change to one listing. Ended listings are skipped
// with a warning: the change is a recorded no-op, not a failure.
func (s *Service) priceItem(c PriceChange) itemFn {
	return func(ctx context.Context, id string) (string, error) {
		listing, err := s.listings.FindByID(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return "", fmt.Errorf("not found")
		}
		if err != nil {
			return "", fmt.Errorf("fetch: %v", err)
		}

		if listing.Status == store.StatusEnded {
			return "price change skipped: listing has ended", nil
		}

		price := c.Price
		if _, err := s.listings.Update(ctx, id, store.ListingPatch{Price: &price}); err != nil {
			return "", fmt.Errorf("update: %v", err)
		}
		return "", nil
	}
}

// quantityItem applies a quantity change to one listing. Reaching zero flips
// the status to out_of_stock; restocking an out_of_stock listing reactivates
// it.
func (s *Service) quantityItem(c QuantityChange) itemFn {
	return func(ctx context.Context, id string) (string, error) {
		listing, err := s.listings.FindByID(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return "", fmt.Errorf("not found")
		}
		if err != nil {
			return "", fmt.Errorf("fetch: %v", err)
		}

		qty := c.Quantity
		patch := store.ListingPatch{Quantity: &qty}

		var warning string
		switch {
		case qty == 0 && listing.Status == store.StatusActive:
			status := store.StatusOutOfStock
			patch.Status = &status
			warning = "quantity reached zero: status set to out_of_stock"
		case qty > 0 && listing.Status == store.StatusOutOfStock:
			status := store.StatusActive
			patch.Status = &status
			warning = "restocked: status restored to active"
		}

		if _, err := s.listings.Update(ctx, id, patch); err != nil {
			return "", fmt.Errorf("update: %v", err)
		}
		return warning, nil
	}
}

// flattenViolations renders an ozzo validation error as field-prefixed
// strings in a stable order.
func flattenViolations(err error) []string {
	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}

	fields := make([]string, 0, len(fieldErrs))
	for f := range fieldErrs {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, fmt.Sprintf("%s: %v", f, fieldErrs[f]))
	}
	return out
}
