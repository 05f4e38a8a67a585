package importer

// service.go owns the import job state machine.
//
// StartImport does the fail-fast work synchronously (account lookup, size
// check, structural parse) so the caller gets an immediate error instead of a
// doomed job, then registers a pending job and hands the rest to a detached
// goroutine. Classification below the acceptance threshold fails the job
// before it ever reaches processing; after that, rows are isolated — one bad
// row is counted and the job continues.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ormside/listflow/internal/jobstore"
	"github.com/ormside/listflow/internal/layout"
	"github.com/ormside/listflow/internal/logging"
	"github.com/ormside/listflow/internal/metrics"
	"github.com/ormside/listflow/internal/store"
)

var (
	// ErrAccountNotFound is returned when the target account does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrJobNotFound is returned when a job ID is unknown.
	ErrJobNotFound = errors.New("import job not found")

	// ErrUnknownLayout is returned when a declared layout is not registered.
	ErrUnknownLayout = errors.New("unknown layout")

	// ErrFileTooLarge is returned when the upload exceeds the size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrInvalidFile wraps structural parse failures: malformed CSV, an empty
	// file, or a header with no data rows. These are caller faults.
	ErrInvalidFile = errors.New("invalid file")
)

// DefaultMaxFileSize is the maximum accepted upload size (100MB).
const DefaultMaxFileSize int64 = 100 * 1024 * 1024

// saveEvery is how many rows are processed between job snapshot saves.
// Terminal states always save regardless.
const saveEvery = 25

// Options tunes the import service.
type Options struct {
	// MaxFileSize caps upload size in bytes. Zero means DefaultMaxFileSize.
	MaxFileSize int64

	// ConfidenceThreshold is the minimum classification confidence to accept.
	// Zero means layout.DefaultConfidenceThreshold.
	ConfidenceThreshold float64
}

// StartRequest describes one import submission.
type StartRequest struct {
	AccountID string
	FileName  string
	Data      []byte

	// DeclaredLayout skips classification and uses the named layout directly.
	DeclaredLayout string

	// ValidateOnly runs the full pipeline without persisting anything; the
	// job reports what would have been created and updated.
	ValidateOnly bool
}

// Service runs import jobs.
type Service struct {
	listings store.ListingStore
	accounts store.AccountLookup
	jobs     jobstore.Store
	layouts  *layout.Registry
	limiter  *Limiter
	opts     Options
}

// NewService wires an import service from its collaborators.
func NewService(listings store.ListingStore, accounts store.AccountLookup, jobs jobstore.Store, layouts *layout.Registry, limiter *Limiter, opts Options) *Service {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	if opts.ConfidenceThreshold <= 0 {
		opts.ConfidenceThreshold = layout.DefaultConfidenceThreshold
	}
	return &Service{
		listings: listings,
		accounts: accounts,
		jobs:     jobs,
		layouts:  layouts,
		limiter:  limiter,
		opts:     opts,
	}
}

// StartImport validates the submission, registers a pending job, and starts
// processing in the background. The returned job ID is immediately pollable.
//
// Unknown account, oversized or structurally unparsable files, and an
// unregistered declared layout are synchronous errors: no job is created.
func (s *Service) StartImport(ctx context.Context, req StartRequest) (string, error) {
	ok, err := s.accounts.Exists(ctx, req.AccountID)
	if err != nil {
		return "", fmt.Errorf("account lookup: %w", err)
	}
	if !ok {
		return "", ErrAccountNotFound
	}

	if int64(len(req.Data)) > s.opts.MaxFileSize {
		return "", fmt.Errorf("%w: %d bytes exceeds %dMB limit",
			ErrFileTooLarge, len(req.Data), s.opts.MaxFileSize/(1024*1024))
	}

	parsed, err := ParseFile(req.Data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}

	if req.DeclaredLayout != "" {
		if _, ok := s.layouts.Get(req.DeclaredLayout); !ok {
			return "", fmt.Errorf("%w: %s", ErrUnknownLayout, req.DeclaredLayout)
		}
	}

	job := &jobstore.Job{
		ID:           uuid.New().String(),
		AccountID:    req.AccountID,
		Status:       jobstore.StatusPending,
		TotalRows:    len(parsed.Rows),
		ValidateOnly: req.ValidateOnly,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.jobs.Save(ctx, job); err != nil {
		return "", fmt.Errorf("register job: %w", err)
	}

	logger := logging.WithFields(ctx,
		"job_id", job.ID,
		"account_id", req.AccountID,
		"file", req.FileName,
	)
	logger.Info("import accepted", "rows", job.TotalRows, "validate_only", req.ValidateOnly)

	// Detached: the triggering request returns immediately, status by polling.
	go s.run(job, parsed, req.DeclaredLayout, logger)

	return job.ID, nil
}

// JobStatus returns a snapshot of the job.
func (s *Service) JobStatus(ctx context.Context, jobID string) (*jobstore.Job, error) {
	job, err := s.jobs.Get(ctx, jobID)
	if errors.Is(err, jobstore.ErrNotFound) {
		return nil, ErrJobNotFound
	}
	return job, err
}

// Drain blocks until all running imports finish or ctx is cancelled.
func (s *Service) Drain(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

func (s *Service) run(job *jobstore.Job, parsed *ParsedFile, declaredLayout string, logger *slog.Logger) {
	ctx := context.Background()

	if err := s.limiter.Acquire(ctx); err != nil {
		s.fail(ctx, job, fmt.Sprintf("acquire import slot: %v", err))
		logger.Warn("import rejected by limiter", "error", err)
		return
	}
	defer s.limiter.Release()

	def, confidence, err := s.resolveLayout(parsed, declaredLayout)
	if err != nil {
		s.fail(ctx, job, err.Error())
		logger.Warn("import failed before processing", "reason", err.Error())
		return
	}

	now := time.Now().UTC()
	job.DetectedLayout = def.Name
	job.Confidence = confidence
	job.Status = jobstore.StatusProcessing
	job.StartedAt = &now
	if err := s.jobs.Save(ctx, job); err != nil {
		logger.Error("save job", "error", err)
	}
	logger.Info("import processing", "layout", def.Name, "confidence", confidence)

	for i, row := range parsed.Rows {
		ordinal := i + 1
		s.processRow(ctx, job, row, def, ordinal)

		job.ProcessedRows = ordinal
		if ordinal%saveEvery == 0 {
			if err := s.jobs.Save(ctx, job); err != nil {
				logger.Error("save job", "error", err)
			}
		}
	}

	done := time.Now().UTC()
	job.CompletedAt = &done
	if job.ErrorCount == 0 {
		job.Status = jobstore.StatusCompleted
	} else {
		job.Status = jobstore.StatusCompletedWithErrors
	}
	if err := s.jobs.Save(ctx, job); err != nil {
		logger.Error("save job", "error", err)
	}

	metrics.ImportJobsTotal.WithLabelValues(string(job.Status)).Inc()
	logger.Info("import finished",
		"status", string(job.Status),
		"created", job.CreatedCount,
		"updated", job.UpdatedCount,
		"errors", job.ErrorCount,
	)
}

// resolveLayout picks the layout for the file: the declared one when given,
// otherwise the classifier's best match gated by the confidence threshold.
func (s *Service) resolveLayout(parsed *ParsedFile, declared string) (layout.Definition, float64, error) {
	if declared != "" {
		def, ok := s.layouts.Get(declared)
		if !ok {
			return layout.Definition{}, 0, fmt.Errorf("unknown layout %q", declared)
		}
		return def, 1, nil
	}

	match := s.layouts.Classify(parsed.Header)
	if match.Unknown() || match.Confidence < s.opts.ConfidenceThreshold {
		return layout.Definition{}, 0, fmt.Errorf(
			"could not identify file layout (best match %q, confidence %.2f, need %.2f)",
			match.Layout.Name, match.Confidence, s.opts.ConfidenceThreshold)
	}
	return match.Layout, match.Confidence, nil
}

// processRow validates, transforms, and persists a single row. Failures are
// recorded on the job; they never halt the run.
func (s *Service) processRow(ctx context.Context, job *jobstore.Job, row Row, def layout.Definition, ordinal int) {
	if violations := ValidateRow(ordinal, row, def); len(violations) > 0 {
		job.RecordRowFailure(violations)
		metrics.ImportRowsTotal.WithLabelValues("error").Inc()
		return
	}

	externalID, _ := row.Field(def, layout.FieldItemID)
	externalID, _ = parseItemID(externalID)

	exists := false
	existing, err := s.listings.FindByExternalID(ctx, job.AccountID, externalID)
	switch {
	case err == nil:
		exists = true
	case errors.Is(err, store.ErrNotFound):
		// new listing
	default:
		job.RecordError(fmt.Sprintf("row %d: listing lookup: %v", ordinal, err))
		metrics.ImportRowsTotal.WithLabelValues("error").Inc()
		return
	}

	cmd := Transform(row, def, job.AccountID, exists)

	if job.ValidateOnly {
		if cmd.Kind == KindCreate {
			job.CreatedCount++
		} else {
			job.UpdatedCount++
		}
		return
	}

	switch cmd.Kind {
	case KindCreate:
		if _, err := s.listings.Create(ctx, cmd.Create); err != nil {
			job.RecordError(fmt.Sprintf("row %d: create listing %s: %v", ordinal, cmd.ExternalID, err))
			metrics.ImportRowsTotal.WithLabelValues("error").Inc()
			return
		}
		job.CreatedCount++
		metrics.ImportRowsTotal.WithLabelValues("created").Inc()
	case KindUpdate:
		if _, err := s.listings.Update(ctx, existing.ID, cmd.Patch); err != nil {
			job.RecordError(fmt.Sprintf("row %d: update listing %s: %v", ordinal, cmd.ExternalID, err))
			metrics.ImportRowsTotal.WithLabelValues("error").Inc()
			return
		}
		job.UpdatedCount++
		metrics.ImportRowsTotal.WithLabelValues("updated").Inc()
	}
}

// fail moves a job to its failed terminal state before row processing began.
func (s *Service) fail(ctx context.Context, job *jobstore.Job, reason string) {
	now := time.Now().UTC()
	job.Status = jobstore.StatusFailed
	job.FailureReason = reason
	job.CompletedAt = &now
	if err := s.jobs.Save(ctx, job); err != nil {
		logging.FromContext(ctx).Error("save failed job", "job_id", job.ID, "error", err)
	}
	metrics.ImportJobsTotal.WithLabelValues(string(jobstore.StatusFailed)).Inc()
}
