// Package jobstore tracks import jobs from submission to terminal state.
//
// The registry is an explicit, injected dependency of the import controller
// rather than ambient global state. Two implementations are provided: an
// in-memory store (guarded map with an age-based sweep) and a Redis store
// where expiry is delegated to key TTLs.
package jobstore

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a job ID is unknown.
var ErrNotFound = errors.New("job not found")

// MaxJobErrors caps the rolling error log a job retains.
const MaxJobErrors = 10

// Status is the import job lifecycle state.
//
// Transitions are one-directional:
//
//	pending -> processing -> completed | completed_with_errors
//	pending -> failed
//
// A failed job is never resumed; callers resubmit as a new job.
type Status string

const (
	StatusPending             Status = "pending"
	StatusProcessing          Status = "processing"
	StatusCompleted           Status = "completed"
	StatusCompletedWithErrors Status = "completed_with_errors"
	StatusFailed              Status = "failed"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCompletedWithErrors, StatusFailed:
		return true
	}
	return false
}

// Job is one file-import run. Only its owning controller mutates it during
// execution; once terminal it is immutable. Row-level outcomes are not kept
// individually, only aggregate counts and a capped error sample.
type Job struct {
	ID        string `json:"id"`
	AccountID string `json:"accountId"`

	// DetectedLayout and Confidence are set after classification.
	DetectedLayout string  `json:"detectedLayout,omitempty"`
	Confidence     float64 `json:"confidence,omitempty"`

	Status        Status `json:"status"`
	FailureReason string `json:"failureReason,omitempty"`

	TotalRows     int `json:"totalRows"`
	ProcessedRows int `json:"processedRows"`
	CreatedCount  int `json:"created"`
	UpdatedCount  int `json:"updated"`
	ErrorCount    int `json:"errorCount"`

	// Errors holds the last MaxJobErrors row errors, in encounter order.
	Errors []string `json:"errors,omitempty"`

	ValidateOnly bool `json:"validateOnly,omitempty"`

	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Progress returns completion as a 0-100 percentage.
func (j *Job) Progress() int {
	if j.Status.Terminal() {
		return 100
	}
	if j.TotalRows <= 0 {
		return 0
	}
	return (j.ProcessedRows * 100) / j.TotalRows
}

// RecordError counts a row error and appends it to the bounded sample.
func (j *Job) RecordError(msg string) {
	j.RecordRowFailure([]string{msg})
}

// RecordRowFailure counts one failed row and samples its violation messages.
// The sample keeps the last MaxJobErrors messages in encounter order.
func (j *Job) RecordRowFailure(msgs []string) {
	j.ErrorCount++
	j.Errors = append(j.Errors, msgs...)
	if len(j.Errors) > MaxJobErrors {
		j.Errors = j.Errors[len(j.Errors)-MaxJobErrors:]
	}
}

// Clone returns a deep copy, so stored snapshots never alias caller state.
func (j *Job) Clone() *Job {
	cp := *j
	cp.Errors = append([]string(nil), j.Errors...)
	if j.StartedAt != nil {
		t := *j.StartedAt
		cp.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}
