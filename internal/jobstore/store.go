package jobstore

import (
	"context"
	"time"
)

// Store persists import job snapshots.
//
// Save is called by the single controller goroutine that owns a job; Get is
// called concurrently by status-polling callers. Implementations must be safe
// for that access pattern and must never return aliased mutable state.
type Store interface {
	// Save stores a snapshot of the job, overwriting any previous one.
	Save(ctx context.Context, job *Job) error

	// Get returns a copy of the job, or ErrNotFound.
	Get(ctx context.Context, id string) (*Job, error)

	// Sweep removes terminal jobs older than maxAge and returns how many
	// were removed. Implementations with native expiry may make this a
	// no-op.
	Sweep(ctx context.Context, maxAge time.Duration) (int, error)
}
