package jobstore

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps jobs in a guarded map. Suitable for single-process
// deployments; pair it with a periodic Sweep so finished jobs age out.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewMemoryStore creates an empty in-memory job store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*Job)}
}

func (s *MemoryStore) Save(_ context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job.Clone()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return job.Clone(), nil
}

// Sweep drops terminal jobs whose completion is older than maxAge.
// In-flight jobs are never swept regardless of age.
func (s *MemoryStore) Sweep(_ context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, job := range s.jobs {
		if !job.Status.Terminal() {
			continue
		}
		done := job.CreatedAt
		if job.CompletedAt != nil {
			done = *job.CompletedAt
		}
		if done.Before(cutoff) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed, nil
}

var _ Store = (*MemoryStore)(nil)
