// Package jobstore keeps generation jobs in process memory. Jobs are not
// persisted: a restart forgets everything except the finished video files.
package jobstore

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"viralreel/internal/model"
)

// Store is a concurrency-safe in-memory job registry.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*model.GenerationJob
}

// New creates an empty store.
func New() *Store {
	return &Store{jobs: make(map[string]*model.GenerationJob)}
}

// Create registers a new pending job for topic under the given ID.
func (s *Store) Create(id, topic string) *model.GenerationJob {
	job := &model.GenerationJob{
		ID:        id,
		Topic:     topic,
		Status:    model.StatusPending,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.jobs[id] = job
	s.mu.Unlock()
	return job
}

// Get returns a copy of the job, so callers never race with updates.
func (s *Store) Get(id string) (model.GenerationJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return model.GenerationJob{}, fmt.Errorf("job %s not found", id)
	}
	return *job, nil
}

// Update applies fn to the stored job under the write lock.
func (s *Store) Update(id string, fn func(*model.GenerationJob)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("job %s not found", id)
	}
	fn(job)
	return nil
}

// List returns copies of all jobs, newest first.
func (s *Store) List() []model.GenerationJob {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.GenerationJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, *job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}
