package generator

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/liamtostring/schegen/models"
)

type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobCancelled JobStatus = "cancelled"
)

// Job tracks one batch run.
type Job struct {
	ID         string            `json:"id"`
	Status     JobStatus         `json:"status"`
	Total      int               `json:"total"`
	Stats      models.BatchStats `json:"stats"`
	Items      []BatchItem       `json:"items"`
	StartedAt  time.Time         `json:"startedAt"`
	FinishedAt time.Time         `json:"finishedAt,omitempty"`
}

// Done counts the items that finished, whatever their outcome.
func (j *Job) Done() int { return len(j.Items) }

func (j *Job) clone() *Job {
	c := *j
	c.Items = append([]BatchItem(nil), j.Items...)
	return &c
}

func newJob(total int) *Job {
	return &Job{
		ID:        uuid.NewString(),
		Status:    JobRunning,
		Total:     total,
		StartedAt: time.Now().UTC(),
	}
}

// JobStore keeps batch progress so it can be inspected while a run is
// going and after it ends.
type JobStore interface {
	Save(ctx context.Context, job *Job) error
	Get(ctx context.Context, id string) (*Job, error)
	List(ctx context.Context) ([]*Job, error)
}

type MemoryJobStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{jobs: make(map[string]*Job)}
}

func (s *MemoryJobStore) Save(_ context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job.clone()
	return nil
}

func (s *MemoryJobStore) Get(_ context.Context, id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", id, models.ErrNotFound)
	}
	return job.clone(), nil
}

// List returns every job, newest first.
func (s *MemoryJobStore) List(_ context.Context) ([]*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, job.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}
