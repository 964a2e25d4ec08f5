package api

import (
	"context"
	"fmt"

	"reelsmith/internal/jobs"
)

// JobReader is the narrow job store surface the API layer depends on.
type JobReader interface {
	List(ctx context.Context, statuses ...jobs.Status) ([]*jobs.Job, error)
	Stats(ctx context.Context) (map[jobs.Status]int, error)
	GetByID(ctx context.Context, id string) (*jobs.Job, error)
}

// JobService exposes read access to jobs in API form.
type JobService struct {
	store JobReader
}

// NewJobService wraps a job reader for API consumers.
func NewJobService(store JobReader) *JobService {
	return &JobService{store: store}
}

// List returns jobs filtered to the given statuses, or all jobs when no
// statuses are supplied.
func (s *JobService) List(ctx context.Context, statuses ...jobs.Status) ([]JobSnapshot, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("job service not configured")
	}
	list, err := s.store.List(ctx, statuses...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return FromJobs(list), nil
}

// Stats returns job counts per lifecycle status.
func (s *JobService) Stats(ctx context.Context) (map[string]int, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("job service not configured")
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	return StatsToCounts(stats), nil
}

// Describe returns a single job by id. The boolean reports whether the job
// exists.
func (s *JobService) Describe(ctx context.Context, id string) (JobSnapshot, bool, error) {
	if s == nil || s.store == nil {
		return JobSnapshot{}, false, fmt.Errorf("job service not configured")
	}
	job, err := s.store.GetByID(ctx, id)
	if err != nil {
		return JobSnapshot{}, false, fmt.Errorf("describe job: %w", err)
	}
	if job == nil {
		return JobSnapshot{}, false, nil
	}
	return FromJob(job), true, nil
}
