package api

import (
	"reelsmith/internal/jobs"
)

// FromJob converts a stored job into its API representation.
func FromJob(job *jobs.Job) JobSnapshot {
	if job == nil {
		return JobSnapshot{}
	}

	snapshot := JobSnapshot{
		ID:       job.ID,
		Project:  job.Project,
		Params:   job.Params,
		Status:   string(job.Status),
		Stage:    job.Stage,
		Progress: job.Progress,
		Message:  job.Message,
	}
	if job.Failure != nil {
		snapshot.Failure = &FailureReason{
			Stage:   job.Failure.Stage,
			Kind:    job.Failure.Kind,
			Message: job.Failure.Message,
		}
	}
	if job.Result != nil {
		snapshot.Result = &ResultRef{
			Stage: job.Result.Stage,
			Name:  job.Result.Name,
		}
	}
	if !job.CreatedAt.IsZero() {
		snapshot.CreatedAt = job.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !job.UpdatedAt.IsZero() {
		snapshot.UpdatedAt = job.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	return snapshot
}

// FromJobs converts a slice of stored jobs, preserving order.
func FromJobs(list []*jobs.Job) []JobSnapshot {
	snapshots := make([]JobSnapshot, 0, len(list))
	for _, job := range list {
		snapshots = append(snapshots, FromJob(job))
	}
	return snapshots
}

// StatsToCounts flattens store stats into a string-keyed map, filling every
// known status so consumers always see the full set.
func StatsToCounts(stats map[jobs.Status]int) map[string]int {
	counts := make(map[string]int, len(jobs.AllStatuses()))
	for _, status := range jobs.AllStatuses() {
		counts[string(status)] = stats[status]
	}
	return counts
}
