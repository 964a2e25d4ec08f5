package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"reelsmith/internal/jobs"
)

type fakeJobReader struct {
	jobs  []*jobs.Job
	stats map[jobs.Status]int
	err   error

	lastStatuses []jobs.Status
}

func (f *fakeJobReader) List(_ context.Context, statuses ...jobs.Status) ([]*jobs.Job, error) {
	f.lastStatuses = statuses
	return f.jobs, f.err
}

func (f *fakeJobReader) Stats(context.Context) (map[jobs.Status]int, error) {
	return f.stats, f.err
}

func (f *fakeJobReader) GetByID(_ context.Context, id string) (*jobs.Job, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, job := range f.jobs {
		if job.ID == id {
			return job, nil
		}
	}
	return nil, nil
}

func sampleJob() *jobs.Job {
	created := time.Date(2026, time.March, 4, 12, 30, 0, 0, time.UTC)
	return &jobs.Job{
		ID:        "job-1",
		Project:   "spring-launch",
		Params:    map[string]string{"topic": "garden tools"},
		Status:    jobs.StatusFailed,
		Stage:     "animation",
		Progress:  33,
		Failure:   &jobs.FailureReason{Stage: "animation", Kind: "stage-error", Message: "render failed"},
		CreatedAt: created,
		UpdatedAt: created.Add(2 * time.Minute),
	}
}

func TestFromJobMapsFields(t *testing.T) {
	snapshot := FromJob(sampleJob())

	if snapshot.ID != "job-1" || snapshot.Project != "spring-launch" {
		t.Fatalf("unexpected identity: %+v", snapshot)
	}
	if snapshot.Status != "failed" || snapshot.Stage != "animation" || snapshot.Progress != 33 {
		t.Fatalf("unexpected state: %+v", snapshot)
	}
	if snapshot.Failure == nil || snapshot.Failure.Kind != "stage-error" {
		t.Fatalf("expected failure reason, got %+v", snapshot.Failure)
	}
	if snapshot.Result != nil {
		t.Fatalf("expected no result on failed job, got %+v", snapshot.Result)
	}
	if snapshot.CreatedAt != "2026-03-04T12:30:00.000Z" {
		t.Fatalf("unexpected createdAt %q", snapshot.CreatedAt)
	}
	if snapshot.UpdatedAt != "2026-03-04T12:32:00.000Z" {
		t.Fatalf("unexpected updatedAt %q", snapshot.UpdatedAt)
	}
}

func TestFromJobNil(t *testing.T) {
	snapshot := FromJob(nil)
	if snapshot.ID != "" || snapshot.CreatedAt != "" {
		t.Fatalf("expected zero snapshot, got %+v", snapshot)
	}
}

func TestJobServiceListPassesStatuses(t *testing.T) {
	reader := &fakeJobReader{jobs: []*jobs.Job{sampleJob()}}
	service := NewJobService(reader)

	list, err := service.List(context.Background(), jobs.StatusFailed)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(list) != 1 || list[0].ID != "job-1" {
		t.Fatalf("unexpected list %+v", list)
	}
	if len(reader.lastStatuses) != 1 || reader.lastStatuses[0] != jobs.StatusFailed {
		t.Fatalf("unexpected status filter %v", reader.lastStatuses)
	}
}

func TestJobServiceStatsFillsAllStatuses(t *testing.T) {
	reader := &fakeJobReader{stats: map[jobs.Status]int{jobs.StatusDone: 2}}
	service := NewJobService(reader)

	counts, err := service.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if counts["done"] != 2 {
		t.Fatalf("expected done count 2, got %d", counts["done"])
	}
	for _, status := range jobs.AllStatuses() {
		if _, ok := counts[string(status)]; !ok {
			t.Fatalf("missing status %q in counts %v", status, counts)
		}
	}
}

func TestJobServiceDescribe(t *testing.T) {
	reader := &fakeJobReader{jobs: []*jobs.Job{sampleJob()}}
	service := NewJobService(reader)

	snapshot, found, err := service.Describe(context.Background(), "job-1")
	if err != nil || !found {
		t.Fatalf("Describe failed: found=%v err=%v", found, err)
	}
	if snapshot.ID != "job-1" {
		t.Fatalf("unexpected snapshot %+v", snapshot)
	}

	_, found, err = service.Describe(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Describe returned error for unknown id: %v", err)
	}
	if found {
		t.Fatal("expected unknown id to report not found")
	}
}

func TestJobServiceErrorsPropagate(t *testing.T) {
	reader := &fakeJobReader{err: errors.New("db closed")}
	service := NewJobService(reader)

	if _, err := service.List(context.Background()); err == nil {
		t.Fatal("expected List error")
	}
	if _, err := service.Stats(context.Background()); err == nil {
		t.Fatal("expected Stats error")
	}
	if _, _, err := service.Describe(context.Background(), "job-1"); err == nil {
		t.Fatal("expected Describe error")
	}
}
