package jobs

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a job.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// InterruptedReason is the failure message set when running jobs are failed
// because the daemon stopped mid-run.
const InterruptedReason = "Interrupted by daemon shutdown"

var allStatuses = []Status{
	StatusQueued,
	StatusRunning,
	StatusDone,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// FailureReason captures where and why a job failed.
type FailureReason struct {
	Stage   string `json:"stage"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ResultRef points at the artifact a finished job produced.
type ResultRef struct {
	Stage string `json:"stage"`
	Name  string `json:"name"`
}

// HealthSummary describes aggregated job counts per lifecycle state.
type HealthSummary struct {
	Total   int
	Queued  int
	Running int
	Done    int
	Failed  int
}

// Job represents a pipeline job persisted in SQLite.
type Job struct {
	ID         string
	Project    string
	Params     map[string]string
	Status     Status
	Stage      string
	StageIndex int
	Progress   int
	Message    string
	Failure    *FailureReason
	Result     *ResultRef
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether the status admits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusFailed
}

// SetRunning moves a queued job into the running state. Terminal jobs are
// left untouched.
func (j *Job) SetRunning() {
	if j.Status.IsTerminal() {
		return
	}
	j.Status = StatusRunning
}

// SetStage records the stage the job is about to execute.
func (j *Job) SetStage(name string, index int) {
	if j.Status.IsTerminal() {
		return
	}
	j.Stage = name
	j.StageIndex = index
}

// SetMessage overwrites the human-readable status text.
func (j *Job) SetMessage(message string) {
	if j.Status.IsTerminal() {
		return
	}
	j.Message = message
}

// SetProgress raises the progress percent. Progress never moves backwards.
func (j *Job) SetProgress(percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	if percent > j.Progress {
		j.Progress = percent
	}
}

// SetDone marks the job finished and records its result artifact.
func (j *Job) SetDone(result ResultRef) {
	if j.Status.IsTerminal() {
		return
	}
	j.Status = StatusDone
	j.Progress = 100
	j.Result = &result
	j.Failure = nil
	j.Message = "Completed"
}

// SetFailed marks the job failed with a structured reason. Progress made so
// far is retained so callers can see how far the run got.
func (j *Job) SetFailed(stage, kind, message string) {
	if j.Status.IsTerminal() {
		return
	}
	j.Status = StatusFailed
	j.Failure = &FailureReason{Stage: stage, Kind: kind, Message: message}
	j.Message = message
}
