package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// JobSnapshot describes a job in a transport-friendly format.
type JobSnapshot struct {
	ID        string            `json:"id"`
	Project   string            `json:"project"`
	Params    map[string]string `json:"params,omitempty"`
	Status    string            `json:"status"`
	Stage     string            `json:"stage,omitempty"`
	Progress  int               `json:"progress"`
	Message   string            `json:"message,omitempty"`
	Failure   *FailureReason    `json:"failureReason,omitempty"`
	Result    *ResultRef        `json:"result,omitempty"`
	CreatedAt string            `json:"createdAt,omitempty"`
	UpdatedAt string            `json:"updatedAt,omitempty"`
}

// FailureReason mirrors the structured failure recorded on a failed job.
type FailureReason struct {
	Stage   string `json:"stage"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ResultRef points at the artifact produced by a finished job.
type ResultRef struct {
	Stage string `json:"stage"`
	Name  string `json:"name"`
}

// StageHealth mirrors readiness reporting for pipeline stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running     bool           `json:"running"`
	PID         int            `json:"pid"`
	JobsDBPath  string         `json:"jobsDbPath"`
	StagingDir  string         `json:"stagingDir"`
	JobStats    map[string]int `json:"jobStats"`
	StageHealth []StageHealth  `json:"stageHealth"`
	LastError   string         `json:"lastError,omitempty"`
}

// JobListResponse wraps a collection of jobs for API responses.
type JobListResponse struct {
	Jobs []JobSnapshot `json:"jobs"`
}

// SubmitRequest is the POST /api/jobs payload.
type SubmitRequest struct {
	Project string            `json:"project"`
	Params  map[string]string `json:"params,omitempty"`
}

// SubmitResponse acknowledges an accepted job.
type SubmitResponse struct {
	JobID string `json:"job_id"`
}

// Voice describes one synthesis voice for API consumers.
type Voice struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// VoicesResponse wraps the voice catalogue.
type VoicesResponse struct {
	OK      bool    `json:"ok"`
	Message string  `json:"message,omitempty"`
	Voices  []Voice `json:"voices"`
}

// PublishRequest is the POST /api/publish payload.
type PublishRequest struct {
	JobID    string `json:"job_id"`
	Platform string `json:"platform"`
}

// PublishResponse acknowledges a simulated publish.
type PublishResponse struct {
	OK       bool   `json:"ok"`
	Message  string `json:"message"`
	Platform string `json:"platform"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}
