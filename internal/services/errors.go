package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingDependency = errors.New("missing dependency")
	ErrStage             = errors.New("stage error")
	ErrOutputMismatch    = errors.New("output mismatch")
	ErrTimeout           = errors.New("timeout")
	ErrNotFound          = errors.New("not found")
	ErrConfiguration     = errors.New("configuration error")
)

// Failure reason kinds persisted on failed jobs and reported over the API.
const (
	KindMissingDependency = "missing-dependency"
	KindStageError        = "stage-error"
	KindOutputMismatch    = "output-mismatch"
	KindTimeout           = "timeout"
	KindNotFound          = "not-found"
	KindConfiguration     = "configuration"
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later reason classification. The marker should
// be one of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrStage
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind maps a stage error to the failure reason kind the orchestrator
// persists when the job fails.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrMissingDependency):
		return KindMissingDependency
	case errors.Is(err, ErrOutputMismatch):
		return KindOutputMismatch
	case errors.Is(err, ErrTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	default:
		return KindStageError
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
