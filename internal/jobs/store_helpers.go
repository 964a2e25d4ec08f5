package jobs

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const jobColumns = "id, project, params_json, status, stage, stage_index, progress, message, failure_stage, failure_kind, failure_message, result_stage, result_name, created_at, updated_at"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id             string
		project        string
		paramsJSON     sql.NullString
		statusStr      string
		stage          sql.NullString
		stageIndex     sql.NullInt64
		progress       sql.NullInt64
		message        sql.NullString
		failureStage   sql.NullString
		failureKind    sql.NullString
		failureMessage sql.NullString
		resultStage    sql.NullString
		resultName     sql.NullString
		createdRaw     sql.NullString
		updatedRaw     sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&project,
		&paramsJSON,
		&statusStr,
		&stage,
		&stageIndex,
		&progress,
		&message,
		&failureStage,
		&failureKind,
		&failureMessage,
		&resultStage,
		&resultName,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:         id,
		Project:    project,
		Status:     Status(statusStr),
		Stage:      stage.String,
		StageIndex: int(stageIndex.Int64),
		Progress:   int(progress.Int64),
		Message:    message.String,
	}
	if paramsJSON.Valid && paramsJSON.String != "" {
		params := make(map[string]string)
		if err := json.Unmarshal([]byte(paramsJSON.String), &params); err != nil {
			return nil, fmt.Errorf("decode params for job %s: %w", id, err)
		}
		job.Params = params
	}
	if failureKind.Valid || failureMessage.Valid || failureStage.Valid {
		job.Failure = &FailureReason{
			Stage:   failureStage.String,
			Kind:    failureKind.String,
			Message: failureMessage.String,
		}
	}
	if resultStage.Valid && resultName.Valid {
		job.Result = &ResultRef{Stage: resultStage.String, Name: resultName.String}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		job.UpdatedAt = updated
	}
	return job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
