package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"reelsmith/internal/artifacts"
	"reelsmith/internal/jobs"
	"reelsmith/internal/logging"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/services"
	"reelsmith/internal/stage"
)

func (m *Manager) runJob(ctx context.Context, job *jobs.Job) {
	jobCtx := services.WithJobID(ctx, job.ID)
	jobCtx = services.WithProject(jobCtx, job.Project)
	logger := logging.WithContext(jobCtx, m.logger)

	job.SetRunning()
	if err := m.persist(jobCtx, job); err != nil {
		logger.Error("failed to persist running status", logging.Error(err))
		m.setLastError(err)
		return
	}
	logger.Info("job started", logging.String(logging.FieldEventType, "job_start"))

	total := len(m.stages)
	for i, def := range m.stages {
		if ctx.Err() != nil {
			logger.Debug("job interrupted by shutdown")
			return
		}

		job.SetStage(def.Name, i)
		job.SetMessage("Running " + def.DisplayName)
		if err := m.persist(jobCtx, job); err != nil {
			logger.Error("failed to persist stage cursor", logging.Error(err))
			m.setLastError(err)
			return
		}

		if err := m.runStage(jobCtx, job, def); err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				logger.Debug("stage interrupted by shutdown", logging.String(logging.FieldStage, def.Name))
				return
			}
			m.failJob(jobCtx, job, def.Name, err)
			return
		}

		job.SetProgress(pipeline.Progress(i+1, total))
		job.SetMessage(def.DisplayName + " completed")
		if err := m.persist(jobCtx, job); err != nil {
			logger.Error("failed to persist progress", logging.Error(err))
			m.setLastError(err)
			return
		}
	}

	job.SetDone(jobs.ResultRef{Stage: pipeline.ResultStage, Name: pipeline.ResultArtifact})
	if err := m.persist(jobCtx, job); err != nil {
		logger.Error("failed to persist completion", logging.Error(err))
		m.setLastError(err)
		return
	}
	logger.Info("job done", logging.String(logging.FieldEventType, "job_done"))

	m.savePreview(jobCtx, job)
	m.pruneProjects(logger)
}

// persist writes the job, retrying once after workflow.error_retry_interval
// so a transient store failure does not strand an in-flight job.
func (m *Manager) persist(ctx context.Context, job *jobs.Job) error {
	err := m.store.Update(ctx, job)
	if err == nil || ctx.Err() != nil {
		return err
	}
	retry := time.Duration(m.cfg.Workflow.ErrorRetryInterval) * time.Second
	select {
	case <-time.After(retry):
	case <-ctx.Done():
		return err
	}
	return m.store.Update(ctx, job)
}

func (m *Manager) runStage(ctx context.Context, job *jobs.Job, def pipeline.StageDef) error {
	stageCtx := services.WithStage(ctx, def.Name)
	logger := logging.WithContext(stageCtx, m.logger)
	start := time.Now()

	proc := m.processors[def.Name]
	if proc == nil {
		return services.Wrap(services.ErrConfiguration, def.Name, "dispatch", "no processor configured", nil)
	}

	// Verify every declared dependency before invoking the processor. A
	// missing artifact means the job fails without the stage running at all.
	inputs := make(map[string][]byte, len(def.Inputs))
	for _, name := range def.Inputs {
		key := artifacts.Key{Project: job.Project, Stage: producerOf(m.stages, name), Name: name}
		data, err := m.artifacts.Get(key)
		if err != nil {
			if errors.Is(err, artifacts.ErrNotFound) {
				return services.Wrap(services.ErrMissingDependency, def.Name, "inputs",
					fmt.Sprintf("artifact %s not available", name), nil)
			}
			return services.Wrap(services.ErrStage, def.Name, "inputs", "load artifact", err)
		}
		inputs[name] = data
	}

	logger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("display_name", def.DisplayName))

	execCtx := stageCtx
	if m.stageTimeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(stageCtx, m.stageTimeout)
		defer cancel()
	}

	result, execErr := proc.Execute(execCtx, stage.Request{
		Project: job.Project,
		Params:  job.Params,
		Inputs:  inputs,
	})
	if execErr != nil {
		if execCtx.Err() != nil && ctx.Err() == nil {
			return services.Wrap(services.ErrTimeout, def.Name, "execute",
				fmt.Sprintf("stage exceeded %s", m.stageTimeout), execErr)
		}
		return execErr
	}

	if err := verifyOutputs(def, result); err != nil {
		return err
	}

	for _, name := range def.Outputs {
		key := artifacts.Key{Project: job.Project, Stage: def.Name, Name: name}
		if err := m.artifacts.Put(key, result.Outputs[name]); err != nil {
			return services.Wrap(services.ErrStage, def.Name, "persist", "store artifact", err)
		}
	}

	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", time.Since(start)))
	return nil
}

// verifyOutputs checks the produced artifact set matches the declaration
// exactly. Extra or missing outputs both fail the stage.
func verifyOutputs(def pipeline.StageDef, result stage.Result) error {
	declared := make(map[string]struct{}, len(def.Outputs))
	for _, name := range def.Outputs {
		declared[name] = struct{}{}
		data, ok := result.Outputs[name]
		if !ok {
			return services.Wrap(services.ErrOutputMismatch, def.Name, "outputs",
				fmt.Sprintf("declared output %s not produced", name), nil)
		}
		if len(data) == 0 {
			return services.Wrap(services.ErrOutputMismatch, def.Name, "outputs",
				fmt.Sprintf("declared output %s is empty", name), nil)
		}
	}
	for name := range result.Outputs {
		if _, ok := declared[name]; !ok {
			return services.Wrap(services.ErrOutputMismatch, def.Name, "outputs",
				fmt.Sprintf("undeclared output %s produced", name), nil)
		}
	}
	return nil
}

func (m *Manager) failJob(ctx context.Context, job *jobs.Job, stageName string, cause error) {
	logger := logging.WithContext(ctx, m.logger)
	kind := services.Kind(cause)
	job.SetFailed(stageName, kind, strings.TrimSpace(cause.Error()))
	if err := m.persist(ctx, job); err != nil {
		logger.Error("failed to persist job failure", logging.Error(err))
	}
	m.setLastError(cause)
	logger.Error("job failed",
		logging.String(logging.FieldEventType, "job_failed"),
		logging.String(logging.FieldStage, stageName),
		logging.String("reason_kind", kind),
		logging.Error(cause))
}

// savePreview copies the final video into the library directory so finished
// videos survive staging prunes.
func (m *Manager) savePreview(ctx context.Context, job *jobs.Job) {
	if m.cfg.Paths.LibraryDir == "" || job.Result == nil {
		return
	}
	logger := logging.WithContext(ctx, m.logger)
	key := artifacts.Key{Project: job.Project, Stage: job.Result.Stage, Name: job.Result.Name}
	dest := filepath.Join(m.cfg.Paths.LibraryDir, job.Project+filepath.Ext(job.Result.Name))
	if err := m.artifacts.CopyTo(key, dest); err != nil {
		logger.Warn("failed to copy preview to library", logging.Error(err))
		return
	}
	logger.Info("preview saved", logging.String("path", dest))
}

func (m *Manager) pruneProjects(logger *slog.Logger) {
	keep := m.cfg.Workflow.KeepProjects
	if keep <= 0 {
		return
	}
	removed, err := m.artifacts.Prune(keep)
	if err != nil {
		logger.Warn("staging prune failed", logging.Error(err))
		return
	}
	if len(removed) > 0 {
		logger.Info("staging pruned", logging.Int("removed_projects", len(removed)))
	}
}

// producerOf returns the stage that produces the named artifact.
func producerOf(stages []pipeline.StageDef, artifact string) string {
	for _, def := range stages {
		for _, output := range def.Outputs {
			if output == artifact {
				return def.Name
			}
		}
	}
	return ""
}
