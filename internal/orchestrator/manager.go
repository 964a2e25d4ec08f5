package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"reelsmith/internal/artifacts"
	"reelsmith/internal/config"
	"reelsmith/internal/jobs"
	"reelsmith/internal/logging"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/stage"
)

// ProcessorSet maps stage names to their processors.
type ProcessorSet map[string]stage.Processor

// Manager coordinates job execution across the pipeline stages.
type Manager struct {
	cfg       *config.Config
	store     *jobs.Store
	artifacts *artifacts.Store
	logger    *slog.Logger

	stages     []pipeline.StageDef
	processors ProcessorSet

	stageTimeout time.Duration
	slots        chan struct{}

	mu      sync.RWMutex
	running bool
	runCtx  context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
}

// NewManager constructs a manager over the default stage chain.
func NewManager(cfg *config.Config, store *jobs.Store, artifactStore *artifacts.Store, logger *slog.Logger) *Manager {
	maxJobs := cfg.Workflow.MaxConcurrentJobs
	if maxJobs <= 0 {
		maxJobs = 1
	}
	return &Manager{
		cfg:          cfg,
		store:        store,
		artifacts:    artifactStore,
		logger:       logging.NewComponentLogger(logger, "orchestrator"),
		stages:       pipeline.Default(),
		stageTimeout: time.Duration(cfg.Workflow.StageTimeout) * time.Second,
		slots:        make(chan struct{}, maxJobs),
	}
}

// ConfigureProcessors registers the processor for every stage. Every stage in
// the chain must have a processor and the chain itself must be coherent.
func (m *Manager) ConfigureProcessors(set ProcessorSet) error {
	if err := pipeline.Validate(m.stages); err != nil {
		return err
	}
	for _, def := range m.stages {
		if set[def.Name] == nil {
			return fmt.Errorf("orchestrator: no processor for stage %q", def.Name)
		}
	}
	m.mu.Lock()
	m.processors = set
	m.mu.Unlock()
	return nil
}

// Start begins processing. Jobs left running by a previous daemon are failed
// as interrupted and queued jobs are picked up.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("orchestrator already running")
	}
	if m.processors == nil {
		m.mu.Unlock()
		return errors.New("orchestrator processors not configured")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.runCtx = runCtx
	m.cancel = cancel
	m.running = true
	m.mu.Unlock()

	interrupted, err := m.store.FailInterrupted(runCtx)
	if err != nil {
		m.Stop()
		return fmt.Errorf("fail interrupted jobs: %w", err)
	}
	if interrupted > 0 {
		m.logger.Warn("failed interrupted jobs from previous run", logging.Int64("count", interrupted))
	}

	queued, err := m.store.Queued(runCtx)
	if err != nil {
		m.Stop()
		return fmt.Errorf("list queued jobs: %w", err)
	}
	for _, job := range queued {
		m.dispatch(runCtx, job)
	}

	m.logger.Info("orchestrator started",
		logging.Int("queued_jobs", len(queued)),
		logging.Int("max_concurrent_jobs", cap(m.slots)))
	return nil
}

// Stop terminates processing and waits for in-flight jobs to unwind.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.runCtx = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
	m.logger.Info("orchestrator stopped")
}

// Running reports whether the manager is processing jobs.
func (m *Manager) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// Submit enqueues a job for the project and begins executing it.
func (m *Manager) Submit(ctx context.Context, project string, params map[string]string) (*jobs.Job, error) {
	job, err := m.store.Create(ctx, project, params)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	running := m.running
	runCtx := m.runCtx
	m.mu.RUnlock()

	if running {
		m.dispatch(runCtx, job)
	}
	return job, nil
}

// LastError returns the most recent job-level failure the manager observed.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) dispatch(ctx context.Context, job *jobs.Job) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		select {
		case m.slots <- struct{}{}:
			defer func() { <-m.slots }()
		case <-ctx.Done():
			return
		}
		m.runJob(ctx, job)
	}()
}

// StageHealth reports the readiness of every configured stage processor.
func (m *Manager) StageHealth(ctx context.Context) []stage.Health {
	m.mu.RLock()
	set := m.processors
	m.mu.RUnlock()

	health := make([]stage.Health, 0, len(m.stages))
	for _, def := range m.stages {
		proc := set[def.Name]
		if proc == nil {
			health = append(health, stage.Unhealthy(def.Name, "no processor configured"))
			continue
		}
		health = append(health, proc.HealthCheck(ctx))
	}
	return health
}
