package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"reelsmith/internal/artifacts"
	"reelsmith/internal/config"
	"reelsmith/internal/jobs"
	"reelsmith/internal/logging"
	"reelsmith/internal/orchestrator"
	"reelsmith/internal/services/tts"
	"reelsmith/internal/stage"
)

// Daemon coordinates the orchestrator and HTTP API and enforces
// single-instance execution via a lock file.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *jobs.Store
	artifacts *artifacts.Store
	manager   *orchestrator.Manager
	voices    *tts.Client
	logPath   string

	lockPath string
	lock     *flock.Flock

	api *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	JobsDBPath   string
	StagingDir   string
	LockFilePath string
	JobStats     map[jobs.Status]int
	StageHealth  []stage.Health
	LastError    string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *jobs.Store, artifactStore *artifacts.Store, manager *orchestrator.Manager, voices *tts.Client, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || artifactStore == nil || manager == nil || logger == nil {
		return nil, errors.New("daemon requires config, stores, orchestrator, and logger")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "reelsmithd.lock")
	d := &Daemon{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		artifacts: artifactStore,
		manager:   manager,
		voices:    voices,
		logPath:   filepath.Join(cfg.Paths.LogDir, "reelsmith.log"),
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}

	api, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start acquires the daemon lock, launches the orchestrator, and binds the
// HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another reelsmith daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.manager.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start orchestrator: %w", err)
	}

	if err := d.api.start(d.ctx); err != nil {
		d.manager.Stop()
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return err
	}

	d.running.Store(true)
	d.logger.Info("reelsmith daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.manager.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("reelsmith daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// APIAddr returns the bound address of the HTTP API, or empty when the API
// is not listening.
func (d *Daemon) APIAddr() string {
	if d.api == nil {
		return ""
	}
	return d.api.addr()
}

// Submit enqueues a job for the project.
func (d *Daemon) Submit(ctx context.Context, project string, params map[string]string) (*jobs.Job, error) {
	return d.manager.Submit(ctx, project, params)
}

// ResultPath resolves the filesystem path of a finished job's result
// artifact.
func (d *Daemon) ResultPath(job *jobs.Job) (string, error) {
	if job == nil || job.Result == nil {
		return "", errors.New("job has no result")
	}
	key := artifacts.Key{Project: job.Project, Stage: job.Result.Stage, Name: job.Result.Name}
	path, err := d.artifacts.Path(key)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("result artifact unavailable: %w", err)
	}
	return path, nil
}

// RecordPublish appends a simulated publish entry to publish.log in the
// library directory and returns the logged line.
func (d *Daemon) RecordPublish(job *jobs.Job, platform string) (string, error) {
	if d.cfg.Paths.LibraryDir == "" {
		return "", errors.New("library directory not configured")
	}
	if err := os.MkdirAll(d.cfg.Paths.LibraryDir, 0o755); err != nil {
		return "", fmt.Errorf("create library directory: %w", err)
	}

	entry := fmt.Sprintf("%s publish project=%s job=%s platform=%s",
		time.Now().UTC().Format(time.RFC3339), job.Project, job.ID, platform)
	logPath := filepath.Join(d.cfg.Paths.LibraryDir, "publish.log")
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", fmt.Errorf("open publish log: %w", err)
	}
	defer file.Close()
	if _, err := file.WriteString(entry + "\n"); err != nil {
		return "", fmt.Errorf("append publish log: %w", err)
	}
	return entry, nil
}

// Voices returns the synthesis voice catalogue.
func (d *Daemon) Voices(ctx context.Context) ([]tts.Voice, error) {
	if d.voices == nil {
		return nil, errors.New("tts client unavailable")
	}
	return d.voices.Voices(ctx)
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		JobsDBPath:   d.store.Path(),
		StagingDir:   d.cfg.Paths.StagingDir,
		LockFilePath: d.lockPath,
		StageHealth:  d.manager.StageHealth(ctx),
	}
	if stats, err := d.store.Stats(ctx); err == nil {
		status.JobStats = stats
	} else {
		d.logger.Warn("failed to read job stats", logging.Error(err))
	}
	if err := d.manager.LastError(); err != nil {
		status.LastError = err.Error()
	}
	return status
}
