package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"reelsmith/internal/artifacts"
	"reelsmith/internal/config"
	"reelsmith/internal/daemon"
	"reelsmith/internal/jobs"
	"reelsmith/internal/logging"
	"reelsmith/internal/orchestrator"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	pidPath := filepath.Join(cfg.Paths.LogDir, "reelsmithd.pid")
	if err := writePIDFile(pidPath); err != nil {
		logger.Error("write pid file", logging.Error(err))
		os.Exit(1)
	}
	defer os.Remove(pidPath)

	store, err := jobs.Open(cfg)
	if err != nil {
		logger.Error("open jobs store", logging.Error(err))
		os.Exit(1)
	}
	defer store.Close()

	artifactStore, err := artifacts.NewStore(cfg.Paths.StagingDir)
	if err != nil {
		logger.Error("open artifact store", logging.Error(err))
		os.Exit(1)
	}

	manager := orchestrator.NewManager(cfg, store, artifactStore, logger)
	clients, err := buildClients(cfg)
	if err != nil {
		logger.Error("initialize service clients", logging.Error(err))
		os.Exit(1)
	}
	if err := manager.ConfigureProcessors(buildProcessors(cfg, clients, logger)); err != nil {
		logger.Error("configure processors", logging.Error(err))
		os.Exit(1)
	}

	d, err := daemon.New(cfg, store, artifactStore, manager, clients.TTS, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		os.Exit(1)
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start failed", logging.Error(err))
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("reelsmithd shutting down")
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	if err := os.WriteFile(path, []byte(value), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
