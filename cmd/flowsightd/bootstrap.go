package main

import (
	"path/filepath"

	"log/slog"

	"flowsight/internal/cloudsync"
	"flowsight/internal/config"
	"flowsight/internal/daemonrun"
	"flowsight/internal/pipeline"
	"flowsight/internal/registry"
	"flowsight/internal/store"
)

func buildDetector(cfg *config.Config, reg *registry.Registry, logger *slog.Logger) (*pipeline.Detector, error) {
	return daemonrun.BuildDetector(cfg, reg, logger)
}

func buildSyncer(cfg *config.Config, eventStore *store.Store, logger *slog.Logger) *cloudsync.Syncer {
	if cfg == nil || !cfg.Sync.Enabled {
		return nil
	}
	return cloudsync.New(eventStore, cfg.Sync, logger)
}

func buildSocketPath(cfg *config.Config) string {
	if cfg == nil {
		return filepath.Join("", "flowsight.sock")
	}
	return filepath.Join(cfg.Paths.StateDir, "flowsight.sock")
}
