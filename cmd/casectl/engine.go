package main

import (
	"fmt"
	"log/slog"
	"os"

	"casechain/config"
	"casechain/core"
	"casechain/observability/logging"
	"casechain/storage"
)

// offlineEngine opens the node's state directly. cased must not hold the
// same data directory while casectl runs.
func offlineEngine(configPath, dataDir string) (*core.Engine, *config.Config, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if cfg.Backend == storage.BackendMemory {
		return nil, nil, nil, fmt.Errorf("backend %q keeps no state to operate on", cfg.Backend)
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, nil, nil, fmt.Errorf("prepare data dir: %w", err)
	}
	db, err := storage.Open(cfg.Backend, cfg.StatePath())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open storage: %w", err)
	}
	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	engine, err := core.NewEngine(db, engineCfg)
	if err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	opts := cfg.LoggingOptions()
	opts.File = ""
	opts.Stderr = true
	engine.SetLogger(logging.Setup("casectl", cfg.Network, opts).With(slog.String("component", "engine")))
	return engine, cfg, func() { db.Close() }, nil
}
