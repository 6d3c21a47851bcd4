package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"casechain/config"
	"casechain/core"
	"casechain/core/events"
	"casechain/explorer"
	"casechain/observability/logging"
	"casechain/observability/metrics"
	telemetry "casechain/observability/otel"
	"casechain/rpc"
	"casechain/rpc/middleware"
	"casechain/storage"
)

var version = "dev"

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.Setup("cased", cfg.Network, cfg.LoggingOptions())

	if err := run(cfg, logger); err != nil {
		logger.Error("cased stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.TelemetryConfig("cased", version))
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			logger.Warn("telemetry shutdown", slog.Any("error", err))
		}
	}()

	if cfg.Backend != storage.BackendMemory {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return fmt.Errorf("prepare data dir: %w", err)
		}
	}
	db, err := storage.Open(cfg.Backend, cfg.StatePath())
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		return err
	}
	engine, err := core.NewEngine(db, engineCfg)
	if err != nil {
		return err
	}
	engine.SetLogger(logger.With(slog.String("component", "engine")))
	engine.SetMetrics(metrics.Engine())

	feed := events.NewBroadcaster(256)
	emitters := events.Multi{feed}

	server := rpc.NewServer(engine, rpc.Config{
		ListenAddress: cfg.ListenAddress,
		ReadTimeout:   time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:  time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
		Auth: middleware.AuthConfig{
			HMACSecret: cfg.JWTSecret(),
			Issuer:     cfg.Auth.Issuer,
		},
		RateLimit: middleware.RateLimit{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		},
	})
	server.SetLogger(logger.With(slog.String("component", "rpc")))
	server.SetFeed(feed)
	server.SetMetrics(metrics.Engine())

	if cfg.Explorer.DSN != "" {
		store, err := explorer.Open(cfg.Explorer.DSN)
		if err != nil {
			return err
		}
		defer store.Close()
		store.SetLogger(logger.With(slog.String("component", "explorer")))
		if last, err := store.LastSequence(ctx); err == nil {
			logger.Info("explorer index ready", slog.Uint64("lastSequence", last))
		}
		emitters = append(emitters, store)
		server.SetIndex(store)
	}
	engine.SetEmitter(emitters)

	if cfg.AutoDeploy {
		if err := engine.Deploy(); err != nil {
			return fmt.Errorf("deploy: %w", err)
		}
	}

	logger.Info("cased starting",
		slog.String("version", version),
		slog.String("network", cfg.Network),
		slog.String("backend", cfg.Backend),
		slog.String("token", cfg.Token.Address),
		slog.String("admin", cfg.Token.Admin),
		logging.MaskField("jwtSecret", string(cfg.JWTSecret())),
		logging.MaskDSN("explorer", cfg.Explorer.DSN))

	return server.Serve(ctx)
}
