package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackson97300/mia-chart-dumper/internal/config"
	"github.com/jackson97300/mia-chart-dumper/internal/consolidate"
	"github.com/jackson97300/mia-chart-dumper/internal/database"
	"github.com/jackson97300/mia-chart-dumper/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/dumper.local.yaml", "path to config file")
	dir := flag.String("dir", "", "partition directory (overrides consolidator.dir)")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting consolidator",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	cfg, err := config.LoadWithDefaults(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.ValidateConsolidator(); err != nil {
		logger.Error("invalid consolidator config", "error", err)
		os.Exit(1)
	}

	partitionDir := cfg.Consolidator.Dir
	if *dir != "" {
		partitionDir = *dir
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	logger.Info("connecting to database",
		"host", cfg.Consolidator.DB.Host,
		"port", cfg.Consolidator.DB.Port,
		"database", cfg.Consolidator.DB.Name,
	)

	pool, err := database.Connect(ctx, cfg.Consolidator.DB)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger.Info("database connected")

	c := consolidate.New(consolidate.Config{
		BatchSize:   cfg.Consolidator.BatchSize,
		Concurrency: cfg.Consolidator.Concurrency,
	}, pool, logger)

	stats, err := c.Run(ctx, partitionDir)
	if err != nil {
		logger.Error("consolidation failed", "error", err,
			"records", stats.Records,
			"inserts", stats.Inserts,
		)
		os.Exit(1)
	}

	logger.Info("consolidation complete",
		"files", stats.Files,
		"records", stats.Records,
		"inserts", stats.Inserts,
		"conflicts", stats.Conflicts,
		"parse_errors", stats.ParseErrors,
	)
}
