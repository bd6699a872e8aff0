package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackson97300/mia-chart-dumper/internal/bridge"
	"github.com/jackson97300/mia-chart-dumper/internal/config"
	"github.com/jackson97300/mia-chart-dumper/internal/emit"
	"github.com/jackson97300/mia-chart-dumper/internal/engine"
	"github.com/jackson97300/mia-chart-dumper/internal/source"
	"github.com/jackson97300/mia-chart-dumper/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/dumper.local.yaml", "path to config file")
	healthPort := flag.Int("health-port", 8081, "health endpoint port, 0 disables")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting dumper",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"bridge_url", cfg.Bridge.URL,
		"output_dir", cfg.Output.Dir,
		"charts", len(cfg.Charts),
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Output sink: daily JSONL partitions
	emitter := emit.NewFileEmitter(cfg.Output.Dir, logger)
	defer emitter.Close()

	// Per-chart state and engines
	hub := source.NewHub()
	feed := bridge.NewFeed(cfg.Bridge.FeedConfig(), hub, logger)

	engines := make([]*engine.Engine, 0, len(cfg.Charts))
	for _, ch := range cfg.Charts {
		eng := engine.New(ch.EngineConfig(), hub.Store(ch.ID), hub, emitter, logger)
		feed.Register(ch.ID, eng)
		engines = append(engines, eng)
	}

	for _, eng := range engines {
		if err := eng.Start(ctx); err != nil {
			logger.Error("failed to start engine", "error", err)
			os.Exit(1)
		}
	}

	if err := feed.Start(ctx); err != nil {
		logger.Error("failed to start feed", "error", err)
		os.Exit(1)
	}

	// Health endpoint
	var healthServer *http.Server
	if *healthPort > 0 {
		healthServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", *healthPort),
			Handler: createHealthHandler(feed, engines),
		}
		go func() {
			logger.Info("starting health server", "port", *healthPort)
			if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
				logger.Error("health server error", "error", err)
			}
		}()
	}

	logger.Info("dumper running",
		"instance_id", cfg.Instance.ID,
		"charts", len(engines),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if healthServer != nil {
		healthServer.Shutdown(shutdownCtx)
	}
	if err := feed.Stop(shutdownCtx); err != nil {
		logger.Warn("feed stop timed out", "error", err)
	}
	for _, eng := range engines {
		if err := eng.Stop(shutdownCtx); err != nil {
			logger.Warn("engine stop timed out", "error", err)
		}
	}

	logger.Info("dumper stopped")
}

// createHealthHandler creates the HTTP handler for health checks.
func createHealthHandler(feed *bridge.Feed, engines []*engine.Engine) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		feedStats := feed.Stats()

		var updates, resets int64
		for _, eng := range engines {
			s := eng.Stats()
			updates += s.Updates
			resets += s.CursorResets
		}

		health := struct {
			Status     string                 `json:"status"`
			Components map[string]interface{} `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]interface{}),
		}

		health.Components["feed"] = map[string]interface{}{
			"messages_applied": feedStats.MessagesApplied,
			"parse_errors":     feedStats.ParseErrors,
			"reconnects":       feedStats.Reconnects,
		}
		health.Components["engines"] = map[string]interface{}{
			"count":         len(engines),
			"updates":       updates,
			"cursor_resets": resets,
		}

		if feedStats.MessagesApplied == 0 {
			health.Status = "degraded"
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(health)
	})

	return mux
}
