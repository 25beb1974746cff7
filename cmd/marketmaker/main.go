// ladder-mm is an automated market maker for a single spot trading pair:
// it quotes both sides of the book on a primary exchange (the maker venue)
// while anchoring its fair price to a second, deeper reference exchange.
//
// Architecture:
//
//	main.go                    — entry point: loads config, boots the supervisor, waits for SIGINT/SIGTERM
//	internal/supervisor        — lifecycle state machine, event loop, periodic timers
//	internal/maker             — MakerVenueAdapter: public book, active orders, balances, place/cancel
//	internal/reference         — ReferenceVenueAdapter: public book only
//	internal/pricer            — fair-price and quoting model
//	internal/ladder            — order-ladder reconciliation (cancel/place)
//	internal/depth             — target-depth enforcement via inner-level resizing
//	internal/recorder          — SQL persistence (gorm, Postgres or SQLite)
//	internal/eventbus          — bounded FIFO fusing both venues' streams
//	internal/book, internal/quant, pkg/types — shared numeric and data models
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"ladder-mm/internal/api"
	"ladder-mm/internal/config"
	"ladder-mm/internal/supervisor"
)

func main() {
	cfgPath := "configs/config.yaml"
	if p := os.Getenv("MM_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err, "path", cfgPath)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Logging.Level)}
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)

	sup, err := supervisor.New(cfg, logger)
	if err != nil {
		logger.Error("failed to wire supervisor", "error", err)
		os.Exit(1)
	}

	if cfg.DryRun {
		logger.Warn("DRY-RUN MODE — no real orders will be placed")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if err := sup.Boot(ctx); err != nil {
		logger.Error("boot failed", "error", err)
		os.Exit(1)
	}

	logger.Info("ladder-mm started", "pair", cfg.Pair, "dry_run", cfg.DryRun)

	var dashboard *api.Server
	if cfg.Dashboard.Enabled {
		dashboard = api.NewServer(cfg.Dashboard, sup, *cfg, logger)
		sup.OnFill = dashboard.BroadcastFill
		go func() {
			if err := dashboard.Start(); err != nil {
				logger.Error("dashboard server failed", "error", err)
			}
		}()
		logger.Info("dashboard started", "port", cfg.Dashboard.Port)
	}

	go sup.Run(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig.String())

	if dashboard != nil {
		if err := dashboard.Stop(); err != nil {
			logger.Error("failed to stop dashboard", "error", err)
		}
	}

	sup.Drain(ctx)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
