package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/salesload/internal/config"
	"github.com/JonMunkholm/salesload/internal/core"
	"github.com/JonMunkholm/salesload/internal/logging"
	"github.com/JonMunkholm/salesload/internal/pipeline"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load .env file if it exists; variables already set in the environment win
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("FATAL: failed to load configuration", "stage", core.StageConfig, "error", err)
		return 1
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, _ = logging.NewRunContext(ctx)

	logger := logging.FromContext(ctx)
	logger.Info("configuration loaded",
		"region_a", cfg.Input.RegionA,
		"region_b", cfg.Input.RegionB,
		"intermediate", cfg.Output.IntermediatePath,
		"driver", cfg.Database.Driver,
		"table", cfg.Database.Table,
		"dry_run", cfg.Output.DryRun,
	)
	logger.Debug("effective configuration", "config", cfg.String())

	res, err := pipeline.Run(ctx, cfg, pipeline.Options{})
	if err != nil {
		logger.Error("FATAL: run failed",
			"stage", core.StageOf(err),
			"error", err,
			"code", core.MapError(err).Code,
			"hint", core.FormatUserError(err),
		)
		if errors.Is(err, context.Canceled) {
			logger.Info("run interrupted")
		}
		return 1
	}

	logger.Info("run complete",
		"rows", res.Stats.Output,
		"duplicates", res.Stats.Duplicates,
		"loaded", res.RowsLoaded,
		"intermediate", res.IntermediatePath,
		"intermediate_bytes", res.IntermediateBytes,
		"duration", res.Duration,
	)
	return 0
}
