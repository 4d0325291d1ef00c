// Package pipeline runs the sales load end to end: read both regional
// extracts, apply the business rules, write the intermediate file and bulk
// load it. Stages run strictly in order and the first failure ends the run.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/JonMunkholm/salesload/internal/config"
	"github.com/JonMunkholm/salesload/internal/core"
	"github.com/JonMunkholm/salesload/internal/csv"
	"github.com/JonMunkholm/salesload/internal/loader"
	"github.com/JonMunkholm/salesload/internal/logging"
	"github.com/JonMunkholm/salesload/internal/source"
)

// Options adjust a run beyond what Config describes.
type Options struct {
	// Loader replaces the loader built from cfg.Database.
	Loader loader.Loader
}

// Result summarizes a finished run.
type Result struct {
	RunID             string
	Stats             core.RuleStats
	IntermediatePath  string // empty when the file was skipped
	IntermediateBytes int64  // size of the file read back for the load
	Loaded            bool
	RowsLoaded        int64
	Duration          time.Duration
}

// Run executes every stage for cfg. A failure is returned as a
// *core.StageError naming the stage; nothing after that stage runs.
func Run(ctx context.Context, cfg *config.Config, opts Options) (*Result, error) {
	if logging.RunID(ctx) == "" {
		ctx, _ = logging.NewRunContext(ctx)
	}
	start := time.Now()
	result := &Result{RunID: logging.RunID(ctx)}
	defer func() { result.Duration = time.Since(start) }()

	readOpts := source.Options{Sheet: cfg.Input.Sheet}
	a, err := readSource(ctx, cfg.Input.RegionA, core.RegionA, readOpts)
	if err != nil {
		return result, err
	}
	b, err := readSource(ctx, cfg.Input.RegionB, core.RegionB, readOpts)
	if err != nil {
		return result, err
	}

	merged, stats, err := core.ApplyBusinessRules(a, b)
	result.Stats = stats
	if err != nil {
		return result, core.Fail(core.StageTransform, "", err)
	}
	logRules(ctx, stats)

	if !cfg.Output.SkipIntermediate {
		path := cfg.Output.IntermediatePath
		if err := csv.Write(path, merged); err != nil {
			return result, core.Fail(core.StageWrite, path, err)
		}
		result.IntermediatePath = path
		logging.WithFields(ctx, "stage", core.StageWrite).Info("intermediate file written", "path", path, "rows", merged.Len())
	}

	if cfg.Output.DryRun {
		logging.FromContext(ctx).Info("dry run, skipping load")
		return result, nil
	}

	n, err := load(ctx, cfg, opts, merged, result)
	if err != nil {
		return result, err
	}
	result.Loaded = true
	result.RowsLoaded = n
	return result, nil
}

func readSource(ctx context.Context, path, region string, opts source.Options) (*core.Table, error) {
	t, err := source.Read(path, opts)
	if err != nil {
		return nil, core.Fail(core.StageRead, path, err)
	}
	logging.WithFields(ctx, "stage", core.StageRead).Info("source read",
		"region", region, "path", path, "rows", t.Len(), "columns", len(t.Columns))
	return t, nil
}

func logRules(ctx context.Context, stats core.RuleStats) {
	logger := logging.WithFields(ctx, "stage", core.StageTransform)

	logger.Info("added region column", "rows_a", stats.RowsA, "rows_b", stats.RowsB)
	logger.Info("combined region data", "rows", stats.Combined)
	for _, c := range stats.Conflicts {
		logger.Warn("dropped conflicting duplicate",
			"order_id", c.OrderID,
			"kept_region", c.KeptRegion,
			"dropped_region", c.DroppedRegion,
		)
	}
	logger.Info("removed duplicate rows", "dropped", stats.Duplicates, "rows", stats.Output)
	logger.Info("added TotalSales column", "rows", stats.Output)
}

// load reads the intermediate file back (unless it was skipped) and hands
// the table to the loader.
func load(ctx context.Context, cfg *config.Config, opts Options, merged *core.Table, result *Result) (int64, error) {
	target := cfg.Database.Table
	if cfg.Database.Schema != "" {
		target = cfg.Database.Schema + "." + target
	}

	l := opts.Loader
	if l == nil {
		var err error
		if l, err = loader.New(cfg.Database, cfg.Load); err != nil {
			return 0, core.Fail(core.StageLoad, target, err)
		}
	}

	t := merged
	if path := result.IntermediatePath; path != "" {
		var err error
		if t, result.IntermediateBytes, err = csv.ReadTableCount(path); err != nil {
			return 0, core.Fail(core.StageLoad, path, err)
		}
		logging.WithFields(ctx, "stage", core.StageLoad).Debug("intermediate file read back",
			"path", path, "rows", t.Len(), "bytes", result.IntermediateBytes)
	}

	loadCtx, cancel := ctx, context.CancelFunc(func() {})
	if cfg.Load.Timeout > 0 {
		loadCtx, cancel = context.WithTimeout(ctx, cfg.Load.Timeout)
	}
	defer cancel()

	n, err := l.Load(loadCtx, t)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && cfg.Load.Timeout > 0 {
			logging.FromContext(ctx).Warn("load timed out", "timeout", cfg.Load.Timeout)
		}
		return 0, core.Fail(core.StageLoad, target, err)
	}

	logging.WithFields(ctx, "stage", core.StageLoad).Info("data loaded", "table", target, "rows", n)
	return n, nil
}
