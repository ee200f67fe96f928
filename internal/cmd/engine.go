package cmd

import (
	"context"
	"fmt"
	"runtime"

	"github.com/quantmind-br/jdkinfo/internal/config"
	"github.com/quantmind-br/jdkinfo/internal/core"
	"github.com/quantmind-br/jdkinfo/internal/db"
	"github.com/quantmind-br/jdkinfo/internal/detect"
	"github.com/quantmind-br/jdkinfo/internal/fsops"
	"github.com/quantmind-br/jdkinfo/internal/jdk"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// historyLimit bounds the snapshots kept by scan and watch
const historyLimit = 200

// engineOptions maps the detect.* configuration onto engine options
func engineOptions(cfg *config.Config, log *zerolog.Logger) detect.Options {
	opts := detect.DefaultOptions()
	opts.Prober = jdk.NewDetector(log)
	opts.Registry = detect.NewRegistryReader()
	opts.Multiple = cfg.Detect.Multiple
	opts.Depth = cfg.Detect.Depth
	opts.Interval = cfg.Detect.Interval
	opts.Debounce = cfg.Detect.Debounce
	opts.ProbeTimeout = cfg.Detect.ProbeTimeout
	opts.Concurrency = cfg.Detect.Concurrency
	opts.Logger = log
	return opts
}

// explicitPlatform limits enumeration to the configured paths
func explicitPlatform(depth int) *detect.Platform {
	return &detect.Platform{GOOS: runtime.GOOS, Depth: depth}
}

// openDB opens the history database, creating its directory
func openDB(ctx context.Context, cfg *config.Config) (*db.DB, error) {
	if cfg.Paths.DBFile == "" {
		return nil, fmt.Errorf("%w: no database file configured", db.ErrUnavailable)
	}
	if err := fsops.EnsureDir(afero.NewOsFs(), dirOf(cfg.Paths.DBFile), 0755); err != nil {
		return nil, fmt.Errorf("%w: %w", db.ErrUnavailable, err)
	}
	database, err := db.New(ctx, cfg.Paths.DBFile)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return database, nil
}

// recordSnapshot stores snap and trims old history. Failures only warn:
// the scan result is still valid without history.
func recordSnapshot(ctx context.Context, database *db.DB, snap core.Snapshot, log *zerolog.Logger) {
	if database == nil {
		return
	}
	if _, err := database.SaveSnapshot(ctx, snap); err != nil {
		log.Warn().Err(err).Uint64("scan_seq", snap.Seq).Msg("failed to record snapshot")
		return
	}
	if n, err := database.Prune(ctx, historyLimit); err != nil {
		log.Warn().Err(err).Msg("failed to prune snapshot history")
	} else if n > 0 {
		log.Debug().Int64("count", n).Msg("pruned snapshot history")
	}
}

// latestSnapshot loads the last recorded snapshot
func latestSnapshot(ctx context.Context, cfg *config.Config) (*core.Snapshot, error) {
	database, err := openDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer database.Close()

	return database.Latest(ctx)
}
