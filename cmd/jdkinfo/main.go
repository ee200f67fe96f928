package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/quantmind-br/jdkinfo/internal/cmd"
	"github.com/quantmind-br/jdkinfo/internal/config"
	"github.com/quantmind-br/jdkinfo/internal/core"
	"github.com/quantmind-br/jdkinfo/internal/db"
	"github.com/quantmind-br/jdkinfo/internal/logging"
	"github.com/quantmind-br/jdkinfo/internal/ui"
)

var version = "dev"

func main() {
	ctx := context.Background()

	// Load configuration
	src := config.NewSource()
	cfg, err := src.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(core.ExitGeneral)
	}

	log := logging.NewLogger(logging.Config{
		Level:   cfg.Logging.Level,
		LogFile: cfg.Paths.LogFile,
		NoColor: !logging.ColorEnabled(cfg.Logging.Color),
	})
	src.SetLogger(log)
	ui.InitColors(cfg.Logging.Color)

	rootCmd := cmd.NewRootCmd(cfg, src, log, version)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Debug().Err(err).Msg("command failed")
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return core.ExitSuccess
	case errors.Is(err, ui.ErrCancelled), errors.Is(err, context.Canceled):
		return core.ExitInterrupted
	case errors.Is(err, cmd.ErrUsage):
		return core.ExitInvalidArgs
	case core.IsEnumerationError(err):
		return core.ExitScanFailed
	case errors.Is(err, db.ErrUnavailable):
		return core.ExitDatabase
	default:
		return core.ExitGeneral
	}
}
