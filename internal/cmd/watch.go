package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quantmind-br/jdkinfo/internal/config"
	"github.com/quantmind-br/jdkinfo/internal/core"
	"github.com/quantmind-br/jdkinfo/internal/detect"
	"github.com/quantmind-br/jdkinfo/internal/ui"
	"github.com/quantmind-br/jdkinfo/internal/watch"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewWatchCmd creates the watch command. src may be nil, in which case
// configuration edits are not followed.
func NewWatchCmd(cfg *config.Config, src *config.Source, log *zerolog.Logger) *cobra.Command {
	var (
		interval time.Duration
		only     bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the JDK list current",
		Long: `Run the detection engine until interrupted. Search locations are watched
for changes, rescanned periodically, and every result is printed and recorded
in the history database. Edits to java.search_paths in the config file are
applied without a restart.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			opts := engineOptions(cfg, log)
			if interval > 0 {
				opts.Interval = interval
			}
			if only {
				opts.Platform = explicitPlatform(cfg.Detect.Depth)
			}
			opts.OnScanFailure = func(err error) {
				ui.PrintError("scan failed: %v", err)
			}

			if cfg.Detect.Watch {
				fsw, err := watch.NewFSWatcher(log)
				if err != nil {
					ui.PrintWarning("file watching unavailable, using periodic rescans: %v", err)
				} else {
					defer fsw.Close()
					opts.Watcher = fsw
				}
				opts.RegistryWatcher = watch.NewRegistryPoller(opts.Registry, detect.RegistryValue, 0, log)
			}

			database, err := openDB(ctx, cfg)
			if err != nil {
				ui.PrintWarning("snapshot history unavailable: %v", err)
			} else {
				defer database.Close()
			}

			engine := detect.New(opts)

			// The final scan publishes after ctx is cancelled and must still be recorded
			recordCtx := context.WithoutCancel(ctx)
			out := cmd.OutOrStdout()
			unsubscribe := engine.Results().Subscribe(func(snap core.Snapshot) {
				fmt.Fprintf(out, "[%s] #%d %s\n", snap.TakenAt.Format("15:04:05"), snap.Seq, summaryLine(snap))
				recordSnapshot(recordCtx, database, snap, log)
			})
			defer unsubscribe()

			if src != nil {
				unbind := detect.BindSearchPaths(src, engine)
				defer unbind()
			}

			if err := engine.Start(ctx, cfg.Java.SearchPaths); err != nil {
				ui.PrintError("failed to start detection: %v", err)
				return fmt.Errorf("start detection: %w", err)
			}

			<-ctx.Done()
			log.Info().Msg("shutting down")
			return engine.Stop()
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "periodic rescan interval (overrides detect.interval)")
	cmd.Flags().BoolVar(&only, "only", false, "search only configured locations")

	return cmd
}
