package cmd

import (
	"fmt"
	"sync"
	"time"

	"github.com/quantmind-br/jdkinfo/internal/config"
	"github.com/quantmind-br/jdkinfo/internal/detect"
	"github.com/quantmind-br/jdkinfo/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewScanCmd creates the scan command
func NewScanCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	var (
		jsonOutput  bool
		extraPaths  []string
		single      bool
		only        bool
		noSave      bool
		showDetails bool
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Detect installed JDKs",
		Long: `Scan the configured search paths, JAVA_HOME, the platform's well-known
JDK locations and (on Windows) the registry, then print the ranked result.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			paths := append(append([]string{}, cfg.Java.SearchPaths...), extraPaths...)

			opts := engineOptions(cfg, log)
			opts.Interval = 0
			if single {
				opts.Multiple = false
			}
			if only {
				opts.Platform = explicitPlatform(cfg.Detect.Depth)
			}

			var scanErr error
			opts.OnScanFailure = func(err error) { scanErr = err }

			engine := detect.New(opts)

			stopSpinner := func() {}
			if !jsonOutput {
				stopSpinner = startSpinner(cmd, "Scanning for JDKs")
			}

			err := engine.Start(ctx, paths)
			snap := engine.Results().Snapshot()
			if stopErr := engine.Stop(); stopErr != nil {
				log.Debug().Err(stopErr).Msg("engine stop")
			}
			stopSpinner()

			if err != nil {
				ui.PrintError("failed to start detection: %v", err)
				return fmt.Errorf("start detection: %w", err)
			}
			if scanErr != nil {
				ui.PrintError("scan failed: %v", scanErr)
				return fmt.Errorf("scan: %w", scanErr)
			}

			if !noSave {
				database, err := openDB(ctx, cfg)
				if err != nil {
					log.Warn().Err(err).Msg("snapshot history unavailable")
				} else {
					recordSnapshot(ctx, database, snap, log)
					database.Close()
				}
			}

			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), snap)
			}

			if len(snap.Installations) == 0 {
				ui.PrintInfo("No JDK installations found")
				return nil
			}

			ui.PrintHeader("JDK Installations")
			printInstallations(cmd.OutOrStdout(), snap.Installations, showDetails)
			fmt.Fprintln(cmd.OutOrStdout())
			ui.PrintSuccess("%s", summaryLine(snap))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	cmd.Flags().StringSliceVarP(&extraPaths, "path", "p", nil, "additional directory to search (repeatable)")
	cmd.Flags().BoolVar(&single, "single", false, "stop at the first JDK found under each location")
	cmd.Flags().BoolVar(&only, "only", false, "search only configured and --path locations")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not record the result in the history database")
	cmd.Flags().BoolVarP(&showDetails, "details", "d", false, "show detailed information")

	return cmd
}

// startSpinner animates a spinner on stderr until the returned func is called
func startSpinner(cmd *cobra.Command, description string) func() {
	spinner := ui.NewSpinner(description, cmd.ErrOrStderr())
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = spinner.Tick()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			wg.Wait()
			_ = spinner.Finish()
		})
	}
}
