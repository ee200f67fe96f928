package cmd

import (
	"errors"
	"fmt"

	"github.com/quantmind-br/jdkinfo/internal/config"
	"github.com/quantmind-br/jdkinfo/internal/db"
	"github.com/quantmind-br/jdkinfo/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewListCmd creates the list command
func NewListCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	var (
		jsonOutput  bool
		showDetails bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List JDKs from the last scan",
		Long:  `List the JDK installations recorded by the most recent scan or watch.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := latestSnapshot(cmd.Context(), cfg)
			if errors.Is(err, db.ErrNoSnapshots) {
				ui.PrintInfo("No scan recorded yet; run 'jdkinfo scan'")
				return nil
			}
			if err != nil {
				ui.PrintError("failed to read history: %v", err)
				return fmt.Errorf("read latest snapshot: %w", err)
			}

			log.Debug().Uint64("scan_seq", snap.Seq).Msg("loaded snapshot")

			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), snap)
			}

			if len(snap.Installations) == 0 {
				ui.PrintInfo("No JDK installations found (scanned %s)", snap.TakenAt.Local().Format("2006-01-02 15:04"))
				return nil
			}

			ui.PrintHeader(fmt.Sprintf("JDK Installations (scanned %s)", snap.TakenAt.Local().Format("2006-01-02 15:04")))
			printInstallations(cmd.OutOrStdout(), snap.Installations, showDetails)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	cmd.Flags().BoolVarP(&showDetails, "details", "d", false, "show detailed information")

	return cmd
}
