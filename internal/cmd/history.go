package cmd

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/quantmind-br/jdkinfo/internal/config"
	"github.com/quantmind-br/jdkinfo/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command
func NewHistoryCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	var (
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent scan results",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			database, err := openDB(ctx, cfg)
			if err != nil {
				ui.PrintError("failed to open database: %v", err)
				return err
			}
			defer database.Close()

			summaries, err := database.ListSnapshots(ctx, limit)
			if err != nil {
				ui.PrintError("failed to read history: %v", err)
				return fmt.Errorf("list snapshots: %w", err)
			}

			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), summaries)
			}

			if len(summaries) == 0 {
				ui.PrintInfo("No scan recorded yet; run 'jdkinfo scan'")
				return nil
			}

			table := tablewriter.NewTable(cmd.OutOrStdout(),
				tablewriter.WithHeader([]string{"Scan", "Taken", "JDKs", "Default"}),
				tablewriter.WithAlignment(tw.MakeAlign(4, tw.AlignLeft)),
				tablewriter.WithSymbols(tw.NewSymbols(tw.StyleNone)),
			)

			for _, s := range summaries {
				def := "-"
				if s.DefaultPath != "" {
					def = filepath.Base(s.DefaultPath)
				}
				table.Append(
					strconv.FormatUint(s.Seq, 10),
					s.TakenAt.Local().Format("2006-01-02 15:04:05"),
					strconv.Itoa(s.Count),
					def,
				)
			}
			table.Render()

			log.Debug().Int("count", len(summaries)).Msg("history listed")
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of scans to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	return cmd
}
