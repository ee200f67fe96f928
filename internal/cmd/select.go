package cmd

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/quantmind-br/jdkinfo/internal/config"
	"github.com/quantmind-br/jdkinfo/internal/db"
	"github.com/quantmind-br/jdkinfo/internal/detect"
	"github.com/quantmind-br/jdkinfo/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewSelectCmd creates the select command
func NewSelectCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select",
		Short: "Pick a JDK and print the JAVA_HOME assignment",
		Long: `Interactively pick one of the JDKs from the last scan and print a shell
line that points JAVA_HOME at it, for example:

  eval "$(jdkinfo select)"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := latestSnapshot(cmd.Context(), cfg)
			if errors.Is(err, db.ErrNoSnapshots) {
				ui.PrintInfo("No scan recorded yet; run 'jdkinfo scan'")
				return fmt.Errorf("no scan recorded")
			}
			if err != nil {
				ui.PrintError("failed to read history: %v", err)
				return fmt.Errorf("read latest snapshot: %w", err)
			}
			if len(snap.Installations) == 0 {
				ui.PrintInfo("No JDK installations found")
				return errNoMatch
			}

			// Newest first, cursor on the default
			installs := snap.Installations
			options := make([]ui.SelectOption, 0, len(installs))
			cursor := 0
			for i := len(installs) - 1; i >= 0; i-- {
				inst := installs[i]
				if inst.IsDefault {
					cursor = len(options)
				}
				detail := inst.Arch
				if inst.Vendor != "" {
					detail = inst.Vendor + ", " + inst.Arch
				}
				options = append(options, ui.SelectOption{
					Label:  versionLabel(inst) + " " + inst.Path,
					Detail: detail,
					Value:  inst.Path,
				})
			}

			_, choice, err := ui.SelectPromptDetailed("Select a JDK", options, cursor)
			if errors.Is(err, ui.ErrCancelled) {
				return err
			}
			if err != nil {
				ui.PrintError("selection failed: %v", err)
				return err
			}

			log.Debug().Str("path", choice.Value).Msg("jdk selected")
			fmt.Fprintln(cmd.OutOrStdout(), exportLine(runtime.GOOS, choice.Value))
			return nil
		},
	}

	return cmd
}

// exportLine formats the shell assignment of JAVA_HOME for goos
func exportLine(goos, path string) string {
	if goos == "windows" {
		return fmt.Sprintf(`$env:%s = "%s"`, detect.EnvHint, path)
	}
	return fmt.Sprintf(`export %s="%s"`, detect.EnvHint, path)
}
