package cmd

import (
	"errors"
	"fmt"

	"github.com/quantmind-br/jdkinfo/internal/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// ErrUsage marks errors caused by invalid flags or arguments
var ErrUsage = errors.New("invalid usage")

// NewRootCmd creates the root command
func NewRootCmd(cfg *config.Config, src *config.Source, log *zerolog.Logger, version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "jdkinfo",
		Short:        "Find and rank installed JDKs",
		Long:         `Discover Java Development Kits on this machine, rank them by version and report the default one.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewScanCmd(cfg, log))
	cmd.AddCommand(NewWatchCmd(cfg, src, log))
	cmd.AddCommand(NewListCmd(cfg, log))
	cmd.AddCommand(NewHistoryCmd(cfg, log))
	cmd.AddCommand(NewInfoCmd(cfg, log))
	cmd.AddCommand(NewSelectCmd(cfg, log))
	cmd.AddCommand(NewDoctorCmd(cfg, src, log))
	cmd.AddCommand(NewCompletionCmd(log))
	cmd.AddCommand(NewVersionCmd(version))

	// Subcommands inherit the flag error func
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	})
	for _, sub := range cmd.Commands() {
		if sub.Args == nil {
			continue
		}
		validate := sub.Args
		sub.Args = func(c *cobra.Command, args []string) error {
			if err := validate(c, args); err != nil {
				return fmt.Errorf("%w: %w", ErrUsage, err)
			}
			return nil
		}
	}

	return cmd
}
