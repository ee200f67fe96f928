package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/quantmind-br/jdkinfo/internal/config"
	"github.com/quantmind-br/jdkinfo/internal/core"
	"github.com/quantmind-br/jdkinfo/internal/db"
	"github.com/quantmind-br/jdkinfo/internal/detect"
	"github.com/quantmind-br/jdkinfo/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var errNoMatch = errors.New("no matching installation")

// NewInfoCmd creates the info command
func NewInfoCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "info [path or version]",
		Short: "Show JDK information",
		Long: `Show detailed information about one JDK from the last scan.

The argument is matched against installation paths first, then as a version
prefix (the newest matching version wins), then fuzzily against paths.
Without an argument the default JDK is shown.`,
		Args: cobra.MaximumNArgs(1),
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

			var inst core.Installation
			if len(args) == 0 {
				def, ok := snap.Default()
				if !ok {
					ui.PrintInfo("No JDK installations found")
					return errNoMatch
				}
				inst = def
			} else {
				found, err := findInstallation(*snap, args[0])
				if err != nil {
					ui.PrintError("no JDK matches %q", args[0])
					ui.PrintInfo("Use 'jdkinfo list' to see detected JDKs")
					return err
				}
				inst = found
			}

			log.Debug().Str("path", inst.Path).Msg("displaying installation")

			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), inst)
			}
			printInstallationInfo(inst)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	return cmd
}

// findInstallation resolves query to one installation of snap
func findInstallation(snap core.Snapshot, query string) (core.Installation, error) {
	query = strings.TrimSpace(query)
	if query == "" || len(snap.Installations) == 0 {
		return core.Installation{}, errNoMatch
	}

	cleaned := filepath.Clean(query)
	for _, inst := range snap.Installations {
		if inst.Path == query || inst.Path == cleaned {
			return inst, nil
		}
	}

	var best *core.Installation
	for i := range snap.Installations {
		inst := &snap.Installations[i]
		if !versionMatches(inst, query) {
			continue
		}
		if best == nil || detect.Compare(*inst, *best) > 0 {
			best = inst
		}
	}
	if best != nil {
		return *best, nil
	}

	paths := make([]string, len(snap.Installations))
	for i, inst := range snap.Installations {
		paths[i] = inst.Path
	}
	ranks := fuzzy.RankFindNormalizedFold(query, paths)
	if len(ranks) == 0 {
		return core.Installation{}, errNoMatch
	}
	sort.Stable(ranks)
	return snap.Installations[ranks[0].OriginalIndex], nil
}

// versionMatches reports whether query is a component-wise prefix of the version
func versionMatches(inst *core.Installation, query string) bool {
	for _, label := range []string{inst.Version.String(), versionLabel(*inst)} {
		if label == query {
			return true
		}
		for _, sep := range []string{".", "-", "+"} {
			if strings.HasPrefix(label, query+sep) {
				return true
			}
		}
	}
	return false
}

func printInstallationInfo(inst core.Installation) {
	title := "JDK " + versionLabel(inst)
	if inst.IsDefault {
		title += " " + ui.DefaultMarker(true)
	}
	ui.PrintHeader(title)
	fmt.Println()

	ui.PrintKeyValue("Path", inst.Path)
	ui.PrintKeyValue("Version", inst.Version.String())
	if inst.Build > 0 {
		ui.PrintKeyValue("Build", fmt.Sprintf("%d", inst.Build))
	}
	ui.PrintKeyValue("Architecture", ui.ColorizeArch(inst.Arch))
	if inst.Vendor != "" {
		ui.PrintKeyValue("Vendor", inst.Vendor)
	}
	ui.PrintKeyValue("Default", fmt.Sprintf("%t", inst.IsDefault))

	if len(inst.Executables) > 0 {
		fmt.Println()
		ui.PrintSubheader("Executables")
		for _, name := range sortedKeys(inst.Executables) {
			ui.PrintKeyValue(name, inst.Executables[name])
		}
	}

	if len(inst.Metadata) > 0 {
		fmt.Println()
		ui.PrintSubheader("Release")
		for _, key := range sortedKeys(inst.Metadata) {
			ui.PrintKeyValue(key, inst.Metadata[key])
		}
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
