package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/quantmind-br/jdkinfo/internal/config"
	"github.com/quantmind-br/jdkinfo/internal/core"
	"github.com/quantmind-br/jdkinfo/internal/db"
	"github.com/quantmind-br/jdkinfo/internal/detect"
	"github.com/quantmind-br/jdkinfo/internal/fsops"
	"github.com/quantmind-br/jdkinfo/internal/helpers"
	"github.com/quantmind-br/jdkinfo/internal/jdk"
	"github.com/quantmind-br/jdkinfo/internal/security"
	"github.com/quantmind-br/jdkinfo/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// doctorEnv holds what the diagnostics touch, replaceable in tests
type doctorEnv struct {
	fs         afero.Fs
	runner     helpers.CommandRunner
	prober     core.Prober
	getenv     func(string) string
	configFile string
}

// doctorReport collects the problems found by runDoctor
type doctorReport struct {
	issues   []string
	warnings []string
}

func (r *doctorReport) issue(format string, args ...interface{}) {
	r.issues = append(r.issues, fmt.Sprintf(format, args...))
}

func (r *doctorReport) warn(format string, args ...interface{}) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

// NewDoctorCmd creates the doctor command
func NewDoctorCmd(cfg *config.Config, src *config.Source, log *zerolog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and detection prerequisites",
		Long:  `Check the configuration, data directories, history database, search locations and JAVA_HOME.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env := doctorEnv{
				fs:     afero.NewOsFs(),
				runner: helpers.NewOSCommandRunner(),
				prober: jdk.NewDetector(log),
				getenv: os.Getenv,
			}
			if src != nil {
				env.configFile = src.ConfigFile()
			}

			report := runDoctor(cmd.Context(), cfg, env)

			ui.PrintHeader("Summary")
			fmt.Println()

			if len(report.issues) == 0 {
				ui.PrintSuccess("All critical checks passed!")
			} else {
				ui.PrintError("Found %d issue(s):", len(report.issues))
				ui.PrintList(report.issues)
				fmt.Println()
			}

			if len(report.warnings) > 0 {
				ui.PrintWarning("Found %d warning(s):", len(report.warnings))
				ui.PrintList(report.warnings)
			}

			if len(report.issues) > 0 {
				return fmt.Errorf("system check failed with %d issue(s)", len(report.issues))
			}
			return nil
		},
	}

	return cmd
}

// runDoctor prints each check section and returns what failed
func runDoctor(ctx context.Context, cfg *config.Config, env doctorEnv) doctorReport {
	var report doctorReport

	ui.PrintHeader("System Diagnostics")
	fmt.Println()

	ui.PrintSubheader("Configuration")
	if env.configFile != "" {
		ui.PrintSuccess("Config file: %s", env.configFile)
	} else {
		ui.PrintInfo("Config file: none (using defaults)")
	}
	ui.PrintKeyValue("Depth", fmt.Sprintf("%d", cfg.Detect.Depth))
	ui.PrintKeyValue("Multiple", fmt.Sprintf("%t", cfg.Detect.Multiple))
	ui.PrintKeyValue("Interval", cfg.Detect.Interval.String())
	fmt.Println()

	ui.PrintSubheader("Directory Structure")
	dirs := []struct {
		path string
		name string
	}{
		{cfg.Paths.DataDir, "Data directory"},
		{filepath.Dir(cfg.Paths.DBFile), "Database directory"},
		{filepath.Dir(cfg.Paths.LogFile), "Log directory"},
	}
	for _, dir := range dirs {
		if err := checkDirectory(env.fs, dir.path); err != nil {
			ui.PrintError("%s: NOT ACCESSIBLE (%s)", dir.name, dir.path)
			report.issue("Directory not accessible: %s (%v)", dir.path, err)
		} else {
			ui.PrintSuccess("%s: %s", dir.name, dir.path)
		}
	}
	fmt.Println()

	ui.PrintSubheader("Database")
	checkDatabase(ctx, cfg, &report)
	fmt.Println()

	ui.PrintSubheader("Search Locations")
	checkSearchLocations(cfg, env, &report)
	fmt.Println()

	ui.PrintSubheader("Environment")
	checkJavaHome(ctx, env, &report)

	if path, err := env.runner.LookPath("java"); err == nil {
		ui.PrintSuccess("java on PATH: %s", path)
	} else {
		ui.PrintInfo("java on PATH: not found")
	}
	fmt.Println()

	return report
}

// checkDirectory creates path when missing and verifies it is writable
func checkDirectory(fs afero.Fs, path string) error {
	if path == "" || path == "." {
		return errors.New("not configured")
	}
	if err := fsops.EnsureDir(fs, path, 0755); err != nil {
		return err
	}
	return fsops.CheckWritable(fs, path)
}

func checkDatabase(ctx context.Context, cfg *config.Config, report *doctorReport) {
	database, err := db.New(ctx, cfg.Paths.DBFile)
	if err != nil {
		ui.PrintError("Database: NOT ACCESSIBLE")
		report.issue("Cannot open database: %v", err)
		return
	}
	defer database.Close()

	if err := database.Ping(ctx); err != nil {
		ui.PrintError("Database: NOT RESPONDING")
		report.issue("Database ping failed: %v", err)
		return
	}
	ui.PrintSuccess("Database: accessible (%s)", cfg.Paths.DBFile)

	snap, err := database.Latest(ctx)
	switch {
	case errors.Is(err, db.ErrNoSnapshots):
		ui.PrintInfo("No scan recorded yet")
		report.warn("No scan recorded; run 'jdkinfo scan'")
	case err != nil:
		ui.PrintWarning("Cannot read latest scan: %v", err)
		report.warn("Cannot read latest scan")
	default:
		ui.PrintInfo("Last scan: %s, %s", snap.TakenAt.Local().Format("2006-01-02 15:04"), summaryLine(*snap))
	}
}

func checkSearchLocations(cfg *config.Config, env doctorEnv, report *doctorReport) {
	platform := detect.DefaultPlatform(runtime.GOOS, cfg.Detect.Depth, env.getenv)
	cands, err := detect.ComputeCandidates(cfg.Java.SearchPaths, platform)
	if err != nil {
		ui.PrintError("Cannot enumerate search locations: %v", err)
		report.issue("Search locations: %v", err)
		return
	}

	existing := 0
	for _, c := range cands {
		if c.Kind != core.CandidatePath {
			continue
		}
		if fsops.IsDir(env.fs, c.Dir) {
			existing++
			ui.PrintSuccess("%s", c.Dir)
		} else {
			ui.PrintInfo("%s (missing)", c.Dir)
		}
	}
	for i, p := range cfg.Java.SearchPaths {
		if !fsops.IsDir(env.fs, p) {
			report.warn("Configured search path does not exist: %s", p)
		}
		for j, other := range cfg.Java.SearchPaths {
			if i == j || p == other {
				continue
			}
			if nested, err := security.IsPathWithinDirectory(p, other); err == nil && nested {
				report.warn("Search path %s lies inside %s and may be probed twice", p, other)
			}
		}
	}
	if existing == 0 && env.getenv(detect.EnvHint) == "" {
		report.warn("No search location exists and %s is not set", detect.EnvHint)
	}
}

func checkJavaHome(ctx context.Context, env doctorEnv, report *doctorReport) {
	home := env.getenv(detect.EnvHint)
	if home == "" {
		ui.PrintInfo("%s: not set", detect.EnvHint)
		return
	}

	inst, err := env.prober.Probe(ctx, home)
	switch {
	case errors.Is(err, core.ErrNotInstallation):
		ui.PrintWarning("%s: %s is not a JDK", detect.EnvHint, home)
		report.warn("%s does not point at a JDK: %s", detect.EnvHint, home)
	case err != nil:
		ui.PrintWarning("%s: %v", detect.EnvHint, err)
		report.warn("%s could not be probed: %v", detect.EnvHint, err)
	default:
		ui.PrintSuccess("%s: %s (%s)", detect.EnvHint, inst.Path, versionLabel(*inst))
	}
}
