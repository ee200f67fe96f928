package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/quantmind-br/jdkinfo/internal/config"
	"github.com/quantmind-br/jdkinfo/internal/core"
	"github.com/quantmind-br/jdkinfo/internal/db"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// testConfig returns a config whose data lives under a temp dir
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dataDir := t.TempDir()
	return &config.Config{
		Detect: config.DetectConfig{Multiple: true, Depth: 1},
		Paths: config.PathsConfig{
			DataDir: dataDir,
			DBFile:  filepath.Join(dataDir, "history.db"),
			LogFile: filepath.Join(dataDir, "jdkinfo.log"),
		},
	}
}

func discardLogger() *zerolog.Logger {
	log := zerolog.New(io.Discard)
	return &log
}

// fakeJDK lays out a JDK home under parent with a release file
func fakeJDK(t *testing.T, parent, name, version, arch string) string {
	t.Helper()
	home := filepath.Join(parent, name)
	require.NoError(t, os.MkdirAll(filepath.Join(home, "bin"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(home, "bin", "javac"), []byte("#!/bin/sh\n"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(home, "bin", "java"), []byte("#!/bin/sh\n"), 0755))

	release := "JAVA_VERSION=\"" + version + "\"\nOS_ARCH=\"" + arch + "\"\nIMPLEMENTOR=\"Test Vendor\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(home, "release"), []byte(release), 0644))

	resolved, err := filepath.EvalSymlinks(home)
	require.NoError(t, err)
	return resolved
}

// execute runs cmd with args and returns what it wrote to its output
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// seedSnapshot records snap in the configured history database
func seedSnapshot(t *testing.T, cfg *config.Config, snap core.Snapshot) {
	t.Helper()
	ctx := context.Background()
	database, err := db.New(ctx, cfg.Paths.DBFile)
	require.NoError(t, err)
	defer database.Close()

	if snap.TakenAt.IsZero() {
		snap.TakenAt = time.Now()
	}
	_, err = database.SaveSnapshot(ctx, snap)
	require.NoError(t, err)
}

func sampleSnapshot() core.Snapshot {
	return core.Snapshot{
		Seq:         3,
		TakenAt:     time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
		DefaultPath: "/usr/lib/jvm/java-17-openjdk",
		Installations: []core.Installation{
			{Path: "/usr/lib/jvm/java-8-openjdk", Version: core.Version{Major: 1, Minor: 8}, Build: 202, Arch: "x64"},
			{Path: "/usr/lib/jvm/java-11-openjdk", Version: core.Version{Major: 11, Patch: 2}, Build: 7, Arch: "x64"},
			{Path: "/usr/lib/jvm/java-11-openjdk-new", Version: core.Version{Major: 11, Patch: 20}, Arch: "x64"},
			{Path: "/usr/lib/jvm/java-17-openjdk", Version: core.Version{Major: 17, Patch: 1}, Arch: "x64", IsDefault: true, Vendor: "Eclipse Adoptium"},
			{Path: "/opt/graalvm-21", Version: core.Version{Major: 21, Qualifier: "ea"}, Build: 19, Arch: "arm64"},
		},
	}
}
