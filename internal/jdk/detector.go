// Package jdk recognises a JDK home directory and extracts its version,
// build, architecture and vendor.
package jdk

import (
	"bufio"
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/quantmind-br/jdkinfo/internal/core"
	"github.com/quantmind-br/jdkinfo/internal/fsops"
	"github.com/quantmind-br/jdkinfo/internal/helpers"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// tools lists the executables recorded for each installation
var tools = []string{"java", "javac", "jar", "javadoc", "jshell", "jlink", "keytool", "jarsigner"}

var (
	versionLine = regexp.MustCompile(`(?:java|openjdk) version "([^"]+)"`)
	buildLine   = regexp.MustCompile(`\(build ([^)]+)\)`)
)

// Detector probes directories for JDK installations
type Detector struct {
	fs     afero.Fs
	runner helpers.CommandRunner
	goos   string
	logger *zerolog.Logger
}

// NewDetector creates a Detector backed by the real filesystem
func NewDetector(log *zerolog.Logger) *Detector {
	return NewDetectorWithDeps(afero.NewOsFs(), helpers.NewOSCommandRunner(), runtime.GOOS, log)
}

// NewDetectorWithDeps creates a Detector with explicit dependencies (useful for tests)
func NewDetectorWithDeps(fs afero.Fs, runner helpers.CommandRunner, goos string, log *zerolog.Logger) *Detector {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &Detector{fs: fs, runner: runner, goos: goos, logger: log}
}

// Probe implements core.Prober. It returns core.ErrNotInstallation when dir
// has no javac.
func (d *Detector) Probe(ctx context.Context, dir string) (*core.Installation, error) {
	home := dir
	if d.goos == "darwin" {
		// macOS bundles keep the JDK home under Contents/Home
		if bundled := filepath.Join(dir, "Contents", "Home"); fsops.IsDir(d.fs, bundled) {
			home = bundled
		}
	}

	if !fsops.IsFile(d.fs, d.exePath(home, "javac")) {
		return nil, core.ErrNotInstallation
	}

	inst := &core.Installation{
		Path:        fsops.Canonical(d.fs, home),
		Executables: d.findExecutables(home),
		Metadata:    map[string]string{},
	}

	release, err := d.readRelease(home)
	if err != nil {
		d.logger.Debug().Err(err).Str("path", home).Msg("no readable release file")
	}
	for k, v := range release {
		inst.Metadata[k] = v
	}

	versionFound := false
	for _, key := range []string{"JAVA_RUNTIME_VERSION", "JAVA_VERSION"} {
		raw, ok := release[key]
		if !ok {
			continue
		}
		version, build, err := core.ParseJavaVersion(raw)
		if err != nil {
			d.logger.Debug().Err(err).Str("key", key).Str("path", home).Msg("unparseable release version")
			continue
		}
		inst.Version, inst.Build = version, build
		versionFound = true
		break
	}

	inst.Vendor = release["IMPLEMENTOR"]
	inst.Arch = NormalizeArch(release["OS_ARCH"])

	if !versionFound || inst.Arch == "" {
		if err := d.queryJava(ctx, home, inst, !versionFound); err != nil {
			if !versionFound {
				return nil, fmt.Errorf("determine version of %s: %w", home, err)
			}
			d.logger.Debug().Err(err).Str("path", home).Msg("java -version failed")
		}
	}

	if inst.Arch == "" {
		inst.Arch = "unknown"
	}

	return inst, nil
}

// readRelease parses the KEY="value" lines of <home>/release
func (d *Detector) readRelease(home string) (map[string]string, error) {
	data, err := afero.ReadFile(d.fs, filepath.Join(home, "release"))
	if err != nil {
		return map[string]string{}, err
	}
	return ParseRelease(string(data)), nil
}

// queryJava runs `java -version` to fill in what the release file did not provide
func (d *Detector) queryJava(ctx context.Context, home string, inst *core.Installation, needVersion bool) error {
	java := d.exePath(home, "java")
	if !fsops.IsFile(d.fs, java) {
		return fmt.Errorf("java executable not found")
	}

	stdout, stderr, err := d.runner.RunCommandWithOutput(ctx, java, "-version")
	if err != nil {
		return err
	}

	info, err := ParseVersionOutput(stderr + stdout)
	if err != nil {
		return err
	}

	if needVersion {
		inst.Version, inst.Build = info.Version, info.Build
	}
	if inst.Arch == "" {
		inst.Arch = info.Arch
	}
	if inst.Vendor == "" {
		inst.Vendor = info.Vendor
	}
	return nil
}

func (d *Detector) findExecutables(home string) map[string]string {
	found := make(map[string]string)
	for _, tool := range tools {
		path := d.exePath(home, tool)
		if fsops.IsFile(d.fs, path) {
			found[tool] = path
		}
	}
	return found
}

func (d *Detector) exePath(home, tool string) string {
	if d.goos == "windows" {
		tool += ".exe"
	}
	return filepath.Join(home, "bin", tool)
}

// ParseRelease parses the contents of a JDK release file
func ParseRelease(content string) map[string]string {
	values := make(map[string]string)
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		values[strings.TrimSpace(key)] = strings.Trim(strings.TrimSpace(value), `"`)
	}
	return values
}

// VersionInfo is what `java -version` reports
type VersionInfo struct {
	Version core.Version
	Build   int
	Arch    string
	Vendor  string
}

// ParseVersionOutput parses the combined output of `java -version`
func ParseVersionOutput(output string) (*VersionInfo, error) {
	m := versionLine.FindStringSubmatch(output)
	if m == nil {
		return nil, fmt.Errorf("no version in java output")
	}

	version, build, err := core.ParseJavaVersion(m[1])
	if err != nil {
		return nil, err
	}

	// "(build 11.0.2+9)" carries the build when the version string does not
	if build == 0 {
		if b := buildLine.FindStringSubmatch(output); b != nil {
			if _, n, err := core.ParseJavaVersion(b[1]); err == nil {
				build = n
			}
		}
	}

	info := &VersionInfo{Version: version, Build: build, Arch: "x86"}
	if strings.Contains(output, "64-Bit") {
		info.Arch = "x64"
		if strings.Contains(strings.ToLower(output), "aarch64") {
			info.Arch = "arm64"
		}
	}

	lower := strings.ToLower(output)
	switch {
	case strings.Contains(lower, "temurin") || strings.Contains(lower, "adoptium"):
		info.Vendor = "Eclipse Adoptium"
	case strings.Contains(lower, "corretto"):
		info.Vendor = "Amazon.com Inc."
	case strings.Contains(lower, "zulu"):
		info.Vendor = "Azul Systems, Inc."
	case strings.Contains(lower, "graalvm"):
		info.Vendor = "GraalVM"
	case strings.HasPrefix(lower, "java version"):
		info.Vendor = "Oracle Corporation"
	}

	return info, nil
}

// NormalizeArch maps OS_ARCH/os.arch spellings onto x64, x86, arm64 and arm
func NormalizeArch(arch string) string {
	switch strings.ToLower(strings.TrimSpace(arch)) {
	case "":
		return ""
	case "amd64", "x86_64", "x64":
		return "x64"
	case "i386", "i486", "i586", "i686", "x86":
		return "x86"
	case "aarch64", "arm64":
		return "arm64"
	case "arm", "aarch32", "armv7l":
		return "arm"
	default:
		return strings.ToLower(strings.TrimSpace(arch))
	}
}
