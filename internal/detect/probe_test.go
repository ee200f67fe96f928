package detect

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/quantmind-br/jdkinfo/internal/core"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
)

func newRunner(fs afero.Fs, prober core.Prober, multiple bool) *ProbeRunner {
	return &ProbeRunner{Prober: prober, Fs: fs, Multiple: multiple, Timeout: time.Second, Concurrency: 2}
}

func TestProbeRunnerMultiple(t *testing.T) {
	fs := afero.NewMemMapFs()
	mkdirs(t, fs, "/opt/jdk-8/bin", "/opt/jdk-11/bin", "/opt/tools/jdk-17")

	prober := newFakeProber()
	prober.add("/opt/jdk-8", "1.8.0", 202, "x64")
	prober.add("/opt/jdk-11", "11.0.2", 7, "x64")
	prober.add("/opt/tools/jdk-17", "17.0.1", 12, "x64")

	found := newRunner(fs, prober, true).Run(context.Background(), "/opt", 1)
	// jdk-17 is two levels down
	assert.Equal(t, []string{"/opt/jdk-11", "/opt/jdk-8"}, paths(found))

	found = newRunner(fs, prober, true).Run(context.Background(), "/opt", 2)
	assert.Equal(t, []string{"/opt/jdk-11", "/opt/jdk-8", "/opt/tools/jdk-17"}, paths(found))
}

func TestProbeRunnerDoesNotDescendIntoMatch(t *testing.T) {
	fs := afero.NewMemMapFs()
	mkdirs(t, fs, "/opt/jdk-11/bin", "/opt/jdk-11/jre")

	prober := newFakeProber()
	prober.add("/opt/jdk-11", "11.0.2", 7, "x64")
	prober.add("/opt/jdk-11/jre", "11.0.2", 7, "x64")

	found := newRunner(fs, prober, true).Run(context.Background(), "/opt/jdk-11", 1)
	assert.Equal(t, []string{"/opt/jdk-11"}, paths(found))
}

func TestProbeRunnerSingle(t *testing.T) {
	fs := afero.NewMemMapFs()
	mkdirs(t, fs, "/opt/a", "/opt/b")

	prober := newFakeProber()
	prober.add("/opt/a", "11", 0, "x64")
	prober.add("/opt/b", "17", 0, "x64")

	found := newRunner(fs, prober, false).Run(context.Background(), "/opt", 1)
	assert.Equal(t, []string{"/opt/a"}, paths(found))
}

func TestProbeRunnerMissingDirectory(t *testing.T) {
	found := newRunner(afero.NewMemMapFs(), newFakeProber(), true).Run(context.Background(), "/nope", 1)
	assert.Empty(t, found)
}

func TestProbeRunnerTransientFailures(t *testing.T) {
	fs := afero.NewMemMapFs()
	mkdirs(t, fs, "/opt/broken", "/opt/jdk-11")

	prober := newFakeProber()
	prober.errs["/opt/broken"] = errors.New("permission denied")
	prober.add("/opt/jdk-11", "11.0.2", 7, "x64")

	found := newRunner(fs, prober, true).Run(context.Background(), "/opt", 1)
	assert.Equal(t, []string{"/opt/jdk-11"}, paths(found))
}

func TestProbeRunnerTimeout(t *testing.T) {
	fs := afero.NewMemMapFs()
	mkdirs(t, fs, "/opt/hang")

	block := make(chan struct{})
	t.Cleanup(func() { close(block) })
	hang := core.ProberFunc(func(context.Context, string) (*core.Installation, error) {
		<-block
		return nil, core.ErrNotInstallation
	})

	runner := newRunner(fs, hang, true)
	runner.Timeout = 20 * time.Millisecond

	start := time.Now()
	found := runner.Run(context.Background(), "/opt/hang", 0)
	assert.Empty(t, found)
	assert.Less(t, time.Since(start), time.Second)
}

func TestProbeRunnerRunAll(t *testing.T) {
	fs := afero.NewMemMapFs()
	mkdirs(t, fs, "/a/jdk-17", "/b/jdk-8", "/home/me/jdk-11")

	prober := newFakeProber()
	prober.add("/a/jdk-17", "17.0.1", 0, "x64")
	prober.add("/b/jdk-8", "1.8.0", 202, "x64")
	prober.add("/home/me/jdk-11", "11.0.2", 7, "x64")

	runner := newRunner(fs, prober, true)
	runner.Getenv = func(k string) string {
		if k == "JAVA_HOME" {
			return "/home/me/jdk-11"
		}
		return ""
	}

	cands := []core.Candidate{
		{Kind: core.CandidatePath, Dir: "/a", Depth: 1},
		{Kind: core.CandidatePath, Dir: "/b", Depth: 1},
		{Kind: core.CandidateEnvHint, EnvVar: "JAVA_HOME"},
		{Kind: core.CandidateEnvHint, EnvVar: "UNSET_HOME"},
	}

	found, designated := runner.RunAll(context.Background(), cands)
	assert.Equal(t, []string{"/a/jdk-17", "/b/jdk-8", "/home/me/jdk-11"}, paths(found))
	assert.Equal(t, "/home/me/jdk-11", designated)
}

func TestProbeRunnerEnvHintParentDirectory(t *testing.T) {
	fs := afero.NewMemMapFs()
	mkdirs(t, fs, "/usr/lib/jvm/java-11", "/usr/lib/jvm/java-17", "/usr/lib/jvm/java-17/nested/jdk-21")

	prober := newFakeProber()
	prober.add("/usr/lib/jvm/java-11", "11.0.2", 7, "x64")
	prober.add("/usr/lib/jvm/java-17", "17.0.1", 12, "x64")
	prober.add("/usr/lib/jvm/java-17/nested/jdk-21", "21.0.1", 0, "x64")

	runner := newRunner(fs, prober, true)
	runner.Getenv = func(string) string { return "/usr/lib/jvm" }
	hint := []core.Candidate{{Kind: core.CandidateEnvHint, EnvVar: "JAVA_HOME", Depth: 1}}

	found, designated := runner.RunAll(context.Background(), hint)
	assert.Equal(t, []string{"/usr/lib/jvm/java-11", "/usr/lib/jvm/java-17"}, paths(found))
	assert.Empty(t, designated, "a parent directory designates nothing")

	runner.Multiple = false
	found, designated = runner.RunAll(context.Background(), hint)
	assert.Equal(t, []string{"/usr/lib/jvm/java-11"}, paths(found))
	assert.Empty(t, designated)

	found, _ = newRunnerWithEnv(fs, prober, "/usr/lib/jvm").RunAll(context.Background(),
		[]core.Candidate{{Kind: core.CandidateEnvHint, EnvVar: "JAVA_HOME"}})
	assert.Empty(t, found, "depth 0 probes only the directory itself")
}

func newRunnerWithEnv(fs afero.Fs, prober core.Prober, javaHome string) *ProbeRunner {
	runner := newRunner(fs, prober, true)
	runner.Getenv = func(string) string { return javaHome }
	return runner
}

func TestProbeRunnerEnvHintMismatch(t *testing.T) {
	runner := newRunner(afero.NewMemMapFs(), newFakeProber(), true)
	runner.Getenv = func(string) string { return "/usr/local/not-a-jdk" }

	found, designated := runner.RunAll(context.Background(), []core.Candidate{{Kind: core.CandidateEnvHint, EnvVar: "JAVA_HOME"}})
	assert.Empty(t, found)
	assert.Empty(t, designated)
}
