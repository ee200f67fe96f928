package config

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := NewSource(t.TempDir()).Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.Java.SearchPaths)
	assert.True(t, cfg.Detect.Multiple)
	assert.Equal(t, 1, cfg.Detect.Depth)
	assert.Equal(t, 5*time.Minute, cfg.Detect.Interval)
	assert.Equal(t, 500*time.Millisecond, cfg.Detect.Debounce)
	assert.Equal(t, 5*time.Second, cfg.Detect.ProbeTimeout)
	assert.Equal(t, 4, cfg.Detect.Concurrency)
	assert.True(t, cfg.Detect.Watch)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NotEmpty(t, cfg.Paths.DataDir)
	assert.Equal(t, "history.db", filepath.Base(cfg.Paths.DBFile))
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[java]
search_paths = ["/opt/jdks", "  ", "~/jdks"]

[detect]
multiple = false
depth = 2
interval = "1m"
probe_timeout = "2s"

[logging]
level = "debug"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o644))

	src := NewSource(dir)
	cfg, err := src.Load()
	require.NoError(t, err)

	homeDir, _ := os.UserHomeDir()
	assert.Equal(t, []string{"/opt/jdks", filepath.Join(homeDir, "jdks")}, cfg.Java.SearchPaths)
	assert.False(t, cfg.Detect.Multiple)
	assert.Equal(t, 2, cfg.Detect.Depth)
	assert.Equal(t, time.Minute, cfg.Detect.Interval)
	assert.Equal(t, 2*time.Second, cfg.Detect.ProbeTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, filepath.Join(dir, "config.toml"), src.ConfigFile())
}

func TestLoadInvalidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[java\nbroken"), 0o644))

	_, err := NewSource(dir).Load()
	assert.Error(t, err)
}

func TestLoadRejectsInvalidSearchPath(t *testing.T) {
	dir := t.TempDir()
	content := "[java]\nsearch_paths = [\"/opt/jdk\\n/usr\"]\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o644))

	_, err := NewSource(dir).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "java.search_paths")
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("JDKINFO_LOGGING_LEVEL", "warn")
	t.Setenv("JDKINFO_DETECT_DEPTH", "3")

	cfg, err := NewSource(t.TempDir()).Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 3, cfg.Detect.Depth)
}

func TestNotifyOnlyOnChange(t *testing.T) {
	src := NewSource(t.TempDir())
	_, err := src.Load()
	require.NoError(t, err)

	var mu sync.Mutex
	var got [][]string
	unsubscribe := src.OnSearchPathsChange(func(paths []string) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, paths)
	})

	src.notifyIfChanged([]string{})
	src.notifyIfChanged([]string{"/opt"})
	src.notifyIfChanged([]string{"/opt"})
	src.notifyIfChanged([]string{"/opt", "/usr/lib/jvm"})

	unsubscribe()
	src.notifyIfChanged([]string{"/srv"})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, [][]string{{"/opt"}, {"/opt", "/usr/lib/jvm"}}, got)
}

func TestWatchConfigFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(file, []byte("[java]\nsearch_paths = [\"/opt\"]\n"), 0o644))

	src := NewSource(dir)
	_, err := src.Load()
	require.NoError(t, err)

	changes := make(chan []string, 4)
	defer src.OnSearchPathsChange(func(paths []string) { changes <- paths })()

	require.NoError(t, os.WriteFile(file, []byte("[java]\nsearch_paths = [\"/opt\", \"/srv/jdks\"]\n"), 0o644))

	select {
	case paths := <-changes:
		assert.Equal(t, []string{"/opt", "/srv/jdks"}, paths)
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
	}
}

func TestInvalidEditIsReportedAndIgnored(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(file, []byte("[java]\nsearch_paths = [\"/opt\"]\n"), 0o644))

	src := NewSource(dir)
	_, err := src.Load()
	require.NoError(t, err)

	var buf bytes.Buffer
	log := zerolog.New(&buf)
	src.SetLogger(&log)

	var calls int
	src.listeners[1] = func([]string) { calls++ }

	require.NoError(t, os.WriteFile(file, []byte("[java]\nsearch_paths = [\"/opt\\n/srv\"]\n"), 0o644))
	require.NoError(t, src.v.ReadInConfig())
	src.handleChange(fsnotify.Event{Name: file, Op: fsnotify.Write})

	assert.Equal(t, 0, calls)
	assert.Contains(t, buf.String(), "config edit ignored")
	assert.Contains(t, buf.String(), "java.search_paths")
	assert.Equal(t, []string{"/opt"}, src.last)
}

func TestExpandPath(t *testing.T) {
	homeDir, _ := os.UserHomeDir()
	t.Setenv("JDKINFO_TEST_DIR", "/srv")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty path", "", ""},
		{"absolute path", "/usr/local/bin", "/usr/local/bin"},
		{"home expansion", "~/test", filepath.Join(homeDir, "test")},
		{"env expansion", "$JDKINFO_TEST_DIR/jdks", "/srv/jdks"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expandPath(tt.input))
		})
	}
}
