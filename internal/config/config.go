package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/quantmind-br/jdkinfo/internal/security"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const (
	appName   = "jdkinfo"
	envPrefix = "JDKINFO"

	keySearchPaths = "java.search_paths"
)

// Config represents the application configuration
type Config struct {
	Java    JavaConfig    `mapstructure:"java"`
	Detect  DetectConfig  `mapstructure:"detect"`
	Paths   PathsConfig   `mapstructure:"paths"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// JavaConfig holds the user-supplied JDK search locations
type JavaConfig struct {
	SearchPaths []string `mapstructure:"search_paths"`
}

// DetectConfig tunes the detection engine
type DetectConfig struct {
	Multiple     bool          `mapstructure:"multiple"`
	Depth        int           `mapstructure:"depth"`
	Interval     time.Duration `mapstructure:"interval"`
	Debounce     time.Duration `mapstructure:"debounce"`
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
	Concurrency  int           `mapstructure:"concurrency"`
	Watch        bool          `mapstructure:"watch"`
}

// PathsConfig contains path-related configuration
type PathsConfig struct {
	DataDir string `mapstructure:"data_dir"`
	DBFile  string `mapstructure:"db_file"`
	LogFile string `mapstructure:"log_file"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	Color string `mapstructure:"color"`
}

// Source reads configuration from a TOML file and the environment and can
// follow later edits to the file.
type Source struct {
	v *viper.Viper

	mu        sync.Mutex
	last      []string
	listeners map[int]func([]string)
	nextID    int
	watching  bool
	logger    *zerolog.Logger
}

// NewSource creates a source searching dirs for config.toml. With no dirs
// it searches ~/.config/jdkinfo and the working directory.
func NewSource(dirs ...string) *Source {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")

	if len(dirs) == 0 {
		dirs = defaultDirs()
	}
	for _, dir := range dirs {
		v.AddConfigPath(dir)
	}

	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Source{v: v, listeners: make(map[int]func([]string))}
}

// Load loads configuration from the default locations and environment
func Load() (*Config, error) {
	return NewSource().Load()
}

// Load reads the config file (if any) and returns the merged configuration
func (s *Source) Load() (*Config, error) {
	if err := s.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file not found - use defaults
	}

	cfg, err := s.decode()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.last = cfg.Java.SearchPaths
	s.mu.Unlock()

	return cfg, nil
}

// ConfigFile returns the file in use, or "" when running on defaults
func (s *Source) ConfigFile() string {
	return s.v.ConfigFileUsed()
}

// OnSearchPathsChange registers fn for edits that change java.search_paths.
// The first registration starts watching the config file; without a config
// file there is nothing to watch and fn is never called.
func (s *Source) OnSearchPathsChange(fn func(paths []string)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.listeners[id] = fn

	if !s.watching && s.v.ConfigFileUsed() != "" {
		s.watching = true
		s.v.OnConfigChange(s.handleChange)
		s.v.WatchConfig()
	}

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// SetLogger sets where rejected config edits are reported
func (s *Source) SetLogger(log *zerolog.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = log
}

func (s *Source) handleChange(e fsnotify.Event) {
	cfg, err := s.decode()
	if err != nil {
		s.mu.Lock()
		log := s.logger
		s.mu.Unlock()
		if log != nil {
			log.Warn().Err(err).Str("file", e.Name).Msg("config edit ignored; keeping previous search paths")
		}
		return
	}
	s.notifyIfChanged(cfg.Java.SearchPaths)
}

func (s *Source) notifyIfChanged(paths []string) {
	s.mu.Lock()
	if slices.Equal(s.last, paths) {
		s.mu.Unlock()
		return
	}
	s.last = paths

	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func([]string), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.listeners[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(slices.Clone(paths))
	}
}

func (s *Source) decode() (*Config, error) {
	var cfg Config
	if err := s.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Paths.DataDir = expandPath(cfg.Paths.DataDir)
	cfg.Paths.DBFile = expandPath(cfg.Paths.DBFile)
	cfg.Paths.LogFile = expandPath(cfg.Paths.LogFile)

	paths := make([]string, 0, len(cfg.Java.SearchPaths))
	for _, p := range cfg.Java.SearchPaths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		if err := security.ValidatePath(p); err != nil {
			return nil, fmt.Errorf("invalid %s entry: %w", keySearchPaths, err)
		}
		paths = append(paths, security.SanitizePath(expandPath(strings.TrimSpace(p))))
	}
	cfg.Java.SearchPaths = paths

	return &cfg, nil
}

func defaultDirs() []string {
	var dirs []string
	if homeDir, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(homeDir, ".config", appName))
	}
	return append(dirs, ".")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		homeDir = os.Getenv("HOME")
	}
	if homeDir == "" {
		homeDir = "."
	}
	dataDir := filepath.Join(homeDir, ".local", "share", appName)

	v.SetDefault(keySearchPaths, []string{})

	v.SetDefault("detect.multiple", true)
	v.SetDefault("detect.depth", 1)
	v.SetDefault("detect.interval", "5m")
	v.SetDefault("detect.debounce", "500ms")
	v.SetDefault("detect.probe_timeout", "5s")
	v.SetDefault("detect.concurrency", 4)
	v.SetDefault("detect.watch", true)

	v.SetDefault("paths.data_dir", dataDir)
	v.SetDefault("paths.db_file", filepath.Join(dataDir, "history.db"))
	v.SetDefault("paths.log_file", filepath.Join(dataDir, appName+".log"))

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.color", "auto")
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(homeDir, path[1:])
		}
	}

	return os.ExpandEnv(path)
}
