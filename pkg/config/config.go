// Package config handles loading and saving dualview configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/dualview/config.yaml
//   - State:   ~/.local/state/dualview/ (saved layouts)
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"

	"github.com/joshuapare/dualview/internal/logger"
	"github.com/joshuapare/dualview/internal/loop"
	"github.com/joshuapare/dualview/pkg/provider"
	"github.com/joshuapare/dualview/pkg/types"
	"github.com/joshuapare/dualview/view"
)

const appName = "dualview"

// TreeConfig holds settings of the tree pane.
type TreeConfig struct {
	SyncPolicy string        `yaml:"sync_policy,omitempty"` // none, existing-accessible, ..., full
	Minitree   bool          `yaml:"minitree"`
	ShowHidden bool          `yaml:"show_hidden,omitempty"`
	Watchdog   time.Duration `yaml:"watchdog,omitempty"` // e.g. 300ms
	Roots      []string      `yaml:"roots,omitempty"`
}

// ListConfig holds settings of the list pane.
type ListConfig struct {
	ShowHidden bool `yaml:"show_hidden,omitempty"`
}

// LogConfig controls the file logger.
type LogConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Dir     string `yaml:"dir,omitempty"`
	Level   string `yaml:"level,omitempty"`
}

// Config is the top-level configuration.
type Config struct {
	Tree    TreeConfig `yaml:"tree"`
	List    ListConfig `yaml:"list,omitempty"`
	Workers int        `yaml:"workers,omitempty"` // concurrent provider jobs
	Log     LogConfig  `yaml:"log,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Tree: TreeConfig{
			SyncPolicy: types.SyncExpandableWithFetch.String(),
			Minitree:   true,
			Watchdog:   view.DefaultWatchdogDelay,
			Roots:      []string{"/"},
		},
		Workers: loop.DefaultWorkers,
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ConfigDir returns the XDG config directory.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// StateDir returns the XDG state directory.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", appName)
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// LayoutPath returns where the explorer keeps its saved layout.
func LayoutPath() string {
	dir := StateDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "layout.json")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	for i := range cfg.Tree.Roots {
		cfg.Tree.Roots[i] = expandHome(cfg.Tree.Roots[i])
	}
	cfg.Log.Dir = expandHome(cfg.Log.Dir)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path. The file is replaced
// atomically.
func SaveTo(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := atomic.WriteFile(path, strings.NewReader(string(data))); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if _, err := c.Policy(); err != nil {
		errs = append(errs, fmt.Errorf("tree.sync_policy: %w", err))
	}
	if c.Tree.Watchdog < 0 {
		errs = append(errs, fmt.Errorf("tree.watchdog: must not be negative, got %s", c.Tree.Watchdog))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers: must not be negative, got %d", c.Workers))
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}
	return errors.Join(errs...)
}

// Policy parses the tree sync policy. An empty value means the default.
func (c Config) Policy() (types.SyncPolicy, error) {
	if c.Tree.SyncPolicy == "" {
		return types.SyncExpandableWithFetch, nil
	}
	return types.ParseSyncPolicy(c.Tree.SyncPolicy)
}

// LoggerOptions converts the log section.
func (c Config) LoggerOptions() logger.Options {
	return logger.Options{
		Enabled: c.Log.Enabled,
		LogDir:  c.Log.Dir,
		Level:   logger.ParseLevel(c.Log.Level),
	}
}

// TreeOptions builds the options of the tree pane.
func (c Config) TreeOptions(r loop.Runner, reg *provider.Registry) view.Options {
	policy, err := c.Policy()
	if err != nil {
		policy = types.SyncExpandableWithFetch
	}
	return view.Options{
		Name:          "tree",
		Mode:          types.ModeTree,
		Minitree:      c.Tree.Minitree,
		ShowHidden:    c.Tree.ShowHidden,
		SyncPolicy:    policy,
		WatchdogDelay: c.Tree.Watchdog,
		Runner:        r,
		Registry:      reg,
	}
}

// ListOptions builds the options of the list pane.
func (c Config) ListOptions(r loop.Runner, reg *provider.Registry) view.Options {
	return view.Options{
		Name:       "list",
		Mode:       types.ModeList,
		ShowHidden: c.List.ShowHidden,
		Runner:     r,
		Registry:   reg,
	}
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
