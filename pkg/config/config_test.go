package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/dualview/internal/loop"
	"github.com/joshuapare/dualview/pkg/provider"
	"github.com/joshuapare/dualview/pkg/types"
	"github.com/joshuapare/dualview/view"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "expandable-with-fetch", cfg.Tree.SyncPolicy)
	assert.True(t, cfg.Tree.Minitree)
	assert.Equal(t, 300*time.Millisecond, cfg.Tree.Watchdog)
	assert.Equal(t, []string{"/"}, cfg.Tree.Roots)
	assert.Equal(t, loop.DefaultWorkers, cfg.Workers)
	require.NoError(t, cfg.Validate())
}

func TestLoadFrom_NonExistent(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFrom_ValidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
tree:
  sync_policy: full
  minitree: false
  show_hidden: true
  watchdog: 1s
  roots:
    - ~/src
    - /etc
list:
  show_hidden: true
workers: 8
log:
  enabled: true
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	home, _ := os.UserHomeDir()
	assert.Equal(t, "full", cfg.Tree.SyncPolicy)
	assert.False(t, cfg.Tree.Minitree)
	assert.True(t, cfg.Tree.ShowHidden)
	assert.Equal(t, time.Second, cfg.Tree.Watchdog)
	assert.Equal(t, []string{filepath.Join(home, "src"), "/etc"}, cfg.Tree.Roots)
	assert.True(t, cfg.List.ShowHidden)
	assert.Equal(t, 8, cfg.Workers)
	assert.True(t, cfg.Log.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadFrom_PartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: 2\n"), 0o644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Workers)
	assert.True(t, cfg.Tree.Minitree)
	assert.Equal(t, "expandable-with-fetch", cfg.Tree.SyncPolicy)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad yaml", "tree: [\n", "parsing config"},
		{"bad policy", "tree:\n  sync_policy: sometimes\n", "tree.sync_policy"},
		{"negative workers", "workers: -1\n", "workers"},
		{"bad level", "log:\n  level: loud\n", "log.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			_, err := LoadFrom(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSaveTo_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Tree.SyncPolicy = "existing-accessible"
	cfg.Tree.Watchdog = 750 * time.Millisecond
	cfg.Workers = 3

	require.NoError(t, SaveTo(cfg, path))
	got, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestConfigPathXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
	t.Setenv("XDG_STATE_HOME", "/tmp/xdg-state")
	assert.Equal(t, "/tmp/xdg-config/dualview/config.yaml", ConfigPath())
	assert.Equal(t, "/tmp/xdg-state/dualview/layout.json", LayoutPath())
}

func TestViewOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tree.SyncPolicy = "full"
	cfg.List.ShowHidden = true
	run := loop.NewManual()
	reg := provider.NewRegistry()

	to := cfg.TreeOptions(run, reg)
	assert.Equal(t, types.ModeTree, to.Mode)
	assert.Equal(t, types.SyncFull, to.SyncPolicy)
	assert.True(t, to.Minitree)
	assert.Equal(t, view.DefaultWatchdogDelay, to.WatchdogDelay)

	lo := cfg.ListOptions(run, reg)
	assert.Equal(t, types.ModeList, lo.Mode)
	assert.True(t, lo.ShowHidden)

	_, err := view.New(to)
	require.NoError(t, err)
}
